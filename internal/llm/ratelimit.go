package llm

import (
	"context"

	"autosg/internal/core/errors"
	"autosg/internal/core/ports"
	"autosg/internal/shared/util"
)

var _ ports.Completer = (*RateLimited)(nil)

// RateLimited paces calls per model id before delegating.
type RateLimited struct {
	next     ports.Completer
	limiters *util.LimiterRegistry
}

func NewRateLimited(next ports.Completer, limiters *util.LimiterRegistry) *RateLimited {
	return &RateLimited{next: next, limiters: limiters}
}

func (r *RateLimited) Complete(ctx context.Context, model, prompt string) (string, error) {
	if err := r.limiters.Get(model).Acquire(ctx); err != nil {
		return "", errors.AddContext(
			errors.Wrap(err, errors.CodeUpstreamFailed, "wait for request slot"),
			errors.CtxModel, model,
		)
	}
	return r.next.Complete(ctx, model, prompt)
}
