package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"autosg/internal/core/errors"
	"autosg/internal/core/ports"
	"autosg/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProtocolVersion tags cache entries. Increment it whenever the prompt or
// the response contract changes so older entries stop matching.
const ProtocolVersion = 2

type Resolver struct {
	completer       ports.Completer
	cache           ports.ResolutionCache
	protocolVersion int
}

type Option func(*Resolver)

// WithProtocolVersion overrides ProtocolVersion for cache keys.
func WithProtocolVersion(v int) Option {
	return func(r *Resolver) { r.protocolVersion = v }
}

// New creates a Resolver. cache may be nil, which disables caching
// regardless of the useCache argument to Resolve.
func New(completer ports.Completer, cache ports.ResolutionCache, opts ...Option) *Resolver {
	r := &Resolver{
		completer:       completer,
		cache:           cache,
		protocolVersion: ProtocolVersion,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SourceHash is the hex sha256 of the annotated text.
func SourceHash(annotated string) string {
	sum := sha256.Sum256([]byte(annotated))
	return hex.EncodeToString(sum[:])
}

func (r *Resolver) Key(annotated, model string) ports.CacheKey {
	return ports.CacheKey{
		SourceHash:      SourceHash(annotated),
		Model:           model,
		ProtocolVersion: r.protocolVersion,
	}
}

// Resolve asks model to link identifier references in annotated to their
// definitions. With useCache, a stored response for the same text, model and
// protocol version is returned without calling the model, and fresh responses
// are stored once they parse. Responses that fail to parse are never stored.
func (r *Resolver) Resolve(ctx context.Context, annotated, lang, model string, useCache bool) (*Result, error) {
	started := time.Now()
	key := r.Key(annotated, model)
	useCache = useCache && r.cache != nil

	ctx, span := observability.Tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(
		attribute.String("language", lang),
		attribute.String("model", model),
		attribute.Int("protocol_version", key.ProtocolVersion),
		attribute.Bool("use_cache", useCache),
	))
	defer span.End()

	if useCache {
		if res, ok := r.lookup(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			observability.ResolveDuration.WithLabelValues("true").Observe(time.Since(started).Seconds())
			return res, nil
		}
	}

	text, err := r.completer.Complete(ctx, model, BuildPrompt(annotated, lang))
	if err != nil {
		outcome := "error"
		if errors.IsCode(err, errors.CodeAuthRequired) {
			outcome = "auth"
		}
		observability.CompletionsTotal.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, errors.AddContext(err, errors.CtxModel, model)
	}

	res, err := ParseResponse(text)
	if err != nil {
		observability.CompletionsTotal.WithLabelValues("parse").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse")
		return nil, errors.AddContext(err, errors.CtxModel, model)
	}
	observability.CompletionsTotal.WithLabelValues("ok").Inc()

	if useCache {
		if err := r.cache.Put(ctx, key, res.Raw); err != nil {
			slog.Warn("failed to store resolution in cache", "model", model, "hash", key.SourceHash, "error", err)
		}
	}
	observability.ResolveDuration.WithLabelValues("false").Observe(time.Since(started).Seconds())
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, key ports.CacheKey) (*Result, bool) {
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		observability.CacheLookupsTotal.WithLabelValues("error").Inc()
		slog.Warn("cache lookup failed, calling model", "model", key.Model, "hash", key.SourceHash, "error", err)
		return nil, false
	}
	if !ok {
		observability.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	res, err := decodeResult(raw)
	if err != nil {
		observability.CacheLookupsTotal.WithLabelValues("error").Inc()
		slog.Warn("ignoring unreadable cache entry", "model", key.Model, "hash", key.SourceHash, "error", err)
		return nil, false
	}
	observability.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return res, true
}

func (r *Resolver) ProtocolVersion() int {
	return r.protocolVersion
}

