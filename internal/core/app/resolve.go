package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"autosg/internal/core/errors"
	"autosg/internal/engine/encoding"
	"autosg/internal/engine/resolver"
	"autosg/internal/engine/secrets"
)

// Resolve runs a resolution request for one file. A source file is annotated
// in memory from id 0; an annotated output is sent as written, with its
// language taken from the name it was annotated under.
func (a *App) Resolve(ctx context.Context, path, model string, useCache bool) (*resolver.Result, error) {
	if a.resolver == nil {
		return nil, errors.New(errors.CodeInternal, "resolver is not configured")
	}

	var (
		text string
		lang string
	)
	if a.IsAnnotatedOutput(path) {
		lang = a.Languages.Detect(strings.TrimSuffix(path, a.suffix()))
		if lang == "" {
			return nil, errors.AddContext(
				errors.New(errors.CodeUnsupportedLanguage, "no language for annotated file"),
				errors.CtxPath, path,
			)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read annotated file"), errors.CtxPath, path)
		}
		canonical, _, err := encoding.Read(raw)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxPath, path)
		}
		text = string(canonical)
	} else {
		annotated, res, err := a.annotateSource(path, 0)
		if err != nil {
			return nil, err
		}
		text = string(annotated)
		lang = res.Language
	}

	if err := a.checkSecrets(path, text); err != nil {
		return nil, err
	}

	res, err := a.resolver.Resolve(ctx, text, lang, model, useCache)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return res, nil
}

// checkSecrets applies llm.secret_policy to text before it is sent.
func (a *App) checkSecrets(path, text string) error {
	a.mu.RLock()
	policy := strings.ToLower(strings.TrimSpace(a.Config.LLM.SecretPolicy))
	a.mu.RUnlock()
	if policy == secrets.PolicyOff || a.secrets == nil {
		return nil
	}

	findings := a.secrets.Scan(text)
	for _, f := range findings {
		slog.Warn("possible secret in resolution request",
			"path", path,
			"kind", f.Kind,
			"severity", f.Severity,
			"row", f.Row,
			"column", f.Column,
			"value", f.Masked,
		)
	}
	if len(findings) > 0 && policy == secrets.PolicyBlock {
		return errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("refusing to send %d possible secret(s); set llm.secret_policy to warn to override", len(findings))),
			errors.CtxPath, path,
		)
	}
	return nil
}
