package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"autosg/internal/core/errors"
	"autosg/internal/core/ports"

	genai "google.golang.org/genai"
)

const (
	ProviderGemini = "gemini"

	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

var _ ports.Completer = (*GeminiCompleter)(nil)

// GeminiCompleter sends prompts to the Gemini API at temperature 0.
type GeminiCompleter struct {
	cli       *genai.Client
	apiKeyEnv string
}

// NewGeminiCompleter reads the API key from apiKeyEnv. A missing key is an
// auth error so the caller can tell the user which variable to set.
func NewGeminiCompleter(ctx context.Context, apiKeyEnv string) (*GeminiCompleter, error) {
	if strings.TrimSpace(apiKeyEnv) == "" {
		apiKeyEnv = DefaultAPIKeyEnv
	}
	apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv))
	if apiKey == "" {
		return nil, authRequired(apiKeyEnv, nil)
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstreamFailed, "create gemini client")
	}
	return &GeminiCompleter{cli: cli, apiKeyEnv: apiKeyEnv}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: &temperature},
	)
	if err != nil {
		if isAuthFailure(err) {
			return "", authRequired(g.apiKeyEnv, err)
		}
		return "", errors.AddContext(
			errors.Wrap(err, errors.CodeUpstreamFailed, "gemini generate content"),
			errors.CtxModel, model,
		)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func isAuthFailure(err error) bool {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusUnauthorized || apiErrPtr.Code == http.StatusForbidden
	}
	return false
}

func authRequired(envVar string, cause error) error {
	msg := fmt.Sprintf("gemini credentials missing or rejected; set %s (for example in .env) and retry", envVar)
	if cause == nil {
		return errors.New(errors.CodeAuthRequired, msg)
	}
	return errors.Wrap(cause, errors.CodeAuthRequired, msg)
}
