package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"autosg/internal/core/errors"
	"autosg/internal/core/ports"
)

// DefaultModel is used when neither the command line nor configuration
// names a model.
const DefaultModel = "gemini/gemini-2.5-pro"

// ParseModelID splits "provider/name". A bare name is assumed to be a
// gemini model.
func ParseModelID(id string) (provider, name string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", errors.New(errors.CodeValidationError, "model id must not be empty")
	}
	provider, name, ok := strings.Cut(id, "/")
	if !ok {
		return ProviderGemini, id, nil
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	name = strings.TrimSpace(name)
	if provider == "" || name == "" {
		return "", "", errors.New(errors.CodeValidationError, fmt.Sprintf("malformed model id %q", id))
	}
	return provider, name, nil
}

// Factory constructs a provider's completer on first use.
type Factory func(ctx context.Context) (ports.Completer, error)

var _ ports.Completer = (*Router)(nil)

// Router dispatches Complete calls to the provider named in the model id.
// The provider receives only the model name.
type Router struct {
	mu        sync.Mutex
	factories map[string]Factory
	clients   map[string]ports.Completer
}

func NewRouter() *Router {
	return &Router{
		factories: make(map[string]Factory),
		clients:   make(map[string]ports.Completer),
	}
}

func (r *Router) Register(provider string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(provider)] = factory
}

func (r *Router) Complete(ctx context.Context, model, prompt string) (string, error) {
	provider, name, err := ParseModelID(model)
	if err != nil {
		return "", err
	}
	client, err := r.client(ctx, provider)
	if err != nil {
		return "", errors.AddContext(err, errors.CtxModel, model)
	}
	return client.Complete(ctx, name, prompt)
}

func (r *Router) client(ctx context.Context, provider string) (ports.Completer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[provider]; ok {
		return c, nil
	}
	factory, ok := r.factories[provider]
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("unknown model provider %q", provider))
	}
	c, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	r.clients[provider] = c
	return c, nil
}
