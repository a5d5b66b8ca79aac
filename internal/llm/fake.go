package llm

import (
	"context"
	"sync"

	"autosg/internal/core/ports"
)

var _ ports.Completer = (*FakeCompleter)(nil)

// FakeCompleter returns a fixed response and records every call.
type FakeCompleter struct {
	Response string
	Err      error

	mu      sync.Mutex
	calls   int
	prompts []string
	models  []string
}

func (f *FakeCompleter) Complete(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, model)
	return f.Response, f.Err
}

func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeCompleter) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *FakeCompleter) LastModel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.models) == 0 {
		return ""
	}
	return f.models[len(f.models)-1]
}
