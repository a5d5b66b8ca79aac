package ports

import (
	"context"
	"fmt"
)

// CacheKey addresses one stored resolution response. Bumping ProtocolVersion
// makes older entries unreachable without deleting them.
type CacheKey struct {
	SourceHash      string
	Model           string
	ProtocolVersion int
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s/%s/v%d", k.SourceHash, k.Model, k.ProtocolVersion)
}

// ResolutionCache stores raw resolution responses by CacheKey. Put must be an
// atomic replace so that concurrent writers never corrupt an entry.
type ResolutionCache interface {
	Get(ctx context.Context, key CacheKey) ([]byte, bool, error)
	Put(ctx context.Context, key CacheKey, response []byte) error
	Close() error
}

// Completer sends a prompt to a reasoning model and returns its raw text.
// Implementations run at temperature 0 and report missing or rejected
// credentials with CodeAuthRequired.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}
