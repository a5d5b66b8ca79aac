package cache

import (
	"fmt"
	"strings"
	"time"

	"autosg/internal/core/ports"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Options struct {
	Backend       string
	Path          string
	MemoryEntries int
	BusyTimeout   time.Duration
}

// Open builds the configured cache. The sqlite backend is fronted by an LRU
// so that repeated lookups within one run skip the database.
func Open(opts Options) (ports.ResolutionCache, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendSQLite
	}

	mem, err := NewMemoryStore(opts.MemoryEntries)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMemory:
		return mem, nil
	case BackendSQLite:
		store, err := OpenSQLite(opts.Path, opts.BusyTimeout)
		if err != nil {
			return nil, err
		}
		return NewTiered(mem, store), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
