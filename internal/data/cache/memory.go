package cache

import (
	"context"
	"fmt"

	"autosg/internal/core/ports"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds a MemoryStore created with a non-positive size.
const DefaultMemoryEntries = 1024

var _ ports.ResolutionCache = (*MemoryStore)(nil)

// MemoryStore is a process-local LRU cache.
type MemoryStore struct {
	entries *lru.Cache[ports.CacheKey, []byte]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[ports.CacheKey, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &MemoryStore{entries: entries}, nil
}

func (m *MemoryStore) Get(_ context.Context, key ports.CacheKey) ([]byte, bool, error) {
	v, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key ports.CacheKey, response []byte) error {
	m.entries.Add(key, append([]byte(nil), response...))
	return nil
}

func (m *MemoryStore) Len() int {
	return m.entries.Len()
}

func (m *MemoryStore) Close() error {
	m.entries.Purge()
	return nil
}

var _ ports.ResolutionCache = (*Tiered)(nil)

// Tiered reads through a MemoryStore in front of a persistent store and
// writes to both.
type Tiered struct {
	front *MemoryStore
	back  ports.ResolutionCache
}

func NewTiered(front *MemoryStore, back ports.ResolutionCache) *Tiered {
	return &Tiered{front: front, back: back}
}

func (t *Tiered) Get(ctx context.Context, key ports.CacheKey) ([]byte, bool, error) {
	if v, ok, _ := t.front.Get(ctx, key); ok {
		return v, true, nil
	}
	v, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.front.Put(ctx, key, v)
	return v, true, nil
}

func (t *Tiered) Put(ctx context.Context, key ports.CacheKey, response []byte) error {
	if err := t.back.Put(ctx, key, response); err != nil {
		return err
	}
	return t.front.Put(ctx, key, response)
}

func (t *Tiered) Close() error {
	_ = t.front.Close()
	return t.back.Close()
}
