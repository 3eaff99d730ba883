// Package storetest provides store doubles for tests in other packages.
package storetest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/SofiaPH25/Quick-Shop/internal/store"
)

// ErrInjected is returned by a Flaky store for every failing call.
var ErrInjected = errors.New("injected store failure")

// Flaky wraps a MemoryStore and fails writes to keys matching a prefix on demand.
type Flaky struct {
	*store.MemoryStore

	mu       sync.Mutex
	prefixes []string
}

func NewFlaky() *Flaky {
	return &Flaky{MemoryStore: store.NewMemoryStore()}
}

// FailWrites makes Set and Delete fail for keys starting with any of prefixes.
// An empty prefix matches every key. Calling it with no arguments heals the store.
func (f *Flaky) FailWrites(prefixes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = prefixes
}

func (f *Flaky) Set(ctx context.Context, key string, value any) error {
	if f.failing(key) {
		return ErrInjected
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *Flaky) Delete(ctx context.Context, key string) error {
	if f.failing(key) {
		return ErrInjected
	}
	return f.MemoryStore.Delete(ctx, key)
}

func (f *Flaky) failing(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
