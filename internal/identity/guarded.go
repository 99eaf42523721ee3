package identity

import (
	"context"
	"sync"
)

// Guarded shares one Provider between concurrent requests.
//
// LOCKING:
// Mutations (signup) take the write lock and run alone. Reads (lookup) and
// delete take the read lock and may overlap each other. The lock is held for
// the whole remote round trip, so a signup never interleaves with a lookup of
// the same account.
//
// Callers receive the Provider inside the callback and must not keep it after
// the callback returns.
type Guarded struct {
	mu       sync.RWMutex
	provider Provider
}

// NewGuarded wraps p.
func NewGuarded(p Provider) *Guarded {
	return &Guarded{provider: p}
}

// Read runs fn under the shared lock.
func (g *Guarded) Read(ctx context.Context, fn func(context.Context, Provider) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(ctx, g.provider)
}

// Write runs fn under the exclusive lock.
func (g *Guarded) Write(ctx context.Context, fn func(context.Context, Provider) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(ctx, g.provider)
}
