package session

import (
	"context"
	"sync"

	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Registry tracks the live contexts of a process so they can be disposed
// together on shutdown.
type Registry struct {
	mu       sync.Mutex
	contexts map[*Context]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{contexts: make(map[*Context]struct{})}
}

// Add tracks c.
func (r *Registry) Add(c *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts[c] = struct{}{}
}

// Remove stops tracking c.
func (r *Registry) Remove(c *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, c)
}

// Len returns the number of tracked contexts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}

// DisposeAll disposes every tracked context concurrently and forgets them.
// It returns the first disposal error.
func (r *Registry) DisposeAll(ctx context.Context) error {
	r.mu.Lock()
	all := make([]*Context, 0, len(r.contexts))
	for c := range r.contexts {
		all = append(all, c)
	}
	r.contexts = make(map[*Context]struct{})
	r.mu.Unlock()

	if len(all) == 0 {
		return nil
	}
	L_info("disposing sessions", "count", len(all))
	var g errgroup.Group
	for _, c := range all {
		g.Go(func() error { return c.Dispose(ctx) })
	}
	return g.Wait()
}
