package services

import "sync"

// inflight tracks keys with a mutation currently running.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

// acquire claims key and returns its release func, or ErrMutationInFlight if taken.
func (g *inflight) acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.keys[key]; busy {
		return nil, ErrMutationInFlight
	}
	g.keys[key] = struct{}{}

	return func() {
		g.mu.Lock()
		delete(g.keys, key)
		g.mu.Unlock()
	}, nil
}
