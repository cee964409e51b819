package memory

import (
	"context"
	"sync"

	"tickalert/internal/application/port"
)

// Repo in-process subscriber store, used in dev mode and as a fallback when no database is configured
type Repo struct {
	mu    sync.RWMutex
	ids   []string
	index map[string]struct{}
}

// New creates an empty in-memory store
func New() *Repo {
	return &Repo{index: make(map[string]struct{})}
}

func (r *Repo) Upsert(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[id]; ok {
		return nil
	}
	r.index[id] = struct{}{}
	r.ids = append(r.ids, id)
	return nil
}

func (r *Repo) ListAll(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out, nil
}

func (r *Repo) Close() error { return nil }

var _ port.SubscriberStore = (*Repo)(nil)
