package composite

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"tickalert/internal/application/port"
)

// Repo mirrors subscriber registrations across several stores.
// Upsert writes to all; ListAll returns the union of every store that answered.
type Repo struct {
	repos []port.SubscriberStore
}

func New(repos ...port.SubscriberStore) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.SubscriberStore, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Upsert(ctx context.Context, id string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Upsert(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ListAll fails only when no store could be read
func (r *Repo) ListAll(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	var errs []error
	for i, repo := range r.repos {
		ids, err := repo.ListAll(ctx)
		if err != nil {
			log.Warn().Err(err).Int("store", i).Msg("subscriber store unavailable, using the others")
			errs = append(errs, err)
			continue
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if len(r.repos) > 0 && len(errs) == len(r.repos) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.SubscriberStore = (*Repo)(nil)
