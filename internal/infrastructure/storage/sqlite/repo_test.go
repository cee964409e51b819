package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickalert/internal/application/port"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepoUpsertSubscriber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "12345"))
	require.NoError(t, repo.Upsert(ctx, "-100987"))
	// second registration is a no-op
	require.NoError(t, repo.Upsert(ctx, "12345"))

	ids, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"12345", "-100987"}, ids)
}

func TestSQLiteRepoListEmpty(t *testing.T) {
	repo := newTestRepo(t)

	ids, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSQLiteRepoReopenKeepsSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.db")
	ctx := context.Background()

	repo, err := New(path)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, "42"))
	require.NoError(t, repo.Close())

	repo, err = New(path)
	require.NoError(t, err)
	defer repo.Close()

	ids, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids)
}

func TestSQLiteRepoHoldsSubscribersOnly(t *testing.T) {
	repo := newTestRepo(t)

	rows, err := repo.db.Query(`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"telegram_subscribers"}, tables)

	_, isPublisher := any(repo).(port.AlertPublisher)
	assert.False(t, isPublisher, "alerts must not be written to the subscriber database")
}
