package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS telegram_subscribers")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo, err := NewFromDB(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repo, mock
}

func TestUpsertUsesConflictDoNothing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO telegram_subscribers (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`)).
		WithArgs("777").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO telegram_subscribers`)).
		WithArgs("777").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Upsert(context.Background(), "777"))
	require.NoError(t, repo.Upsert(context.Background(), "777"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT chat_id FROM telegram_subscribers`)).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow("1").AddRow("2").AddRow("-3"))

	ids, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "-3"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT chat_id`)).WillReturnError(errors.New("connection refused"))

	_, err := repo.ListAll(context.Background())
	assert.Error(t, err)
}

func TestMigrateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	_, err = NewFromDB(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres migrate")
}
