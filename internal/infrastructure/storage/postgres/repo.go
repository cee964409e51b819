package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tickalert/internal/application/port"
)

// Repo subscriber registry on PostgreSQL (DATABASE_URL)
type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r, err := NewFromDB(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewFromDB wraps an open handle and runs migrations on it
func NewFromDB(ctx context.Context, db *sql.DB) (*Repo, error) {
	r := &Repo{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS telegram_subscribers (
  chat_id TEXT PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (r *Repo) Upsert(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO telegram_subscribers (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`, chatID)
	return err
}

func (r *Repo) ListAll(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM telegram_subscribers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ port.SubscriberStore = (*Repo)(nil)
