package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tickalert/internal/application/port"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS telegram_subscribers (
  chat_id TEXT PRIMARY KEY,
  created_at INTEGER NOT NULL
);
`)
	return err
}

// Upsert registers chatID; an existing row is left untouched
func (r *Repo) Upsert(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO telegram_subscribers(chat_id, created_at)
		VALUES(?, ?)
		ON CONFLICT(chat_id) DO NOTHING
	`, chatID, time.Now().UnixMilli())
	return err
}

func (r *Repo) ListAll(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM telegram_subscribers ORDER BY created_at, chat_id`)
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
