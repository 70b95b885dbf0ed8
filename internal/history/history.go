// Package history records how playback sessions ended, one row per
// session, for the history front-end commands.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/hxnx/aria/internal/player"
)

const queryTimeout = 2 * time.Second

type Entry struct {
	URI       string
	Title     string
	Reason    player.EndReason
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts one ended-session row. A nil repository or database
// makes it a no-op so the player runs fine without postgres.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return nil
	}
	if entry.EndedAt.IsZero() {
		entry.EndedAt = time.Now().UTC()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = entry.EndedAt
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
		INSERT INTO play_history (uri, title, reason, error, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.URI, entry.Title, string(entry.Reason), entry.Error,
		entry.StartedAt, entry.EndedAt,
	)
	return err
}

// Recent returns the most recently ended sessions, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
		SELECT uri, title, reason, error, started_at, ended_at
		FROM play_history
		ORDER BY ended_at DESC
		LIMIT $1;
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var reason string
		if err := rows.Scan(&e.URI, &e.Title, &reason, &e.Error, &e.StartedAt, &e.EndedAt); err != nil {
			return nil, err
		}
		e.Reason = player.EndReason(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
