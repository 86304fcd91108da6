// Package inbox deduplicates consumed events. The outbox publisher is
// at-least-once, so every event id is recorded before handling and a
// replay is dropped. A failed handling deletes the row again so the
// next redelivery gets another attempt.
package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rafaeldmoura/pontual/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record returns false when eventID was already processed.
func (r *Repository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return false, nil
	}
	return false, err
}

// Delete releases eventID so a redelivery is handled again.
func (r *Repository) Delete(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM inbox_events WHERE event_id = $1
	`, eventID)
	return err
}
