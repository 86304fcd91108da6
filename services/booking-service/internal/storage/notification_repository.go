package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rafaeldmoura/pontual/libs/db"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/scheduling"
)

type NotificationRepository struct {
	pool *db.Pool
}

func NewNotificationRepository(pool *db.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, providerID, content string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (provider_id, content)
		VALUES ($1, $2)
	`, providerID, content)
	return err
}

func (r *NotificationRepository) ListByProvider(ctx context.Context, providerID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, content, read, created_at
		FROM notifications
		WHERE provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.ProviderID, &n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notifs, nil
}

// MarkRead flags the notification as read. Scoped to providerID so a
// provider cannot touch another provider's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, providerID string, id int64) (model.Notification, error) {
	var n model.Notification
	err := r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET read = true
		WHERE id = $1 AND provider_id = $2
		RETURNING id, provider_id, content, read, created_at
	`, id, providerID).Scan(&n.ID, &n.ProviderID, &n.Content, &n.Read, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Notification{}, scheduling.ErrNotFound
	}
	if err != nil {
		return model.Notification{}, err
	}
	return n, nil
}
