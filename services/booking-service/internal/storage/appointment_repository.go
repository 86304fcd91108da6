package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rafaeldmoura/pontual/libs/db"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/outbox"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/scheduling"
)

// slotIndex is the partial unique index over (provider_id, scheduled_at)
// for rows with canceled_at IS NULL. It is the single source of truth for
// slot exclusivity.
const slotIndex = "uq_appointments_provider_slot_active"

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, ob *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: ob}
}

// CreateScheduled inserts the appointment and its booked event in one
// transaction. A concurrent booking of the same slot surfaces as a
// unique violation on slotIndex and is mapped to ErrSlotUnavailable.
func (r *AppointmentRepository) CreateScheduled(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, client_id, provider_id, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, appt.ID, appt.ClientID, appt.ProviderID, appt.ScheduledAt).Scan(&appt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, slotIndex) {
			return model.Appointment{}, scheduling.ErrSlotUnavailable
		}
		return model.Appointment{}, err
	}

	payload, err := json.Marshal(outbox.AppointmentBooked{
		AppointmentID: appt.ID,
		ClientID:      appt.ClientID,
		ProviderID:    appt.ProviderID,
		ScheduledAt:   appt.ScheduledAt,
	})
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.TopicAppointmentBooked,
		Payload:       payload,
	}); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// CancelScheduled locks the appointment row, lets approve apply the
// cancellation policy, and on approval marks the row cancelled and
// enqueues the cancellation mail event, all in one transaction.
func (r *AppointmentRepository) CancelScheduled(ctx context.Context, appointmentID string, canceledAt time.Time, approve func(model.Appointment) error) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := r.getForUpdate(ctx, tx, appointmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, scheduling.ErrNotFound
		}
		return model.Appointment{}, err
	}

	if err := approve(appt); err != nil {
		return model.Appointment{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE appointments
		SET canceled_at = $2
		WHERE id = $1
	`, appointmentID, canceledAt); err != nil {
		return model.Appointment{}, err
	}
	appt.CanceledAt = &canceledAt

	evt, err := r.cancellationEvent(ctx, tx, appt)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) getForUpdate(ctx context.Context, tx pgx.Tx, appointmentID string) (model.Appointment, error) {
	var appt model.Appointment
	err := tx.QueryRow(ctx, `
		SELECT id, client_id, provider_id, scheduled_at, canceled_at, created_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, appointmentID).Scan(
		&appt.ID,
		&appt.ClientID,
		&appt.ProviderID,
		&appt.ScheduledAt,
		&appt.CanceledAt,
		&appt.CreatedAt,
	)
	return appt, err
}

// cancellationEvent denormalizes the party names into the payload so the
// mailer never has to call back here.
func (r *AppointmentRepository) cancellationEvent(ctx context.Context, tx pgx.Tx, appt model.Appointment) (outbox.Event, error) {
	var providerName, providerEmail, clientName string
	err := tx.QueryRow(ctx, `
		SELECT p.name, p.email, c.name
		FROM users p, users c
		WHERE p.id = $1 AND c.id = $2
	`, appt.ProviderID, appt.ClientID).Scan(&providerName, &providerEmail, &clientName)
	if err != nil {
		return outbox.Event{}, fmt.Errorf("load cancellation parties: %w", err)
	}

	payload, err := json.Marshal(outbox.AppointmentCancelled{
		AppointmentID: appt.ID,
		ScheduledAt:   appt.ScheduledAt,
		CanceledAt:    *appt.CanceledAt,
		ProviderName:  providerName,
		ProviderEmail: providerEmail,
		ClientName:    clientName,
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.TopicAppointmentCancelled,
		Payload:       payload,
	}, nil
}

// ListActiveByClient returns the client's non-cancelled appointments,
// soonest first, with the provider's display name joined in.
func (r *AppointmentRepository) ListActiveByClient(ctx context.Context, clientID string, limit, offset int) ([]model.ClientAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.client_id, a.provider_id, a.scheduled_at, a.created_at, u.name
		FROM appointments a
		JOIN users u ON u.id = a.provider_id
		WHERE a.client_id = $1 AND a.canceled_at IS NULL
		ORDER BY a.scheduled_at ASC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.ClientAppointment
	for rows.Next() {
		var appt model.ClientAppointment
		if err := rows.Scan(
			&appt.ID,
			&appt.ClientID,
			&appt.ProviderID,
			&appt.ScheduledAt,
			&appt.CreatedAt,
			&appt.ProviderName,
		); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
