// Package scheduling owns the appointment lifecycle: creation into the
// Scheduled state, the single transition to Cancelled, and the time-window
// policies around both. Slot exclusivity itself is enforced by the store
// (a partial unique index over active rows); this package treats a
// conflicting create as ErrSlotUnavailable.
package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rafaeldmoura/pontual/libs/ptbr"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/timeslot"
)

// PageSize is the fixed page size of the client appointment listing.
const PageSize = 20

// Directory resolves the two parties of a booking. The second return is
// false when no such user (or no such provider) exists.
type Directory interface {
	FindUser(ctx context.Context, id string) (model.User, bool, error)
	FindProvider(ctx context.Context, id string) (model.User, bool, error)
}

// AppointmentStore persists appointments. CreateScheduled must be atomic
// with respect to concurrent creates for the same (provider, slot) pair
// and return ErrSlotUnavailable when an active booking already holds the
// slot. CancelScheduled loads the appointment under a row lock, runs
// approve, and only on nil commits the transition together with the
// cancellation job record; it returns ErrNotFound for unknown ids.
type AppointmentStore interface {
	CreateScheduled(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	CancelScheduled(ctx context.Context, appointmentID string, canceledAt time.Time, approve func(model.Appointment) error) (model.Appointment, error)
	ListActiveByClient(ctx context.Context, clientID string, limit, offset int) ([]model.ClientAppointment, error)
}

// NotificationStore records booking notifications addressed to providers.
type NotificationStore interface {
	Create(ctx context.Context, providerID, content string) error
}

type Service struct {
	appointments  AppointmentStore
	directory     Directory
	notifications NotificationStore
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(appointments AppointmentStore, directory Directory, notifications NotificationStore, logger *slog.Logger) *Service {
	return &Service{
		appointments:  appointments,
		directory:     directory,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// Create books clientID with providerID at the hour slot containing
// rawDate. Preconditions are checked in order; the first failure wins.
func (s *Service) Create(ctx context.Context, clientID, providerID string, rawDate time.Time) (model.Appointment, error) {
	if clientID == "" {
		return model.Appointment{}, validationError("client id is required")
	}
	if providerID == "" {
		return model.Appointment{}, validationError("provider id is required")
	}
	if rawDate.IsZero() {
		return model.Appointment{}, validationError("date is required")
	}

	_, isProvider, err := s.directory.FindProvider(ctx, providerID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("provider lookup: %w", err)
	}
	if !isProvider {
		return model.Appointment{}, ErrInvalidProvider
	}
	if providerID == clientID {
		return model.Appointment{}, ErrSelfBooking
	}

	slot := timeslot.Normalize(rawDate)
	if timeslot.IsPast(slot, s.now().UTC()) {
		return model.Appointment{}, ErrPastDate
	}

	appt, err := s.appointments.CreateScheduled(ctx, model.Appointment{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		ProviderID:  providerID,
		ScheduledAt: slot,
	})
	if err != nil {
		return model.Appointment{}, err
	}

	// The booking is committed; notifying the provider is best effort and
	// must not unwind it.
	s.notifyProvider(ctx, appt)

	return appt, nil
}

func (s *Service) notifyProvider(ctx context.Context, appt model.Appointment) {
	client, ok, err := s.directory.FindUser(ctx, appt.ClientID)
	if err != nil || !ok {
		s.logger.Warn("booking notification skipped: client lookup failed",
			"appointment_id", appt.ID, "client_id", appt.ClientID, "err", err)
		return
	}
	content := fmt.Sprintf("Novo agendamento de %s para o %s", client.Name, ptbr.FormatLong(appt.ScheduledAt))
	if err := s.notifications.Create(ctx, appt.ProviderID, content); err != nil {
		s.logger.Warn("booking notification failed",
			"appointment_id", appt.ID, "provider_id", appt.ProviderID, "err", err)
	}
}

// Cancel transitions an appointment to Cancelled. Only the booking client
// may cancel, and only strictly before the two-hour deadline. A row that
// is already cancelled is terminal and reported as not found.
func (s *Service) Cancel(ctx context.Context, clientID, appointmentID string) (model.Appointment, error) {
	if clientID == "" {
		return model.Appointment{}, validationError("client id is required")
	}
	if appointmentID == "" {
		return model.Appointment{}, validationError("appointment id is required")
	}

	canceledAt := s.now().UTC()
	return s.appointments.CancelScheduled(ctx, appointmentID, canceledAt, func(appt model.Appointment) error {
		if appt.CanceledAt != nil {
			return ErrNotFound
		}
		if appt.ClientID != clientID {
			return ErrForbidden
		}
		// Deadline is exclusive: cancelling exactly at scheduledAt-2h fails.
		if !canceledAt.Before(timeslot.CancelDeadline(appt.ScheduledAt)) {
			return ErrCancelWindowExpired
		}
		return nil
	})
}

// List returns the client's active appointments, soonest first. Pages are
// 1-indexed with a fixed size of PageSize.
func (s *Service) List(ctx context.Context, clientID string, page int) ([]model.ClientAppointment, error) {
	if clientID == "" {
		return nil, validationError("client id is required")
	}
	if page < 1 {
		page = 1
	}
	return s.appointments.ListActiveByClient(ctx, clientID, PageSize, (page-1)*PageSize)
}
