package model

import (
	"time"

	"github.com/rafaeldmoura/pontual/services/booking-service/internal/timeslot"
)

// Appointment is a single-slot booking between a client and a provider.
// ScheduledAt is always hour-aligned UTC. A nil CanceledAt means the
// appointment is active; once set, the appointment is terminal.
type Appointment struct {
	ID          string
	ClientID    string
	ProviderID  string
	ScheduledAt time.Time
	CanceledAt  *time.Time
	CreatedAt   time.Time
}

func (a Appointment) Past(now time.Time) bool {
	return a.ScheduledAt.Before(now)
}

// Cancelable reports whether the booking client may still cancel: the
// appointment is active and now is strictly before the two-hour deadline.
func (a Appointment) Cancelable(now time.Time) bool {
	return a.CanceledAt == nil && now.Before(timeslot.CancelDeadline(a.ScheduledAt))
}

// ClientAppointment is an appointment row joined with the provider's
// display name, as returned by the client-facing listing.
type ClientAppointment struct {
	Appointment
	ProviderName string
}
