// Package mail renders the user-facing messages sent by the mailer.
package mail

import (
	"fmt"
	"time"

	"github.com/rafaeldmoura/pontual/libs/ptbr"
)

// CancellationEvent mirrors the payload of booking.appointment.cancelled.v1.
type CancellationEvent struct {
	AppointmentID string    `json:"appointment_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	CanceledAt    time.Time `json:"canceled_at"`
	ProviderName  string    `json:"provider_name"`
	ProviderEmail string    `json:"provider_email"`
	ClientName    string    `json:"client_name"`
}

const CancellationSubject = "Agendamento cancelado"

// CancellationBody renders the pt-BR notice sent to the provider.
func CancellationBody(evt CancellationEvent) string {
	return fmt.Sprintf(
		"Olá, %s!\n\nO agendamento de %s para o %s foi cancelado.\n\nEquipe Pontual",
		evt.ProviderName,
		evt.ClientName,
		ptbr.FormatLong(evt.ScheduledAt),
	)
}
