package outbox

import "time"

// Topic names double as event types. One event per topic.
const (
	TopicAppointmentBooked    = "booking.appointment.booked.v1"
	TopicAppointmentCancelled = "booking.appointment.cancelled.v1"
)

// Event is the envelope written to the outbox table inside the same
// transaction as the state change it describes.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentBooked struct {
	AppointmentID string    `json:"appointment_id"`
	ClientID      string    `json:"client_id"`
	ProviderID    string    `json:"provider_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

// AppointmentCancelled carries everything the mailer needs so it never
// has to call back into this service.
type AppointmentCancelled struct {
	AppointmentID string    `json:"appointment_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	CanceledAt    time.Time `json:"canceled_at"`
	ProviderName  string    `json:"provider_name"`
	ProviderEmail string    `json:"provider_email"`
	ClientName    string    `json:"client_name"`
}
