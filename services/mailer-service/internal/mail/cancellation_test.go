package mail

import (
	"strings"
	"testing"
	"time"
)

func TestCancellationBody(t *testing.T) {
	body := CancellationBody(CancellationEvent{
		ProviderName: "Carla Dias",
		ClientName:   "Ana Souza",
		ScheduledAt:  time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"Olá, Carla Dias!",
		"agendamento de Ana Souza",
		"dia 10 de março, às 14:00h",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}
