package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeInbox struct {
	recorded map[string]bool
	deleted  []string
	failNext error
}

func newFakeInbox() *fakeInbox {
	return &fakeInbox{recorded: make(map[string]bool)}
}

func (f *fakeInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return false, err
	}
	if f.recorded[eventID] {
		return false, nil
	}
	f.recorded[eventID] = true
	return true, nil
}

func (f *fakeInbox) Delete(_ context.Context, eventID string) error {
	delete(f.recorded, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

func testConsumer(ib Inbox, handler Handler) *Consumer {
	return &Consumer{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:   ib,
		handler: handler,
	}
}

func cancelledMessage(eventID string) kafka.Message {
	return kafka.Message{
		Topic: "booking.appointment.cancelled.v1",
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte("booking.appointment.cancelled.v1")},
		},
		Value: []byte(`{"appointment_id":"a1"}`),
	}
}

func TestHandleRecordsAndDelivers(t *testing.T) {
	ib := newFakeInbox()
	var handled int
	c := testConsumer(ib, func(context.Context, kafka.Message) error {
		handled++
		return nil
	})

	c.handle(context.Background(), cancelledMessage("evt-1"))

	if handled != 1 {
		t.Fatalf("handled = %d, want 1", handled)
	}
	if !ib.recorded["evt-1"] {
		t.Fatal("event not recorded in inbox")
	}
	if len(ib.deleted) != 0 {
		t.Fatalf("unexpected inbox deletes %v", ib.deleted)
	}
}

func TestHandleSkipsDuplicate(t *testing.T) {
	ib := newFakeInbox()
	var handled int
	c := testConsumer(ib, func(context.Context, kafka.Message) error {
		handled++
		return nil
	})

	c.handle(context.Background(), cancelledMessage("evt-1"))
	c.handle(context.Background(), cancelledMessage("evt-1"))

	if handled != 1 {
		t.Fatalf("handled = %d, want 1", handled)
	}
}

func TestHandleReleasesInboxOnHandlerError(t *testing.T) {
	ib := newFakeInbox()
	attempts := 0
	c := testConsumer(ib, func(context.Context, kafka.Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("smtp connection refused")
		}
		return nil
	})

	c.handle(context.Background(), cancelledMessage("evt-1"))

	if len(ib.deleted) != 1 || ib.deleted[0] != "evt-1" {
		t.Fatalf("deleted = %v, want [evt-1]", ib.deleted)
	}
	if ib.recorded["evt-1"] {
		t.Fatal("failed event must not stay recorded")
	}

	// The redelivery is not a duplicate anymore and goes through.
	c.handle(context.Background(), cancelledMessage("evt-1"))
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if !ib.recorded["evt-1"] {
		t.Fatal("successful retry should record the event")
	}
}

func TestHandleSkipsHandlerOnRecordError(t *testing.T) {
	ib := newFakeInbox()
	ib.failNext = errors.New("db down")
	var handled int
	c := testConsumer(ib, func(context.Context, kafka.Message) error {
		handled++
		return nil
	})

	c.handle(context.Background(), cancelledMessage("evt-1"))

	if handled != 0 {
		t.Fatalf("handled = %d, want 0", handled)
	}
}
