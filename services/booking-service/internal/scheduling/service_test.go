package scheduling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
)

type fakeDirectory struct {
	users map[string]model.User
}

func (d *fakeDirectory) FindUser(_ context.Context, id string) (model.User, bool, error) {
	u, ok := d.users[id]
	return u, ok, nil
}

func (d *fakeDirectory) FindProvider(_ context.Context, id string) (model.User, bool, error) {
	u, ok := d.users[id]
	if !ok || !u.Provider {
		return model.User{}, false, nil
	}
	return u, true, nil
}

// fakeStore mirrors the database guarantees: a mutex-serialized create
// that rejects a second active booking for the same (provider, slot),
// and a cancel that runs the approve callback under the same lock.
type fakeStore struct {
	mu    sync.Mutex
	rows  map[string]model.Appointment
	order []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]model.Appointment)}
}

func (s *fakeStore) CreateScheduled(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.CanceledAt == nil && row.ProviderID == appt.ProviderID && row.ScheduledAt.Equal(appt.ScheduledAt) {
			return model.Appointment{}, ErrSlotUnavailable
		}
	}
	appt.CreatedAt = time.Now().UTC()
	s.rows[appt.ID] = appt
	s.order = append(s.order, appt.ID)
	return appt, nil
}

func (s *fakeStore) CancelScheduled(_ context.Context, appointmentID string, canceledAt time.Time, approve func(model.Appointment) error) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.rows[appointmentID]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	if err := approve(appt); err != nil {
		return model.Appointment{}, err
	}
	appt.CanceledAt = &canceledAt
	s.rows[appointmentID] = appt
	return appt, nil
}

func (s *fakeStore) ListActiveByClient(_ context.Context, clientID string, limit, offset int) ([]model.ClientAppointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []model.ClientAppointment
	for _, id := range s.order {
		row := s.rows[id]
		if row.ClientID == clientID && row.CanceledAt == nil {
			active = append(active, model.ClientAppointment{Appointment: row})
		}
	}
	if offset >= len(active) {
		return nil, nil
	}
	active = active[offset:]
	if len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	entries []string
	fail    error
}

func (n *fakeNotifications) Create(_ context.Context, providerID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.entries = append(n.entries, providerID+": "+content)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(now time.Time) (*Service, *fakeStore, *fakeNotifications) {
	dir := &fakeDirectory{users: map[string]model.User{
		"client-1":   {ID: "client-1", Name: "Ana Souza"},
		"client-2":   {ID: "client-2", Name: "Bruno Lima"},
		"provider-1": {ID: "provider-1", Name: "Carla Dias", Provider: true},
	}}
	store := newFakeStore()
	notif := &fakeNotifications{}
	svc := NewService(store, dir, notif, testLogger())
	svc.now = func() time.Time { return now }
	return svc, store, notif
}

var base = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestCreateNormalizesToHourSlot(t *testing.T) {
	svc, _, notif := newTestService(base)

	appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(3*time.Hour+25*time.Minute+40*time.Second))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := base.Add(3 * time.Hour)
	if !appt.ScheduledAt.Equal(want) {
		t.Fatalf("scheduled at %s, want %s", appt.ScheduledAt, want)
	}
	if appt.ID == "" {
		t.Fatal("expected a generated appointment id")
	}
	if len(notif.entries) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notif.entries))
	}
	wantContent := "provider-1: Novo agendamento de Ana Souza para o dia 2 de junho, às 12:00h"
	if notif.entries[0] != wantContent {
		t.Fatalf("notification %q, want %q", notif.entries[0], wantContent)
	}
}

func TestCreateUnknownProvider(t *testing.T) {
	svc, _, _ := newTestService(base)

	if _, err := svc.Create(context.Background(), "client-1", "nobody", base.Add(time.Hour)); !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider, got %v", err)
	}
	// A regular user is not a valid booking target either.
	if _, err := svc.Create(context.Background(), "client-1", "client-2", base.Add(time.Hour)); !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider for non-provider target, got %v", err)
	}
}

func TestCreateSelfBooking(t *testing.T) {
	svc, _, _ := newTestService(base)

	if _, err := svc.Create(context.Background(), "provider-1", "provider-1", base.Add(time.Hour)); !errors.Is(err, ErrSelfBooking) {
		t.Fatalf("expected ErrSelfBooking, got %v", err)
	}
}

func TestCreatePastDate(t *testing.T) {
	svc, _, _ := newTestService(base)

	if _, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(-time.Minute)); !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
	// 09:59 normalizes to 09:00 == now, and the check is strict, so the
	// current hour is still bookable.
	if _, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(59*time.Minute)); err != nil {
		t.Fatalf("current hour slot should be bookable, got %v", err)
	}
}

func TestCreateSlotTaken(t *testing.T) {
	svc, _, _ := newTestService(base)
	slot := base.Add(2 * time.Hour)

	if _, err := svc.Create(context.Background(), "client-1", "provider-1", slot); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// Same slot via a different raw time within the hour.
	if _, err := svc.Create(context.Background(), "client-2", "provider-1", slot.Add(30*time.Minute)); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(base)
	var verr *ValidationError

	_, err := svc.Create(context.Background(), "", "provider-1", base.Add(time.Hour))
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing client, got %v", err)
	}
	_, err = svc.Create(context.Background(), "client-1", "provider-1", time.Time{})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for zero date, got %v", err)
	}
}

func TestCreateNotificationFailureDoesNotFailBooking(t *testing.T) {
	svc, store, notif := newTestService(base)
	notif.fail = errors.New("notification store down")

	appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := store.rows[appt.ID]; !ok {
		t.Fatal("booking should be persisted despite notification failure")
	}
}

func TestCreateConcurrentSameSlotOneWinner(t *testing.T) {
	svc, store, _ := newTestService(base)
	slot := base.Add(4 * time.Hour)

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Create(context.Background(), fmt.Sprintf("client-%d", i%2+1), "provider-1", slot.Add(time.Duration(i)*time.Minute))
		}(i)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotUnavailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != n-1 {
		t.Fatalf("expected exactly 1 winner and %d losers, got %d/%d", n-1, won, lost)
	}
	active := 0
	for _, row := range store.rows {
		if row.CanceledAt == nil && row.ScheduledAt.Equal(slot) {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected 1 active row for the slot, got %d", active)
	}
}

func TestCancelWithinWindow(t *testing.T) {
	svc, store, _ := newTestService(base)
	appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 2h30m before the slot.
	svc.now = func() time.Time { return appt.ScheduledAt.Add(-2*time.Hour - 30*time.Minute) }
	got, err := svc.Cancel(context.Background(), "client-1", appt.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.CanceledAt == nil {
		t.Fatal("expected canceled_at to be set")
	}
	if store.rows[appt.ID].CanceledAt == nil {
		t.Fatal("cancellation not persisted")
	}
}

func TestCancelDeadlineIsExclusive(t *testing.T) {
	svc, _, _ := newTestService(base)
	appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Exactly 2h before: too late.
	svc.now = func() time.Time { return appt.ScheduledAt.Add(-2 * time.Hour) }
	if _, err := svc.Cancel(context.Background(), "client-1", appt.ID); !errors.Is(err, ErrCancelWindowExpired) {
		t.Fatalf("expected ErrCancelWindowExpired at the boundary, got %v", err)
	}

	// One second earlier: allowed.
	svc.now = func() time.Time { return appt.ScheduledAt.Add(-2*time.Hour - time.Second) }
	if _, err := svc.Cancel(context.Background(), "client-1", appt.ID); err != nil {
		t.Fatalf("cancel just inside the window: %v", err)
	}
}

func TestCancelForbiddenForOtherClient(t *testing.T) {
	svc, _, _ := newTestService(base)
	appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), "client-2", appt.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// The provider is not the booking client either.
	if _, err := svc.Cancel(context.Background(), "provider-1", appt.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for provider, got %v", err)
	}
}

func TestCancelUnknownAndRepeated(t *testing.T) {
	svc, _, _ := newTestService(base)
	appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), "client-1", "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "client-1", appt.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "client-1", appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat cancel, got %v", err)
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	svc, _, _ := newTestService(base)
	slot := base.Add(5 * time.Hour)
	appt, err := svc.Create(context.Background(), "client-1", "provider-1", slot)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "client-1", appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Create(context.Background(), "client-2", "provider-1", slot); err != nil {
		t.Fatalf("rebooking a freed slot: %v", err)
	}
}

func TestListPaginatesActiveAppointments(t *testing.T) {
	svc, _, _ := newTestService(base)

	var canceled string
	for i := 0; i < PageSize+5; i++ {
		appt, err := svc.Create(context.Background(), "client-1", "provider-1", base.Add(time.Duration(i+3)*time.Hour))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if i == 0 {
			canceled = appt.ID
		}
	}
	if _, err := svc.Cancel(context.Background(), "client-1", canceled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	page1, err := svc.List(context.Background(), "client-1", 1)
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(page1) != PageSize {
		t.Fatalf("page 1 size %d, want %d", len(page1), PageSize)
	}
	page2, err := svc.List(context.Background(), "client-1", 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 4 {
		t.Fatalf("page 2 size %d, want 4 (one of 25 was canceled)", len(page2))
	}
	for _, a := range append(page1, page2...) {
		if a.ID == canceled {
			t.Fatal("canceled appointment must not be listed")
		}
	}

	// page < 1 is clamped to the first page.
	clamped, err := svc.List(context.Background(), "client-1", 0)
	if err != nil {
		t.Fatalf("list page 0: %v", err)
	}
	if len(clamped) != PageSize {
		t.Fatalf("clamped page size %d, want %d", len(clamped), PageSize)
	}

	empty, err := svc.List(context.Background(), "client-1", 3)
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("page past the end should be empty, got %d", len(empty))
	}
}
