package timeslot

import (
	"testing"
	"time"
)

func TestNormalizeZeroesMinutesAndSeconds(t *testing.T) {
	in := time.Date(2025, 3, 10, 14, 37, 52, 123456, time.UTC)
	got := Normalize(in)
	want := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNormalizeConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2025, 3, 10, 11, 30, 0, 0, loc) // 14:30 UTC
	got := Normalize(in)
	want := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", got.Location())
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if got := Normalize(in); !got.Equal(in) {
		t.Fatalf("expected %s, got %s", in, got)
	}
}

func TestIsPast(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	if !IsPast(now.Add(-time.Second), now) {
		t.Fatal("one second ago should be past")
	}
	if IsPast(now, now) {
		t.Fatal("now itself is not past (strict comparison)")
	}
	if IsPast(now.Add(time.Second), now) {
		t.Fatal("the future is not past")
	}
}

func TestCancelDeadline(t *testing.T) {
	slot := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := CancelDeadline(slot); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := SubHours(slot, 2); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
