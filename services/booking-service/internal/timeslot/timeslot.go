// Package timeslot normalizes timestamps to the hour-aligned slot
// boundaries used by the booking model: one appointment per provider per
// hour, all slots expressed in UTC.
package timeslot

import "time"

// CancelWindow is how long before a slot's start cancellation closes.
const CancelWindow = 2 * time.Hour

// Normalize truncates a timestamp to the start of its hour, in UTC.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// IsPast reports whether t is strictly before now.
func IsPast(t, now time.Time) bool {
	return t.Before(now)
}

// SubHours returns t minus n hours.
func SubHours(t time.Time, n int) time.Time {
	return t.Add(-time.Duration(n) * time.Hour)
}

// CancelDeadline is the instant after which an appointment at scheduledAt
// can no longer be cancelled. The deadline itself is already too late.
func CancelDeadline(scheduledAt time.Time) time.Time {
	return scheduledAt.Add(-CancelWindow)
}
