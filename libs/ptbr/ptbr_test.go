package ptbr

import (
	"testing"
	"time"
)

func TestFormatLong(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), "dia 10 de março, às 14:00h"},
		{time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), "dia 1 de janeiro, às 9:00h"},
		{time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), "dia 31 de dezembro, às 23:00h"},
	}
	for _, tc := range cases {
		if got := FormatLong(tc.in); got != tc.want {
			t.Fatalf("FormatLong(%s): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
