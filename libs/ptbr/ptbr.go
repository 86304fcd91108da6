// Package ptbr formats timestamps in the Brazilian Portuguese long form
// used in user-facing notifications and emails.
package ptbr

import (
	"fmt"
	"time"
)

var months = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatLong renders t as e.g. "dia 10 de março, às 14:00h".
func FormatLong(t time.Time) string {
	return fmt.Sprintf("dia %d de %s, às %d:%02dh", t.Day(), months[t.Month()-1], t.Hour(), t.Minute())
}
