// Package timeutil provides timezone utilities for São Paulo time (UTC-3).
// All students of the platform study on Brasília time, and the weekly
// ranking window is anchored to local Mondays, so every boundary
// computation goes through this package.
// Brazil abolished DST in 2019, so the offset is constant year-round.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// SaoPauloTZ is the São Paulo timezone (UTC-3, no DST since 2019).
var SaoPauloTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Now returns the current time in São Paulo timezone.
func Now() time.Time {
	return time.Now().In(SaoPauloTZ)
}

// ToSaoPaulo converts a time to São Paulo timezone.
func ToSaoPaulo(t time.Time) time.Time {
	return t.In(SaoPauloTZ)
}

// Date creates a time in São Paulo timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SaoPauloTZ)
}

// StartOfDay returns the start of the day (00:00:00) in São Paulo timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, SaoPauloTZ)
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00) containing t,
// in São Paulo timezone.
func StartOfWeek(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(local.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns the exclusive end of the ISO week containing t:
// the following Monday 00:00:00. The week window is [StartOfWeek, EndOfWeek).
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7)
}

// InWeek reports whether instant falls inside the week containing anchor.
func InWeek(instant, anchor time.Time) bool {
	start := StartOfWeek(anchor)
	end := EndOfWeek(anchor)
	return !instant.Before(start) && instant.Before(end)
}
