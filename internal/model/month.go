// Package model defines the core domain types for Tsukimi.
//
// Types mirror the persisted document formats exactly (camelCase JSON
// field names), so a snapshot written by one version round-trips through
// another without translation. Types use strong typing (enums, time.Time)
// and avoid interface{} wherever possible.
package model

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM" (1-based, zero-padded
// month). It scopes both rule instances and the in-month task filter.
type MonthKey string

// DayKey identifies a local calendar day as "YYYY-MM-DD".
type DayKey string

// MonthKeyOf derives the month key from a date's year and month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// DayKeyOf derives the day key from a date's local calendar day.
func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.Format("2006-01-02"))
}

// Valid reports whether the key is a well-formed "YYYY-MM" string with a
// month in 01..12.
func (k MonthKey) Valid() bool {
	s := string(k)
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	month := int(s[5]-'0')*10 + int(s[6]-'0')
	return month >= 1 && month <= 12
}

// InMonth reports whether an ISO-8601 timestamp string falls in the month.
// Only the 7-character "YYYY-MM" prefix is compared; this is stable whether
// the stamp carries a zone offset or not.
func InMonth(iso string, key MonthKey) bool {
	return len(iso) >= 7 && MonthKey(iso[:7]) == key
}

// timestampLayouts are tried in order by ParseTimestamp. Zone-less layouts
// are interpreted in the caller's location.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Stamps without a zone offset
// are interpreted in loc; stamps with one are converted into loc so that all
// local-calendar math (hours, day keys) uses a single reference location.
// Returns false for empty or malformed input — callers degrade per-record.
func ParseTimestamp(iso string, loc *time.Location) (time.Time, bool) {
	if iso == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, iso, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}
