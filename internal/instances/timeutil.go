package instances

import (
	"time"

	"github.com/roach88/taskstore/internal/entity"
)

// sortKey computes the sorting value for a materialized instant.
//
// All-day instants are stored as UTC-midnight literals and sort by that
// literal value, so calendar dates order the same for every viewer. Timed
// instants are re-expressed in the local zone: the instant's local wall
// clock, read as if it were UTC. Both representations live on one axis, so
// an all-day date and a timed date range-filter together.
func sortKey(ms int64, allDay bool, local *time.Location) int64 {
	if allDay {
		return ms
	}
	t := time.UnixMilli(ms).In(local)
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).UnixMilli()
}

// addDuration applies an RFC 5545 duration to a start instant.
//
// For timed starts the calendar components are applied in the task's own
// zone, so a one-day duration lands on the same wall-clock time across DST.
// All-day starts are UTC literals and stay literal.
func addDuration(startMs int64, d entity.Duration, allDay bool, tz string) int64 {
	loc := time.UTC
	if !allDay && tz != "" {
		// Validation guarantees the zone loads; fall back to UTC if a raw
		// row carries one it never vetted.
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	t := time.UnixMilli(startMs).In(loc)
	return d.AddTo(t).UnixMilli()
}
