package entity

import (
	"fmt"
	"strings"
	"time"
)

// Duration is an RFC 5545 duration value, restricted to the forms tasks use:
// [+-]PnW or [+-]PnD[TnHnMnS] (and the bare time form [+-]PTnHnMnS).
//
// Week and day components are calendar units: adding them to a timed value
// keeps the wall-clock time across DST transitions, which is why this is not
// a time.Duration.
type Duration struct {
	Negative bool
	Weeks    int
	Days     int
	Hours    int
	Minutes  int
	Seconds  int
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.Weeks == 0 && d.Days == 0 && d.Hours == 0 && d.Minutes == 0 && d.Seconds == 0
}

// AddTo applies the duration to t. Calendar components (weeks, days) go
// through AddDate so the result respects t's location; time components are
// plain elapsed time.
func (d Duration) AddTo(t time.Time) time.Time {
	sign := 1
	if d.Negative {
		sign = -1
	}
	if d.Weeks != 0 || d.Days != 0 {
		t = t.AddDate(0, 0, sign*(d.Weeks*7+d.Days))
	}
	clock := time.Duration(d.Hours)*time.Hour +
		time.Duration(d.Minutes)*time.Minute +
		time.Duration(d.Seconds)*time.Second
	return t.Add(time.Duration(sign) * clock)
}

func (d Duration) String() string {
	var b strings.Builder
	if d.Negative {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if d.Weeks != 0 {
		fmt.Fprintf(&b, "%dW", d.Weeks)
		return b.String()
	}
	if d.Days != 0 {
		fmt.Fprintf(&b, "%dD", d.Days)
	}
	if d.Hours != 0 || d.Minutes != 0 || d.Seconds != 0 {
		b.WriteByte('T')
		if d.Hours != 0 {
			fmt.Fprintf(&b, "%dH", d.Hours)
		}
		if d.Minutes != 0 {
			fmt.Fprintf(&b, "%dM", d.Minutes)
		}
		if d.Seconds != 0 {
			fmt.Fprintf(&b, "%dS", d.Seconds)
		}
	}
	if b.Len() == 1 || (d.Negative && b.Len() == 2) {
		b.WriteString("T0S")
	}
	return b.String()
}

// ParseDuration parses an RFC 5545 duration string.
func ParseDuration(s string) (Duration, error) {
	var d Duration
	rest := s

	switch {
	case strings.HasPrefix(rest, "-"):
		d.Negative = true
		rest = rest[1:]
	case strings.HasPrefix(rest, "+"):
		rest = rest[1:]
	}

	if !strings.HasPrefix(rest, "P") {
		return Duration{}, fmt.Errorf("invalid duration %q: missing P", s)
	}
	rest = rest[1:]
	if rest == "" {
		return Duration{}, fmt.Errorf("invalid duration %q: empty", s)
	}

	inTime := false
	sawComponent := false
	for rest != "" {
		if rest[0] == 'T' {
			if inTime {
				return Duration{}, fmt.Errorf("invalid duration %q: repeated T", s)
			}
			inTime = true
			rest = rest[1:]
			continue
		}

		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i == len(rest) {
			return Duration{}, fmt.Errorf("invalid duration %q", s)
		}
		n := 0
		for _, c := range rest[:i] {
			n = n*10 + int(c-'0')
		}

		unit := rest[i]
		rest = rest[i+1:]
		sawComponent = true

		switch {
		case unit == 'W' && !inTime:
			d.Weeks = n
			if rest != "" {
				return Duration{}, fmt.Errorf("invalid duration %q: W must stand alone", s)
			}
		case unit == 'D' && !inTime:
			d.Days = n
		case unit == 'H' && inTime:
			d.Hours = n
		case unit == 'M' && inTime:
			d.Minutes = n
		case unit == 'S' && inTime:
			d.Seconds = n
		default:
			return Duration{}, fmt.Errorf("invalid duration %q: unexpected unit %c", s, unit)
		}
	}

	if !sawComponent {
		return Duration{}, fmt.Errorf("invalid duration %q: no components", s)
	}
	return d, nil
}
