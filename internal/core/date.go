package core

import (
	"errors"
	"strings"
	"time"
)

// Date is a calendar date with no time component, normalized to UTC midnight.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// OnOrBefore reports whether d falls on or before other.
func (d Date) OnOrBefore(other Date) bool {
	return !d.Time.After(other.Time)
}

// SameMonth reports whether two dates share calendar year and month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonthsClamped advances the date by n calendar months, clamping the day
// to the last day of the target month when the anchor day does not exist
// there (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonthsClamped(n int) Date {
	return d.AddMonthsAnchored(n, d.Day())
}

// AddMonthsAnchored advances the date by n calendar months, re-aiming at
// anchorDay in the target month so a clamped step does not lose the anchor
// (Feb 29 anchored to 31 still yields Mar 31). The day clamps to the last
// day of the target month when anchorDay does not exist there.
func (d Date) AddMonthsAnchored(n, anchorDay int) Date {
	year, month, _ := d.Date()
	// First of the target month, then clamp the anchor day.
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := anchorDay
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// AddYearsClamped advances the date by n calendar years, clamping Feb 29
// to Feb 28 in non-leap years.
func (d Date) AddYearsClamped(n int) Date {
	return d.AddMonthsClamped(12 * n)
}

// StartOfWeek returns the Monday of the date's ISO week.
func (d Date) StartOfWeek() Date {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDays(-offset)
}

// StartOfMonth returns the first day of the date's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// MarshalJSON encodes the date as "2006-01-02". The zero date encodes as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON decodes "2006-01-02" strings; null and "" yield the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
