// Package schedule maintains recurrence definitions and materializes the
// transactions they describe.
//
// Each frequency has its own Advancer encapsulating the offset arithmetic,
// looked up through a registry keyed by frequency.
package schedule

import (
	"fmt"

	"tally/internal/core"
)

// Advancer computes the next occurrence for one frequency.
type Advancer interface {
	// Next returns the occurrence immediately after from.
	Next(from core.Date) core.Date
}

// dayStep advances by a fixed number of days.
type dayStep int

func (s dayStep) Next(from core.Date) core.Date {
	return from.AddDays(int(s))
}

// monthStep advances by calendar months. The day of month is clamped to
// the last day of the target month when the anchor day does not exist
// there (Jan 31 + 1 month = Feb 28/29), matching billing convention.
type monthStep int

func (s monthStep) Next(from core.Date) core.Date {
	return from.AddMonthsClamped(int(s))
}

var advancers = map[core.Frequency]Advancer{
	core.Daily:     dayStep(1),
	core.Weekly:    dayStep(7),
	core.Biweekly:  dayStep(14),
	core.Monthly:   monthStep(1),
	core.Quarterly: monthStep(3),
	core.Biannual:  monthStep(6),
	core.Annual:    monthStep(12),
}

// AdvancerFor returns the offset arithmetic for a frequency.
func AdvancerFor(f core.Frequency) (Advancer, error) {
	adv, ok := advancers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return adv, nil
}

// NextDate returns the occurrence of f immediately after from.
func NextDate(from core.Date, f core.Frequency) (core.Date, error) {
	adv, err := AdvancerFor(f)
	if err != nil {
		return core.Date{}, err
	}
	return adv.Next(from), nil
}

// NextDateFrom returns the occurrence of f immediately after from, keeping
// month-based frequencies anchored to anchorDay. Without the anchor a clamped
// step sticks: Jan 31 lands on Feb 29 and every later month follows the 29th.
// Anchoring on the definition's start day restores the 31st wherever the
// month allows it. Day-based frequencies ignore the anchor.
func NextDateFrom(from core.Date, anchorDay int, f core.Frequency) (core.Date, error) {
	adv, err := AdvancerFor(f)
	if err != nil {
		return core.Date{}, err
	}
	if step, ok := adv.(monthStep); ok {
		return from.AddMonthsAnchored(int(step), anchorDay), nil
	}
	return adv.Next(from), nil
}

// IsDue reports whether a definition should be executed as of today:
// it is active and its next occurrence has arrived or passed.
func IsDue(def core.RecurrenceDefinition, today core.Date) bool {
	return def.IsActive && def.NextDate.OnOrBefore(today)
}

// Due filters the definitions due as of today.
func Due(defs []core.RecurrenceDefinition, today core.Date) []core.RecurrenceDefinition {
	var out []core.RecurrenceDefinition
	for _, def := range defs {
		if IsDue(def, today) {
			out = append(out, def)
		}
	}
	return out
}

// Upcoming filters active definitions whose next occurrence falls after
// today but within the next horizonDays days.
func Upcoming(defs []core.RecurrenceDefinition, today core.Date, horizonDays int) []core.RecurrenceDefinition {
	limit := today.AddDays(horizonDays)
	var out []core.RecurrenceDefinition
	for _, def := range defs {
		if !def.IsActive || IsDue(def, today) {
			continue
		}
		if def.NextDate.OnOrBefore(limit) {
			out = append(out, def)
		}
	}
	return out
}
