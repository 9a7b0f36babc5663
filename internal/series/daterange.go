// Package series holds the pure time-series utilities of the importer:
// date-range resolution for CLI bounds, completeness checking of fetched
// data, and resampling to a sensor's event resolution.
//
// Nothing in this package does I/O or carries state across calls; the
// current time is always an explicit argument.
package series

import (
	"fmt"
	"time"

	"github.com/fkaman/flexmeasures-entsoe/internal/models"
)

// DefaultPolicy selects the date window used when no explicit bounds are
// given on the command line.
type DefaultPolicy int

const (
	// Today resolves to [midnight today, midnight tomorrow).
	Today DefaultPolicy = iota
	// Tomorrow resolves to [midnight tomorrow, midnight the day after).
	Tomorrow
	// TodayAndTomorrow resolves to [midnight today, midnight the day after
	// tomorrow). This is the default for price imports.
	TodayAndTomorrow
)

const policyNames = "'today', 'tomorrow' or 'today-and-tomorrow'"

// ParseDefaultPolicy maps a CLI flag value onto a DefaultPolicy.
func ParseDefaultPolicy(s string) (DefaultPolicy, error) {
	switch s {
	case "today":
		return Today, nil
	case "tomorrow":
		return Tomorrow, nil
	case "today-and-tomorrow":
		return TodayAndTomorrow, nil
	}
	return 0, fmt.Errorf("invalid default policy %q: expected %s", s, policyNames)
}

func (p DefaultPolicy) String() string {
	switch p {
	case Today:
		return "today"
	case Tomorrow:
		return "tomorrow"
	case TodayAndTomorrow:
		return "today-and-tomorrow"
	}
	return fmt.Sprintf("DefaultPolicy(%d)", int(p))
}

// offsets returns the start and end of the policy window in whole days
// relative to midnight today.
func (p DefaultPolicy) offsets() (startDays, endDays int, err error) {
	switch p {
	case Today:
		return 0, 1, nil
	case Tomorrow:
		return 1, 2, nil
	case TodayAndTomorrow:
		return 0, 2, nil
	}
	return 0, 0, fmt.Errorf("invalid default policy %d: expected %s", int(p), policyNames)
}

// ResolveRange computes the half-open import window from optional CLI date
// bounds, anchored at local midnight in loc.
//
// An explicit fromDate is taken verbatim as the start of that calendar day.
// An explicit untilDate is inclusive: the resolved end is 24h past its
// midnight, so fromDate == untilDate yields 00:00 to 24:00 of that day.
// Omitted bounds fall back to the policy window relative to now.
func ResolveRange(now time.Time, loc *time.Location, fromDate, untilDate *time.Time, policy DefaultPolicy) (models.TimeRange, error) {
	startDays, endDays, err := policy.offsets()
	if err != nil {
		return models.TimeRange{}, err
	}

	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	start := todayStart.AddDate(0, 0, startDays)
	end := todayStart.AddDate(0, 0, endDays)

	if fromDate != nil {
		start = localizeDate(*fromDate, loc)
	}
	if untilDate != nil {
		end = localizeDate(*untilDate, loc).Add(24 * time.Hour)
	}

	if !end.After(start) {
		return models.TimeRange{}, fmt.Errorf("resolved range is empty: start %s is not before end %s", start, end)
	}
	return models.TimeRange{Start: start, End: end}, nil
}

// localizeDate reinterprets the calendar day of t as midnight in loc,
// discarding any time-of-day and source location.
func localizeDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
