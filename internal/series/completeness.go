package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/fkaman/flexmeasures-entsoe/internal/models"
)

// ErrEmptyData means the upstream source returned no periods at all,
// typically because the requested window has not been published yet.
var ErrEmptyData = errors.New("result is empty: the data source does not provide this window yet")

// IncompleteDataError means the source returned fewer periods than the
// requested range requires at the given resolution. A partially published
// day-ahead auction is the usual cause.
type IncompleteDataError struct {
	Expected int
	Observed int
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("result is incomplete: expected %d periods but got %d", e.Expected, e.Observed)
}

// ExpectedPeriods returns how many whole periods of the given resolution fit
// in the range.
func ExpectedPeriods(r models.TimeRange, resolution time.Duration) int {
	if resolution <= 0 {
		return 0
	}
	return int(r.Duration() / resolution)
}

// CheckNonEmpty fails with ErrEmptyData when nothing was returned.
func CheckNonEmpty(observed int) error {
	if observed == 0 {
		return ErrEmptyData
	}
	return nil
}

// CheckComplete fails with an IncompleteDataError when fewer periods were
// observed than the range requires. More periods than expected pass: duplicate
// or finer-grained input is dealt with downstream, not here.
func CheckComplete(observed int, r models.TimeRange, resolution time.Duration) error {
	expected := ExpectedPeriods(r, resolution)
	if observed < expected {
		return &IncompleteDataError{Expected: expected, Observed: observed}
	}
	return nil
}
