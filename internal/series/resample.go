package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/fkaman/flexmeasures-entsoe/internal/models"
)

// ErrUnresolvableResolution means no consistent sampling resolution could be
// inferred from the spacing of the input timestamps.
var ErrUnresolvableResolution = errors.New("data has no discernible resolution")

// ErrPadBeforeFirstSample means the requested window starts before the first
// known value, so the leading slots have nothing to pad from. Raised by
// callers that align a resampled series to a requested window.
var ErrPadBeforeFirstSample = errors.New("requested window starts before the first known value")

// InferResolution derives the sampling resolution from the spacing of
// consecutive timestamps. All gaps must be equal; single-point or irregular
// series fail with ErrUnresolvableResolution.
func InferResolution(s models.Series) (time.Duration, error) {
	if len(s) < 2 {
		return 0, ErrUnresolvableResolution
	}
	step := s[1].Time.Sub(s[0].Time)
	if step <= 0 {
		return 0, ErrUnresolvableResolution
	}
	for i := 2; i < len(s); i++ {
		if s[i].Time.Sub(s[i-1].Time) != step {
			return 0, ErrUnresolvableResolution
		}
	}
	return step, nil
}

// Resample converts a series to the target resolution.
//
// When the inferred resolution already matches, the input is returned as-is.
// Coarser input is upsampled onto a grid covering [first, last+inferred),
// forward-filling each slot with the most recent value at or before it.
// Finer input is downsampled by averaging all samples falling in consecutive
// windows of the target length, aligned to midnight of the first sample's day.
func Resample(s models.Series, target time.Duration) (models.Series, error) {
	if target <= 0 {
		return nil, fmt.Errorf("invalid target resolution %s", target)
	}
	inferred, err := InferResolution(s)
	if err != nil {
		return nil, err
	}
	switch {
	case inferred == target:
		return s, nil
	case inferred > target:
		return upsample(s, inferred, target), nil
	default:
		return downsample(s, target), nil
	}
}

// upsample pads the series onto a finer grid. The grid is half-open: it spans
// the same wall-clock window as the input, [first, last+inferred), without
// overrunning it.
func upsample(s models.Series, inferred, target time.Duration) models.Series {
	end := s[len(s)-1].Time.Add(inferred)
	out := make(models.Series, 0, int(end.Sub(s[0].Time)/target))
	i := 0
	for t := s[0].Time; t.Before(end); t = t.Add(target) {
		// Advance to the last sample at or before t.
		for i+1 < len(s) && !s[i+1].Time.After(t) {
			i++
		}
		out = append(out, models.Point{Time: t, Value: s[i].Value})
	}
	return out
}

// downsample averages samples into consecutive windows of the target length.
// Windows are anchored at midnight of the first sample's calendar day in its
// own location, so hourly output lands on the hour regardless of the zone's
// UTC offset.
func downsample(s models.Series, target time.Duration) models.Series {
	first := s[0].Time
	dayStart := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())

	var out models.Series
	var sum float64
	var n int
	var current time.Time

	flush := func() {
		if n > 0 {
			out = append(out, models.Point{Time: current, Value: sum / float64(n)})
		}
		sum, n = 0, 0
	}

	for _, p := range s {
		bucket := dayStart.Add(p.Time.Sub(dayStart) / target * target)
		if n == 0 || !bucket.Equal(current) {
			flush()
			current = bucket
		}
		sum += p.Value
		n++
	}
	flush()
	return out
}
