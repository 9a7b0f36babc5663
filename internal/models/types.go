package models

import (
	"fmt"
	"time"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the range.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// Point is a single sampled value. Time marks the start of the event period.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of points with strictly increasing timestamps.
// The sampling resolution is implicit in the spacing of consecutive points.
type Series []Point

// Asset models a transmission zone that sensors hang off.
type Asset struct {
	ID   int64
	Name string
	Type string
}

// Sensor is the destination of an import: a named stream of beliefs with a
// fixed event resolution.
type Sensor struct {
	ID              int64
	AssetID         int64
	Name            string
	Unit            string
	Timezone        string
	EventResolution time.Duration
}

// Belief is one value about one event period, recorded at BeliefTime.
type Belief struct {
	SensorID   int64
	EventStart time.Time
	BeliefTime time.Time
	Source     string
	Value      float64
}
