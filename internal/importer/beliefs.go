package importer

import (
	"time"

	"github.com/fkaman/flexmeasures-entsoe/internal/models"
)

// publicationLead is how long before the event day starts the day-ahead
// auction results are known: published no later than D-1 18:00 local time.
const publicationLead = 6 * time.Hour

// BeliefTime computes when a value for the given event became known: the
// start of the event's calendar day in loc minus the publication lead,
// clipped to now for events whose publication moment lies in the future.
func BeliefTime(eventStart, now time.Time, loc *time.Location) time.Time {
	local := eventStart.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	bt := dayStart.Add(-publicationLead)
	if bt.After(now) {
		return now
	}
	return bt
}

// BeliefsFor turns an adapted series into belief records for a sensor.
func BeliefsFor(s models.Series, sensor models.Sensor, source string, now time.Time, loc *time.Location) []models.Belief {
	beliefs := make([]models.Belief, len(s))
	for i, p := range s {
		beliefs[i] = models.Belief{
			SensorID:   sensor.ID,
			EventStart: p.Time,
			BeliefTime: BeliefTime(p.Time, now, loc),
			Source:     source,
			Value:      p.Value,
		}
	}
	return beliefs
}
