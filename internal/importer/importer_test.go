package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkaman/flexmeasures-entsoe/internal/database"
	"github.com/fkaman/flexmeasures-entsoe/internal/entsoe"
	"github.com/fkaman/flexmeasures-entsoe/internal/models"
	"github.com/fkaman/flexmeasures-entsoe/internal/series"
)

type fakeFetcher struct {
	series   models.Series
	err      error
	gotZone  entsoe.Zone
	gotRange models.TimeRange
}

func (f *fakeFetcher) DayAheadPrices(ctx context.Context, zone entsoe.Zone, r models.TimeRange) (models.Series, error) {
	f.gotZone = zone
	f.gotRange = r
	return f.series, f.err
}

type fakeRepo struct {
	saved    []models.Belief
	inserted int
	saveErr  error
}

func (f *fakeRepo) EnsureTransmissionZone(ctx context.Context, countryCode string) (models.Asset, error) {
	return models.Asset{ID: 1, Name: countryCode + " transmission zone", Type: "transmission zone"}, nil
}

func (f *fakeRepo) EnsureSensor(ctx context.Context, asset models.Asset, spec database.SensorSpec, timezone string) (models.Sensor, error) {
	return models.Sensor{
		ID:              7,
		AssetID:         asset.ID,
		Name:            spec.Name,
		Unit:            spec.Unit,
		Timezone:        timezone,
		EventResolution: spec.EventResolution,
	}, nil
}

func (f *fakeRepo) SaveBeliefs(ctx context.Context, beliefs []models.Belief) (int, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, beliefs...)
	if f.inserted == 0 {
		f.inserted = len(beliefs)
	}
	return f.inserted, nil
}

func (f *fakeRepo) Close() error { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fixedNow is a clock-day of 2025-05-01, noon in Amsterdam.
func fixedNow() time.Time {
	loc, _ := time.LoadLocation("Europe/Amsterdam")
	return time.Date(2025, 5, 1, 12, 0, 0, 0, loc)
}

// tomorrowHourly is a complete hourly auction day for 2025-05-02 CEST.
func tomorrowHourly() models.Series {
	start := time.Date(2025, 5, 1, 22, 0, 0, 0, time.UTC) // 2025-05-02 00:00 CEST
	s := make(models.Series, 24)
	for i := range s {
		s[i] = models.Point{Time: start.Add(time.Duration(i) * time.Hour), Value: float64(20 + i)}
	}
	return s
}

func newImporter(fetcher Fetcher, repo database.Repository) *Importer {
	return New(Config{
		Fetcher:    fetcher,
		Repository: repo,
		Logger:     quietLogger(),
		Now:        fixedNow,
	})
}

func TestImportDayAheadPrices(t *testing.T) {
	fetcher := &fakeFetcher{series: tomorrowHourly()}
	repo := &fakeRepo{}
	imp := newImporter(fetcher, repo)

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		Policy:      series.Tomorrow,
	})
	require.NoError(t, err)

	// The zone and window passed down to the fetcher.
	assert.Equal(t, "10YNL----------L", fetcher.gotZone.Code)
	loc, _ := time.LoadLocation("Europe/Amsterdam")
	assert.True(t, fetcher.gotRange.Start.Equal(time.Date(2025, 5, 2, 0, 0, 0, 0, loc)))
	assert.True(t, fetcher.gotRange.End.Equal(time.Date(2025, 5, 3, 0, 0, 0, 0, loc)))

	// 24 hourly prices upsampled to the 15-minute sensor resolution.
	require.Len(t, repo.saved, 96)
	for i, b := range repo.saved {
		assert.Equal(t, int64(7), b.SensorID)
		assert.Equal(t, "ENTSO-E", b.Source)
		assert.Equal(t, float64(20+i/4), b.Value, "belief %d", i)
		// Publication of tomorrow's auction lies in the future relative to
		// the run, so belief times clip to now.
		assert.True(t, b.BeliefTime.Equal(fixedNow()), "belief %d", i)
	}
}

func TestImportDayAheadPricesBeliefTimeNotClipped(t *testing.T) {
	// Importing yesterday's prices: publication moment is in the past and
	// is used as-is.
	loc, _ := time.LoadLocation("Europe/Amsterdam")
	from := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	until := from

	start := time.Date(2025, 4, 29, 22, 0, 0, 0, time.UTC) // 2025-04-30 00:00 CEST
	s := make(models.Series, 24)
	for i := range s {
		s[i] = models.Point{Time: start.Add(time.Duration(i) * time.Hour), Value: 1}
	}

	fetcher := &fakeFetcher{series: s}
	repo := &fakeRepo{}
	imp := newImporter(fetcher, repo)

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		FromDate:    &from,
		UntilDate:   &until,
		Policy:      series.TodayAndTomorrow,
	})
	require.NoError(t, err)

	require.NotEmpty(t, repo.saved)
	wantBelief := time.Date(2025, 4, 29, 18, 0, 0, 0, loc)
	for _, b := range repo.saved {
		assert.True(t, b.BeliefTime.Equal(wantBelief), "got %s", b.BeliefTime)
	}
}

func TestImportDayAheadPricesEmpty(t *testing.T) {
	fetcher := &fakeFetcher{series: nil}
	repo := &fakeRepo{}
	imp := newImporter(fetcher, repo)

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		Policy:      series.Tomorrow,
	})
	require.ErrorIs(t, err, series.ErrEmptyData)
	assert.Empty(t, repo.saved)
}

func TestImportDayAheadPricesIncomplete(t *testing.T) {
	fetcher := &fakeFetcher{series: tomorrowHourly()[:20]}
	repo := &fakeRepo{}
	imp := newImporter(fetcher, repo)

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		Policy:      series.Tomorrow,
	})

	var incomplete *series.IncompleteDataError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 24, incomplete.Expected)
	assert.Equal(t, 20, incomplete.Observed)
	assert.Empty(t, repo.saved)
}

func TestImportDayAheadPricesWindowBeforeData(t *testing.T) {
	// Data that starts halfway into the requested day but runs long enough
	// to satisfy the period count: the missing leading hours must not be
	// padded from nothing.
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) // 12:00 CEST
	late := make(models.Series, 24)
	for i := range late {
		late[i] = models.Point{Time: start.Add(time.Duration(i) * time.Hour), Value: 1}
	}

	fetcher := &fakeFetcher{series: late}
	repo := &fakeRepo{}
	imp := newImporter(fetcher, repo)

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		Policy:      series.Today,
	})
	require.ErrorIs(t, err, series.ErrPadBeforeFirstSample)
	assert.Empty(t, repo.saved)
}

func TestImportDayAheadPricesDryRun(t *testing.T) {
	fetcher := &fakeFetcher{series: tomorrowHourly()}
	repo := &fakeRepo{}
	imp := newImporter(fetcher, repo)

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		Policy:      series.Tomorrow,
		DryRun:      true,
	})
	require.NoError(t, err)
	assert.Empty(t, repo.saved)
}

func TestImportDayAheadPricesUnknownCountry(t *testing.T) {
	imp := newImporter(&fakeFetcher{}, &fakeRepo{})

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "XX",
		Policy:      series.Tomorrow,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown country code")
}

func TestImportDayAheadPricesFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	imp := newImporter(fetcher, &fakeRepo{})

	err := imp.ImportDayAheadPrices(context.Background(), Options{
		CountryCode: "NL",
		Policy:      series.Tomorrow,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch")
}
