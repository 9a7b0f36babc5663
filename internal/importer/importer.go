// Package importer orchestrates one import run: resolve the date window,
// fetch from ENTSO-E, validate completeness, resample to the destination
// sensor's event resolution and persist the result as beliefs.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fkaman/flexmeasures-entsoe/internal/database"
	"github.com/fkaman/flexmeasures-entsoe/internal/entsoe"
	"github.com/fkaman/flexmeasures-entsoe/internal/models"
	"github.com/fkaman/flexmeasures-entsoe/internal/series"
)

// DataSourceName identifies the origin of imported beliefs.
const DataSourceName = "ENTSO-E"

// PricingSensors lists the sensors the price import provisions and fills.
// The 15-minute resolution follows the October 2025 MTU go-live.
var PricingSensors = []database.SensorSpec{
	{Name: "Day-ahead prices", Unit: "EUR/MWh", EventResolution: 15 * time.Minute},
}

// Fetcher supplies raw price series for a zone and window.
type Fetcher interface {
	DayAheadPrices(ctx context.Context, zone entsoe.Zone, r models.TimeRange) (models.Series, error)
}

// Options are the per-run parameters, mostly mapped from CLI flags.
type Options struct {
	CountryCode string
	// Timezone overrides the zone's canonical timezone when set.
	Timezone  string
	FromDate  *time.Time
	UntilDate *time.Time
	Policy    series.DefaultPolicy
	// DryRun runs everything except persistence.
	DryRun bool
}

// Config wires an Importer together.
type Config struct {
	Fetcher    Fetcher
	Repository database.Repository
	Logger     *logrus.Logger
	// Source names the data source on saved beliefs; defaults to
	// DataSourceName.
	Source string
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Importer runs imports. Safe for concurrent use; all state is per-run.
type Importer struct {
	fetcher Fetcher
	repo    database.Repository
	logger  *logrus.Logger
	source  string
	now     func() time.Time
}

func New(cfg Config) *Importer {
	if cfg.Source == "" {
		cfg.Source = DataSourceName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Importer{
		fetcher: cfg.Fetcher,
		repo:    cfg.Repository,
		logger:  cfg.Logger,
		source:  cfg.Source,
		now:     cfg.Now,
	}
}

// ImportDayAheadPrices performs one price import run. Any failure aborts the
// run before persistence; a run either saves a complete adapted series or
// nothing.
func (imp *Importer) ImportDayAheadPrices(ctx context.Context, opts Options) error {
	started := time.Now()
	err := imp.importDayAheadPrices(ctx, opts)
	importDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		importRuns.WithLabelValues(opts.CountryCode, "error").Inc()
		return err
	}
	importRuns.WithLabelValues(opts.CountryCode, "success").Inc()
	return nil
}

func (imp *Importer) importDayAheadPrices(ctx context.Context, opts Options) error {
	zone, err := entsoe.LookupZone(opts.CountryCode)
	if err != nil {
		return err
	}
	timezone := opts.Timezone
	if timezone == "" {
		timezone = zone.Timezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	now := imp.now().In(loc)
	rng, err := series.ResolveRange(now, loc, opts.FromDate, opts.UntilDate, opts.Policy)
	if err != nil {
		return err
	}

	log := imp.logger.WithFields(logrus.Fields{
		"run_id":   uuid.NewString(),
		"country":  opts.CountryCode,
		"timezone": timezone,
		"from":     rng.Start.Format(time.RFC3339),
		"until":    rng.End.Format(time.RFC3339),
	})
	log.Info("Importing day-ahead prices")

	raw, err := imp.fetcher.DayAheadPrices(ctx, zone, rng)
	if err != nil {
		return fmt.Errorf("failed to fetch day-ahead prices: %w", err)
	}
	if err := series.CheckNonEmpty(len(raw)); err != nil {
		return err
	}
	inferred, err := series.InferResolution(raw)
	if err != nil {
		return err
	}
	if err := series.CheckComplete(len(raw), rng, inferred); err != nil {
		return err
	}
	if rng.Start.Before(raw[0].Time) {
		return fmt.Errorf("%w: window starts %s, first sample %s",
			series.ErrPadBeforeFirstSample, rng.Start.Format(time.RFC3339), raw[0].Time.Format(time.RFC3339))
	}

	asset, err := imp.repo.EnsureTransmissionZone(ctx, opts.CountryCode)
	if err != nil {
		return err
	}

	for _, spec := range PricingSensors {
		sensor, err := imp.repo.EnsureSensor(ctx, asset, spec, timezone)
		if err != nil {
			return err
		}

		adapted, err := series.Resample(raw, sensor.EventResolution)
		if err != nil {
			return err
		}
		if len(adapted) != len(raw) {
			log.WithFields(logrus.Fields{
				"sensor": sensor.Name,
				"in":     len(raw),
				"out":    len(adapted),
			}).Debug("Resampled data to sensor resolution")
		}

		beliefs := BeliefsFor(adapted, sensor, imp.source, now, loc)
		if opts.DryRun {
			log.WithFields(logrus.Fields{
				"sensor":  sensor.Name,
				"beliefs": len(beliefs),
			}).Info("Dry run, not saving")
			continue
		}

		inserted, err := imp.repo.SaveBeliefs(ctx, beliefs)
		if err != nil {
			return fmt.Errorf("failed to save beliefs for %s: %w", sensor.Name, err)
		}
		beliefsSaved.Add(float64(inserted))

		switch {
		case inserted == 0:
			log.WithField("sensor", sensor.Name).Info("Done. These beliefs had already been saved before.")
		case inserted < len(beliefs):
			log.WithField("sensor", sensor.Name).Info("Done. Some beliefs had already been saved before.")
		default:
			log.WithFields(logrus.Fields{
				"sensor":  sensor.Name,
				"beliefs": inserted,
			}).Info("Done")
		}
	}
	return nil
}
