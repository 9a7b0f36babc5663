// Package scheduler runs imports periodically in serve mode. Day-ahead
// auction results appear during the early afternoon, so the default schedule
// retries through the afternoon; re-imports of already-saved beliefs are
// no-ops.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fkaman/flexmeasures-entsoe/internal/importer"
)

type Scheduler struct {
	ctx      context.Context
	importer *importer.Importer
	logger   *logrus.Logger
	cron     *cron.Cron
	spec     string
	opts     importer.Options
	timeout  time.Duration
}

func NewScheduler(
	ctx context.Context,
	imp *importer.Importer,
	logger *logrus.Logger,
	spec string,
	opts importer.Options,
	timeout time.Duration,
) *Scheduler {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		ctx:      ctx,
		importer: imp,
		logger:   logger,
		cron:     cron.New(),
		spec:     spec,
		opts:     opts,
		timeout:  timeout,
	}
}

// Start registers the import job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runImport)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"cron":    s.spec,
		"country": s.opts.CountryCode,
	}).Info("Scheduler started")
	return nil
}

// runImport performs one scheduled import. Failures are logged, not fatal:
// the next scheduled run simply tries again.
func (s *Scheduler) runImport() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := s.importer.ImportDayAheadPrices(ctx, s.opts); err != nil {
		s.logger.WithError(err).Error("Scheduled import failed")
	}
}

// Stop halts the cron loop; a running import finishes on its own timeout.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
