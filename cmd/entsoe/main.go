package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fkaman/flexmeasures-entsoe/internal/config"
	"github.com/fkaman/flexmeasures-entsoe/internal/database"
	"github.com/fkaman/flexmeasures-entsoe/internal/entsoe"
	"github.com/fkaman/flexmeasures-entsoe/internal/importer"
	"github.com/fkaman/flexmeasures-entsoe/internal/scheduler"
	"github.com/fkaman/flexmeasures-entsoe/internal/series"
)

// Command entsoe imports ENTSO-E time series into a FlexMeasures-style
// database.
//
// Subcommands:
//
//	import-prices   one-shot import of day-ahead prices
//	serve           run scheduled imports and expose Prometheus metrics
//
// The import window is controlled with -from-date and -until-date
// (YYYY-MM-DD, until inclusive); without them it defaults to today and
// tomorrow in the bidding zone's timezone.
func main() {
	// A .env file may carry ENTSOE_AUTH_TOKEN and friends for local use.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import-prices":
		err = runImport(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: entsoe <command> [flags]

Commands:
  import-prices   import day-ahead prices for one date window
  serve           run scheduled imports with a metrics endpoint

Run 'entsoe <command> -h' for command flags.
`)
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import-prices", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	fromDate := fs.String("from-date", "", "first day to import (YYYY-MM-DD)")
	untilDate := fs.String("until-date", "", "last day to import, inclusive (YYYY-MM-DD)")
	timezone := fs.String("timezone", "", "IANA timezone overriding the zone default")
	country := fs.String("country", "", "country/bidding zone code (e.g. NL, DE_LU)")
	defaultRange := fs.String("default-date-range", "today-and-tomorrow",
		"window when no dates are given: 'today', 'tomorrow' or 'today-and-tomorrow'")
	dryRun := fs.Bool("dry-run", false, "fetch and adapt but do not save")
	if err := fs.Parse(args); err != nil {
		return err
	}

	policy, err := series.ParseDefaultPolicy(*defaultRange)
	if err != nil {
		return err
	}

	opts := importer.Options{
		Policy: policy,
		DryRun: *dryRun,
	}
	if opts.FromDate, err = parseDate(*fromDate); err != nil {
		return err
	}
	if opts.UntilDate, err = parseDate(*untilDate); err != nil {
		return err
	}

	appConfig, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(appConfig.Logging)
	if err != nil {
		return err
	}

	opts.CountryCode = *country
	if opts.CountryCode == "" {
		opts.CountryCode = appConfig.Entsoe.CountryCode
	}
	opts.Timezone = *timezone
	if opts.Timezone == "" {
		opts.Timezone = appConfig.Entsoe.CountryTimezone
	}

	imp, repo, err := buildImporter(appConfig, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return imp.ImportDayAheadPrices(ctx, opts)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	appConfig, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(appConfig.Logging)
	if err != nil {
		return err
	}
	logger.WithField("config", *configPath).Info("Starting scheduled importer")
	logger.Debug(appConfig.String())

	imp, repo, err := buildImporter(appConfig, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	importer.RegisterMetrics(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, imp, logger,
		appConfig.Scheduler.Cron,
		importer.Options{
			CountryCode: appConfig.Entsoe.CountryCode,
			Timezone:    appConfig.Entsoe.CountryTimezone,
			Policy:      series.TodayAndTomorrow,
		},
		time.Duration(appConfig.Scheduler.Timeout)*time.Second,
	)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	errChan := make(chan error, 1)

	var metricsServer *http.Server
	if appConfig.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: appConfig.Metrics.Addr, Handler: mux}
		go func() {
			logger.WithField("addr", appConfig.Metrics.Addr).Info("Serving metrics")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-errChan:
		return err
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

// buildImporter wires the client, repository and importer from config.
func buildImporter(appConfig *config.Config, logger *logrus.Logger) (*importer.Importer, database.Repository, error) {
	repo, err := database.NewPostgresRepo(appConfig.Database.ConnString(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	baseURL := entsoe.ProductionURL
	if appConfig.Entsoe.UseTestServer {
		baseURL = entsoe.TestServerURL
	}
	client, err := entsoe.NewClient(entsoe.Config{
		BaseURL:   baseURL,
		Token:     appConfig.Entsoe.Token(),
		Timeout:   time.Duration(appConfig.Entsoe.RequestTimeout) * time.Second,
		RateLimit: appConfig.Entsoe.RateLimit,
		RateBurst: appConfig.Entsoe.RateLimitBurst,
		CacheSize: appConfig.Entsoe.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	logger.WithField("url", client.BaseURL()).Debug("ENTSO-E client ready")

	imp := importer.New(importer.Config{
		Fetcher:    client,
		Repository: repo,
		Logger:     logger,
	})
	return imp, repo, nil
}

func newLogger(cfg config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// parseDate parses a YYYY-MM-DD CLI value; the empty string means unset.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}
