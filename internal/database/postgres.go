// Package database implements Postgres-backed storage of sensors and their
// belief records.
//
// The layout mirrors the host platform's data model: a transmission zone
// asset per country, sensors hanging off it, and a beliefs table keyed by
// (sensor, event start, belief time, source) so that re-imports are
// idempotent.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/fkaman/flexmeasures-entsoe/internal/models"
)

// SensorSpec describes a sensor to provision for a transmission zone.
type SensorSpec struct {
	Name            string
	Unit            string
	EventResolution time.Duration
}

// Repository defines the storage operations the importer needs.
type Repository interface {
	// EnsureTransmissionZone makes sure the asset modelling the given
	// country's transmission zone exists, creating it if necessary.
	EnsureTransmissionZone(ctx context.Context, countryCode string) (models.Asset, error)

	// EnsureSensor makes sure a sensor exists under the asset. An existing
	// sensor is returned as-is; a resolution mismatch with the spec is
	// logged, not fixed.
	EnsureSensor(ctx context.Context, asset models.Asset, spec SensorSpec, timezone string) (models.Sensor, error)

	// SaveBeliefs inserts belief records in a single transaction, skipping
	// ones that were saved before. Returns the number actually inserted.
	SaveBeliefs(ctx context.Context, beliefs []models.Belief) (int, error)

	// Close releases the underlying connection pool.
	Close() error
}

const transmissionZoneType = "transmission zone"

// PostgresRepo implements Repository on database/sql with lib/pq.
type PostgresRepo struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewPostgresRepo connects, verifies connectivity and ensures the schema.
func NewPostgresRepo(connStr string, logger *logrus.Logger) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	repo := &PostgresRepo{db: db, logger: logger}
	if err := repo.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (s *PostgresRepo) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS asset (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sensor (
			id BIGSERIAL PRIMARY KEY,
			asset_id BIGINT NOT NULL REFERENCES asset(id),
			name TEXT NOT NULL,
			unit TEXT NOT NULL,
			timezone TEXT NOT NULL,
			event_resolution_seconds BIGINT NOT NULL,
			UNIQUE (asset_id, name, unit)
		)`,
		`CREATE TABLE IF NOT EXISTS belief (
			sensor_id BIGINT NOT NULL REFERENCES sensor(id),
			event_start TIMESTAMPTZ NOT NULL,
			belief_time TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (sensor_id, event_start, belief_time, source)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresRepo) EnsureTransmissionZone(ctx context.Context, countryCode string) (models.Asset, error) {
	name := fmt.Sprintf("%s transmission zone", countryCode)

	asset := models.Asset{Name: name, Type: transmissionZoneType}
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM asset WHERE name = $1", name,
	).Scan(&asset.ID)
	if err == nil {
		return asset, nil
	}
	if err != sql.ErrNoRows {
		return models.Asset{}, err
	}

	s.logger.WithField("asset", name).Info("Adding transmission zone asset")
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO asset (name, type) VALUES ($1, $2) RETURNING id",
		name, transmissionZoneType,
	).Scan(&asset.ID)
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to create asset %s: %w", name, err)
	}
	return asset, nil
}

func (s *PostgresRepo) EnsureSensor(ctx context.Context, asset models.Asset, spec SensorSpec, timezone string) (models.Sensor, error) {
	sensor := models.Sensor{
		AssetID:         asset.ID,
		Name:            spec.Name,
		Unit:            spec.Unit,
		Timezone:        timezone,
		EventResolution: spec.EventResolution,
	}

	var resolutionSeconds int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, timezone, event_resolution_seconds
		 FROM sensor WHERE asset_id = $1 AND name = $2 AND unit = $3`,
		asset.ID, spec.Name, spec.Unit,
	).Scan(&sensor.ID, &sensor.Timezone, &resolutionSeconds)
	if err == nil {
		sensor.EventResolution = time.Duration(resolutionSeconds) * time.Second
		if sensor.EventResolution != spec.EventResolution {
			s.logger.WithFields(logrus.Fields{
				"sensor":     spec.Name,
				"configured": sensor.EventResolution,
				"expected":   spec.EventResolution,
			}).Warn("Sensor exists with a different event resolution; see the October 1st 2025 go-live notes in README.md")
		}
		return sensor, nil
	}
	if err != sql.ErrNoRows {
		return models.Sensor{}, err
	}

	s.logger.WithField("sensor", spec.Name).Info("Adding sensor")
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO sensor (asset_id, name, unit, timezone, event_resolution_seconds)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		asset.ID, spec.Name, spec.Unit, timezone, int64(spec.EventResolution/time.Second),
	).Scan(&sensor.ID)
	if err != nil {
		return models.Sensor{}, fmt.Errorf("failed to create sensor %s: %w", spec.Name, err)
	}
	return sensor, nil
}

// SaveBeliefs is atomic: either all new beliefs are inserted or none.
// Beliefs with a primary key seen before are skipped silently, which is what
// makes re-running an import safe.
func (s *PostgresRepo) SaveBeliefs(ctx context.Context, beliefs []models.Belief) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO belief (sensor_id, event_start, belief_time, source, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range beliefs {
		res, err := stmt.ExecContext(ctx, b.SensorID, b.EventStart, b.BeliefTime, b.Source, b.Value)
		if err != nil {
			return 0, fmt.Errorf("failed to insert belief: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func (s *PostgresRepo) Close() error {
	return s.db.Close()
}

// Compile-time interface implementation check
var _ Repository = (*PostgresRepo)(nil)
