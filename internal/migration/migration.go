package migration

import (
	"context"
	"time"

	"edaworkspace/internal/errors"

	"github.com/jmoiron/sqlx"
)

type step struct {
	version string
	apply   func(ctx context.Context, db *sqlx.DB) error
}

// MigrationRunner applies the analysis store schema; statements stay portable across
// Postgres and SQLite
type MigrationRunner struct {
	steps []step
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	r := &MigrationRunner{}
	r.steps = []step{
		{version: "1.0.0", apply: r.createAnalysesTable},
		{version: "1.0.1", apply: r.createIndexes},
		{version: "1.1.0", apply: r.addThumbnailColumn},
	}
	return r
}

// Version returns the newest schema version the runner knows
func (r *MigrationRunner) Version() string {
	return r.steps[len(r.steps)-1].version
}

// Run executes pending migrations in order and records each applied version
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createVersionTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create schema_migrations table", err)
	}

	applied, err := r.Applied(ctx, db)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, s := range r.steps {
		if done[s.version] {
			continue
		}
		if err := s.apply(ctx, db); err != nil {
			return errors.DatabaseError("failed to apply migration "+s.version, err)
		}
		_, err := db.ExecContext(ctx,
			db.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
			s.version, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return errors.DatabaseError("failed to record migration "+s.version, err)
		}
	}
	return nil
}

// Applied lists the versions already recorded
func (r *MigrationRunner) Applied(ctx context.Context, db *sqlx.DB) ([]string, error) {
	var versions []string
	if err := db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return nil, errors.DatabaseError("failed to read schema_migrations", err)
	}
	return versions, nil
}

func (r *MigrationRunner) createVersionTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(32) PRIMARY KEY,
			applied_at VARCHAR(64) NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createAnalysesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analyses (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			study_id VARCHAR(255) NOT NULL,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			filters TEXT NOT NULL,
			visualizations TEXT NOT NULL,
			created_at VARCHAR(64) NOT NULL,
			modified_at VARCHAR(64) NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_analyses_user_study ON analyses (user_id, study_id)
	`)
	return err
}

// addThumbnailColumn keeps the most recent chart thumbnail for analysis list views
func (r *MigrationRunner) addThumbnailColumn(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `ALTER TABLE analyses ADD COLUMN thumbnail TEXT NOT NULL DEFAULT ''`)
	return err
}
