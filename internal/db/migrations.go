package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"projector-server/internal/aspect"
	"projector-server/internal/models"
)

const schemaMigrations = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type migration struct {
	version    int
	statements []string
	// run executes Go code inside the migration transaction after statements
	run func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS projectors (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				width REAL NOT NULL CHECK (width > 0),
				height REAL NOT NULL CHECK (height > 0),
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`,
			`CREATE INDEX IF NOT EXISTS idx_projectors_name ON projectors(name);`,
		},
	},
	{
		version: 2,
		statements: []string{
			`ALTER TABLE projectors ADD COLUMN aspect_ratio_numerator INTEGER NOT NULL DEFAULT 16;`,
			`ALTER TABLE projectors ADD COLUMN aspect_ratio_denominator INTEGER NOT NULL DEFAULT 9;`,
		},
	},
	{
		version: 3,
		run: func(tx *sql.Tx) error {
			_, err := aspect.MigrateAll(context.Background(), txProjectors{tx: tx})
			return err
		},
	},
}

// Migrate applies every migration newer than the recorded schema version
func Migrate(database *sql.DB) error {
	if _, err := database.Exec(schemaMigrations); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	current, err := currentSchemaVersion(database)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(database, m); err != nil {
			return err
		}
		log.Printf("Applied schema migration %d", m.version)
		current = m.version
	}
	return nil
}

// SchemaVersion returns the highest applied migration
func SchemaVersion(database *sql.DB) (int, error) {
	return currentSchemaVersion(database)
}

func currentSchemaVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func applyMigration(database *sql.DB, m migration) (err error) {
	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("failed to start migration %d: %w", m.version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, statement := range m.statements {
		if _, err = tx.Exec(statement); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}
	if m.run != nil {
		if err = m.run(tx); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}

	if _, err = tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}

// txProjectors exposes projector rows of a migration transaction to the
// aspect ratio pass.
type txProjectors struct {
	tx *sql.Tx
}

func (r txProjectors) ListAll(ctx context.Context) ([]*models.Projector, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT id, name, width, height,
		aspect_ratio_numerator, aspect_ratio_denominator, created_at, updated_at
		FROM projectors ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projectors: %w", err)
	}
	defer rows.Close()

	var projectors []*models.Projector
	for rows.Next() {
		var p models.Projector
		if err := rows.Scan(&p.ID, &p.Name, &p.Width, &p.Height,
			&p.AspectRatioNumerator, &p.AspectRatioDenominator, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan projector: %w", err)
		}
		projectors = append(projectors, &p)
	}
	return projectors, rows.Err()
}

func (r txProjectors) Save(ctx context.Context, p *models.Projector) error {
	p.UpdatedAt = time.Now()
	_, err := r.tx.ExecContext(ctx, `UPDATE projectors
		SET aspect_ratio_numerator = ?, aspect_ratio_denominator = ?, updated_at = ?
		WHERE id = ?`,
		p.AspectRatioNumerator, p.AspectRatioDenominator, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update projector: %w", err)
	}
	return nil
}
