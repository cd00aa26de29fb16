package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all gofleet tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS robots (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		serial_number TEXT NOT NULL DEFAULT '',
		asset_code    TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'Offline',
		enabled       INTEGER NOT NULL DEFAULT 1,
		transport     TEXT NOT NULL DEFAULT 'http',
		host          TEXT NOT NULL DEFAULT '',
		port          INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS missions (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL DEFAULT '',
		robot_id           TEXT NOT NULL,
		asset_code         TEXT NOT NULL,
		desired_start_time TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'Pending',
		status_reason      TEXT NOT NULL DEFAULT '',
		map                TEXT,
		tasks              TEXT NOT NULL DEFAULT '[]',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_robots_asset_code ON robots(asset_code)`,
	`CREATE INDEX IF NOT EXISTS idx_robots_serial_number ON robots(serial_number) WHERE serial_number != ''`,
	`CREATE INDEX IF NOT EXISTS idx_missions_status ON missions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_missions_robot_id ON missions(robot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_missions_asset_code ON missions(asset_code)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
