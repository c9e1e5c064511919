package store

import (
	"database/sql"

	"codeberg.org/mutker/powermon/internal/errors"
)

// initSchema creates the meters, raw_readings and meter_settings tables.
// Timestamps are stored as integer Unix nanoseconds (UTC), so numeric
// order is time order regardless of fractional-second precision.
func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS meters (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            meter_id TEXT NOT NULL UNIQUE,
            label TEXT,
            active INTEGER NOT NULL DEFAULT 0,
            created_at INTEGER NOT NULL
        );

        CREATE TABLE IF NOT EXISTS raw_readings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            meter_id TEXT NOT NULL REFERENCES meters(meter_id),
            timestamp INTEGER NOT NULL,
            cumulative_raw INTEGER NOT NULL,
            cumulative_kwh REAL NOT NULL,
            source TEXT NOT NULL DEFAULT 'rtlamr',
            UNIQUE (meter_id, timestamp, cumulative_raw)
        );

        CREATE INDEX IF NOT EXISTS ix_raw_readings_meter_ts
            ON raw_readings (meter_id, timestamp);

        CREATE TABLE IF NOT EXISTS meter_settings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            meter_id TEXT NOT NULL UNIQUE REFERENCES meters(meter_id),
            green_max_kw REAL,
            yellow_max_kw REAL,
            red_max_kw REAL
        );
    `)
	if err != nil {
		return errFactory.Wrap(ErrSchemaInit, err)
	}

	return nil
}
