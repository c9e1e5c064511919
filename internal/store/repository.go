package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/logger"
	"codeberg.org/mutker/powermon/internal/reading"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the SQLite database and initializes the schema.
// WAL journaling keeps the query path readable while the collector writes.
func New(cfg Config) (Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().Msgf("Initializing store at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	dsn := cfg.DBPath + "?_journal=WAL&_busy_timeout=15000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteStore{
		db: db,
	}, nil
}

func (s *sqliteStore) UpsertMeterIfAbsent(ctx context.Context, meterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO meters (meter_id, label, active, created_at)
        VALUES (?, NULL, 0, ?)
        ON CONFLICT (meter_id) DO NOTHING
    `, meterID, time.Now().UTC().UnixNano())
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (s *sqliteStore) InsertReading(ctx context.Context, r reading.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Duplicate triples are an expected outcome of at-least-once capture,
	// not an error.
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO raw_readings (meter_id, timestamp, cumulative_raw, cumulative_kwh, source)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (meter_id, timestamp, cumulative_raw) DO NOTHING
    `,
		r.MeterID,
		r.Timestamp.UTC().UnixNano(),
		r.CumulativeRaw,
		r.CumulativeKWh,
		r.Source,
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (s *sqliteStore) QueryReadings(ctx context.Context, meterID string, start, end time.Time) ([]reading.Reading, error) {
	query := `
        SELECT meter_id, timestamp, cumulative_raw, cumulative_kwh, source
        FROM raw_readings
    `
	where, args := readingFilters(meterID, start, end)
	query += where + " ORDER BY meter_id, timestamp"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var readings []reading.Reading
	for rows.Next() {
		var r reading.Reading
		var ns int64
		if err := rows.Scan(&r.MeterID, &ns, &r.CumulativeRaw, &r.CumulativeKWh, &r.Source); err != nil {
			return nil, errors.New().Wrap(ErrStorageAccess, err)
		}
		r.Timestamp = time.Unix(0, ns).UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}

	return readings, nil
}

func (s *sqliteStore) CountReadings(ctx context.Context, meterID string, start, end time.Time) (int, error) {
	where, args := readingFilters(meterID, start, end)

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM raw_readings"+where, args...).Scan(&count)
	if err != nil {
		return 0, errors.New().Wrap(ErrStorageAccess, err)
	}

	return count, nil
}

func readingFilters(meterID string, start, end time.Time) (string, []any) {
	where := ""
	var args []any

	and := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	if meterID != "" {
		and("meter_id = ?")
		args = append(args, meterID)
	}
	if !start.IsZero() {
		and("timestamp >= ?")
		args = append(args, start.UTC().UnixNano())
	}
	if !end.IsZero() {
		and("timestamp <= ?")
		args = append(args, end.UTC().UnixNano())
	}

	return where, args
}

func (s *sqliteStore) ListMeters(ctx context.Context) ([]Meter, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT meter_id, label, active, created_at
        FROM meters
        ORDER BY meter_id
    `)
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var meters []Meter
	for rows.Next() {
		m, err := scanMeter(rows.Scan)
		if err != nil {
			return nil, err
		}
		meters = append(meters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}

	return meters, nil
}

func (s *sqliteStore) GetMeter(ctx context.Context, meterID string) (*Meter, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT meter_id, label, active, created_at
        FROM meters
        WHERE meter_id = ?
    `, meterID)

	m, err := scanMeter(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New().WithData(ErrMeterNotFound, meterID)
		}
		return nil, err
	}

	return &m, nil
}

func scanMeter(scan func(...any) error) (Meter, error) {
	var m Meter
	var label sql.NullString
	var active int
	var createdNS int64

	if err := scan(&m.MeterID, &label, &active, &createdNS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Meter{}, err
		}
		return Meter{}, errors.New().Wrap(ErrStorageAccess, err)
	}

	if label.Valid {
		m.Label = &label.String
	}
	m.Active = active != 0
	m.CreatedAt = time.Unix(0, createdNS).UTC()

	return m, nil
}

func (s *sqliteStore) UpdateMeter(ctx context.Context, meterID string, update MeterUpdate) error {
	if update.Label == nil && update.Active == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := ""
	var args []any
	if update.Label != nil {
		set = "label = ?"
		args = append(args, *update.Label)
	}
	if update.Active != nil {
		if set != "" {
			set += ", "
		}
		set += "active = ?"
		args = append(args, boolToInt(*update.Active))
	}
	args = append(args, meterID)

	res, err := s.db.ExecContext(ctx, "UPDATE meters SET "+set+" WHERE meter_id = ?", args...)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New().WithData(ErrMeterNotFound, meterID)
	}

	return nil
}

func (s *sqliteStore) GetSettings(ctx context.Context, meterID string) (*Settings, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT green_max_kw, yellow_max_kw, red_max_kw
        FROM meter_settings
        WHERE meter_id = ?
    `, meterID)

	var green, yellow, red sql.NullFloat64
	if err := row.Scan(&green, &yellow, &red); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}

	settings := &Settings{}
	if green.Valid {
		settings.GreenMaxKW = &green.Float64
	}
	if yellow.Valid {
		settings.YellowMaxKW = &yellow.Float64
	}
	if red.Valid {
		settings.RedMaxKW = &red.Float64
	}

	return settings, nil
}

func (s *sqliteStore) SetSettings(ctx context.Context, meterID string, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO meter_settings (meter_id, green_max_kw, yellow_max_kw, red_max_kw)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (meter_id) DO UPDATE SET
            green_max_kw = excluded.green_max_kw,
            yellow_max_kw = excluded.yellow_max_kw,
            red_max_kw = excluded.red_max_kw
    `, meterID, nullFloat(settings.GreenMaxKW), nullFloat(settings.YellowMaxKW), nullFloat(settings.RedMaxKW))
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Checkpoint WAL on close so the database file is self-contained
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	if err := s.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
