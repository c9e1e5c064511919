package store

import (
	"context"
	"time"

	"codeberg.org/mutker/powermon/internal/reading"
)

// Store is the persistence contract the collector and query paths share.
//
// InsertReading is idempotent: re-inserting an identical
// (meter, timestamp, counter) triple is a silent no-op, so replayed or
// duplicated capture output never errors. QueryReadings returns readings
// ordered by (meter, timestamp) ascending; an empty meterID selects all
// meters, and zero start/end times leave that bound open.
type Store interface {
	UpsertMeterIfAbsent(ctx context.Context, meterID string) error
	InsertReading(ctx context.Context, r reading.Reading) error
	QueryReadings(ctx context.Context, meterID string, start, end time.Time) ([]reading.Reading, error)
	CountReadings(ctx context.Context, meterID string, start, end time.Time) (int, error)

	ListMeters(ctx context.Context) ([]Meter, error)
	GetMeter(ctx context.Context, meterID string) (*Meter, error)
	UpdateMeter(ctx context.Context, meterID string, update MeterUpdate) error

	GetSettings(ctx context.Context, meterID string) (*Settings, error)
	SetSettings(ctx context.Context, meterID string, settings Settings) error

	Close() error
}

// Meter is a device known to the system. Meters are created implicitly
// (inactive, unlabeled) the first time a reading for an unseen identifier
// is persisted, and never deleted.
type Meter struct {
	MeterID   string
	Label     *string
	Active    bool
	CreatedAt time.Time
}

// MeterUpdate mutates the mutable meter attributes; nil fields are left
// unchanged.
type MeterUpdate struct {
	Label  *string
	Active *bool
}

// Settings holds the per-meter display thresholds (advisory only, not
// consumed by derivation).
type Settings struct {
	GreenMaxKW  *float64
	YellowMaxKW *float64
	RedMaxKW    *float64
}
