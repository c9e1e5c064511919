package usage

import "time"

// Sanity limits for a single interval. Values past these imply counter
// rollover or corrupt capture, not genuine consumption, and the interval
// is dropped (the raw readings stay persisted).
const (
	MaxDeltaKWh = 100.0
	MaxKW       = 500.0
)

// MinIntervalHours is the shortest interval that may be derived. Two
// readings closer together than this (near-duplicates a few seconds
// apart) would divide a tiny energy delta by a near-zero duration and
// spike the power series.
const MinIntervalHours = 1.0 / 60.0

// ResolutionRaw passes intervals through unbucketed. Unknown resolution
// tokens behave the same way.
const ResolutionRaw = "raw"

// IntervalPoint is the energy delivered and average power between two
// temporally adjacent readings of one meter, stamped with the interval's
// end time. Derived on demand, never persisted.
type IntervalPoint struct {
	Timestamp time.Time
	DeltaKWh  float64
	KW        float64
}

// BucketPoint is one re-aggregated time slot: summed energy and average
// power over the bucket duration. At raw resolution the timestamp is the
// interval end; at fixed resolutions it is the bucket start.
type BucketPoint struct {
	Timestamp time.Time
	KWh       float64
	KW        float64
}
