package usage

import (
	"context"
	"time"

	"codeberg.org/mutker/powermon/internal/reading"
	"codeberg.org/mutker/powermon/internal/store"
)

// LiveEstimator answers "what is this meter drawing right now" from the
// readings in a trailing time window.
type LiveEstimator struct {
	store  store.Store
	window time.Duration
}

func NewLiveEstimator(st store.Store, window time.Duration) *LiveEstimator {
	return &LiveEstimator{
		store:  st,
		window: window,
	}
}

// EstimateKW returns the time-weighted average power over the trailing
// window, or ok=false when there is not enough usable data.
func (e *LiveEstimator) EstimateKW(ctx context.Context, meterID string) (float64, bool, error) {
	start := time.Now().UTC().Add(-e.window)

	readings, err := e.store.QueryReadings(ctx, meterID, start, time.Time{})
	if err != nil {
		return 0, false, err
	}

	kw, ok := EstimateFromReadings(readings)

	return kw, ok, nil
}

// EstimateFromReadings computes the estimate over an already-fetched,
// timestamp-ordered window of one meter's readings: total surviving
// interval energy divided by the hours between the first and last
// reading. The denominator spans the whole window of readings, not just
// the surviving intervals, so gaps filtered as anomalous still count as
// elapsed time.
func EstimateFromReadings(readings []reading.Reading) (float64, bool) {
	if len(readings) < 2 {
		return 0, false
	}

	points := ComputeIntervals(readings)
	if len(points) == 0 {
		return 0, false
	}

	totalKWh := 0.0
	for _, p := range points {
		totalKWh += p.DeltaKWh
	}

	totalHours := readings[len(readings)-1].Timestamp.Sub(readings[0].Timestamp).Hours()
	if totalHours <= 0 {
		return 0, false
	}

	return totalKWh / totalHours, true
}
