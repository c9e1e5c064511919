package usage

import (
	"context"
	"time"

	"codeberg.org/mutker/powermon/internal/reading"
	"codeberg.org/mutker/powermon/internal/store"
)

// Service is the query surface the API layer consumes: derived series at
// a chosen resolution, plus diagnostics separating "no data" from "all
// intervals filtered as anomalous".
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// MeterSeries is one meter's derived (timestamp, kWh, kW) series.
type MeterSeries struct {
	MeterID string
	Points  []BucketPoint
}

// Diagnostics counts raw readings against the intervals that survived
// derivation for the same range.
type Diagnostics struct {
	RawReadings        int
	SurvivingIntervals int
}

// Series derives bucketed series for one meter (or all meters when
// meterID is empty) over a time range. Derivation is per meter; readings
// of different meters are never paired.
func (s *Service) Series(ctx context.Context, meterID string, start, end time.Time, resolution string) ([]MeterSeries, error) {
	readings, err := s.store.QueryReadings(ctx, meterID, start, end)
	if err != nil {
		return nil, err
	}

	var series []MeterSeries
	for _, group := range groupByMeter(readings) {
		series = append(series, MeterSeries{
			MeterID: group[0].MeterID,
			Points:  Bucket(ComputeIntervals(group), resolution),
		})
	}

	return series, nil
}

// SeriesDiagnostics reports the raw reading count and the surviving
// interval count for one meter (or all meters when meterID is empty)
// over a range. Counting follows the same per-meter derivation as
// Series; readings of different meters are never paired.
func (s *Service) SeriesDiagnostics(ctx context.Context, meterID string, start, end time.Time) (Diagnostics, error) {
	rawCount, err := s.store.CountReadings(ctx, meterID, start, end)
	if err != nil {
		return Diagnostics{}, err
	}

	readings, err := s.store.QueryReadings(ctx, meterID, start, end)
	if err != nil {
		return Diagnostics{}, err
	}

	surviving := 0
	for _, group := range groupByMeter(readings) {
		surviving += len(ComputeIntervals(group))
	}

	return Diagnostics{
		RawReadings:        rawCount,
		SurvivingIntervals: surviving,
	}, nil
}

// groupByMeter splits a (meter, timestamp)-ordered slice into per-meter
// runs, preserving order within each run.
func groupByMeter(readings []reading.Reading) [][]reading.Reading {
	var groups [][]reading.Reading
	for i := 0; i < len(readings); {
		j := i
		for j < len(readings) && readings[j].MeterID == readings[i].MeterID {
			j++
		}
		groups = append(groups, readings[i:j])
		i = j
	}

	return groups
}
