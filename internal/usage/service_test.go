package usage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/powermon/internal/reading"
	"codeberg.org/mutker/powermon/internal/store"
	"codeberg.org/mutker/powermon/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) store.Store {
	t.Helper()

	st, err := store.New(store.Config{
		DBPath: filepath.Join(t.TempDir(), "powermon.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	seed := []reading.Reading{
		r(t0, 1000),
		r(t0.Add(30*time.Minute), 1500),
		r(t0.Add(60*time.Minute), 1900),
	}
	require.NoError(t, st.UpsertMeterIfAbsent(ctx, "23992757"))
	require.NoError(t, st.UpsertMeterIfAbsent(ctx, "00459823"))
	for _, rd := range seed {
		require.NoError(t, st.InsertReading(ctx, rd))
	}
	// Second meter: one valid pair, one rollback pair
	other := []reading.Reading{
		{MeterID: "00459823", Timestamp: t0, CumulativeRaw: 500, CumulativeKWh: 5.0, Source: reading.SourceRTLAMR},
		{MeterID: "00459823", Timestamp: t0.Add(30 * time.Minute), CumulativeRaw: 600, CumulativeKWh: 6.0, Source: reading.SourceRTLAMR},
		{MeterID: "00459823", Timestamp: t0.Add(60 * time.Minute), CumulativeRaw: 100, CumulativeKWh: 1.0, Source: reading.SourceRTLAMR},
	}
	for _, rd := range other {
		require.NoError(t, st.InsertReading(ctx, rd))
	}

	return st
}

func TestServiceSeriesSingleMeter(t *testing.T) {
	svc := usage.NewService(newSeededStore(t))

	series, err := svc.Series(context.Background(), "23992757", time.Time{}, time.Time{}, usage.ResolutionRaw)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 2)

	assert.InDelta(t, 5.0, series[0].Points[0].KWh, 1e-9)
	assert.InDelta(t, 10.0, series[0].Points[0].KW, 1e-9)
	assert.InDelta(t, 4.0, series[0].Points[1].KWh, 1e-9)
}

func TestServiceSeriesAllMetersGroupsPerMeter(t *testing.T) {
	svc := usage.NewService(newSeededStore(t))

	series, err := svc.Series(context.Background(), "", time.Time{}, time.Time{}, usage.ResolutionRaw)
	require.NoError(t, err)
	require.Len(t, series, 2)

	// Store order is (meter, timestamp) ascending
	assert.Equal(t, "00459823", series[0].MeterID)
	require.Len(t, series[0].Points, 1) // rollback pair dropped
	assert.Equal(t, "23992757", series[1].MeterID)
	assert.Len(t, series[1].Points, 2)
}

func TestServiceSeriesBucketed(t *testing.T) {
	svc := usage.NewService(newSeededStore(t))

	series, err := svc.Series(context.Background(), "23992757", time.Time{}, time.Time{}, "1h")
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 2)

	// Interval ends at 00:30 and 01:00 land in the 00:00 and 01:00 buckets
	assert.Equal(t, t0, series[0].Points[0].Timestamp)
	assert.InDelta(t, 5.0, series[0].Points[0].KWh, 1e-9)
	assert.Equal(t, t0.Add(time.Hour), series[0].Points[1].Timestamp)
	assert.InDelta(t, 4.0, series[0].Points[1].KWh, 1e-9)
}

func TestServiceSeriesDiagnostics(t *testing.T) {
	svc := usage.NewService(newSeededStore(t))

	diag, err := svc.SeriesDiagnostics(context.Background(), "00459823", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, diag.RawReadings)
	assert.Equal(t, 1, diag.SurvivingIntervals)
}

func TestServiceSeriesDiagnosticsAllMeters(t *testing.T) {
	svc := usage.NewService(newSeededStore(t))

	diag, err := svc.SeriesDiagnostics(context.Background(), "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 6, diag.RawReadings)
	assert.Equal(t, 3, diag.SurvivingIntervals)
}

func TestServiceSeriesDiagnosticsNeverPairsAcrossMeters(t *testing.T) {
	st, err := store.New(store.Config{
		DBPath: filepath.Join(t.TempDir(), "powermon.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	// One reading per meter, an hour apart with a rising counter: pairing
	// across the meter boundary would fabricate a surviving interval.
	ctx := context.Background()
	require.NoError(t, st.UpsertMeterIfAbsent(ctx, "00459823"))
	require.NoError(t, st.UpsertMeterIfAbsent(ctx, "23992757"))
	require.NoError(t, st.InsertReading(ctx, reading.Reading{
		MeterID: "00459823", Timestamp: t0, CumulativeRaw: 1000, CumulativeKWh: 10.0, Source: reading.SourceRTLAMR,
	}))
	require.NoError(t, st.InsertReading(ctx, reading.Reading{
		MeterID: "23992757", Timestamp: t0.Add(time.Hour), CumulativeRaw: 2000, CumulativeKWh: 20.0, Source: reading.SourceRTLAMR,
	}))

	diag, err := usage.NewService(st).SeriesDiagnostics(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, diag.RawReadings)
	assert.Equal(t, 0, diag.SurvivingIntervals)
}

func TestLiveEstimatorAgainstStore(t *testing.T) {
	st, err := store.New(store.Config{
		DBPath: filepath.Join(t.TempDir(), "powermon.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.UpsertMeterIfAbsent(ctx, "23992757"))
	require.NoError(t, st.InsertReading(ctx, r(now.Add(-30*time.Minute), 1000)))
	require.NoError(t, st.InsertReading(ctx, r(now.Add(-2*time.Minute), 1046)))
	// Outside the window, must not contribute
	require.NoError(t, st.InsertReading(ctx, r(now.Add(-3*time.Hour), 100)))

	estimator := usage.NewLiveEstimator(st, time.Hour)
	kw, ok, err := estimator.EstimateKW(ctx, "23992757")
	require.NoError(t, err)
	require.True(t, ok)

	wantHours := (28 * time.Minute).Hours()
	assert.InDelta(t, 0.46/wantHours, kw, 1e-9)
}

func TestLiveEstimatorNoData(t *testing.T) {
	st, err := store.New(store.Config{
		DBPath: filepath.Join(t.TempDir(), "powermon.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	estimator := usage.NewLiveEstimator(st, time.Hour)
	_, ok, err := estimator.EstimateKW(context.Background(), "23992757")
	require.NoError(t, err)
	assert.False(t, ok)
}
