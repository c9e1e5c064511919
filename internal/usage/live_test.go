package usage_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/powermon/internal/reading"
	"codeberg.org/mutker/powermon/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateFromReadingsTooFew(t *testing.T) {
	_, ok := usage.EstimateFromReadings(nil)
	assert.False(t, ok)

	_, ok = usage.EstimateFromReadings([]reading.Reading{r(t0, 1000)})
	assert.False(t, ok)
}

func TestEstimateFromReadingsNoSurvivingIntervals(t *testing.T) {
	// Two readings, but the pair is a counter rollback
	readings := []reading.Reading{
		r(t0, 1500),
		r(t0.Add(30*time.Minute), 1000),
	}

	_, ok := usage.EstimateFromReadings(readings)
	assert.False(t, ok)
}

func TestEstimateFromReadingsSimple(t *testing.T) {
	readings := []reading.Reading{
		r(t0, 1000),
		r(t0.Add(30*time.Minute), 1500),
	}

	kw, ok := usage.EstimateFromReadings(readings)
	require.True(t, ok)
	assert.InDelta(t, 10.0, kw, 1e-9)
}

func TestEstimateDenominatorSpansAllReadings(t *testing.T) {
	// The trailing 30s pair is dropped as sub-minute, but its timestamp
	// still extends the window the energy is averaged over.
	readings := []reading.Reading{
		r(t0, 1000),
		r(t0.Add(30*time.Minute), 1500),
		r(t0.Add(30*time.Minute+30*time.Second), 1501),
	}

	kw, ok := usage.EstimateFromReadings(readings)
	require.True(t, ok)

	wantHours := (30*time.Minute + 30*time.Second).Hours()
	assert.InDelta(t, 5.0/wantHours, kw, 1e-9)
}
