package reading_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/powermon/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineValid(t *testing.T) {
	line := "2020-07-28T09:53:34.665421351-05:00,0,0,23992757,7,2,0,4164587,0"

	r, ok := reading.ParseLine(line)
	require.True(t, ok)

	assert.Equal(t, "23992757", r.MeterID)
	assert.Equal(t, int64(4164587), r.CumulativeRaw)
	assert.Equal(t, 41645.87, r.CumulativeKWh)
	assert.Equal(t, reading.SourceRTLAMR, r.Source)

	// Offset -05:00 normalized to UTC
	assert.Equal(t, time.UTC, r.Timestamp.Location())
	assert.Equal(t, 14, r.Timestamp.Hour())
	assert.Equal(t, 665421351, r.Timestamp.Nanosecond())
}

func TestParseLinePreservesLeadingZeros(t *testing.T) {
	line := "2020-07-28T09:53:34-05:00,0,0,00459823,7,2,0,100,0"

	r, ok := reading.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, "00459823", r.MeterID)
	assert.Equal(t, 1.0, r.CumulativeKWh)
}

func TestParseLineExcessFractionDigits(t *testing.T) {
	// 12 fractional digits, beyond what time.Parse accepts
	line := "2020-07-28T09:53:34.665421351999-05:00,0,0,23992757,7,2,0,4164587,0"

	r, ok := reading.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, 665421351, r.Timestamp.Nanosecond())
}

func TestParseLineNaiveTimestamp(t *testing.T) {
	line := "2020-07-28T09:53:34,0,0,23992757,7,2,0,4164587,0"

	r, ok := reading.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, time.Date(2020, 7, 28, 9, 53, 34, 0, time.UTC), r.Timestamp)
}

func TestParseLineQuotedField(t *testing.T) {
	line := `2020-07-28T09:53:34-05:00,0,0,23992757,7,"a,b",0,4164587,0`

	r, ok := reading.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, int64(4164587), r.CumulativeRaw)
}

func TestParseLineRejected(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "   \t  "},
		{"decoder log line", "09:53:34.665412 decode.go:45: CRC checksum failed"},
		{"go source marker", "main.go:120: receiver connected"},
		{"too few fields", "2020-07-28T09:53:34-05:00,0,0,23992757"},
		{"bad timestamp", "yesterday,0,0,23992757,7,2,0,4164587,0"},
		{"non-numeric counter", "2020-07-28T09:53:34-05:00,0,0,23992757,7,2,0,fourtytwo,0"},
		{"empty meter id", "2020-07-28T09:53:34-05:00,0,0,,7,2,0,4164587,0"},
		{"malformed quoting", `2020-07-28T09:53:34-05:00,0,0,"unterminated,7,2,0,4164587`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := reading.ParseLine(tt.line)
			assert.False(t, ok)
		})
	}
}
