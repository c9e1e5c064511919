package reading

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/powermon/internal/logger"
)

// rtlamr scales the SCM consumption register by 100 to get kWh.
const counterScale = 100.0

// rtlamr data rows carry at least this many comma-separated fields; its
// log lines mixed into stdout carry fewer.
const minDataFields = 8

const (
	fieldTimestamp = 0
	fieldMeterID   = 3
	fieldCounter   = 7
)

// rtlamr writes its own log lines to the same stream as the CSV data.
// They reference Go source locations, which never appear in data rows.
var diagnosticMarkers = []string{".go:", "decode.go", "main.go"}

// ParseLine extracts a reading from one line of rtlamr CSV output.
// It returns false for empty lines, decoder log lines and anything else
// that does not parse as a data row; it never fails hard on garbage.
func ParseLine(line string) (Reading, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reading{}, false
	}

	for _, marker := range diagnosticMarkers {
		if strings.Contains(line, marker) {
			return Reading{}, false
		}
	}

	row, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		logger.Debug().Str("line", line).Err(err).Msg("Failed to parse CSV line")
		return Reading{}, false
	}

	if len(row) < minDataFields {
		return Reading{}, false
	}

	timestamp, err := parseTimestamp(row[fieldTimestamp])
	if err != nil {
		logger.Debug().Str("timestamp", row[fieldTimestamp]).Err(err).Msg("Failed to parse timestamp")
		return Reading{}, false
	}

	meterID := row[fieldMeterID]
	if meterID == "" {
		return Reading{}, false
	}

	cumulativeRaw, err := strconv.ParseInt(row[fieldCounter], 10, 64)
	if err != nil {
		return Reading{}, false
	}

	return Reading{
		MeterID:       meterID,
		Timestamp:     timestamp,
		CumulativeRaw: cumulativeRaw,
		CumulativeKWh: float64(cumulativeRaw) / counterScale,
		Source:        SourceRTLAMR,
	}, true
}

// parseTimestamp parses an ISO-8601 timestamp as emitted by rtlamr.
// Fractional seconds may exceed nanosecond precision and are truncated.
// Timestamps without a UTC offset are taken as UTC. The result is
// always normalized to UTC.
func parseTimestamp(raw string) (time.Time, error) {
	raw = truncateFraction(raw)

	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC(), nil
	}

	ts, err := time.Parse("2006-01-02T15:04:05.999999999", raw)
	if err != nil {
		return time.Time{}, err
	}

	return ts.UTC(), nil
}

// truncateFraction drops fractional-second digits beyond nanosecond
// precision, which time.Parse rejects.
func truncateFraction(raw string) string {
	dot := strings.IndexByte(raw, '.')
	if dot < 0 {
		return raw
	}

	rest := raw[dot+1:]
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits <= 9 {
		return raw
	}

	return raw[:dot+1+9] + rest[digits:]
}
