package reading

import "time"

// SourceRTLAMR tags readings captured live from the decoder stream;
// SourceCSV tags readings imported from a CSV file.
const (
	SourceRTLAMR = "rtlamr"
	SourceCSV    = "csv"
)

// Reading is one observation of a meter's cumulative register.
//
// CumulativeRaw is the register value as reported on the wire;
// CumulativeKWh is the same value scaled to kilowatt-hours.
type Reading struct {
	MeterID       string
	Timestamp     time.Time
	CumulativeRaw int64
	CumulativeKWh float64
	Source        string
}
