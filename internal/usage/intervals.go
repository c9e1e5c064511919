package usage

import "codeberg.org/mutker/powermon/internal/reading"

// ComputeIntervals converts one meter's cumulative readings into interval
// energy/power points. The input must already be sorted by timestamp
// ascending (the store's query order).
//
// For each consecutive pair (prev, cur):
//   - delta kWh = change in cumulative kWh over the span
//   - kW = delta kWh / elapsed hours (average power, no smoothing)
//
// Intervals that are too short, negative (counter rollback) or past the
// sanity limits are skipped. The duration check runs first so a zero
// duration never reaches the division.
func ComputeIntervals(readings []reading.Reading) []IntervalPoint {
	var points []IntervalPoint
	for i := 1; i < len(readings); i++ {
		prev, cur := readings[i-1], readings[i]

		elapsedHours := cur.Timestamp.Sub(prev.Timestamp).Hours()
		if elapsedHours <= MinIntervalHours {
			continue
		}

		deltaKWh := cur.CumulativeKWh - prev.CumulativeKWh
		if deltaKWh < 0 {
			continue
		}

		kw := deltaKWh / elapsedHours
		if deltaKWh > MaxDeltaKWh || kw > MaxKW {
			continue
		}

		points = append(points, IntervalPoint{
			Timestamp: cur.Timestamp,
			DeltaKWh:  deltaKWh,
			KW:        kw,
		})
	}

	return points
}
