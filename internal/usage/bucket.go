package usage

import (
	"sort"
	"time"
)

// resolutionMinutes maps resolution tokens to bucket sizes. Tokens not
// listed here (including "raw") fall back to pass-through.
var resolutionMinutes = map[string]int{
	"1m":  1,
	"5m":  5,
	"15m": 15,
	"1h":  60,
	"1d":  24 * 60,
}

// Bucket re-aggregates interval points into fixed calendar-aligned time
// slots. Energy deltas are summed per bucket and the bucket's power is
// its total energy divided by the bucket duration, so energy is conserved
// across re-aggregation. Output is sorted by bucket start ascending.
func Bucket(points []IntervalPoint, resolution string) []BucketPoint {
	resMinutes, ok := resolutionMinutes[resolution]
	if !ok || resMinutes <= 0 {
		return passthrough(points)
	}

	totals := make(map[time.Time]float64)
	for _, p := range points {
		totals[bucketStart(p.Timestamp, resMinutes)] += p.DeltaKWh
	}

	starts := make([]time.Time, 0, len(totals))
	for start := range totals {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	bucketHours := float64(resMinutes) / 60.0
	buckets := make([]BucketPoint, 0, len(starts))
	for _, start := range starts {
		buckets = append(buckets, BucketPoint{
			Timestamp: start,
			KWh:       totals[start],
			KW:        totals[start] / bucketHours,
		})
	}

	return buckets
}

// bucketStart floors a timestamp to the start of its containing bucket:
// whole minutes since UTC midnight, modulo the bucket size.
func bucketStart(ts time.Time, resMinutes int) time.Time {
	ts = ts.UTC()
	midnight := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	mins := ts.Hour()*60 + ts.Minute()

	return midnight.Add(time.Duration(mins-mins%resMinutes) * time.Minute)
}

func passthrough(points []IntervalPoint) []BucketPoint {
	buckets := make([]BucketPoint, 0, len(points))
	for _, p := range points {
		buckets = append(buckets, BucketPoint{
			Timestamp: p.Timestamp,
			KWh:       p.DeltaKWh,
			KW:        p.KW,
		})
	}

	return buckets
}
