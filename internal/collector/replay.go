package collector

import (
	"bufio"
	"context"
	"os"

	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/logger"
	"codeberg.org/mutker/powermon/internal/reading"
)

// Replay imports readings from a CSV file through the same parser and
// idempotent persistence path as live capture, so re-importing a file is
// a no-op. It returns the number of accepted readings.
func Replay(ctx context.Context, path string, sink Sink) (int, error) {
	errFactory := errors.New()

	f, err := os.Open(path)
	if err != nil {
		return 0, errFactory.Wrap(ErrReplayOpen, err)
	}
	defer f.Close()

	accepted := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return accepted, errFactory.Wrap(ErrReplayRead, err)
		}

		r, ok := reading.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		r.Source = reading.SourceCSV

		if err := sink.UpsertMeterIfAbsent(ctx, r.MeterID); err != nil {
			return accepted, err
		}
		if err := sink.InsertReading(ctx, r); err != nil {
			return accepted, err
		}
		accepted++
	}
	if err := scanner.Err(); err != nil {
		return accepted, errFactory.Wrap(ErrReplayRead, err)
	}

	logger.Info().Str("path", path).Int("accepted", accepted).Msg("Replay finished")

	return accepted, nil
}
