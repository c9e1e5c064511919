package collector

import (
	"bufio"
	"context"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/powermon/internal/errors"
	"codeberg.org/mutker/powermon/internal/filterids"
	"codeberg.org/mutker/powermon/internal/logger"
	"codeberg.org/mutker/powermon/internal/reading"
)

// maxLineBytes bounds a single decoder output line. rtlamr data rows are
// a few hundred bytes; anything approaching this is stream corruption.
const maxLineBytes = 1 << 20

// Sink persists accepted readings. The store satisfies it.
type Sink interface {
	UpsertMeterIfAbsent(ctx context.Context, meterID string) error
	InsertReading(ctx context.Context, r reading.Reading) error
}

// Supervisor owns the two capture processes: the rtl_tcp bridge, started
// once and torn down on shutdown, and the rtlamr decoder, restarted with
// a backoff whenever it exits. Every line of decoder output goes through
// the parser and, if accepted, into the sink.
type Supervisor struct {
	cfg  Config
	sink Sink
}

func New(cfg Config, sink Sink) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Supervisor{
		cfg:  cfg,
		sink: sink,
	}, nil
}

// Run captures until ctx is cancelled. A bridge that fails to start is
// fatal; a decoder that exits, for any reason, is relaunched after the
// backoff with freshly re-read allow-list arguments. On cancellation the
// decoder is terminated and awaited before the bridge.
func (s *Supervisor) Run(ctx context.Context) error {
	errFactory := errors.New()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	logger.Info().Str("addr", addr).Msg("Starting rtl_tcp")

	bridge := exec.Command(s.cfg.RTLTCPPath, "-a", s.cfg.Host, "-p", strconv.Itoa(s.cfg.Port))
	if err := bridge.Start(); err != nil {
		return errFactory.Wrap(ErrBridgeStart, err)
	}

	// Let the radio front-end initialize before the decoder connects
	settled := s.wait(ctx, s.cfg.SettleDelay)

	for settled && ctx.Err() == nil {
		args := s.decoderArgs()
		logger.Info().Str("args", strings.Join(args, " ")).Msg("Starting rtlamr")

		err := s.runDecoderOnce(ctx, args)
		if ctx.Err() != nil {
			break
		}

		logger.Warn().
			Err(err).
			Dur("backoff", s.cfg.RestartBackoff).
			Msg("rtlamr exited, restarting")
		s.wait(ctx, s.cfg.RestartBackoff)
	}

	terminate(bridge, "rtl_tcp")

	return nil
}

// decoderArgs rebuilds the rtlamr argument list. The allow-list is read
// fresh on every call so operator edits take effect on the next relaunch
// without restarting the supervisor.
func (s *Supervisor) decoderArgs() []string {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	args := []string{"-format=csv", "-server=" + addr}

	ids := filterids.Read(s.cfg.FilterIDsPath)
	if len(ids) > 0 {
		args = append(args, "-filterid="+strings.Join(ids, ","))
	} else {
		logger.Info().Msg("No filter IDs set; discovery mode (collecting all meters)")
	}

	if s.cfg.Unique {
		args = append(args, "-unique=true")
	}

	return args
}

// runDecoderOnce runs one decoder process to completion, pumping its
// stdout through the parser into the sink. Cancelling ctx terminates the
// process, which unblocks the line read via EOF; the process is always
// awaited before returning.
func (s *Supervisor) runDecoderOnce(ctx context.Context, args []string) error {
	errFactory := errors.New()

	cmd := exec.Command(s.cfg.RTLAMRPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errFactory.Wrap(ErrDecoderStart, err)
	}

	if err := cmd.Start(); err != nil {
		return errFactory.Wrap(ErrDecoderStart, err)
	}

	pumpDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = cmd.Process.Signal(syscall.SIGTERM)
		case <-pumpDone:
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	for scanner.Scan() {
		r, ok := reading.ParseLine(scanner.Text())
		if !ok {
			continue
		}
		s.persist(ctx, r)
	}
	close(pumpDone)

	// A read error (not EOF) leaves the decoder running with nobody
	// draining its stdout; terminate it so the restart loop recovers.
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("Decoder stream read failed, terminating rtlamr")
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	return cmd.Wait()
}

func (s *Supervisor) persist(ctx context.Context, r reading.Reading) {
	errFactory := errors.New()

	if err := s.sink.UpsertMeterIfAbsent(ctx, r.MeterID); err != nil {
		logger.ErrorWithCode(errFactory.Wrap(ErrPersistReading, err)).Msg("Failed to persist reading")
		return
	}
	if err := s.sink.InsertReading(ctx, r); err != nil {
		logger.ErrorWithCode(errFactory.Wrap(ErrPersistReading, err)).Msg("Failed to persist reading")
		return
	}

	logger.Debug().
		Str("meter_id", r.MeterID).
		Time("timestamp", r.Timestamp).
		Int64("cumulative_raw", r.CumulativeRaw).
		Msg("Reading persisted")
}

// wait sleeps for d or until ctx is cancelled; it reports whether the
// full delay elapsed.
func (s *Supervisor) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func terminate(cmd *exec.Cmd, name string) {
	if cmd.Process == nil {
		return
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)
	if err := cmd.Wait(); err != nil {
		logger.Debug().Str("process", name).Err(err).Msg("Process exited with error")
	}
	logger.Info().Str("process", name).Msg("Process stopped")
}
