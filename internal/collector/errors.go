package collector

import "codeberg.org/mutker/powermon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("collector_invalid_config")

	// Process Errors
	ErrBridgeStart  = errors.ErrorCode("collector_bridge_start_failed")
	ErrDecoderStart = errors.ErrorCode("collector_decoder_start_failed")

	// Persistence Errors
	ErrPersistReading = errors.ErrorCode("collector_persist_reading_failed")

	// Replay Errors
	ErrReplayOpen = errors.ErrorCode("collector_replay_open_failed")
	ErrReplayRead = errors.ErrorCode("collector_replay_read_failed")
)
