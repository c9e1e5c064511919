package collector

import (
	"time"

	"codeberg.org/mutker/powermon/internal/errors"
)

type Config struct {
	RTLTCPPath     string
	RTLAMRPath     string
	Host           string
	Port           int
	SettleDelay    time.Duration
	RestartBackoff time.Duration
	Unique         bool
	FilterIDsPath  string
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.RTLTCPPath == "" || c.RTLAMRPath == "" {
		return errFactory.New(ErrInvalidConfig)
	}
	if c.Host == "" || c.Port <= 0 {
		return errFactory.New(ErrInvalidConfig)
	}

	return nil
}
