// Package filterids reads and writes the meter allow-list. The list lives
// in a plain text file beside the database so an operator (or the API
// layer) can change it while the collector is running; the collector
// re-reads it before every decoder launch.
package filterids

import (
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/powermon/internal/errors"
)

const (
	fileName = "filter_ids.txt"
	envVar   = "POWERMON_FILTER_IDS"

	filePerm = 0o644
)

// Path returns the allow-list file path for a given database path.
func Path(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), fileName)
}

// Read returns the configured meter IDs: from the allow-list file if it
// exists, otherwise from the POWERMON_FILTER_IDS environment variable.
// An empty result means discovery mode (accept all meters).
func Read(path string) []string {
	if raw, err := os.ReadFile(path); err == nil {
		return split(string(raw))
	}

	return split(os.Getenv(envVar))
}

// Write replaces the allow-list file. An empty list writes an empty file,
// which switches the collector to discovery mode on its next relaunch.
func Write(path string, meterIDs []string) error {
	errFactory := errors.New()

	content := strings.Join(meterIDs, ",")
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func split(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}

	return ids
}
