// Package addresses loads the wallet list the tool reports on.
package addresses

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmagro/aave-positions/internal/logging"
)

var defaultAddresses = []string{
	"0xe8Bf6904a1799cDf793aFDD223F3Eed0C4B98CE3",
	"0x8252C3Ad7008464A618B6b28690DFB30D17A4910",
	"0x4Ae8912F26AEc381b5ed4a45Fca2152Aaa3561DF",
	"0x3e35307965D847Dccbb19462b4428b369F9c3B68",
}

// DefaultAddresses returns a copy of the built-in address list.
func DefaultAddresses() []string {
	out := make([]string, len(defaultAddresses))
	copy(out, defaultAddresses)
	return out
}

// Load returns the addresses stored at path.
//
// A missing file is created with DefaultAddresses and that list is returned.
// A malformed or unreadable file is logged and yields an empty list so the run
// still produces a (zero) cumulative report. Address format is not validated.
func Load(path string, logger *slog.Logger) []string {
	logger = logging.OrDefault(logger)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultAddresses()
		if err := write(path, defaults); err != nil {
			logger.Error("failed to create address file", "path", path, "error", err)
		} else {
			logger.Info("created address file with defaults", "path", path, "count", len(defaults))
		}
		return defaults
	}
	if err != nil {
		logger.Error("error reading addresses file", "path", path, "error", err)
		return []string{}
	}

	var addrs []string
	if err := json.Unmarshal(data, &addrs); err != nil {
		logger.Error("error reading addresses file", "path", path, "error", err)
		return []string{}
	}
	if addrs == nil {
		addrs = []string{}
	}

	logger.Info(fmt.Sprintf("loaded %d addresses from %s", len(addrs), filepath.Base(path)))
	return addrs
}

func write(path string, addrs []string) error {
	data, err := json.MarshalIndent(addrs, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
