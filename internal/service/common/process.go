//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/release-publisher/internal/logger"
)

// OtherInstances returns the pids of other processes running the named executable.
func OtherInstances(executable string) ([]int, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	thisProcessID := os.Getpid()
	wanted := executableName(executable)

	var pids []int

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !strings.EqualFold(process.Executable(), wanted) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

// WarnIfRunning logs a warning when another instance of the current binary runs.
// Concurrent promotions of one channel race on the index files.
func WarnIfRunning(ctx context.Context) {
	self, err := os.Executable()
	if err != nil {
		logger.DebugKV(ctx, "Unable to resolve executable", "error", err)

		return
	}

	pids, err := OtherInstances(filepath.Base(self))
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)

		return
	}

	if len(pids) > 0 {
		logger.WarnKV(ctx, "Another release-publisher process is running; concurrent promotions may lose index lines", "pids", pids)
	}
}

// executableName adds ".exe" on Windows when missing.
func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}

	return name
}
