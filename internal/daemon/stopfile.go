package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"backlog/internal/logging"
)

// stopFileName is the marker the external coding agent checks between
// features. Its presence requests a graceful stop after the current item.
const stopFileName = "STOP_REQUESTED"

func (d *Daemon) stopFilePath() string {
	return filepath.Join(d.cfg.Paths.DataDir, stopFileName)
}

// RequestStop writes the stop-request marker.
func (d *Daemon) RequestStop() error {
	contents := fmt.Sprintf("stop requested at %s\n", time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(d.stopFilePath(), []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write stop request: %w", err)
	}
	d.logger.Info("agent stop requested",
		logging.String(logging.FieldEventType, "stop_requested"),
		logging.String("path", d.stopFilePath()))
	return nil
}

// ClearStopRequest removes the stop-request marker if present.
func (d *Daemon) ClearStopRequest() error {
	err := os.Remove(d.stopFilePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stop request: %w", err)
	}
	return nil
}

// StopRequested reports whether the stop-request marker exists.
func (d *Daemon) StopRequested() bool {
	_, err := os.Stat(d.stopFilePath())
	return err == nil
}
