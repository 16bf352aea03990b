package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// NewLogger builds the JSON slog logger for a binary. With LogDir set, output is
// also written to a fresh timestamped file; the returned func closes it.
func NewLogger(cfg *Config, name string, stdout io.Writer) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	out := stdout
	closeFn := func() {}
	if cfg.LogDir != "" {
		f, err := SetupLogFile(cfg.LogDir, name, cfg.LogMaxFiles)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(stdout, f)
		closeFn = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, closeFn, nil
}

// SetupLogFile creates a new timestamped log file and cleans up old files.
// Returns the file handle (caller must close) or error.
func SetupLogFile(dir, name string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.log", name,
		time.Now().Format("2006-01-02T15-04-05.000")))

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// Logging still works if cleanup fails
	if err := cleanupOldLogs(dir, name, maxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to cleanup old logs: %v\n", err)
	}

	return f, nil
}

// cleanupOldLogs removes oldest log files when count exceeds maxFiles.
func cleanupOldLogs(dir, name string, maxFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, name+"-*.log"))
	if err != nil {
		return err
	}

	if len(files) <= maxFiles {
		return nil
	}

	// Timestamped names sort chronologically
	sort.Strings(files)

	for _, file := range files[:len(files)-maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("remove %s: %w", file, err)
		}
	}

	return nil
}
