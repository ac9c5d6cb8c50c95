// Package buildlog wraps log/slog with the five named levels spec.md
// §6 requires of the logger sub-contract ({NONE, INFO, WARN, DEBUG,
// ERROR}), plus optional rotation of the log file. It is grounded on
// the teacher's initSlog (cmd/sand/main.go): a JSON handler writing to
// a file resolved from a CLI flag, installed as the slog default.
package buildlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names the five levels spec.md §6 mandates the logger
// sub-contract support. NONE suppresses all output, matching the
// spec's "NONE suppresses the bracketed prefix" by mapping to a
// threshold above slog's highest level.
type Level string

const (
	LevelNone  Level = "none"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelNone:
		return slog.LevelError + 4 // above any level slog defines
	default:
		return slog.LevelInfo
	}
}

// Options configures New.
type Options struct {
	// Level is one of the five named levels. Defaults to LevelInfo.
	Level Level
	// File is the log destination path. Empty writes to stderr,
	// mirroring the teacher's fallback to a temp file when unset —
	// ccm prefers stderr since its own stdout is reserved for child
	// build output (spec.md §6's process contract).
	File string
	// Rotate enables lumberjack-managed rotation of File. Ignored if
	// File is empty.
	Rotate   bool
	MaxSizeMB int
	MaxBackups int
	MaxAgeDays int
}

// New builds a slog.Logger per opts and installs it as slog's
// process-wide default, exactly as the teacher's initSlog does, so
// every package that calls slog.Info/slog.Default picks it up without
// threading a logger through every call site.
func New(opts Options) (*slog.Logger, error) {
	var w io.Writer = os.Stderr
	if opts.File != "" {
		if opts.Rotate {
			w = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    firstPositive(opts.MaxSizeMB, 50),
				MaxBackups: firstPositive(opts.MaxBackups, 3),
				MaxAge:     firstPositive(opts.MaxAgeDays, 14),
			}
		} else {
			f, err := os.OpenFile(opts.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("buildlog: open %s: %w", opts.File, err)
			}
			w = f
		}
	}

	level := opts.Level
	if level == "" {
		level = LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level.slogLevel(),
	}))
	slog.SetDefault(logger)
	return logger, nil
}

func firstPositive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
