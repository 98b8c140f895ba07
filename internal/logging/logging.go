package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/notionsync/internal/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"
	maxLogSizeMB      = 10
	maxLogBackups     = 5
	maxLogAgeDays     = 28
)

type Options struct {
	Level   slog.Level
	Console io.Writer // defaults to os.Stdout
	File    string    // rotated log file, disabled when empty
}

// Setup installs the default slog logger and returns a closer for the log file.
func Setup(opts Options) (io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	handlers := []slog.Handler{
		tint.NewHandler(console, &tint.Options{
			Level:      opts.Level,
			TimeFormat: consoleTimeFormat,
			NoColor:    !isTerminal(console),
		}),
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := utils.EnsureParent(opts.File); err != nil {
			return nil, fmt.Errorf("log directory: %w", err)
		}
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		}
		handlers = append(handlers, slog.NewTextHandler(rotated, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = rotated
	}

	slog.SetDefault(slog.New(NewFanoutHandler(handlers...)))
	return closer, nil
}

// ParseLevel accepts debug, info, warn, error; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
