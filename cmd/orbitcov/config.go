package main

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/term"
)

func loadLogLevel(logger *slog.Logger) slog.Level {
	v := os.Getenv("ORBITCOV_LOG_LEVEL")
	switch strings.ToLower(v) {
	case "":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		logger.Warn("invalid ORBITCOV_LOG_LEVEL value, using default", "value", v, "default", "info")
		return slog.LevelInfo
	}
}

// newLogger writes text to terminals and JSON everywhere else.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func loadWorkers(logger *slog.Logger) int {
	workers := runtime.NumCPU()
	if v := os.Getenv("ORBITCOV_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITCOV_WORKERS value, using default", "value", v, "default", workers)
		} else {
			workers = n
		}
	}
	logger.Debug("worker config", "workers", workers)
	return workers
}

// loadOpaqueAtmosHeight returns nil when the mission setting applies.
func loadOpaqueAtmosHeight(logger *slog.Logger) *float64 {
	v := os.Getenv("ORBITCOV_OPAQUE_ATMOS_HEIGHT_KM")
	if v == "" {
		return nil
	}
	h, err := strconv.ParseFloat(v, 64)
	if err != nil || h < 0 {
		logger.Warn("invalid ORBITCOV_OPAQUE_ATMOS_HEIGHT_KM value, using mission setting", "value", v)
		return nil
	}
	logger.Info("opaque atmosphere override", "height_km", h)
	return &h
}
