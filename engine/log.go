package engine

import (
	"io"
	"log/slog"
	"os"
)

// debugLog is the engine's package-level diagnostic logger. It discards all
// output unless GRAPHTOOL_LOG_ENGINE is set, mirroring the teacher's
// hiveexplorer/logger package's discard-by-default shape but without the
// file-rotation machinery, since the engine's hot path has no log target to
// rotate and must not allocate a logger per call.
var debugLog = newDebugLog()

func newDebugLog() *slog.Logger {
	if os.Getenv("GRAPHTOOL_LOG_ENGINE") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
