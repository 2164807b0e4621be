package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the process-wide diagnostic logger on stderr. Warnings and
// errors are always shown; verbose adds debug output.
func Init(verbose bool) {
	InitWithWriter(os.Stderr, verbose)
}

func InitWithWriter(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
