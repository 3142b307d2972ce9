// Command atl08 converts ICESat-2 ATL08 land and vegetation granules into
// CSV tables and searches CMR for granules to convert.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/atl08-extract/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd(cfg).ExecuteContext(ctx)
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "atl08",
		Short: "Extract ICESat-2 ATL08 granules to CSV",
		Long: `atl08 reads the six beams of an ICESat-2 ATL08 granule, merges the
orbit, canopy and auxiliary fields into one table, screens it for quality and
location, and writes a CSV file with one row per 100 m segment or, with
--do-20m, per 20 m sub-segment.

Settings can also be given as ATL08_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "log format (text, json)")

	root.AddCommand(newExtractCmd(cfg), newSearchCmd(cfg))
	return root
}

// setupLogger builds the run logger. Records go to w and, when logFile is
// set, are appended to that file as well. The returned close function
// releases the file.
func setupLogger(level, format string, w io.Writer, logFile string) (*slog.Logger, func() error, error) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	closer := func() error { return nil }
	if logFile != "" {
		f, err := openLogFile(logFile)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(w, f)
		closer = f.Close
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("run_id", uuid.NewString())), closer, nil
}
