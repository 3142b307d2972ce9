package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/atl08-extract/internal/catalog"
	"github.com/robert-malhotra/atl08-extract/internal/config"
	"github.com/robert-malhotra/atl08-extract/internal/extract"
	"github.com/robert-malhotra/atl08-extract/internal/filter"
)

func newExtractCmd(cfg *config.Config) *cobra.Command {
	var (
		noOverwrite bool
		noQuality   bool
		noGeo       bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "extract -i GRANULE.h5 [-o DIR]",
		Short: "Convert one ATL08 granule to CSV",
		Long: `Convert one ATL08 granule to CSV.

The output is named after the granule with a _100m or _20m suffix and is
written to the output directory, or next to the granule when none is given.
Granules with no beams, or with no rows left after filtering, produce no file
and exit successfully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noOverwrite {
				cfg.Extract.Overwrite = false
			}
			if noQuality {
				cfg.Filter.Quality = false
			}
			if noGeo {
				cfg.Filter.Geo = false
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.ValidateExtract(); err != nil {
				return err
			}
			return runExtract(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.Extract.Input, "input", "i", cfg.Extract.Input, "ATL08 granule (.h5)")
	f.StringVarP(&cfg.Extract.OutputDir, "outdir", "o", cfg.Extract.OutputDir, "output directory (default: the granule's directory)")
	f.BoolVar(&cfg.Extract.Fine, "do-20m", cfg.Extract.Fine, "write one row per 20 m sub-segment")
	f.BoolVar(&noOverwrite, "no-overwrite", false, "fail if the output file already exists")
	f.BoolVar(&cfg.Extract.NodataNaN, "set-nodata-nan", cfg.Extract.NodataNaN, "write missing values as empty fields instead of the float32 maximum")
	f.BoolVar(&cfg.Extract.FlagNames, "set-flag-names", cfg.Extract.FlagNames, "replace flag codes with their names")
	f.BoolVar(&cfg.Extract.Compress, "gzip", cfg.Extract.Compress, "gzip the output")
	f.StringVar(&cfg.Extract.Catalog, "catalog", cfg.Extract.Catalog, "YAML field catalog replacing the built-in one")

	f.BoolVar(&noQuality, "no-filter-qual", false, "skip the quality screen")
	f.IntVar(&cfg.Filter.MinMonth, "minmonth", cfg.Filter.MinMonth, "first acquisition month kept by the quality screen")
	f.IntVar(&cfg.Filter.MaxMonth, "maxmonth", cfg.Filter.MaxMonth, "last acquisition month kept by the quality screen")

	f.BoolVar(&noGeo, "no-filter-geo", false, "skip the geographic filter")
	f.Float64Var(&cfg.Filter.MinLon, "minlon", cfg.Filter.MinLon, "western edge of the geographic filter")
	f.Float64Var(&cfg.Filter.MaxLon, "maxlon", cfg.Filter.MaxLon, "eastern edge of the geographic filter")
	f.Float64Var(&cfg.Filter.MinLat, "minlat", cfg.Filter.MinLat, "southern edge of the geographic filter")
	f.Float64Var(&cfg.Filter.MaxLat, "maxlat", cfg.Filter.MaxLat, "northern edge of the geographic filter")

	f.BoolVar(&cfg.Logging.ToFile, "log", cfg.Logging.ToFile, "also append the log to <outdir>/_logs")
	f.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	return cmd
}

func runExtract(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	outDir := cfg.Extract.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(cfg.Extract.Input)
	}

	var logFile string
	if cfg.Logging.ToFile {
		logFile = logFilePath(outDir, cfg.Extract.Input)
	}
	logger, closeLog, err := setupLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr(), logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	cat := catalog.Default()
	if cfg.Extract.Catalog != "" {
		cat, err = loadCatalog(cfg.Extract.Catalog)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "using field catalog", slog.String("path", cfg.Extract.Catalog))
	}

	opts := extract.FileOptions{
		OutputDir: outDir,
		Overwrite: cfg.Extract.Overwrite,
		Compress:  cfg.Extract.Compress,
		Run: extract.Options{
			Fine:      cfg.Extract.Fine,
			NodataNaN: cfg.Extract.NodataNaN,
			FlagNames: cfg.Extract.FlagNames,
		},
	}
	if cfg.Filter.Quality {
		opts.Run.Quality = cfg.Filter.Thresholds()
	}
	if cfg.Filter.Geo {
		box := cfg.Filter.BBox()
		opts.Run.Geo = &box
	}

	logger.InfoContext(ctx, "starting extraction",
		slog.String("input", cfg.Extract.Input),
		slog.String("outdir", outDir),
		slog.Bool("quality", cfg.Filter.Quality),
		slog.Bool("geo", cfg.Filter.Geo),
	)

	ex := extract.NewExtractor(extract.New(cat), opts).WithLogger(logger)
	res, err := ex.ExtractFile(ctx, cfg.Extract.Input)
	if err != nil {
		return err
	}

	if res.Outcome != extract.OutcomeWritten {
		logger.InfoContext(ctx, "no output written", slog.String("reason", res.Outcome.String()))
		return nil
	}

	logger.InfoContext(ctx, "output written",
		slog.String("path", res.Path),
		slog.Int("rows", res.Table.Rows()),
		slog.String("extent", formatExtent(res.Extent)),
	)
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	cat, err := catalog.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return cat, nil
}

// logFilePath returns <outDir>/_logs/<granule>__extract-atl08_Log.txt.
func logFilePath(outDir, input string) string {
	name, _, _ := strings.Cut(filepath.Base(input), ".")
	return filepath.Join(outDir, "_logs", name+"__extract-atl08_Log.txt")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func formatExtent(b filter.BBox) string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}
