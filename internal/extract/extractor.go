package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robert-malhotra/atl08-extract/internal/csvout"
	"github.com/robert-malhotra/atl08-extract/internal/granule"
	"github.com/robert-malhotra/atl08-extract/internal/h5source"
)

// Granule is an open input file.
type Granule interface {
	granule.Source
	Close() error
}

// Opener opens the granule at path.
type Opener func(path string) (Granule, error)

// OpenHDF5 opens an HDF5 granule from disk.
func OpenHDF5(path string) (Granule, error) {
	src, err := h5source.Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// FileOptions controls how granule files are turned into CSV files.
type FileOptions struct {
	// OutputDir receives the CSV files. Empty writes next to the input.
	OutputDir string
	// Overwrite replaces existing output files.
	Overwrite bool
	// Compress gzips the output.
	Compress bool
	// Run is passed to the pipeline. GranuleName is filled in per file.
	Run Options
}

// Extractor converts granule files into CSV files.
type Extractor struct {
	pipeline *Pipeline
	opts     FileOptions
	open     Opener
	logger   *slog.Logger
}

// NewExtractor creates an Extractor running p with opts.
func NewExtractor(p *Pipeline, opts FileOptions) *Extractor {
	return &Extractor{
		pipeline: p,
		opts:     opts,
		open:     OpenHDF5,
		logger:   slog.Default(),
	}
}

// WithOpener replaces the function used to open granules.
func (e *Extractor) WithOpener(open Opener) *Extractor {
	e.open = open
	return e
}

// WithLogger sets a custom logger for the extractor and its pipeline.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	e.logger = logger
	e.pipeline.WithLogger(logger)
	return e
}

// OutputPath returns the CSV path ExtractFile writes for input.
func (e *Extractor) OutputPath(input string) string {
	return csvout.OutputPath(input, e.opts.OutputDir, e.opts.Run.Fine, e.opts.Compress)
}

// ExtractFile converts one granule. Runs that end without data return a
// Result with an empty Path and no error.
func (e *Extractor) ExtractFile(ctx context.Context, input string) (*Result, error) {
	start := time.Now()

	if !strings.EqualFold(filepath.Ext(input), ".h5") {
		return nil, fmt.Errorf("%w: %s", ErrBadExtension, input)
	}

	out := e.OutputPath(input)
	if !e.opts.Overwrite {
		_, err := os.Stat(out)
		if err == nil {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, out)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to check output file: %w", err)
		}
	}

	src, err := e.open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open granule: %w", err)
	}
	defer src.Close()

	opts := e.opts.Run
	opts.GranuleName = filepath.Base(input)

	e.logger.InfoContext(ctx, "extracting granule",
		slog.String("input", input),
		slog.Bool("fine", opts.Fine),
	)

	res, err := e.pipeline.Run(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	if res.Outcome == OutcomeWritten {
		if err := csvout.Write(out, res.Table, csvout.Options{Compress: e.opts.Compress}); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", out, err)
		}
		res.Path = out
	}

	e.logger.InfoContext(ctx, "extraction finished",
		slog.String("granule", opts.GranuleName),
		slog.String("outcome", res.Outcome.String()),
		slog.String("output", res.Path),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
