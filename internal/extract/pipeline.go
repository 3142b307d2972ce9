// Package extract runs the granule-to-table pipeline.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/robert-malhotra/atl08-extract/internal/catalog"
	"github.com/robert-malhotra/atl08-extract/internal/filter"
	"github.com/robert-malhotra/atl08-extract/internal/flags"
	"github.com/robert-malhotra/atl08-extract/internal/granule"
	"github.com/robert-malhotra/atl08-extract/internal/nodata"
	"github.com/robert-malhotra/atl08-extract/internal/segid"
	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// Outcome is how a run ended. Only OutcomeWritten produces a table; the
// others are normal results for granules without usable data.
type Outcome int

const (
	OutcomeWritten Outcome = iota
	OutcomeNoBeams
	OutcomePrecheckEmpty
	OutcomeFilteredEmpty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeNoBeams:
		return "no beams"
	case OutcomePrecheckEmpty:
		return "no row can pass quality screening"
	case OutcomeFilteredEmpty:
		return "empty after filtering"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Options controls a single run.
type Options struct {
	// Fine expands every coarse segment into its fine sub-segments.
	Fine bool
	// NodataNaN leaves missing values empty in the output instead of
	// writing nodata.Invalid.
	NodataNaN bool
	// FlagNames replaces flag codes with their labels.
	FlagNames bool
	// Quality is the quality screen. Nil disables it.
	Quality filter.Quality
	// Geo restricts rows to a bounding box. Nil disables it.
	Geo *filter.BBox
	// GranuleName is written to the granule_name column.
	GranuleName string
}

// Counts records the row count after each stage.
type Counts struct {
	Beams        int
	Segments     int
	Rows         int
	Missing      int
	AfterQuality int
	AfterGeo     int
}

// Result is the product of a run.
type Result struct {
	Outcome Outcome
	// Table is the ordered output table; nil unless Outcome is OutcomeWritten.
	Table *table.Table
	// Extent is the lon/lat extent of the unfiltered observations.
	Extent filter.BBox
	Counts Counts
	Policy nodata.Policy
	// Path is the written file, set by Extractor.ExtractFile.
	Path string
}

// Pipeline turns the arrays of one granule into the output table.
type Pipeline struct {
	catalog   *catalog.Catalog
	collector *granule.Collector
	logger    *slog.Logger
}

// New creates a Pipeline reading the fields of cat.
func New(cat *catalog.Catalog) *Pipeline {
	return &Pipeline{
		catalog:   cat,
		collector: granule.NewCollector(cat),
		logger:    slog.Default(),
	}
}

// WithLogger sets a custom logger for the pipeline.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	p.collector.WithLogger(logger)
	return p
}

// Run reads src and builds the output table.
func (p *Pipeline) Run(ctx context.Context, src granule.Source, opts Options) (*Result, error) {
	logger := p.logger.With(slog.String("granule", opts.GranuleName))
	res := &Result{}

	beams, err := p.collector.Collect(ctx, src, opts.Fine)
	if errors.Is(err, granule.ErrNoBeams) {
		logger.InfoContext(ctx, "no beams with data")
		res.Outcome = OutcomeNoBeams
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to collect beams: %w", err)
	}
	res.Counts.Beams = len(beams)

	reg, conflicts, err := granule.Merge(beams)
	if err != nil {
		return nil, fmt.Errorf("failed to merge beams: %w", err)
	}
	if len(conflicts) > 0 {
		logger.WarnContext(ctx, "column defined by more than one group, keeping the last",
			slog.Any("columns", conflicts),
		)
	}
	if res.Counts.Segments, err = reg.Rows(); err != nil {
		return nil, err
	}

	if !filter.Precheck(reg) {
		logger.InfoContext(ctx, "no segment can pass quality screening")
		res.Outcome = OutcomePrecheckEmpty
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Fine {
		reg, err = table.Expand(reg, p.catalog.FineWidth())
		if err != nil {
			return nil, fmt.Errorf("failed to expand fine segments: %w", err)
		}
	}

	ref, ok := reg.Get(nodata.ReferenceColumn)
	if !ok || !ref.Kind.Numeric() {
		return nil, fmt.Errorf("%w: %q", table.ErrUnknownColumn, nodata.ReferenceColumn)
	}
	res.Policy, err = nodata.NewPolicy(ref.Num, opts.NodataNaN)
	if err != nil {
		return nil, fmt.Errorf("failed to derive nodata value: %w", err)
	}
	res.Counts.Missing = nodata.ToMissing(reg, res.Policy.Source)

	tbl, err := table.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to build table: %w", err)
	}
	res.Counts.Rows = tbl.Rows()

	valid, negative := canopyStats(ref.Num)
	res.Extent = extent(tbl)
	logger.InfoContext(ctx, "read granule",
		slog.Int("beams", res.Counts.Beams),
		slog.Int("observations", res.Counts.Rows),
		slog.Int("h_can_valid", valid),
		slog.Int("h_can_negative", negative),
		slog.Float64("nodata_source", res.Policy.Source),
		slog.Int("nodata_replaced", res.Counts.Missing),
	)
	logger.DebugContext(ctx, "observation extent",
		slog.Float64("min_lon", res.Extent.MinLon),
		slog.Float64("max_lon", res.Extent.MaxLon),
		slog.Float64("min_lat", res.Extent.MinLat),
		slog.Float64("max_lat", res.Extent.MaxLat),
	)

	nodata.FromMissing(reg, res.Policy.Output)

	names := make([]string, tbl.Rows())
	for i := range names {
		names[i] = opts.GranuleName
	}
	if err := tbl.AddColumn(table.NewString("granule_name", names)); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Counts.AfterQuality = tbl.Rows()
	if opts.Quality != nil {
		if err := filter.Prepare(tbl); err != nil {
			return nil, fmt.Errorf("failed to prepare quality columns: %w", err)
		}
		tbl, err = applyQuality(opts.Quality, tbl)
		if err != nil {
			return nil, err
		}
		res.Counts.AfterQuality = tbl.Rows()
		logger.InfoContext(ctx, "quality filter applied", slog.Int("rows", tbl.Rows()))
		if tbl.Rows() == 0 {
			res.Outcome = OutcomeFilteredEmpty
			return res, nil
		}
	}

	res.Counts.AfterGeo = tbl.Rows()
	if opts.Geo != nil {
		tbl, err = filter.Geographic(tbl, *opts.Geo)
		if err != nil {
			return nil, fmt.Errorf("geographic filter: %w", err)
		}
		res.Counts.AfterGeo = tbl.Rows()
		logger.InfoContext(ctx, "geographic filter applied", slog.Int("rows", tbl.Rows()))
		if tbl.Rows() == 0 {
			res.Outcome = OutcomeFilteredEmpty
			return res, nil
		}
	}

	if opts.FlagNames {
		done, err := flags.Translate(tbl)
		if err != nil {
			return nil, fmt.Errorf("failed to translate flags: %w", err)
		}
		logger.DebugContext(ctx, "translated flag columns", slog.Any("columns", done))
	}

	if err := addIdentifiers(tbl, opts.Fine); err != nil {
		return nil, err
	}

	order, err := table.Order(tbl.Columns())
	if err != nil {
		return nil, err
	}
	if tbl, err = tbl.Select(order); err != nil {
		return nil, err
	}

	res.Outcome = OutcomeWritten
	res.Table = tbl
	return res, nil
}

// applyQuality runs q and checks that it returned a row subset with the
// same columns.
func applyQuality(q filter.Quality, in *table.Table) (*table.Table, error) {
	out, err := q.Apply(in)
	if err != nil {
		return nil, fmt.Errorf("quality filter: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: nil table", ErrQualityContract)
	}
	if out.Rows() > in.Rows() {
		return nil, fmt.Errorf("%w: %d rows in, %d rows out", ErrQualityContract, in.Rows(), out.Rows())
	}
	for _, name := range out.Columns() {
		if !slices.Contains(in.Columns(), name) {
			return nil, fmt.Errorf("%w: added column %q", ErrQualityContract, name)
		}
	}
	return out, nil
}

// addIdentifiers adds id_100m and id_unique. For fine rows id_unique is the
// coarse identifier suffixed with the sub-segment index.
func addIdentifiers(t *table.Table, fine bool) error {
	lon, err := t.Numbers("lon")
	if err != nil {
		return err
	}
	lat, err := t.Numbers("lat")
	if err != nil {
		return err
	}
	dt, err := t.Strings("dt")
	if err != nil {
		return err
	}
	var sub []float64
	if fine {
		if sub, err = t.Numbers("id_20m"); err != nil {
			return err
		}
	}

	coarse := make([]string, t.Rows())
	unique := make([]string, t.Rows())
	for i := range coarse {
		id, err := segid.Coarse(lon[i], lat[i], dt[i])
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		coarse[i] = id
		unique[i] = id
		if fine {
			unique[i] = segid.Fine(id, int(sub[i]))
		}
	}

	if err := t.AddColumn(table.NewString("id_100m", coarse)); err != nil {
		return err
	}
	return t.AddColumn(table.NewString("id_unique", unique))
}

// canopyStats counts the valid and negative canopy heights.
func canopyStats(hCan []float64) (valid, negative int) {
	for _, v := range hCan {
		if math.IsNaN(v) {
			continue
		}
		valid++
		if v < 0 {
			negative++
		}
	}
	return valid, negative
}

// extent returns the bounding box of the non-missing coordinates of t.
func extent(t *table.Table) filter.BBox {
	lon, err := t.Numbers("lon")
	if err != nil {
		return filter.BBox{}
	}
	lat, err := t.Numbers("lat")
	if err != nil {
		return filter.BBox{}
	}

	xs := dropNaN(lon)
	ys := dropNaN(lat)
	if len(xs) == 0 || len(ys) == 0 {
		return filter.BBox{}
	}
	return filter.BBox{
		MinLon: floats.Min(xs),
		MaxLon: floats.Max(xs),
		MinLat: floats.Min(ys),
		MaxLat: floats.Max(ys),
	}
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
