package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/atl08-extract/internal/catalog"
	"github.com/robert-malhotra/atl08-extract/internal/filter"
	"github.com/robert-malhotra/atl08-extract/internal/granule"
	"github.com/robert-malhotra/atl08-extract/internal/nodata"
	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// fillValue is the canopy height fill value of a real granule.
const fillValue = math.MaxFloat32

var everywhere = &filter.BBox{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}

// syntheticGranule builds a granule with segments coarse segments for each
// of the given beams. Segment 0 of every beam has a filled canopy height.
func syntheticGranule(cat *catalog.Catalog, beams []string, segments int) *granule.MemorySource {
	src := granule.NewMemorySource()
	src.SetText("/ancillary_data/granule_end_utc", []string{"2019-08-28T11:20:04.123456Z"})
	src.SetNumbers("/orbit_info/sc_orient", []float64{0})
	src.SetNumbers("/orbit_info/orbit_number", []float64{4242})
	src.SetNumbers("/orbit_info/rgt", []float64{960})

	for b, beam := range beams {
		for _, f := range cat.FieldsFor(true) {
			if f.Scope != catalog.ScopeBeam {
				continue
			}
			values := make([]float64, segments*f.Width)
			for k := range values {
				i, j := k/f.Width, k%f.Width
				values[k] = fieldValue(f.Column, b, i, j)
			}
			src.SetNumbers(f.BeamPath(beam), values)
		}
	}
	return src
}

func fieldValue(column string, beam, seg, sub int) float64 {
	switch column {
	case "lon":
		return -108.5 + float64(beam) + 0.001*float64(seg)
	case "lat":
		return 60.25 + 0.01*float64(seg)
	case "lon_20m":
		return -108.5 + float64(beam) + 0.001*float64(seg) + 0.0001*float64(sub)
	case "lat_20m":
		return 60.25 + 0.01*float64(seg) + 0.001*float64(sub)
	case "h_can":
		if seg == 0 {
			return fillValue
		}
		return 10 + float64(seg)
	case "h_te_best":
		return 200 + 100*float64(beam) + float64(seg)
	case "h_te_best_20m", "h_can_20m":
		return float64(seg) + 0.1*float64(sub)
	case "msw_flg", "h_dif_ref":
		return 0
	case "seg_snow", "sig_topo":
		return 1
	default:
		return float64((seg + sub) % 7)
	}
}

func newPipeline() *Pipeline {
	return New(catalog.Default()).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_CoarseTwoBeams(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1r", "gt2l"}, 10)

	res, err := newPipeline().Run(context.Background(), src, Options{
		Geo:         everywhere,
		GranuleName: "ATL08_test.h5",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWritten, res.Outcome)
	require.Equal(t, 20, res.Table.Rows())
	require.Equal(t, 2, res.Counts.Beams)

	ids, err := res.Table.Strings("id_unique")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, id := range ids {
		if len(id) != 30 {
			t.Errorf("id %q has length %d, want 30", id, len(id))
		}
		parts := strings.Split(id, "-")
		if len(parts) != 3 || len(parts[0]) != 10 || len(parts[1]) != 10 || len(parts[2]) != 8 {
			t.Errorf("id %q is not <10>-<10>-<8>", id)
		}
		if seen[id] {
			t.Errorf("duplicate id %q", id)
		}
		seen[id] = true
	}

	if ids[0] != "108W500000-60N2500000-20190828" {
		t.Errorf("first id = %q, want 108W500000-60N2500000-20190828", ids[0])
	}

	coarse, err := res.Table.Strings("id_100m")
	require.NoError(t, err)
	require.Equal(t, ids, coarse)

	cols := res.Table.Columns()
	require.Equal(t, "id_unique", cols[0])
	require.Equal(t, "lon", cols[1])
	require.Equal(t, "lat", cols[2])
	require.Contains(t, cols, "rh95")
	require.NotContains(t, cols, "canopy_h_metrics")
	require.NotContains(t, cols, "lon_20m")

	gt, err := res.Table.Strings("gt")
	require.NoError(t, err)
	require.Equal(t, "gt1r", gt[0])
	require.Equal(t, "gt2l", gt[19])

	require.InDelta(t, -108.5, res.Extent.MinLon, 1e-9)
	require.InDelta(t, -107.491, res.Extent.MaxLon, 1e-9)
}

func TestRun_FineTwoBeams(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1r", "gt2l"}, 10)

	res, err := newPipeline().Run(context.Background(), src, Options{
		Fine:        true,
		Geo:         everywhere,
		GranuleName: "ATL08_test.h5",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWritten, res.Outcome)
	require.Equal(t, 100, res.Table.Rows())
	require.Equal(t, 20, res.Counts.Segments)

	unique, err := res.Table.Strings("id_unique")
	require.NoError(t, err)
	coarse, err := res.Table.Strings("id_100m")
	require.NoError(t, err)
	teBest, err := res.Table.Numbers("h_te_best")
	require.NoError(t, err)
	teBest20, err := res.Table.Numbers("h_te_best_20m")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := range 20 {
		for j := range 5 {
			row := 5*i + j
			want := coarse[5*i] + "-" + strconv.Itoa(j+1)
			if unique[row] != want {
				t.Errorf("row %d: id_unique = %q, want %q", row, unique[row], want)
			}
			if coarse[row] != coarse[5*i] {
				t.Errorf("row %d: id_100m = %q, want %q", row, coarse[row], coarse[5*i])
			}
			if teBest[row] != teBest[5*i] {
				t.Errorf("row %d: h_te_best = %g, want %g", row, teBest[row], teBest[5*i])
			}
			if seen[unique[row]] {
				t.Errorf("duplicate id %q", unique[row])
			}
			seen[unique[row]] = true
		}
	}

	// Fine-native values are flattened in sub-segment order.
	require.InDelta(t, 1.3, teBest20[5*1+3], 1e-9)

	cols := res.Table.Columns()
	require.Equal(t, []string{"id_unique", "lon_20m", "lat_20m", "h_can_20m", "h_te_best_20m"}, cols[:5])
}

func TestRun_BBoxExcludesAll(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1r", "gt2l"}, 10)

	res, err := newPipeline().Run(context.Background(), src, Options{
		Geo: &filter.BBox{MinLon: 0, MaxLon: 10, MinLat: 0, MaxLat: 10},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeFilteredEmpty, res.Outcome)
	require.Nil(t, res.Table)
	require.Equal(t, 0, res.Counts.AfterGeo)
	require.Equal(t, 20, res.Counts.Rows)
}

func TestRun_NoBeams(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), granule.NewMemorySource(), Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeNoBeams, res.Outcome)
	require.Nil(t, res.Table)
}

func TestRun_PrecheckEmpty(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 4)
	src.SetNumbers("/gt1l/land_segments/msw_flag", []float64{1, 1, 2, 3})

	res, err := newPipeline().Run(context.Background(), src, Options{
		Quality: filter.DefaultThresholds(),
	})
	require.NoError(t, err)
	require.Equal(t, OutcomePrecheckEmpty, res.Outcome)

	// The precheck applies with quality screening off too.
	res, err = newPipeline().Run(context.Background(), src, Options{Geo: everywhere})
	require.NoError(t, err)
	require.Equal(t, OutcomePrecheckEmpty, res.Outcome)
	require.Nil(t, res.Table)

	snowy := syntheticGranule(cat, []string{"gt1l"}, 4)
	snowy.SetNumbers("/gt1l/land_segments/segment_snowcover", []float64{0, 2, 3, 2})
	res, err = newPipeline().Run(context.Background(), snowy, Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomePrecheckEmpty, res.Outcome)
}

func TestRun_Quality(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1r", "gt1l"}, 10)

	res, err := newPipeline().Run(context.Background(), src, Options{
		Quality: filter.DefaultThresholds(),
		Geo:     everywhere,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWritten, res.Outcome)

	// Backward orientation: only gt1l is strong, and its filled segment fails
	// the canopy height threshold.
	require.Equal(t, 9, res.Table.Rows())
	gt, err := res.Table.Strings("gt")
	require.NoError(t, err)
	for _, g := range gt {
		require.Equal(t, "gt1l", g)
	}

	cols := res.Table.Columns()
	require.Equal(t, []string{"id_unique", "year", "month", "day"}, cols[:4])
	month, err := res.Table.Numbers("month")
	require.NoError(t, err)
	require.Equal(t, float64(8), month[0])
}

func TestRun_QualityEmpty(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1r"}, 5)

	res, err := newPipeline().Run(context.Background(), src, Options{
		Quality: filter.DefaultThresholds(),
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeFilteredEmpty, res.Outcome)
	require.Equal(t, 0, res.Counts.AfterQuality)
}

func TestRun_QualityContract(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 3)

	addsColumn := filter.QualityFunc(func(in *table.Table) (*table.Table, error) {
		reg := table.NewRegistry()
		for _, name := range in.Columns() {
			c, _ := in.Column(name)
			reg.Set(c)
		}
		reg.Set(table.NewFloat("extra", make([]float64, in.Rows())))
		return table.New(reg)
	})

	_, err := newPipeline().Run(context.Background(), src, Options{Quality: addsColumn})
	require.ErrorIs(t, err, ErrQualityContract)
}

func TestRun_QualityNilTable(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 3)

	noTable := filter.QualityFunc(func(*table.Table) (*table.Table, error) {
		return nil, nil
	})

	_, err := newPipeline().Run(context.Background(), src, Options{Quality: noTable})
	require.ErrorIs(t, err, ErrQualityContract)
}

func TestRun_Nodata(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 3)

	res, err := newPipeline().Run(context.Background(), src, Options{})
	require.NoError(t, err)
	require.Equal(t, float64(fillValue), res.Policy.Source)
	require.GreaterOrEqual(t, res.Counts.Missing, 1)

	hCan, err := res.Table.Numbers("h_can")
	require.NoError(t, err)
	require.Equal(t, float64(nodata.Invalid), hCan[0])
	require.Equal(t, 11.0, hCan[1])

	res, err = newPipeline().Run(context.Background(), src, Options{NodataNaN: true})
	require.NoError(t, err)
	hCan, err = res.Table.Numbers("h_can")
	require.NoError(t, err)
	require.True(t, math.IsNaN(hCan[0]))
	c, _ := res.Table.Column("h_can")
	require.Equal(t, "", c.Format(0))
}

func TestRun_FlagNames(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 3)

	res, err := newPipeline().Run(context.Background(), src, Options{
		Quality:   filter.DefaultThresholds(),
		FlagNames: true,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeWritten, res.Outcome)

	snow, err := res.Table.Strings("seg_snow")
	require.NoError(t, err)
	for _, s := range snow {
		require.Equal(t, "snow free land", s)
	}
}

func TestRun_MissingField(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 3)
	delete(src.Numbers, "/gt1l/land_segments/terrain/h_te_best_fit")

	_, err := newPipeline().Run(context.Background(), src, Options{})
	require.ErrorIs(t, err, granule.ErrFieldNotFound)
}

func TestRun_Cancelled(t *testing.T) {
	cat := catalog.Default()
	src := syntheticGranule(cat, []string{"gt1l"}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline().Run(ctx, src, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeWritten, "written"},
		{OutcomeNoBeams, "no beams"},
		{OutcomeFilteredEmpty, "empty after filtering"},
		{Outcome(42), "Outcome(42)"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.outcome), got, tt.want)
		}
	}
}
