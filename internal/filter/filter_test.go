package filter

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/atl08-extract/internal/table"
)

func newTable(t *testing.T, cols ...*table.Column) *table.Table {
	t.Helper()
	reg := table.NewRegistry()
	for _, c := range cols {
		reg.Set(c)
	}
	tbl, err := table.New(reg)
	require.NoError(t, err)
	return tbl
}

func TestBBox_Contains(t *testing.T) {
	box := BBox{MinLon: -180, MaxLon: 180, MinLat: 30, MaxLat: 90}

	tests := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"inside", -108.3, 76.2, true},
		{"south edge", 0, 30, true},
		{"north edge", 0, 90, true},
		{"west edge", -180, 45, true},
		{"below", 10, 29.999, false},
		{"nan", math.NaN(), 45, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.lon, tt.lat); got != tt.want {
				t.Errorf("Contains(%g, %g) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestBBox_Validate(t *testing.T) {
	tests := []struct {
		name    string
		box     BBox
		wantErr bool
	}{
		{"default", BBox{-180, 180, 30, 90}, false},
		{"point", BBox{10, 10, 50, 50}, false},
		{"lon out of range", BBox{-181, 180, 30, 90}, true},
		{"lat out of range", BBox{-180, 180, -91, 90}, true},
		{"inverted lon", BBox{20, 10, 30, 90}, true},
		{"inverted lat", BBox{-180, 180, 60, 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeographic(t *testing.T) {
	tbl := newTable(t,
		table.NewFloat("lon", []float64{-100, 0, 50, 179}),
		table.NewFloat("lat", []float64{60, 10, 30, 89}),
		table.NewString("gt", []string{"a", "b", "c", "d"}),
	)

	got, err := Geographic(tbl, BBox{MinLon: -180, MaxLon: 180, MinLat: 30, MaxLat: 90})
	require.NoError(t, err)
	require.Equal(t, 3, got.Rows())

	gt, err := got.Strings("gt")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"a", "c", "d"}, gt); diff != "" {
		t.Errorf("kept rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tbl.Columns(), got.Columns()); diff != "" {
		t.Errorf("columns changed (-want +got):\n%s", diff)
	}
}

func TestGeographic_MissingColumn(t *testing.T) {
	tbl := newTable(t, table.NewFloat("lon", []float64{1}))
	if _, err := Geographic(tbl, BBox{-180, 180, -90, 90}); err == nil {
		t.Error("expected error for missing lat column")
	}
}

func TestBeamType(t *testing.T) {
	tests := []struct {
		gt     string
		orient float64
		want   string
	}{
		{"gt1l", 0, BeamStrong},
		{"gt1r", 0, BeamWeak},
		{"gt2r", 1, BeamStrong},
		{"gt3l", 1, BeamWeak},
		{"gt1l", 2, BeamUnknown},
		{"gt1r", math.NaN(), BeamUnknown},
	}

	for _, tt := range tests {
		if got := BeamType(tt.gt, tt.orient); got != tt.want {
			t.Errorf("BeamType(%q, %g) = %q, want %q", tt.gt, tt.orient, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	tbl := newTable(t,
		table.NewString("dt", []string{"2019-08-28T11:20:04.123Z", "2019-08-28T11:20:04.123Z"}),
		table.NewString("gt", []string{"gt1l", "gt1r"}),
		table.NewInt("orb_orient", []float64{0, 0}),
	)

	require.NoError(t, Prepare(tbl))

	want := map[string][]float64{
		"year":  {2019, 2019},
		"month": {8, 8},
		"day":   {28, 28},
	}
	for name, values := range want {
		got, err := tbl.Numbers(name)
		require.NoError(t, err)
		if diff := cmp.Diff(values, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}

	beamType, err := tbl.Strings("beam_type")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{BeamStrong, BeamWeak}, beamType); diff != "" {
		t.Errorf("beam_type mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare_BadDate(t *testing.T) {
	tbl := newTable(t,
		table.NewString("dt", []string{"not a date"}),
		table.NewString("gt", []string{"gt1l"}),
		table.NewInt("orb_orient", []float64{0}),
	)
	if err := Prepare(tbl); err == nil {
		t.Error("expected error for unparseable dt")
	}
}

func TestPrecheck(t *testing.T) {
	tests := []struct {
		name string
		msw  []float64
		snow []float64
		want bool
	}{
		{"both present", []float64{1, 0}, []float64{2, 1}, true},
		{"all multiple scattering", []float64{1, 2}, []float64{1, 1}, false},
		{"no snow free land", []float64{0, 0}, []float64{0, 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := table.NewRegistry()
			reg.Set(table.NewInt("msw_flg", tt.msw))
			reg.Set(table.NewInt("seg_snow", tt.snow))
			if got := Precheck(reg); got != tt.want {
				t.Errorf("Precheck() = %v, want %v", got, tt.want)
			}
		})
	}

	if Precheck(table.NewRegistry()) {
		t.Error("Precheck() on empty registry = true, want false")
	}
}

func TestThresholds_Apply(t *testing.T) {
	// Row 0 passes; each other row fails exactly one condition.
	tbl := newTable(t,
		table.NewFloat("h_can", []float64{10, 150, 10, 10, 10, 10, 10, 10}),
		table.NewFloat("h_dif_ref", []float64{-5, 0, 30, 0, 0, 0, 0, 0}),
		table.NewInt("month", []float64{7, 7, 7, 7, 7, 7, 7, 7}),
		table.NewInt("msw_flg", []float64{0, 0, 0, 1, 0, 0, 0, 0}),
		table.NewInt("seg_snow", []float64{1, 1, 1, 1, 2, 1, 1, 1}),
		table.NewFloat("sig_topo", []float64{1, 1, 1, 1, 1, 3, 1, math.NaN()}),
		table.NewString("beam_type", []string{BeamStrong, BeamStrong, BeamStrong, BeamStrong, BeamStrong, BeamStrong, BeamWeak, BeamStrong}),
	)

	got, err := DefaultThresholds().Apply(tbl)
	require.NoError(t, err)
	require.Equal(t, 1, got.Rows())
	require.Equal(t, tbl.Columns(), got.Columns())

	hCan, _ := got.Numbers("h_can")
	if hCan[0] != 10 {
		t.Errorf("kept h_can = %g, want 10", hCan[0])
	}
}

func TestThresholds_MonthWindow(t *testing.T) {
	tbl := newTable(t,
		table.NewFloat("h_can", []float64{1, 1, 1}),
		table.NewFloat("h_dif_ref", []float64{0, 0, 0}),
		table.NewInt("month", []float64{5, 7, 10}),
		table.NewInt("msw_flg", []float64{0, 0, 0}),
		table.NewInt("seg_snow", []float64{1, 1, 1}),
		table.NewFloat("sig_topo", []float64{0, 0, 0}),
		table.NewString("beam_type", []string{BeamStrong, BeamStrong, BeamStrong}),
	)

	th := DefaultThresholds()
	th.MinMonth, th.MaxMonth = 6, 9
	got, err := th.Apply(tbl)
	require.NoError(t, err)

	month, _ := got.Numbers("month")
	if diff := cmp.Diff([]float64{7}, month); diff != "" {
		t.Errorf("month mismatch (-want +got):\n%s", diff)
	}
}

func TestQualityFunc(t *testing.T) {
	tbl := newTable(t, table.NewFloat("h_can", []float64{1, 2, 3}))

	var q Quality = QualityFunc(func(t *table.Table) (*table.Table, error) {
		h, err := t.Numbers("h_can")
		if err != nil {
			return nil, err
		}
		return t.Filter(func(i int) bool { return h[i] > 1 }), nil
	})

	got, err := q.Apply(tbl)
	require.NoError(t, err)
	require.Equal(t, 2, got.Rows())
}
