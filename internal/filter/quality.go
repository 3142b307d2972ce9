package filter

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/robert-malhotra/atl08-extract/internal/segid"
	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// Beam strengths written to the beam_type column.
const (
	BeamStrong  = "Strong"
	BeamWeak    = "Weak"
	BeamUnknown = "Unknown"
)

// Quality screens a table for valid observations. Implementations return a
// subset of the input rows and never add columns.
type Quality interface {
	Apply(t *table.Table) (*table.Table, error)
}

// QualityFunc adapts a function to the Quality interface.
type QualityFunc func(t *table.Table) (*table.Table, error)

// Apply implements Quality.
func (f QualityFunc) Apply(t *table.Table) (*table.Table, error) {
	return f(t)
}

// Thresholds is the default quality screen.
type Thresholds struct {
	MaxCanopyHeight float64
	MaxHeightDiff   float64
	MaxSigmaTopo    float64
	MinMonth        int
	MaxMonth        int
}

// DefaultThresholds returns the thresholds tuned for boreal forest.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxCanopyHeight: 100,
		MaxHeightDiff:   25,
		MaxSigmaTopo:    2.5,
		MinMonth:        1,
		MaxMonth:        12,
	}
}

// Apply keeps rows with a plausible canopy height, a small difference from
// the reference DEM, an acquisition month in range, no multiple scattering,
// a strong beam, snow-free land and a small topographic uncertainty.
// Prepare must have been applied to t.
func (th Thresholds) Apply(t *table.Table) (*table.Table, error) {
	hCan, err := t.Numbers("h_can")
	if err != nil {
		return nil, err
	}
	hDif, err := t.Numbers("h_dif_ref")
	if err != nil {
		return nil, err
	}
	month, err := t.Numbers("month")
	if err != nil {
		return nil, err
	}
	msw, err := t.Numbers("msw_flg")
	if err != nil {
		return nil, err
	}
	snow, err := t.Numbers("seg_snow")
	if err != nil {
		return nil, err
	}
	sigTopo, err := t.Numbers("sig_topo")
	if err != nil {
		return nil, err
	}
	beamType, err := t.Strings("beam_type")
	if err != nil {
		return nil, err
	}

	return t.Filter(func(i int) bool {
		return hCan[i] < th.MaxCanopyHeight &&
			math.Abs(hDif[i]) < th.MaxHeightDiff &&
			month[i] >= float64(th.MinMonth) && month[i] <= float64(th.MaxMonth) &&
			msw[i] == 0 &&
			beamType[i] == BeamStrong &&
			snow[i] == 1 &&
			sigTopo[i] < th.MaxSigmaTopo
	}), nil
}

// Precheck reports whether any row could pass the quality screen: at least
// one segment without multiple scattering and one on snow-free land. It only
// scans two columns, so it is cheap enough to run before the table is built.
func Precheck(reg *table.Registry) bool {
	msw, ok := reg.Get("msw_flg")
	if !ok {
		return false
	}
	snow, ok := reg.Get("seg_snow")
	if !ok {
		return false
	}
	return slices.Contains(msw.Num, 0) && slices.Contains(snow.Num, 1)
}

// Prepare adds the columns the quality screen works on: year, month and day
// of acquisition from dt, and beam_type from gt and the spacecraft
// orientation.
func Prepare(t *table.Table) error {
	dt, err := t.Strings("dt")
	if err != nil {
		return err
	}
	gt, err := t.Strings("gt")
	if err != nil {
		return err
	}
	orient, err := t.Numbers("orb_orient")
	if err != nil {
		return err
	}

	n := t.Rows()
	year := make([]float64, n)
	month := make([]float64, n)
	day := make([]float64, n)
	beamType := make([]string, n)

	// dt is constant within a granule; parse each distinct value once.
	parsed := make(map[string][3]float64)
	for i := range n {
		ymd, ok := parsed[dt[i]]
		if !ok {
			d, err := segid.Date(dt[i])
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			ymd = [3]float64{float64(d.Year()), float64(d.Month()), float64(d.Day())}
			parsed[dt[i]] = ymd
		}
		year[i], month[i], day[i] = ymd[0], ymd[1], ymd[2]
		beamType[i] = BeamType(gt[i], orient[i])
	}

	for _, c := range []*table.Column{
		table.NewInt("year", year),
		table.NewInt("month", month),
		table.NewInt("day", day),
		table.NewString("beam_type", beamType),
	} {
		if err := t.AddColumn(c); err != nil {
			return err
		}
	}
	return nil
}

// BeamType returns the beam strength of ground track gt. In backward
// orientation (0) the left beams are strong, in forward orientation (1) the
// right beams are. Any other orientation is a transition and is unknown.
func BeamType(gt string, orient float64) string {
	left := strings.HasSuffix(gt, "l")
	right := strings.HasSuffix(gt, "r")
	switch {
	case orient == 0 && left, orient == 1 && right:
		return BeamStrong
	case orient == 0 && right, orient == 1 && left:
		return BeamWeak
	default:
		return BeamUnknown
	}
}
