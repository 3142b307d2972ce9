// Package filter selects the table rows that are kept in the output.
package filter

import (
	"fmt"

	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// BBox is a closed longitude/latitude box.
type BBox struct {
	MinLon float64
	MaxLon float64
	MinLat float64
	MaxLat float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// Validate checks that the box is well formed and within world bounds.
func (b BBox) Validate() error {
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitude bounds must be within [-180, 180], got [%g, %g]", b.MinLon, b.MaxLon)
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude bounds must be within [-90, 90], got [%g, %g]", b.MinLat, b.MaxLat)
	}
	if b.MinLon > b.MaxLon {
		return fmt.Errorf("min longitude %g is greater than max longitude %g", b.MinLon, b.MaxLon)
	}
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("min latitude %g is greater than max latitude %g", b.MinLat, b.MaxLat)
	}
	return nil
}

// Geographic returns the rows of t whose lon/lat lie inside the box.
func Geographic(t *table.Table, box BBox) (*table.Table, error) {
	lon, err := t.Numbers("lon")
	if err != nil {
		return nil, err
	}
	lat, err := t.Numbers("lat")
	if err != nil {
		return nil, err
	}
	return t.Filter(func(i int) bool {
		return box.Contains(lon[i], lat[i])
	}), nil
}
