package cmr

import (
	"fmt"
	"time"

	"github.com/robert-malhotra/atl08-extract/pkg/geojson"
)

// UMMSearchResponse represents a CMR UMM-G search response.
type UMMSearchResponse struct {
	Hits  int             `json:"hits"`
	Took  int             `json:"took"`
	Items []UMMResultItem `json:"items"`
}

// UMMResultItem wraps a UMM granule with metadata.
type UMMResultItem struct {
	Meta UMMMeta    `json:"meta"`
	UMM  UMMGranule `json:"umm"`
}

// UMMMeta contains metadata about a CMR result item.
type UMMMeta struct {
	ConceptID  string `json:"concept-id"`
	ProviderID string `json:"provider-id"`
}

// UMMGranule represents a UMM-G (Unified Metadata Model for Granules) record.
type UMMGranule struct {
	GranuleUR                     string                         `json:"GranuleUR"`
	CollectionReference           CollectionReference            `json:"CollectionReference"`
	RelatedUrls                   []RelatedURL                   `json:"RelatedUrls,omitempty"`
	DataGranule                   *DataGranule                   `json:"DataGranule,omitempty"`
	TemporalExtent                *TemporalExtent                `json:"TemporalExtent,omitempty"`
	SpatialExtent                 *SpatialExtent                 `json:"SpatialExtent,omitempty"`
	OrbitCalculatedSpatialDomains []OrbitCalculatedSpatialDomain `json:"OrbitCalculatedSpatialDomains,omitempty"`
	Platforms                     []Platform                     `json:"Platforms,omitempty"`
}

// CollectionReference identifies the parent collection.
type CollectionReference struct {
	ShortName string `json:"ShortName"`
	Version   string `json:"Version"`
}

// RelatedURL represents a URL related to the granule.
type RelatedURL struct {
	URL         string `json:"URL"`
	Type        string `json:"Type"` // e.g., "GET DATA", "GET RELATED VISUALIZATION"
	Description string `json:"Description,omitempty"`
	MimeType    string `json:"MimeType,omitempty"`
}

// DataGranule contains data granule information.
type DataGranule struct {
	ProductionDateTime string `json:"ProductionDateTime,omitempty"`
}

// TemporalExtent contains temporal information.
type TemporalExtent struct {
	RangeDateTime  *RangeDateTime `json:"RangeDateTime,omitempty"`
	SingleDateTime string         `json:"SingleDateTime,omitempty"`
}

// RangeDateTime represents a time range.
type RangeDateTime struct {
	BeginningDateTime string `json:"BeginningDateTime"`
	EndingDateTime    string `json:"EndingDateTime"`
}

// SpatialExtent contains spatial information.
type SpatialExtent struct {
	HorizontalSpatialDomain *HorizontalSpatialDomain `json:"HorizontalSpatialDomain,omitempty"`
}

// HorizontalSpatialDomain contains horizontal spatial domain information.
type HorizontalSpatialDomain struct {
	Geometry *Geometry `json:"Geometry,omitempty"`
	Track    *Track    `json:"Track,omitempty"`
}

// Geometry contains geometry information.
type Geometry struct {
	GPolygons          []GPolygon          `json:"GPolygons,omitempty"`
	BoundingRectangles []BoundingRectangle `json:"BoundingRectangles,omitempty"`
	Points             []Point             `json:"Points,omitempty"`
	Lines              []Line              `json:"Lines,omitempty"`
}

// GPolygon represents a polygon geometry.
type GPolygon struct {
	Boundary Boundary `json:"Boundary"`
}

// Boundary contains boundary points.
type Boundary struct {
	Points []Point `json:"Points"`
}

// Point represents a geographic point.
type Point struct {
	Longitude float64 `json:"Longitude"`
	Latitude  float64 `json:"Latitude"`
}

// BoundingRectangle represents a bounding box.
type BoundingRectangle struct {
	WestBoundingCoordinate  float64 `json:"WestBoundingCoordinate"`
	NorthBoundingCoordinate float64 `json:"NorthBoundingCoordinate"`
	EastBoundingCoordinate  float64 `json:"EastBoundingCoordinate"`
	SouthBoundingCoordinate float64 `json:"SouthBoundingCoordinate"`
}

// Line represents a line geometry.
type Line struct {
	Points []Point `json:"Points"`
}

// Track carries the ICESat-2 reference ground track and cycle.
type Track struct {
	Cycle  int           `json:"Cycle"`
	Passes []TrackPasses `json:"Passes,omitempty"`
}

// TrackPasses lists the ground track pass and its tiles.
type TrackPasses struct {
	Pass  int      `json:"Pass"`
	Tiles []string `json:"Tiles,omitempty"`
}

// OrbitCalculatedSpatialDomain contains calculated orbit spatial information.
type OrbitCalculatedSpatialDomain struct {
	OrbitNumber      *int `json:"OrbitNumber,omitempty"`
	BeginOrbitNumber *int `json:"BeginOrbitNumber,omitempty"`
}

// Platform contains platform/instrument information.
type Platform struct {
	ShortName   string       `json:"ShortName"`
	Instruments []Instrument `json:"Instruments,omitempty"`
}

// Instrument contains instrument information.
type Instrument struct {
	ShortName string `json:"ShortName"`
}

// GetStartTime returns the start of the granule's acquisition, or the zero
// time when CMR reports none.
func (g *UMMGranule) GetStartTime() (time.Time, error) {
	return g.extentTime(func(r *RangeDateTime) string { return r.BeginningDateTime })
}

// GetEndTime returns the end of the granule's acquisition.
func (g *UMMGranule) GetEndTime() (time.Time, error) {
	return g.extentTime(func(r *RangeDateTime) string { return r.EndingDateTime })
}

func (g *UMMGranule) extentTime(pick func(*RangeDateTime) string) (time.Time, error) {
	te := g.TemporalExtent
	switch {
	case te == nil:
		return time.Time{}, nil
	case te.RangeDateTime != nil && pick(te.RangeDateTime) != "":
		return parseTime(pick(te.RangeDateTime))
	case te.SingleDateTime != "":
		return parseTime(te.SingleDateTime)
	}
	return time.Time{}, nil
}

// GetDataURL returns the primary data download URL.
func (g *UMMGranule) GetDataURL() string {
	for _, url := range g.RelatedUrls {
		if url.Type == "GET DATA" {
			return url.URL
		}
	}
	return ""
}

// GetBrowseURL returns the browse/thumbnail URL.
func (g *UMMGranule) GetBrowseURL() string {
	for _, url := range g.RelatedUrls {
		if url.Type == "GET RELATED VISUALIZATION" {
			return url.URL
		}
	}
	return ""
}

// GetGeometry returns the granule footprint as GeoJSON. ICESat-2 granules
// usually carry GPolygons; ground tracks given as Lines become LineStrings.
func (g *UMMGranule) GetGeometry() (*geojson.Geometry, error) {
	if g.SpatialExtent == nil || g.SpatialExtent.HorizontalSpatialDomain == nil {
		return nil, nil
	}

	geom := g.SpatialExtent.HorizontalSpatialDomain.Geometry
	if geom == nil {
		return nil, nil
	}

	switch {
	case len(geom.GPolygons) > 0:
		return geojson.NewPolygon(positions(geom.GPolygons[0].Boundary.Points))

	case len(geom.BoundingRectangles) > 0:
		rect := geom.BoundingRectangles[0]
		return geojson.NewPolygonFromBBox([]float64{
			rect.WestBoundingCoordinate,
			rect.SouthBoundingCoordinate,
			rect.EastBoundingCoordinate,
			rect.NorthBoundingCoordinate,
		})

	case len(geom.Lines) > 0:
		return geojson.NewLineString(positions(geom.Lines[0].Points))

	case len(geom.Points) > 0:
		pt := geom.Points[0]
		return geojson.NewPoint(pt.Longitude, pt.Latitude)
	}

	return nil, nil
}

func positions(points []Point) [][]float64 {
	out := make([][]float64, len(points))
	for i, pt := range points {
		out[i] = []float64{pt.Longitude, pt.Latitude}
	}
	return out
}

// parseTime accepts RFC 3339 with or without fractional seconds.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse time %q: %w", s, err)
	}
	return t, nil
}
