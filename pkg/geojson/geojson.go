// Package geojson provides the GeoJSON geometry helpers used for granule
// footprints and search boxes.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint returns a Point geometry.
func NewPoint(lon, lat float64) (*Geometry, error) {
	return newGeometry("Point", []float64{lon, lat})
}

// NewLineString returns a LineString geometry through the given [lon, lat]
// positions.
func NewLineString(line [][]float64) (*Geometry, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("line needs at least 2 positions, got %d", len(line))
	}
	return newGeometry("LineString", line)
}

// NewPolygon returns a Polygon geometry with a single outer ring. The ring is
// closed if its last position differs from the first.
func NewPolygon(ring [][]float64) (*Geometry, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("ring needs at least 3 positions, got %d", len(ring))
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		ring = append(ring, first)
	}
	return newGeometry("Polygon", [][][]float64{ring})
}

// NewPolygonFromBBox creates a polygon geometry from a bounding box.
// bbox should be [west, south, east, north].
func NewPolygonFromBBox(bbox []float64) (*Geometry, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(bbox))
	}
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	return NewPolygon([][]float64{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
	})
}

func newGeometry(kind string, coords any) (*Geometry, error) {
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s coordinates: %w", kind, err)
	}
	return &Geometry{Type: kind, Coordinates: raw}, nil
}

// Positions returns every [lon, lat] position of the geometry.
func (g *Geometry) Positions() ([][]float64, error) {
	switch g.Type {
	case "Point":
		var p []float64
		if err := json.Unmarshal(g.Coordinates, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Point coordinates: %w", err)
		}
		return [][]float64{p}, nil

	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("failed to unmarshal LineString coordinates: %w", err)
		}
		return line, nil

	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
		}
		var out [][]float64
		for _, ring := range rings {
			out = append(out, ring...)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}
}

// ComputeBBox computes the bounding box of a geometry.
// Returns [west, south, east, north].
func ComputeBBox(g *Geometry) ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}
	positions, err := g.Positions()
	if err != nil {
		return nil, err
	}

	west, south := math.Inf(1), math.Inf(1)
	east, north := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		if len(p) < 2 {
			continue
		}
		west = math.Min(west, p[0])
		east = math.Max(east, p[0])
		south = math.Min(south, p[1])
		north = math.Max(north, p[1])
	}

	if math.IsInf(west, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}
	return []float64{west, south, east, north}, nil
}

// ParseBBox parses "west,south,east,north" into a bounding box.
func ParseBBox(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 comma separated values, got %d", len(parts))
	}

	bbox := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox value %q: %w", p, err)
		}
		bbox[i] = v
	}

	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	if west < -180 || east > 180 || south < -90 || north > 90 {
		return nil, fmt.Errorf("bbox %v is outside [-180, -90, 180, 90]", bbox)
	}
	if south > north {
		return nil, fmt.Errorf("bbox south %g is greater than north %g", south, north)
	}
	return bbox, nil
}

// FormatBBox renders a bounding box as "west,south,east,north".
func FormatBBox(bbox []float64) string {
	parts := make([]string, len(bbox))
	for i, v := range bbox {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
