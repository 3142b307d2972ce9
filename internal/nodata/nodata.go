// Package nodata normalizes the fill value used by the granule for invalid
// observations.
//
// The fill value is not a fixed constant: it is the maximum of a reference
// column, because invalid observations are stored as a large fill value that
// is by construction the column maximum. A real observation equal to that
// maximum cannot be told apart from the fill value.
package nodata

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// Invalid is the output fill value used when missing values are not written
// as NaN.
const Invalid = math.MaxFloat32

// ReferenceColumn is the column the source fill value is derived from.
const ReferenceColumn = "h_can"

// ErrNoReference is returned when the reference column has no usable values.
var ErrNoReference = errors.New("reference column has no values")

// Policy is the pair of fill values used for one run.
type Policy struct {
	// Source is the fill value found in the input.
	Source float64
	// Output replaces missing values in the output. NaN keeps them missing.
	Output float64
}

// NewPolicy derives the source fill value from ref. When nanOutput is set,
// missing values stay NaN on output; otherwise they become Invalid.
func NewPolicy(ref []float64, nanOutput bool) (Policy, error) {
	src, err := DeriveSentinel(ref)
	if err != nil {
		return Policy{}, err
	}
	out := Invalid
	if nanOutput {
		out = math.NaN()
	}
	return Policy{Source: src, Output: out}, nil
}

// DeriveSentinel returns the maximum of ref, ignoring NaN values. A column
// whose true maximum is a valid measurement loses that value to the fill.
func DeriveSentinel(ref []float64) (float64, error) {
	valid := make([]float64, 0, len(ref))
	for _, v := range ref {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 0, ErrNoReference
	}
	return floats.Max(valid), nil
}

// ToMissing replaces every numeric value equal to sentinel with NaN and
// returns the number of values replaced.
func ToMissing(reg *table.Registry, sentinel float64) int {
	return replace(reg, func(v float64) bool { return v == sentinel }, math.NaN())
}

// FromMissing replaces every NaN with out and returns the number of values
// replaced. A NaN out leaves the registry unchanged.
func FromMissing(reg *table.Registry, out float64) int {
	if math.IsNaN(out) {
		return count(reg, math.IsNaN)
	}
	return replace(reg, math.IsNaN, out)
}

func replace(reg *table.Registry, match func(float64) bool, with float64) int {
	n := 0
	reg.Each(func(c *table.Column) {
		if !c.Kind.Numeric() {
			return
		}
		for i, v := range c.Num {
			if match(v) {
				c.Num[i] = with
				n++
			}
		}
	})
	return n
}

func count(reg *table.Registry, match func(float64) bool) int {
	n := 0
	reg.Each(func(c *table.Column) {
		if !c.Kind.Numeric() {
			return
		}
		for _, v := range c.Num {
			if match(v) {
				n++
			}
		}
	})
	return n
}
