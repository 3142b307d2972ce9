// Package flags translates numeric flag columns into readable labels.
package flags

import (
	"math"

	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// Labels maps column name to code -> label.
var Labels = map[string]map[int]string{
	"seg_landcov": {
		0:   "No data",
		111: "Closed forest evergreen needle",
		113: "Closed forest deciduous needle",
		112: "Closed forest evergreen broad",
		114: "Closed forest deciduous broad",
		115: "Closed forest mixed",
		116: "Closed forest unknown",
		121: "Open forest evergreen needle",
		123: "Open forest deciduous needle",
		122: "Open forest evergreen broad",
		124: "Open forest deciduous broad",
		125: "Open forest mixed",
		126: "Open forest unknown",
		20:  "Shrubs",
		30:  "Herbaceous",
		90:  "Herbaceous wetland",
		100: "Moss/lichen",
		60:  "Bare/sparse",
		40:  "Cultivated/managed",
		50:  "Urban/built",
		70:  "Snow/ice",
		80:  "Permanent water",
		200: "Open sea",
	},
	"seg_snow": {
		0: "ice free water",
		1: "snow free land",
		2: "snow",
		3: "ice",
	},
	"cloud_flg": {
		0: "High conf. clear skies",
		1: "Medium conf. clear skies",
		2: "Low conf. clear skies",
		3: "Low conf. cloudy skies",
		4: "Medium conf. cloudy skies",
		5: "High conf. cloudy skies",
	},
	"night_flg": {
		0: "day",
		1: "night",
	},
}

// Translate replaces the numeric flag columns of t with string columns of
// their labels. Codes without a label, and missing values, become empty
// strings. Columns absent from t are skipped. It returns the names of the
// translated columns.
func Translate(t *table.Table) ([]string, error) {
	var done []string
	for _, name := range t.Columns() {
		labels, ok := Labels[name]
		if !ok {
			continue
		}
		col, _ := t.Column(name)
		if !col.Kind.Numeric() {
			continue
		}

		out := make([]string, len(col.Num))
		for i, v := range col.Num {
			if math.IsNaN(v) || v != math.Trunc(v) {
				continue
			}
			out[i] = labels[int(v)]
		}
		if err := t.AddColumn(table.NewString(name, out)); err != nil {
			return nil, err
		}
		done = append(done, name)
	}
	return done, nil
}
