package extract

import "errors"

var (
	// ErrBadExtension is returned when the input is not an .h5 file.
	ErrBadExtension = errors.New("input must be an .h5 granule")

	// ErrOutputExists is returned when the output file exists and
	// overwriting is disabled.
	ErrOutputExists = errors.New("output file already exists")

	// ErrQualityContract is returned when a quality routine adds rows or
	// changes the column set.
	ErrQualityContract = errors.New("quality filter broke its contract")
)
