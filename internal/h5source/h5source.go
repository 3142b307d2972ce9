// Package h5source serves granule fields from an HDF5 file.
package h5source

import (
	"fmt"
	"strings"

	"github.com/scigolib/hdf5"

	"github.com/robert-malhotra/atl08-extract/internal/granule"
)

// Source is a granule.Source backed by an open HDF5 file. Datasets are
// indexed by absolute path when the file is opened.
type Source struct {
	file     *hdf5.File
	datasets map[string]*hdf5.Dataset
}

var _ granule.Source = (*Source)(nil)

// Open opens the HDF5 file at path and indexes its datasets.
func Open(path string) (*Source, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open HDF5 file %s: %w", path, err)
	}

	s := &Source{
		file:     f,
		datasets: make(map[string]*hdf5.Dataset),
	}
	f.Walk(func(p string, obj hdf5.Object) {
		if ds, ok := obj.(*hdf5.Dataset); ok {
			s.datasets[normalize(p)] = ds
		}
	})
	return s, nil
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// Float64s implements granule.Source.
func (s *Source) Float64s(path string) ([]float64, error) {
	ds, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	values, err := ds.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// Strings implements granule.Source. Fixed-length strings are returned with
// their NUL and space padding removed.
func (s *Source) Strings(path string) ([]string, error) {
	ds, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	values, err := ds.ReadStrings()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for i, v := range values {
		values[i] = strings.TrimRight(v, "\x00 ")
	}
	return values, nil
}

func (s *Source) dataset(path string) (*hdf5.Dataset, error) {
	ds, ok := s.datasets[normalize(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", granule.ErrFieldNotFound, path)
	}
	return ds, nil
}

// normalize maps "gt1r/land_segments/latitude/" and friends to
// "/gt1r/land_segments/latitude".
func normalize(p string) string {
	p = strings.Trim(p, "/")
	return "/" + p
}
