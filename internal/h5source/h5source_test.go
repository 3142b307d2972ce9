package h5source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"

	"github.com/robert-malhotra/atl08-extract/internal/granule"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/gt1r/land_segments/latitude", "/gt1r/land_segments/latitude"},
		{"gt1r/land_segments/latitude", "/gt1r/land_segments/latitude"},
		{"/gt1r/land_segments/latitude/", "/gt1r/land_segments/latitude"},
		{"/orbit_info/rgt/", "/orbit_info/rgt"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalize(tt.in); got != tt.want {
				t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSource_MissingDataset(t *testing.T) {
	s := &Source{datasets: map[string]*hdf5.Dataset{}}
	_, err := s.Float64s("/gt1r/land_segments/latitude")
	if !errors.Is(err, granule.ErrFieldNotFound) {
		t.Errorf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.h5"))
	if err == nil {
		t.Fatal("expected error opening a missing file")
	}
}
