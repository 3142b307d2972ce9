// Package csvout writes tables as CSV files.
package csvout

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/robert-malhotra/atl08-extract/internal/table"
)

// bom is the UTF-8 byte order mark written at the start of every file.
const bom = "\ufeff"

// Options controls how a table is written.
type Options struct {
	// Compress gzips the output.
	Compress bool
}

// OutputPath returns the CSV path for an input granule. The file is written
// to outDir, or next to the input when outDir is empty, and is named after
// the input base name up to its first dot, suffixed with the segment length.
func OutputPath(input, outDir string, fine, compress bool) string {
	base := filepath.Base(input)
	name, _, _ := strings.Cut(base, ".")

	suffix := "_100m.csv"
	if fine {
		suffix = "_20m.csv"
	}
	if compress {
		suffix += ".gz"
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name+suffix)
}

// Write writes t to path: a byte order mark, a header row with the column
// names, then one record per row. Missing values are empty fields. The file
// is written under a temporary name and renamed into place on success.
func Write(path string, t *table.Table, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := encode(tmp, t, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func encode(f *os.File, t *table.Table, opts Options) error {
	buf := bufio.NewWriter(f)

	var w io.Writer = buf
	var zw *gzip.Writer
	if opts.Compress {
		zw = gzip.NewWriter(buf)
		w = zw
	}

	if err := WriteTo(w, t); err != nil {
		return err
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// WriteTo writes t as CSV, byte order mark included, to w.
func WriteTo(w io.Writer, t *table.Table) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cw := csv.NewWriter(w)
	names := t.Columns()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}

	record := make([]string, len(cols))
	for row := range t.Rows() {
		for i, c := range cols {
			record[i] = c.Format(row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
