package cmr

import (
	"fmt"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ParseInterval parses a datetime interval such as
// "2019-06-01/2019-09-30", "2019-06-01T00:00:00Z/.." or a single instant.
// Either end may be open ("" or ".."), returned as nil. A date without a
// time covers the whole day: as an end it means the end of that day.
func ParseInterval(s string) (*time.Time, *time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, nil
	}

	if !strings.Contains(s, "/") {
		start, err := parseBound(s, false)
		if err != nil {
			return nil, nil, err
		}
		end, _ := parseBound(s, true)
		return start, end, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid datetime interval %q: must be 'start/end'", s)
	}

	start, err := parseBound(parts[0], false)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start datetime: %w", err)
	}
	end, err := parseBound(parts[1], true)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end datetime: %w", err)
	}
	if start == nil && end == nil {
		return nil, nil, fmt.Errorf("invalid datetime interval %q: both ends open", s)
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("invalid datetime interval %q: end before start", s)
	}
	return start, end, nil
}

// TemporalParam converts an interval accepted by ParseInterval into the CMR
// temporal parameter "start,end". Open ends are left empty.
func TemporalParam(interval string) (string, error) {
	start, end, err := ParseInterval(interval)
	if err != nil {
		return "", err
	}
	if start == nil && end == nil {
		return "", nil
	}

	var b strings.Builder
	if start != nil {
		b.WriteString(start.UTC().Format(time.RFC3339))
	}
	b.WriteByte(',')
	if end != nil {
		b.WriteString(end.UTC().Format(time.RFC3339))
	}
	return b.String(), nil
}

func parseBound(s string, isEnd bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == ".." {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}

	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid datetime %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	if isEnd {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}
