// Package segid builds the composite identifiers of land segments.
//
// A coarse identifier encodes the segment centre and acquisition date, e.g.
// -108.5, 76.25 on 2019-08-28 becomes
//
//	108W500000-76N2500000-20190828
//
// Each coordinate is the absolute integer part, a hemisphere letter and the
// first six fractional digits, right-padded with zeros to FieldWidth.
package segid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldWidth is the width of each encoded coordinate.
const FieldWidth = 10

// fracDigits is the number of fractional digits kept per coordinate.
const fracDigits = 6

// ErrInvalidDate is returned when the acquisition timestamp has no parseable date.
var ErrInvalidDate = errors.New("invalid acquisition date")

// Coarse returns the identifier of the coarse segment at lon, lat acquired at
// the ISO-8601 timestamp dt. Only the date portion of dt is used.
func Coarse(lon, lat float64, dt string) (string, error) {
	d, err := Date(dt)
	if err != nil {
		return "", err
	}
	return encode(lon, 'E', 'W') + "-" + encode(lat, 'N', 'S') + "-" + d.Format("20060102"), nil
}

// Fine returns the identifier of fine sub-segment sub within a coarse segment.
func Fine(coarse string, sub int) string {
	return coarse + "-" + strconv.Itoa(sub)
}

// Date parses the date portion (before 'T') of an ISO-8601 timestamp.
func Date(dt string) (time.Time, error) {
	day, _, _ := strings.Cut(strings.TrimSpace(dt), "T")
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, dt)
	}
	return t, nil
}

// encode renders one coordinate: whole degrees, hemisphere letter, six
// fractional digits, padded to FieldWidth. Zero gets the letter '0'.
func encode(v float64, pos, neg byte) string {
	whole, frac := math.Modf(v)

	dir := byte('0')
	switch {
	case v > 0:
		dir = pos
	case v < 0:
		dir = neg
	}

	var b strings.Builder
	b.WriteString(strconv.FormatFloat(math.Abs(whole), 'f', 0, 64))
	b.WriteByte(dir)
	b.WriteString(fraction(frac))
	for b.Len() < FieldWidth {
		b.WriteByte('0')
	}
	return b.String()
}

// fraction returns the first fracDigits digits after the decimal point of
// the shortest decimal form of |frac|. Digits are truncated, not rounded.
func fraction(frac float64) string {
	s := strconv.FormatFloat(math.Abs(frac), 'f', -1, 64)
	_, digits, ok := strings.Cut(s, ".")
	if !ok {
		return "0"
	}
	if len(digits) > fracDigits {
		digits = digits[:fracDigits]
	}
	return digits
}
