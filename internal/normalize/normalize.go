// Package normalize canonicalizes product and variant identifiers that
// arrive in inconsistent textual representations across the source sheets.
//
// Spreadsheet exports routinely coerce what should be opaque integer
// identifiers into floats ("123.0") or scientific notation ("4.26E13"),
// and editors add stray whitespace and thousands separators. Every join in
// the pipeline happens on the output of this package; callers must apply
// the same normalization on both sides or the join silently drops rows.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ID canonicalizes a variant identifier.
//
// Null-like values ("", "nan", "none", "null", case-insensitive) map to the
// empty string. Commas and surrounding whitespace are removed. Values in
// scientific notation or carrying a decimal point are parsed as decimal
// numbers and rounded half-away-from-zero to an integer rendered without a
// fractional part. Anything else is returned trimmed but unchanged.
func ID(v string) string {
	s := strings.TrimSpace(v)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return ""
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}

	// Fast path for the common ".0" float artifact.
	if strings.HasSuffix(s, ".0") {
		s = s[:len(s)-2]
	}

	if strings.ContainsAny(s, "eE.") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return s
		}
		return strconv.FormatFloat(roundHalfAway(f), 'f', 0, 64)
	}

	return s
}

// SKU canonicalizes a SKU code: identifier normalization followed by
// uppercasing. This is the single SKU rule used on every side of every
// join; hyphens and other internal punctuation are preserved.
func SKU(v string) string {
	return strings.ToUpper(ID(v))
}

func roundHalfAway(f float64) float64 {
	if f < 0 {
		return -math.Floor(-f + 0.5)
	}
	return math.Floor(f + 0.5)
}
