package core

// convert.go provides explicit, fallible conversions from raw text cells to
// typed table values.
//
// Every Parse* function returns an error wrapping ErrCoercion on failure so
// callers can apply one row-drop policy at the call site. Empty input is
// reported as ErrEmptyCell, letting callers decide whether a missing value
// is acceptable for the column.

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ErrEmptyCell is returned by the Parse* functions for blank input.
var ErrEmptyCell = errors.New("empty cell")

// HeaderIndex maps column names (lowercase) to their position in a record.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header record.
// Keys are lowercased for case-insensitive matching; the first duplicate wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common spreadsheet-export artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// IsDigits reports whether s is non-empty and made only of ASCII decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseInt converts a cell to int64. Only base-10 integers with an optional
// sign are accepted.
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyCell
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid integer %q", ErrCoercion, s)
	}
	return i, nil
}

// ParseFloat converts a cell to float64.
// Handles currency symbols, thousands separators, and accounting format
// (parentheses for negative). NaN and infinities are rejected.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyCell
	}
	raw := s

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("%w: invalid number %q", ErrCoercion, raw)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", ErrCoercion, raw)
	}
	return f, nil
}

// ParseCell converts a raw cell to a value of the given column type.
// Text and categorical values are cleaned and returned as strings;
// blank text becomes nil.
func ParseCell(typ ColumnType, raw string) (any, error) {
	switch typ {
	case ColumnInteger:
		return ParseInt(raw)
	case ColumnFloat:
		return ParseFloat(raw)
	case ColumnText, ColumnCategorical:
		s := strings.TrimSpace(raw)
		if s == "" {
			return nil, ErrEmptyCell
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unsupported column type %s", ErrCoercion, typ)
	}
}
