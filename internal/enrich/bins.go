// Package enrich derives new columns from a loaded table: categorical bins,
// ratio metrics, and values looked up from an external reference table.
//
// Every operation returns a new table with one column added; rows are never
// removed or reordered.
package enrich

import (
	"errors"
	"fmt"
	"math"

	"github.com/JonMunkholm/tabular/internal/core"
)

// Bin is one labelled numeric range.
type Bin struct {
	Lower float64
	Upper float64
	Label string
}

// BinSpec is an ordered list of contiguous, non-overlapping bins.
//
// Every bin is [Lower, Upper) except the last, which is [Lower, Upper], so a
// value sitting on an internal edge belongs to the bin above that edge.
type BinSpec []Bin

// Wine quality and price bins.
var (
	QualityBins = BinSpec{
		{Lower: 0, Upper: 85, Label: "Regular"},
		{Lower: 85, Upper: 90, Label: "Buena"},
		{Lower: 90, Upper: 95, Label: "Excelente"},
		{Lower: 95, Upper: 100, Label: "Premium"},
	}

	PriceBins = BinSpec{
		{Lower: 0, Upper: 20, Label: "Económico"},
		{Lower: 20, Upper: 50, Label: "Accesible"},
		{Lower: 50, Upper: 100, Label: "Costoso"},
		{Lower: 100, Upper: 500, Label: "Premium"},
	}
)

// Validate checks that the bin spec is non-empty, ordered, contiguous and that
// labels are unique.
func (s BinSpec) Validate() error {
	if len(s) == 0 {
		return errors.New("bin spec is empty")
	}
	labels := make(map[string]bool, len(s))
	for i, b := range s {
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || b.Lower >= b.Upper {
			return fmt.Errorf("bin %d (%s): lower %v must be below upper %v", i, b.Label, b.Lower, b.Upper)
		}
		if i > 0 && s[i-1].Upper != b.Lower {
			return fmt.Errorf("bin %d (%s): lower %v does not meet previous upper %v", i, b.Label, b.Lower, s[i-1].Upper)
		}
		if labels[b.Label] {
			return fmt.Errorf("bin %d: duplicate label %q", i, b.Label)
		}
		labels[b.Label] = true
	}
	return nil
}

// Labels returns the bin labels in order.
func (s BinSpec) Labels() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Label
	}
	return out
}

// Assign returns the label of the bin containing v.
// Returns false when v falls outside every bin.
func (s BinSpec) Assign(v float64) (string, bool) {
	if len(s) == 0 || math.IsNaN(v) {
		return "", false
	}
	last := len(s) - 1
	for i, b := range s {
		if v < b.Lower {
			return "", false
		}
		if v < b.Upper || (i == last && v == b.Upper) {
			return b.Label, true
		}
	}
	return "", false
}

// ApplyBins adds a categorical column target whose value is the bin label of
// the numeric column source. Missing or out-of-range values stay missing.
func ApplyBins(t *core.Table, source, target string, spec BinSpec) (*core.Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("bins for %s: %w", target, err)
	}
	col, ok := t.Column(source)
	if !ok {
		return nil, fmt.Errorf("bins for %s: column not found: %s", target, source)
	}
	if !col.Type.Numeric() {
		return nil, fmt.Errorf("bins for %s: column %s is %s, not numeric", target, source, col.Type)
	}

	values := make([]any, t.Len())
	for i := range t.Rows {
		v, ok := t.Float(i, source)
		if !ok {
			continue
		}
		if label, ok := spec.Assign(v); ok {
			values[i] = label
		}
	}

	return t.WithColumn(core.Column{
		Name:   target,
		Type:   core.ColumnCategorical,
		Levels: spec.Labels(),
	}, values)
}
