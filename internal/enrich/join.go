package enrich

import (
	"fmt"

	"github.com/JonMunkholm/tabular/internal/core"
)

// Unknown is the enrichment value for rows without a reference match.
const Unknown = "Unknown"

// JoinStats reports how a reference join went.
type JoinStats struct {
	Rows      int
	Matched   int
	Unmatched int

	// ReferenceAvailable is false when the join ran without a reference table.
	ReferenceAvailable bool
}

// Join performs a left join from column key to ref and stores the looked-up
// value in a new categorical column target.
//
// Rows whose key is missing or unmatched receive Unknown. A nil ref is the
// degraded case after a failed fetch: every row receives Unknown.
func Join(t *core.Table, key, target string, ref *Reference) (*core.Table, JoinStats, error) {
	stats := JoinStats{Rows: t.Len(), ReferenceAvailable: ref != nil}

	if _, ok := t.Column(key); !ok {
		return nil, stats, fmt.Errorf("join %s: column not found: %s", target, key)
	}

	values := make([]any, t.Len())
	for i := range t.Rows {
		values[i] = Unknown
		k, ok := t.Text(i, key)
		if !ok {
			stats.Unmatched++
			continue
		}
		if v, ok := ref.Lookup(k); ok {
			values[i] = v
			stats.Matched++
			continue
		}
		stats.Unmatched++
	}

	out, err := t.WithColumn(core.Column{Name: target, Type: core.ColumnCategorical}, values)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}
