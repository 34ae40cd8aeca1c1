// Package report computes grouped summary tables from an enriched table.
//
// Groups are visited in a deterministic order: categorical columns with
// declared levels follow level order, every other key column sorts ascending.
// Rows whose group key is missing take part in no group.
package report

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/tabular/internal/core"
)

// group is one distinct key and the row positions carrying it, in table order.
type group struct {
	key  string
	rows []int
}

// keyColumn returns the named column, checking it can serve as a group key.
func keyColumn(t *core.Table, name string) (core.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return core.Column{}, fmt.Errorf("column not found: %s", name)
	}
	if col.Type.Numeric() {
		return core.Column{}, fmt.Errorf("column %s is %s, group keys must be text or categorical", name, col.Type)
	}
	return col, nil
}

// orderKeys sorts keys in group order for col.
func orderKeys(col core.Column, keys []string) {
	if len(col.Levels) == 0 {
		slices.Sort(keys)
		return
	}
	rank := make(map[string]int, len(col.Levels))
	for i, l := range col.Levels {
		rank[l] = i
	}
	slices.SortFunc(keys, func(a, b string) int {
		ra, okA := rank[a]
		rb, okB := rank[b]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
}

// groupBy partitions the rows of t by the named key column.
func groupBy(t *core.Table, key string) (core.Column, []group, error) {
	col, err := keyColumn(t, key)
	if err != nil {
		return core.Column{}, nil, err
	}

	byKey := make(map[string][]int)
	var keys []string
	for i := range t.Rows {
		k, ok := t.Text(i, key)
		if !ok {
			continue
		}
		if _, seen := byKey[k]; !seen {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], i)
	}
	orderKeys(col, keys)

	groups := make([]group, len(keys))
	for i, k := range keys {
		groups[i] = group{key: k, rows: byKey[k]}
	}
	return col, groups, nil
}
