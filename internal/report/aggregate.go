package report

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/tabular/internal/core"
)

// Mean names a numeric source column and the output column holding its mean.
type Mean struct {
	Source string
	Target string
}

// meanOf averages the finite values of column over rows.
// Returns false when no row holds a finite value.
func meanOf(t *core.Table, column string, rows []int) (float64, bool) {
	sum := decimal.Zero
	n := int64(0)
	for _, i := range rows {
		v, ok := t.Float(i, column)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum.Div(decimal.NewFromInt(n)).InexactFloat64(), true
}

func numericColumn(t *core.Table, name string) error {
	col, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("column not found: %s", name)
	}
	if !col.Type.Numeric() {
		return fmt.Errorf("column %s is %s, not numeric", name, col.Type)
	}
	return nil
}

// GroupMean produces one row per group of key with the mean of every
// requested column. Missing and non-finite values are skipped; a group with
// no usable value for a column gets a missing mean.
func GroupMean(t *core.Table, name, key string, means ...Mean) (*core.Table, error) {
	for _, m := range means {
		if err := numericColumn(t, m.Source); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	keyCol, groups, err := groupBy(t, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	cols := []core.Column{keyCol}
	for _, m := range means {
		cols = append(cols, core.Column{Name: m.Target, Type: core.ColumnFloat})
	}
	out := core.NewTable(name, cols...)

	for _, g := range groups {
		row := core.Row{g.key}
		for _, m := range means {
			if avg, ok := meanOf(t, m.Source, g.rows); ok {
				row = append(row, avg)
			} else {
				row = append(row, nil)
			}
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ArgMax selects, per group of key, the row with the largest value of by and
// projects it onto columns. Ties resolve to the first row in table order.
// Rows with a missing value of by are never selected.
func ArgMax(t *core.Table, name, key, by string, columns ...string) (*core.Table, error) {
	if err := numericColumn(t, by); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	_, groups, err := groupBy(t, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	projected, err := t.Project(name, columns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out := core.NewTable(name, projected.Columns...)
	for _, g := range groups {
		best := -1
		bestVal := math.Inf(-1)
		for _, i := range g.rows {
			v, ok := t.Float(i, by)
			if !ok || math.IsNaN(v) {
				continue
			}
			if best < 0 || v > bestVal {
				best, bestVal = i, v
			}
		}
		if best < 0 {
			continue
		}
		out.Rows = append(out.Rows, append(core.Row(nil), projected.Rows[best]...))
	}
	return out, nil
}

// CrossCount counts rows per (rowKey, colKey) pair. Pairs with no rows are
// omitted. Output is ordered by rowKey group order, then colKey group order.
func CrossCount(t *core.Table, name, rowKey, colKey, countColumn string) (*core.Table, error) {
	rowCol, err := keyColumn(t, rowKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	colCol, err := keyColumn(t, colKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	type pair struct{ a, b string }
	counts := make(map[pair]int64)
	var rowKeys, colKeys []string
	seenRow := make(map[string]bool)
	seenCol := make(map[string]bool)

	for i := range t.Rows {
		a, okA := t.Text(i, rowKey)
		b, okB := t.Text(i, colKey)
		if !okA || !okB {
			continue
		}
		counts[pair{a, b}]++
		if !seenRow[a] {
			seenRow[a] = true
			rowKeys = append(rowKeys, a)
		}
		if !seenCol[b] {
			seenCol[b] = true
			colKeys = append(colKeys, b)
		}
	}
	orderKeys(rowCol, rowKeys)
	orderKeys(colCol, colKeys)

	out := core.NewTable(name, rowCol, colCol, core.Column{Name: countColumn, Type: core.ColumnInteger})
	for _, a := range rowKeys {
		for _, b := range colKeys {
			n := counts[pair{a, b}]
			if n == 0 {
				continue
			}
			if err := out.Append(core.Row{a, b, n}); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// TopMean ranks the groups of key by the mean of value, highest first, and
// keeps the first n. Non-finite values are skipped and groups without any
// finite value are excluded. Equal means keep group order.
func TopMean(t *core.Table, name, key, value string, n int) (*core.Table, error) {
	if err := numericColumn(t, value); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	keyCol, groups, err := groupBy(t, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	type ranked struct {
		key  string
		mean float64
	}
	var rows []ranked
	for _, g := range groups {
		if avg, ok := meanOf(t, value, g.rows); ok {
			rows = append(rows, ranked{g.key, avg})
		}
	}
	slices.SortStableFunc(rows, func(a, b ranked) int {
		switch {
		case a.mean > b.mean:
			return -1
		case a.mean < b.mean:
			return 1
		}
		return 0
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}

	out := core.NewTable(name, keyCol, core.Column{Name: value, Type: core.ColumnFloat})
	for _, r := range rows {
		if err := out.Append(core.Row{r.key, r.mean}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
