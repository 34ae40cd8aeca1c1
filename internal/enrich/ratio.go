package enrich

import (
	"fmt"
	"math"

	"github.com/JonMunkholm/tabular/internal/core"
)

// Ratio adds a float column target = numerator / denominator.
//
// Division follows IEEE 754: a zero divisor yields ±Inf (or NaN for 0/0). A
// missing operand yields NaN. Undefined results are kept so that consumers
// decide how to treat them.
func Ratio(t *core.Table, numerator, denominator, target string) (*core.Table, error) {
	for _, name := range []string{numerator, denominator} {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("ratio %s: column not found: %s", target, name)
		}
		if !col.Type.Numeric() {
			return nil, fmt.Errorf("ratio %s: column %s is %s, not numeric", target, name, col.Type)
		}
	}

	values := make([]any, t.Len())
	for i := range t.Rows {
		a, okA := t.Float(i, numerator)
		b, okB := t.Float(i, denominator)
		if !okA || !okB {
			values[i] = math.NaN()
			continue
		}
		values[i] = a / b
	}

	return t.WithColumn(core.Column{Name: target, Type: core.ColumnFloat}, values)
}
