// Package core provides the table model and shared error handling for the
// reporting pipelines.
//
// # Tables
//
// A [Table] is an ordered list of [Row] values plus a column schema. Values are
// string (text and categorical columns), int64, float64, or nil for a missing
// value. [Table.Append] enforces the schema, so every table that reaches an
// aggregator satisfies its declared types.
//
// Stages never mutate a table they received. [Table.WithColumn],
// [Table.Project], and [Table.Filter] return new tables.
//
// # Table Definitions
//
// Source layouts are registered at init time using [Register]. Each
// [TableDefinition] names its typed columns through [FieldSpec] entries:
//
//	core.Register(core.TableDefinition{
//	    Key: "wines",
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "points", Column: "puntuacion", Type: core.ColumnInteger, Required: true},
//	        {Name: "price", Column: "precio", Type: core.ColumnFloat, AllowEmpty: true},
//	    },
//	})
//
// # Error Handling
//
// Failures are typed with sentinel errors ([ErrSourceNotFound],
// [ErrHeaderNotFound], [ErrParse], [ErrCoercion], ...). Only the first two are
// fatal ([IsFatal]); the rest are reported through [LoadReport] and sink
// results. [MapError] turns any error into a searchable code for logs.
package core
