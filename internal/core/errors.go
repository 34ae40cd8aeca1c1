package core

import (
	"errors"
	"fmt"
)

// Fatal conditions: the pipeline stops immediately.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrHeaderNotFound = errors.New("header not found")
)

// Recoverable conditions: the producing component drops or degrades and reports.
var (
	ErrParse                = errors.New("parse error")
	ErrCoercion             = errors.New("coercion error")
	ErrReferenceUnavailable = errors.New("reference unavailable")
	ErrSinkNotConfigured    = errors.New("sink not configured")
	ErrNoRoute              = errors.New("no sink route")
)

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceNotFound) || errors.Is(err, ErrHeaderNotFound)
}

// FailedRow contains information about a source row that was not loaded.
type FailedRow struct {
	LineNumber int
	Reason     string
	Data       []string
	Err        error
}

// LoadReport summarizes a load: how many candidate rows were seen, how many
// became table rows, and which were dropped and why.
type LoadReport struct {
	Source    string
	TotalRows int
	Loaded    int

	// Discarded counts lines rejected by a structural heuristic (not errors).
	Discarded int

	FailedRows []FailedRow
}

// Dropped returns the number of rows rejected with an error.
func (r *LoadReport) Dropped() int {
	return len(r.FailedRows)
}

// Fail records a dropped row.
func (r *LoadReport) Fail(line int, data []string, err error) {
	r.FailedRows = append(r.FailedRows, FailedRow{
		LineNumber: line,
		Reason:     fmt.Sprintf("line %d: %v", line, err),
		Data:       data,
		Err:        err,
	})
}
