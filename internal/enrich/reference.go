package enrich

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/tabular/internal/core"
)

// DefaultReferenceURL serves the country list used for continent lookups.
const DefaultReferenceURL = "https://raw.githubusercontent.com/plotly/datasets/master/2014_world_gdp_with_codes.csv"

// Reference column names, matched after trimming and lower-casing headers.
const (
	ReferenceKeyColumn   = "country"
	ReferenceValueColumn = "continent"
)

// maxReferenceSize bounds the reference download.
const maxReferenceSize = 16 * 1024 * 1024

// Reference is a read-only lookup from a normalized key to an enrichment value.
type Reference struct {
	values map[string]string
}

// NewReference builds a reference from key/value pairs.
// Keys are normalized; when several keys normalize to the same key, the
// value of the lexically smallest original key wins.
func NewReference(pairs map[string]string) *Reference {
	ref := &Reference{values: make(map[string]string, len(pairs))}
	for _, k := range slices.Sorted(maps.Keys(pairs)) {
		ref.add(k, pairs[k])
	}
	return ref
}

func (r *Reference) add(key, value string) {
	key = NormalizeKey(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if _, exists := r.values[key]; !exists {
		r.values[key] = value
	}
}

// Lookup returns the value for key after normalization.
func (r *Reference) Lookup(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[NormalizeKey(key)]
	return v, ok
}

// Len returns the number of distinct keys.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.values)
}

// NormalizeKey trims, lower-cases and collapses inner whitespace.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ParseReference reads a delimited reference table. Header names are trimmed
// and lower-cased before looking up keyColumn and valueColumn.
func ParseReference(r io.Reader, keyColumn, valueColumn string) (*Reference, error) {
	cr := csv.NewReader(core.NewSourceReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", core.ErrReferenceUnavailable, err)
	}

	idx := core.MakeHeaderIndex(header)
	keyPos, okKey := idx[strings.ToLower(keyColumn)]
	valPos, okVal := idx[strings.ToLower(valueColumn)]
	if !okKey || !okVal {
		return nil, fmt.Errorf("%w: columns %q and %q required, got %v",
			core.ErrReferenceUnavailable, keyColumn, valueColumn, header)
	}

	ref := &Reference{values: make(map[string]string)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrReferenceUnavailable, err)
		}
		if keyPos >= len(record) || valPos >= len(record) {
			continue
		}
		ref.add(record[keyPos], record[valPos])
	}
	return ref, nil
}

// ReferenceFetcher obtains the reference table for one run.
type ReferenceFetcher interface {
	FetchReference(ctx context.Context) (*Reference, error)
}

// HTTPReferenceFetcher downloads the reference table with a GET request.
type HTTPReferenceFetcher struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPReferenceFetcher creates a fetcher with its own client.
func NewHTTPReferenceFetcher(url string, timeout time.Duration) *HTTPReferenceFetcher {
	return &HTTPReferenceFetcher{
		URL:     url,
		Client:  &http.Client{},
		Timeout: timeout,
	}
}

// FetchReference downloads and parses the reference table.
// Every failure wraps core.ErrReferenceUnavailable.
func (f *HTTPReferenceFetcher) FetchReference(ctx context.Context) (*Reference, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", core.ErrReferenceUnavailable, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrReferenceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %s", core.ErrReferenceUnavailable, f.URL, resp.Status)
	}

	return ParseReference(io.LimitReader(resp.Body, maxReferenceSize), ReferenceKeyColumn, ReferenceValueColumn)
}
