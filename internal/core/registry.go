package core

import (
	"fmt"
	"strings"
	"sync"
)

// FieldSpec defines how one source column becomes a table column.
type FieldSpec struct {
	Name       string              // Source header name (matched case-insensitively)
	Column     string              // Table column name (if different from Name)
	Type       ColumnType          // Target type
	Required   bool                // Column must exist in the source header
	AllowEmpty bool                // Empty cells become missing values instead of dropping the row
	Normalizer func(string) string // Optional transformation applied before parsing
}

// ColumnName returns the table column name for the field.
func (f FieldSpec) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// TableDefinition contains everything needed to load one kind of source.
type TableDefinition struct {
	Key   string // Unique identifier: "wines"
	Label string // Display name

	// FieldSpecs lists the typed columns. Source columns without a spec are
	// kept as text under their original name.
	FieldSpecs []FieldSpec
}

// Spec returns the field spec matching a source header name.
func (d TableDefinition) Spec(header string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if strings.EqualFold(spec.Name, strings.TrimSpace(header)) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a definition with the same key is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Key))
	}
	registry[def.Key] = def
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// MustGet returns a table definition or panics. Use only with keys
// registered by the tables package.
func MustGet(key string) TableDefinition {
	def, ok := Get(key)
	if !ok {
		panic(fmt.Sprintf("table not registered: %s", key))
	}
	return def
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
