// Package form holds the garment entry form: a fixed set of string fields that
// manual edits and accepted scans overwrite in place, and immutable snapshots
// taken when the record is submitted.
package form

import (
	"encoding/json"
	"strings"
	"sync"
)

// Model is the single source of truth for the editable fields of one form
// session. Writes never fail; there is no cross-field validation. The zero
// value is an empty form ready to use.
type Model struct {
	mu     sync.RWMutex
	values map[Field]string
}

// New returns a model with every field empty.
func New() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Set overwrites a single field. Fields outside the catalog are ignored.
func (m *Model) Set(field Field, value string) {
	if !field.Known() {
		return
	}
	m.mu.Lock()
	m.initLocked()
	m.values[field] = value
	m.mu.Unlock()
}

// Apply sets several fields at once.
func (m *Model) Apply(values map[Field]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initLocked()
	for field, value := range values {
		if field.Known() {
			m.values[field] = value
		}
	}
}

// Value returns the current value of field.
func (m *Model) Value(field Field) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[field]
}

func (m *Model) initLocked() {
	if m.values == nil {
		m.values = blankValues()
	}
}

func blankValues() map[Field]string {
	values := make(map[Field]string, len(fieldOrder))
	for _, f := range fieldOrder {
		values[f] = ""
	}
	return values
}

// Reset clears every field. It is only invoked explicitly by callers.
func (m *Model) Reset() {
	values := blankValues()
	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
}

// Snapshot copies the current values. Later edits do not affect the copy.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := blankValues()
	for k, v := range m.values {
		values[k] = v
	}
	return Snapshot{values: values}
}

// Snapshot is an immutable copy of the form values.
type Snapshot struct {
	values map[Field]string
}

// SnapshotOf builds a snapshot from explicit values; missing fields are empty.
func SnapshotOf(values map[Field]string) Snapshot {
	out := make(map[Field]string, len(fieldOrder))
	for _, f := range fieldOrder {
		out[f] = values[f]
	}
	return Snapshot{values: out}
}

// Get returns the value captured for field.
func (s Snapshot) Get(field Field) string {
	return s.values[field]
}

// Map returns a copy keyed by JSON field name.
func (s Snapshot) Map() map[string]string {
	out := make(map[string]string, len(fieldOrder))
	for _, f := range fieldOrder {
		out[string(f)] = s.values[f]
	}
	return out
}

// Missing lists the fields left blank, in display order.
func (s Snapshot) Missing() []Field {
	var out []Field
	for _, f := range fieldOrder {
		if strings.TrimSpace(s.values[f]) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Equal reports whether both snapshots hold the same values.
func (s Snapshot) Equal(other Snapshot) bool {
	for _, f := range fieldOrder {
		if s.values[f] != other.values[f] {
			return false
		}
	}
	return true
}

// MarshalJSON emits every field as a string, including empty ones.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}
