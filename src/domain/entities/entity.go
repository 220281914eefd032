package entities

import (
	"fmt"
	"maps"

	"botstore/src/domain"
)

// Entity é o contrato mínimo de qualquer objeto persistido.
type Entity interface {
	ID() string
	// DatabaseID returns the id used as the storage key. It fails with
	// domain.ErrInvariantViolation while no identity has been assigned.
	DatabaseID() (string, error)
	TableName() string
}

// Tracked entities accumulate pending field changes for selective updates.
type Tracked interface {
	Entity
	Tracker() *FieldTracker
}

// Identity is embedded by every entity and serialized as "id".
type Identity struct {
	Key string `json:"id"`
}

func (i Identity) ID() string {
	return i.Key
}

func (i Identity) DatabaseID() (string, error) {
	if i.Key == "" {
		return "", fmt.Errorf("%w: identity not assigned", domain.ErrInvariantViolation)
	}
	return i.Key, nil
}

// Schema lists the stored field names of one entity kind.
type Schema struct {
	table  string
	fields map[string]struct{}
}

func NewSchema(table string, fields ...string) *Schema {
	s := &Schema{table: table, fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		s.fields[f] = struct{}{}
	}
	return s
}

func (s *Schema) Has(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// FieldTracker records (field -> latest value) mutations pending flush.
// It has no locking: an entity instance belongs to one flow at a time.
type FieldTracker struct {
	schema *Schema
	fields map[string]any
}

func NewFieldTracker(schema *Schema) *FieldTracker {
	return &FieldTracker{schema: schema, fields: make(map[string]any)}
}

// MarkDirty overwrites any pending value for field. Tracking a field outside the
// schema is a programming error and panics with domain.ErrInvariantViolation.
func (t *FieldTracker) MarkDirty(field string, value any) {
	if t.schema != nil && !t.schema.Has(field) {
		panic(fmt.Errorf("%w: %s has no field %q", domain.ErrInvariantViolation, t.schema.table, field))
	}
	if t.fields == nil {
		t.fields = make(map[string]any)
	}
	t.fields[field] = value
}

// Dirty returns a copy of the pending changes.
func (t *FieldTracker) Dirty() map[string]any {
	return maps.Clone(t.fields)
}

func (t *FieldTracker) Len() int {
	return len(t.fields)
}

func (t *FieldTracker) ClearDirty() {
	clear(t.fields)
}

// Allows reports whether field belongs to the tracked schema.
func (t *FieldTracker) Allows(field string) bool {
	return t.schema == nil || t.schema.Has(field)
}
