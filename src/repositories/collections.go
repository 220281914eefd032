package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"regexp"

	"botstore/src/domain"
	"botstore/src/domain/entities"
)

// DocumentCollection is the typed view of one document table. Reads never
// report a missing record as an error: GetOrDefault synthesizes the kind's
// default and Find returns found=false.
type DocumentCollection[T entities.Entity] struct {
	kind    entities.Kind[T]
	backend DocumentBackend
}

var _ Defaulting[*entities.Player] = (*DocumentCollection[*entities.Player])(nil)

func NewDocumentCollection[T entities.Entity](backend DocumentBackend, kind entities.Kind[T]) *DocumentCollection[T] {
	return &DocumentCollection[T]{kind: kind, backend: backend}
}

// GetOrDefault returns the stored record or, when none exists, an unsaved
// default for id. Nothing is written.
func (c *DocumentCollection[T]) GetOrDefault(ctx context.Context, id string) (T, error) {
	e, found, err := c.Find(ctx, id)
	if err != nil || found {
		return e, err
	}
	if c.kind.Default == nil {
		var zero T
		return zero, fmt.Errorf("%w: %s has no default", domain.ErrInvariantViolation, c.kind.Table)
	}
	return c.kind.Default(id), nil
}

func (c *DocumentCollection[T]) Find(ctx context.Context, id string) (T, bool, error) {
	var zero T
	raw, found, err := c.backend.Find(ctx, c.kind.Table, id)
	if err != nil || !found {
		return zero, false, err
	}
	e, err := c.kind.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

// FindWhere returns the records whose field at the dotted path equals value.
func (c *DocumentCollection[T]) FindWhere(ctx context.Context, path string, value interface{}) ([]T, error) {
	raws, err := c.backend.FindWhere(ctx, c.kind.Table, path, value)
	if err != nil {
		return nil, err
	}
	return decodeAll(c.kind, raws)
}

func (c *DocumentCollection[T]) FindAll(ctx context.Context) ([]T, error) {
	raws, err := c.backend.FindAll(ctx, c.kind.Table)
	if err != nil {
		return nil, err
	}
	return decodeAll(c.kind, raws)
}

func (c *DocumentCollection[T]) ReplaceWhole(ctx context.Context, e T) error {
	id, doc, err := encode(e)
	if err != nil {
		return err
	}
	return c.backend.ReplaceWhole(ctx, c.kind.Table, id, doc)
}

// UpdateFields writes only the listed fields of the stored record.
func (c *DocumentCollection[T]) UpdateFields(ctx context.Context, e T, fields map[string]interface{}) error {
	id, err := e.DatabaseID()
	if err != nil {
		return err
	}
	return c.backend.UpdateFields(ctx, c.kind.Table, id, fields)
}

func (c *DocumentCollection[T]) DeleteWhole(ctx context.Context, e T) error {
	id, err := e.DatabaseID()
	if err != nil {
		return err
	}
	return c.backend.DeleteWhole(ctx, c.kind.Table, id)
}

// KeyValueCollection is the typed view of one legacy table. It has no
// defaulting read; callers decide what a missing record means.
type KeyValueCollection[T entities.Entity] struct {
	kind    entities.Kind[T]
	backend KeyValueBackend
}

var _ Nullable[*entities.PlayerStats] = (*KeyValueCollection[*entities.PlayerStats])(nil)

func NewKeyValueCollection[T entities.Entity](backend KeyValueBackend, kind entities.Kind[T]) *KeyValueCollection[T] {
	return &KeyValueCollection[T]{kind: kind, backend: backend}
}

func (c *KeyValueCollection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	raw, found, err := c.backend.Get(ctx, c.kind.Table, id)
	if err != nil || !found {
		return zero, false, err
	}
	e, err := c.kind.Decode(raw)
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

func (c *KeyValueCollection[T]) UpsertReplace(ctx context.Context, e T) Ack {
	id, doc, err := encode(e)
	if err != nil {
		return completedAck(err)
	}
	return c.backend.UpsertReplace(ctx, c.kind.Table, id, doc)
}

func (c *KeyValueCollection[T]) UpsertMerge(ctx context.Context, e T) Ack {
	id, doc, err := encode(e)
	if err != nil {
		return completedAck(err)
	}
	return c.backend.UpsertMerge(ctx, c.kind.Table, id, doc)
}

func (c *KeyValueCollection[T]) Delete(ctx context.Context, e T) Ack {
	id, err := e.DatabaseID()
	if err != nil {
		return completedAck(err)
	}
	return c.backend.Delete(ctx, c.kind.Table, id)
}

// Scan yields the records whose id matches pattern. Like the underlying Scan
// it can be ranged over once; records that fail to decode are yielded as errors.
func (c *KeyValueCollection[T]) Scan(ctx context.Context, pattern *regexp.Regexp) iter.Seq2[T, error] {
	scan := c.backend.ScanByPattern(ctx, c.kind.Table, pattern)
	return func(yield func(T, error) bool) {
		var zero T
		for rec, err := range scan.All() {
			if err != nil {
				if !yield(zero, err) {
					return
				}
				continue
			}
			e, err := c.kind.Decode(rec.Doc)
			if err != nil {
				err = fmt.Errorf("record %s: %w", rec.ID, err)
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

func encode[T entities.Entity](e T) (string, json.RawMessage, error) {
	id, err := e.DatabaseID()
	if err != nil {
		return "", nil, err
	}
	doc, err := json.Marshal(e)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode %s:%s: %w", e.TableName(), id, err)
	}
	return id, doc, nil
}

func decodeAll[T entities.Entity](kind entities.Kind[T], raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		e, err := kind.Decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
