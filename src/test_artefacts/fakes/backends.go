package fakes

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"botstore/src/domain"
	"botstore/src/repositories"
)

type document map[string]json.RawMessage

// DocumentBackend is an in-memory repositories.DocumentBackend with the same
// replace and merge semantics as the Postgres store.
type DocumentBackend struct {
	mu     sync.Mutex
	tables map[string]map[string]document

	// Err, when set, is returned by every operation.
	Err   error
	Calls atomic.Int64
}

var _ repositories.DocumentBackend = (*DocumentBackend)(nil)

func NewDocumentBackend() *DocumentBackend {
	return &DocumentBackend{tables: make(map[string]map[string]document)}
}

func (b *DocumentBackend) enter() (func(), error) {
	b.Calls.Add(1)
	b.mu.Lock()
	if b.Err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, b.Err)
	}
	return b.mu.Unlock, nil
}

func (b *DocumentBackend) table(name string) map[string]document {
	t, ok := b.tables[name]
	if !ok {
		t = make(map[string]document)
		b.tables[name] = t
	}
	return t
}

func (b *DocumentBackend) Find(_ context.Context, table string, id string) (json.RawMessage, bool, error) {
	unlock, err := b.enter()
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	doc, ok := b.table(table)[id]
	if !ok {
		return nil, false, nil
	}
	raw, err := json.Marshal(doc)
	return raw, err == nil, err
}

func (b *DocumentBackend) FindWhere(_ context.Context, table string, path string, value interface{}) ([]json.RawMessage, error) {
	unlock, err := b.enter()
	if err != nil {
		return nil, err
	}
	defer unlock()

	want, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for _, id := range slices.Sorted(maps.Keys(b.table(table))) {
		doc := b.table(table)[id]
		if contains(doc, strings.Split(path, "."), want) {
			raw, _ := json.Marshal(doc)
			out = append(out, raw)
		}
	}
	return out, nil
}

func (b *DocumentBackend) FindAll(_ context.Context, table string) ([]json.RawMessage, error) {
	unlock, err := b.enter()
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out []json.RawMessage
	for _, id := range slices.Sorted(maps.Keys(b.table(table))) {
		raw, _ := json.Marshal(b.table(table)[id])
		out = append(out, raw)
	}
	return out, nil
}

func (b *DocumentBackend) ReplaceWhole(_ context.Context, table string, id string, doc json.RawMessage) error {
	unlock, err := b.enter()
	if err != nil {
		return err
	}
	defer unlock()

	var fields document
	if err := json.Unmarshal(doc, &fields); err != nil {
		return err
	}
	b.table(table)[id] = fields
	return nil
}

func (b *DocumentBackend) UpdateFields(_ context.Context, table string, id string, fields map[string]interface{}) error {
	unlock, err := b.enter()
	if err != nil {
		return err
	}
	defer unlock()

	if len(fields) == 0 {
		return nil
	}
	doc, ok := b.table(table)[id]
	if !ok {
		return fmt.Errorf("update %s:%s: %w", table, id, domain.ErrNotFound)
	}
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		doc[name] = raw
	}
	return nil
}

func (b *DocumentBackend) DeleteWhole(_ context.Context, table string, id string) error {
	unlock, err := b.enter()
	if err != nil {
		return err
	}
	defer unlock()

	delete(b.table(table), id)
	return nil
}

// contains mirrors jsonb @> for a single path: scalars must be equal and an
// array matches when any element does.
func contains(doc document, path []string, want []byte) bool {
	raw, ok := doc[path[0]]
	if !ok {
		return false
	}
	if len(path) > 1 {
		var nested document
		if json.Unmarshal(raw, &nested) != nil {
			return false
		}
		return contains(nested, path[1:], want)
	}
	if jsonEqual(raw, want) {
		return true
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return false
	}
	for _, item := range items {
		if jsonEqual(item, want) {
			return true
		}
	}
	return false
}

func jsonEqual(x, y []byte) bool {
	var a, b interface{}
	if json.Unmarshal(x, &a) != nil || json.Unmarshal(y, &b) != nil {
		return false
	}
	ra, _ := json.Marshal(a)
	rb, _ := json.Marshal(b)
	return string(ra) == string(rb)
}

// KeyValueBackend is an in-memory repositories.KeyValueBackend. Writes apply
// before the Ack is returned.
type KeyValueBackend struct {
	mu     sync.Mutex
	tables map[string]map[string]document

	Err   error
	Calls atomic.Int64
}

var _ repositories.KeyValueBackend = (*KeyValueBackend)(nil)

func NewKeyValueBackend() *KeyValueBackend {
	return &KeyValueBackend{tables: make(map[string]map[string]document)}
}

func (b *KeyValueBackend) table(name string) map[string]document {
	t, ok := b.tables[name]
	if !ok {
		t = make(map[string]document)
		b.tables[name] = t
	}
	return t
}

func (b *KeyValueBackend) Get(_ context.Context, table string, id string) (json.RawMessage, bool, error) {
	b.Calls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, b.Err)
	}
	doc, ok := b.table(table)[id]
	if !ok {
		return nil, false, nil
	}
	raw, err := json.Marshal(doc)
	return raw, err == nil, err
}

func (b *KeyValueBackend) UpsertReplace(_ context.Context, table string, id string, doc json.RawMessage) repositories.Ack {
	return b.write(func() error {
		var fields document
		if err := json.Unmarshal(doc, &fields); err != nil {
			return err
		}
		b.table(table)[id] = fields
		return nil
	})
}

func (b *KeyValueBackend) UpsertMerge(_ context.Context, table string, id string, doc json.RawMessage) repositories.Ack {
	return b.write(func() error {
		var fields document
		if err := json.Unmarshal(doc, &fields); err != nil {
			return err
		}
		stored, ok := b.table(table)[id]
		if !ok {
			stored = make(document)
			b.table(table)[id] = stored
		}
		maps.Copy(stored, fields)
		return nil
	})
}

func (b *KeyValueBackend) Delete(_ context.Context, table string, id string) repositories.Ack {
	return b.write(func() error {
		delete(b.table(table), id)
		return nil
	})
}

func (b *KeyValueBackend) write(apply func() error) repositories.Ack {
	b.Calls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()

	done := make(chan error, 1)
	defer close(done)
	if b.Err != nil {
		done <- fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, b.Err)
		return done
	}
	done <- apply()
	return done
}

func (b *KeyValueBackend) ScanByPattern(_ context.Context, table string, pattern *regexp.Regexp) *repositories.Scan {
	b.Calls.Add(1)
	return repositories.NewScan(func(yield func(repositories.Record, error) bool) {
		b.mu.Lock()
		if b.Err != nil {
			b.mu.Unlock()
			yield(repositories.Record{}, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, b.Err))
			return
		}
		var records []repositories.Record
		for _, id := range slices.Sorted(maps.Keys(b.table(table))) {
			if !pattern.MatchString(id) {
				continue
			}
			raw, _ := json.Marshal(b.table(table)[id])
			records = append(records, repositories.Record{ID: id, Doc: raw})
		}
		b.mu.Unlock()

		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	})
}
