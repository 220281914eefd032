package entities

import (
	"encoding/json"
	"fmt"
	"sort"

	"botstore/src/domain"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store identifies which backend owns an entity kind.
type Store int

const (
	StoreDocument Store = iota
	StoreKeyValue
)

func (s Store) String() string {
	switch s {
	case StoreDocument:
		return "document"
	case StoreKeyValue:
		return "key-value"
	}
	return fmt.Sprintf("store(%d)", int(s))
}

// Kind describes how to build one entity kind. Default is nil for kinds
// that may legitimately not exist.
type Kind[T Entity] struct {
	Table   string
	Store   Store
	New     func() T
	Default func(id string) T
}

// Decode builds a T from its stored JSON form.
func (k Kind[T]) Decode(raw []byte) (T, error) {
	e := k.New()
	if err := json.Unmarshal(raw, e); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode %s record: %w", k.Table, err)
	}
	return e, nil
}

// Descriptor is the untyped view of a registered Kind.
type Descriptor struct {
	Table  string
	Store  Store
	Decode func(raw []byte) (Entity, error)
}

type kindKey struct {
	store Store
	table string
}

var kinds = xsync.NewMapOf[kindKey, Descriptor]()

// Register adds a kind to the process-wide registry. Kinds are registered from
// package-level vars, so a duplicate is a startup bug and panics.
func Register[T Entity](k Kind[T]) Kind[T] {
	d := Descriptor{
		Table: k.Table,
		Store: k.Store,
		Decode: func(raw []byte) (Entity, error) {
			return k.Decode(raw)
		},
	}
	if _, loaded := kinds.LoadOrStore(kindKey{k.Store, k.Table}, d); loaded {
		panic(fmt.Sprintf("entity kind %s/%s registered twice", k.Store, k.Table))
	}
	return k
}

func Lookup(store Store, table string) (Descriptor, bool) {
	return kinds.Load(kindKey{store, table})
}

// Decode builds an entity of the kind registered for (store, table).
func Decode(store Store, table string, raw []byte) (Entity, error) {
	d, ok := Lookup(store, table)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnknownTable, store, table)
	}
	return d.Decode(raw)
}

// Tables lists the registered table names of a store, sorted.
func Tables(store Store) []string {
	var tables []string
	kinds.Range(func(k kindKey, _ Descriptor) bool {
		if k.store == store {
			tables = append(tables, k.table)
		}
		return true
	})
	sort.Strings(tables)
	return tables
}
