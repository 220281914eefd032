package repositories

import (
	"context"
	"encoding/json"
	"iter"
	"regexp"
	"sync/atomic"

	"botstore/src/domain"
)

// DocumentBackend stores whole JSON documents per collection and can update
// individual top-level fields in place.
type DocumentBackend interface {
	Find(ctx context.Context, table string, id string) (json.RawMessage, bool, error)
	FindWhere(ctx context.Context, table string, path string, value interface{}) ([]json.RawMessage, error)
	FindAll(ctx context.Context, table string) ([]json.RawMessage, error)
	ReplaceWhole(ctx context.Context, table string, id string, doc json.RawMessage) error
	// UpdateFields sets only the given fields. An empty map is a no-op; a missing
	// document yields domain.ErrNotFound.
	UpdateFields(ctx context.Context, table string, id string, fields map[string]interface{}) error
	DeleteWhole(ctx context.Context, table string, id string) error
}

// KeyValueBackend is the legacy store. Writes are fire-and-forget.
type KeyValueBackend interface {
	Get(ctx context.Context, table string, id string) (json.RawMessage, bool, error)
	UpsertReplace(ctx context.Context, table string, id string, doc json.RawMessage) Ack
	UpsertMerge(ctx context.Context, table string, id string, doc json.RawMessage) Ack
	Delete(ctx context.Context, table string, id string) Ack
	ScanByPattern(ctx context.Context, table string, pattern *regexp.Regexp) *Scan
}

// Defaulting stores synthesize an unsaved default when a record is missing.
type Defaulting[T any] interface {
	GetOrDefault(ctx context.Context, id string) (T, error)
}

// Nullable stores report a missing record and leave defaults to the caller.
type Nullable[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
}

// Ack is the result handle of a write issued without waiting for it.
// Receiving from it is optional: the write is eventually durable and a read
// issued right after it may still see the previous value.
type Ack <-chan error

// Wait blocks until the write completed or ctx is done.
func (a Ack) Wait(ctx context.Context) error {
	select {
	case err := <-a:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func completedAck(err error) Ack {
	done := make(chan error, 1)
	done <- err
	close(done)
	return done
}

type Record struct {
	ID  string
	Doc json.RawMessage
}

// Scan is a lazy, finite sequence that can be ranged over only once.
type Scan struct {
	seq  iter.Seq2[Record, error]
	used atomic.Bool
}

func NewScan(seq iter.Seq2[Record, error]) *Scan {
	return &Scan{seq: seq}
}

// All yields the records. Ranging a second time yields domain.ErrScanConsumed.
func (s *Scan) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if !s.used.CompareAndSwap(false, true) {
			yield(Record{}, domain.ErrScanConsumed)
			return
		}
		s.seq(yield)
	}
}
