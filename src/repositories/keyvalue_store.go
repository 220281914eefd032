package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/infra/redis"
)

const (
	// KeyValuePrefix namespaces every legacy record key.
	KeyValuePrefix = "kv:"

	defaultWriteTimeout = 5 * time.Second
)

// KeyValueStore keeps every legacy record as a hash at kv:<table>:<id>, one
// hash field per top-level JSON field holding that field's JSON encoding.
type KeyValueStore struct {
	logger       *slog.Logger
	redis        *redis.RedisClient
	writeTimeout time.Duration
}

func NewKeyValueStore(logger *slog.Logger, client *redis.RedisClient, writeTimeout time.Duration) *KeyValueStore {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &KeyValueStore{
		logger:       logger,
		redis:        client.WithPrefix(KeyValuePrefix),
		writeTimeout: writeTimeout,
	}
}

func (s *KeyValueStore) Get(ctx context.Context, table string, id string) (json.RawMessage, bool, error) {
	if err := keyValueTable(table); err != nil {
		return nil, false, err
	}

	fields, found, err := s.redis.GetRecord(ctx, recordKey(table, id))
	if err != nil {
		return nil, false, fmt.Errorf("get %s:%s: %w: %w", table, id, domain.ErrBackendUnavailable, err)
	}
	if !found {
		return nil, false, nil
	}

	doc, err := joinFields(fields)
	if err != nil {
		return nil, false, fmt.Errorf("get %s:%s: %w", table, id, err)
	}
	return doc, true, nil
}

// UpsertReplace overwrites the whole record.
func (s *KeyValueStore) UpsertReplace(ctx context.Context, table string, id string, doc json.RawMessage) Ack {
	fields, err := splitFields(table, doc)
	if err != nil {
		return completedAck(err)
	}
	return s.async(ctx, "replace", table, id, func(ctx context.Context) error {
		return s.redis.ReplaceRecord(ctx, recordKey(table, id), fields)
	})
}

// UpsertMerge writes the given fields and keeps the rest of the stored record.
// Concurrent merges resolve per field, last writer wins.
func (s *KeyValueStore) UpsertMerge(ctx context.Context, table string, id string, doc json.RawMessage) Ack {
	fields, err := splitFields(table, doc)
	if err != nil {
		return completedAck(err)
	}
	return s.async(ctx, "merge", table, id, func(ctx context.Context) error {
		return s.redis.MergeRecord(ctx, recordKey(table, id), fields)
	})
}

func (s *KeyValueStore) Delete(ctx context.Context, table string, id string) Ack {
	if err := keyValueTable(table); err != nil {
		return completedAck(err)
	}
	return s.async(ctx, "delete", table, id, func(ctx context.Context) error {
		return s.redis.DeleteKey(ctx, recordKey(table, id))
	})
}

// ScanByPattern walks the table lazily and yields the records whose id matches
// pattern. The returned Scan can be ranged over once.
func (s *KeyValueStore) ScanByPattern(ctx context.Context, table string, pattern *regexp.Regexp) *Scan {
	return NewScan(func(yield func(Record, error) bool) {
		if err := keyValueTable(table); err != nil {
			yield(Record{}, err)
			return
		}

		prefix := table + ":"
		// SCAN may return a key more than once
		seen := make(map[string]struct{})
		for key, err := range s.redis.ScanKeys(ctx, prefix+"*") {
			if err != nil {
				yield(Record{}, fmt.Errorf("scan %s: %w: %w", table, domain.ErrBackendUnavailable, err))
				return
			}

			id := strings.TrimPrefix(key, prefix)
			if _, dup := seen[id]; dup || !pattern.MatchString(id) {
				continue
			}
			seen[id] = struct{}{}

			doc, found, err := s.Get(ctx, table, id)
			if err != nil {
				if !yield(Record{}, err) {
					return
				}
				continue
			}
			// deleted between SCAN and HGETALL
			if !found {
				continue
			}

			if !yield(Record{ID: id, Doc: doc}, nil) {
				return
			}
		}
	})
}

// async runs write detached from the caller's cancellation, bounded by the
// store write timeout. Failures are logged whether or not anyone waits on the Ack.
func (s *KeyValueStore) async(ctx context.Context, op string, table string, id string, write func(ctx context.Context) error) Ack {
	done := make(chan error, 1)

	go func() {
		defer close(done)

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
		defer cancel()

		err := write(writeCtx)
		if err != nil {
			err = fmt.Errorf("%s %s:%s: %w: %w", op, table, id, domain.ErrBackendUnavailable, err)
			s.logger.Error("Key-value write failed", "op", op, "table", table, "id", id, "error", err)
		}
		done <- err
	}()

	return done
}

func recordKey(table string, id string) string {
	return table + ":" + id
}

func keyValueTable(table string) error {
	if _, ok := entities.Lookup(entities.StoreKeyValue, table); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTable, table)
	}
	return nil
}

func splitFields(table string, doc json.RawMessage) (map[string]interface{}, error) {
	if err := keyValueTable(table); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("failed to split %s record into fields: %w", table, err)
	}

	fields := make(map[string]interface{}, len(raw))
	for name, value := range raw {
		fields[name] = string(value)
	}
	return fields, nil
}

func joinFields(fields map[string]string) (json.RawMessage, error) {
	raw := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		if !json.Valid([]byte(value)) {
			return nil, fmt.Errorf("field %q holds invalid JSON", name)
		}
		raw[name] = json.RawMessage(value)
	}
	return json.Marshal(raw)
}

