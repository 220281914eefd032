package redis

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanCount = 100

type RedisClient struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisClient connects to a single node or, with a comma separated list of
// addresses, to a cluster.
func NewRedisClient(addrs string, poolSize int) *RedisClient {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),

		// Pool settings para alta concorrência
		PoolSize:     poolSize,
		MinIdleConns: 10,

		// Cluster específico
		MaxRedirects: 3,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	return &RedisClient{client: client}
}

// WithPrefix returns a client sharing the connection whose keys all live under prefix.
func (rc *RedisClient) WithPrefix(prefix string) *RedisClient {
	return &RedisClient{client: rc.client, prefix: rc.prefix + prefix}
}

func (rc *RedisClient) key(key string) string {
	return rc.prefix + key
}

// GetRecord reads a hash record. An empty or missing hash is reported as not found.
func (rc *RedisClient) GetRecord(ctx context.Context, key string) (map[string]string, bool, error) {
	fields, err := rc.client.HGetAll(ctx, rc.key(key)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	return fields, true, nil
}

// ReplaceRecord drops every stored field of the record and writes fields atomically.
func (rc *RedisClient) ReplaceRecord(ctx context.Context, key string, fields map[string]interface{}) error {
	k := rc.key(key)
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(fields) > 0 {
			pipe.HSet(ctx, k, fields)
		}
		return nil
	})
	return err
}

// MergeRecord writes fields over the stored record, leaving other fields untouched.
func (rc *RedisClient) MergeRecord(ctx context.Context, key string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return rc.client.HSet(ctx, rc.key(key), fields).Err()
}

func (rc *RedisClient) DeleteKey(ctx context.Context, key string) error {
	return rc.client.Del(ctx, rc.key(key)).Err()
}

// ScanKeys lazily walks every key matching the glob pattern, on every master
// when connected to a cluster. Keys are yielded without the client prefix.
func (rc *RedisClient) ScanKeys(ctx context.Context, pattern string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		nodes, err := rc.scanNodes(ctx)
		if err != nil {
			yield("", err)
			return
		}

		for _, node := range nodes {
			it := node.Scan(ctx, 0, rc.key(pattern), scanCount).Iterator()
			for it.Next(ctx) {
				if !yield(strings.TrimPrefix(it.Val(), rc.prefix), nil) {
					return
				}
			}
			if err := it.Err(); err != nil {
				yield("", err)
				return
			}
		}
	}
}

type scanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

func (rc *RedisClient) scanNodes(ctx context.Context) ([]scanner, error) {
	cluster, ok := rc.client.(*redis.ClusterClient)
	if !ok {
		return []scanner{rc.client}, nil
	}

	var (
		mu    sync.Mutex
		nodes []scanner
	)
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		mu.Lock()
		defer mu.Unlock()
		nodes = append(nodes, node)
		return nil
	})
	return nodes, err
}

// ############################################################
// ################ SORTED SET / FILAS TEMPORAIS ##############
// ############################################################

// TxPipelined runs fn inside MULTI/EXEC. In cluster mode every key touched by
// fn must hash to the same slot.
func (rc *RedisClient) TxPipelined(ctx context.Context, fn func(pipe redis.Pipeliner, key func(string) string) error) error {
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(pipe, rc.key)
	})
	return err
}

// EarliestMembers returns up to n members with the lowest scores.
func (rc *RedisClient) EarliestMembers(ctx context.Context, key string, n int64) ([]string, error) {
	return rc.client.ZRange(ctx, rc.key(key), 0, n-1).Result()
}

func (rc *RedisClient) RemoveMember(ctx context.Context, key string, member string) (bool, error) {
	removed, err := rc.client.ZRem(ctx, rc.key(key), member).Result()
	return removed > 0, err
}

func (rc *RedisClient) HashField(ctx context.Context, key string, field string) (string, bool, error) {
	result := rc.client.HGet(ctx, rc.key(key), field)
	if errors.Is(result.Err(), redis.Nil) {
		return "", false, nil
	}
	if result.Err() != nil {
		return "", false, result.Err()
	}
	return result.Val(), true, nil
}

func (rc *RedisClient) HashFields(ctx context.Context, key string, fields ...string) ([]string, error) {
	values, err := rc.client.HMGet(ctx, rc.key(key), fields...).Result()
	if err != nil {
		return nil, err
	}

	found := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			found = append(found, s)
		}
	}
	return found, nil
}

func (rc *RedisClient) SetMembers(ctx context.Context, key string) ([]string, error) {
	return rc.client.SMembers(ctx, rc.key(key)).Result()
}

// FlushByPrefix deletes every key under the client prefix. Meant for tests and
// maintenance; it refuses to run without a prefix.
func (rc *RedisClient) FlushByPrefix(ctx context.Context) error {
	if rc.prefix == "" {
		return errors.New("refusing to flush without a key prefix")
	}

	var errs []string
	for key, err := range rc.ScanKeys(ctx, "*") {
		if err != nil {
			return err
		}
		if err := rc.client.Del(ctx, rc.key(key)).Err(); err != nil {
			errs = append(errs, fmt.Sprintf("key %s: %v", key, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("flush errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Health check para o cluster
func (rc *RedisClient) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}
