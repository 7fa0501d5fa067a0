package store

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	gerrors "github.com/graingraph/graingraph/pkg/errors"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// RedisBackend stores keys as plain redis strings.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects using a redis:// URL and pings the server.
func NewRedisBackend(ctx context.Context, rawURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, storageError(err, "connect", opts.Addr)
	}
	return &RedisBackend{client: client}, nil
}

// Get reads key. redis.Nil means absent.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError(err, "get", key)
	}
	return data, true, nil
}

// Set writes key without expiration.
func (r *RedisBackend) Set(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return storageError(err, "set", key)
	}
	return nil
}

// SetMany writes all entries in a MULTI/EXEC pipeline.
func (r *RedisBackend) SetMany(ctx context.Context, entries map[string][]byte) error {
	pipe := r.client.TxPipeline()
	for k, v := range entries {
		pipe.Set(ctx, k, v, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "write %d keys", len(entries))
	}
	return nil
}

// Delete removes key.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return storageError(err, "delete", key)
	}
	return nil
}

// List walks the keyspace with SCAN, never KEYS.
func (r *RedisBackend) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, globEscape(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, storageError(err, "scan", prefix)
	}
	// SCAN may return a key more than once.
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close closes the client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// globEscape quotes the characters MATCH treats as patterns.
func globEscape(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Ensure RedisBackend implements Backend.
var _ Backend = (*RedisBackend)(nil)
