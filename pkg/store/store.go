// Package store provides the key-value backends that hold checkpoint data.
//
// A [Backend] stores opaque byte values under slash-separated keys such as
// "/CheckPoints/EdgeIndex/10/row". The checkpoint archive owns the key layout
// and the value encoding; backends only move bytes.
//
// Backends are selected by URL with [Open]:
//
//	graph.ckpt              single msgpack container file (default)
//	file:///data/run.ckpt   same, explicit
//	badger:///data/run.db   badger key-value directory
//	redis://localhost:6379/0
//	mongodb://localhost:27017/graingraph
//	mem://                  process-local map, for tests and previews
//
// Every backend is opened, used and closed by the caller; nothing here keeps
// global state. Blocking calls take a context, which network backends honor.
package store

import (
	"context"
	"net/url"
	"strings"

	"github.com/graingraph/graingraph/pkg/errors"
)

// Backend is a flat key-value store with prefix listing.
type Backend interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// SetMany stores several values. Backends that support it apply the
	// whole batch at once.
	SetMany(ctx context.Context, entries map[string][]byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend's resources.
	Close() error
}

// Open selects and opens a backend from a location string. A location
// without a scheme is a path to a container file.
func Open(ctx context.Context, location string) (Backend, error) {
	if location == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "store location is empty")
	}
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		scheme, rest = "file", location
	}

	var (
		b   Backend
		err error
	)
	switch strings.ToLower(scheme) {
	case "file":
		b, err = NewFileBackend(rest)
	case "badger":
		b, err = NewBadgerBackend(rest)
	case "redis", "rediss":
		b, err = NewRedisBackend(ctx, location)
	case "mongodb", "mongodb+srv":
		b, err = NewMongoBackend(ctx, location, mongoDatabase(location))
	case "mem":
		b = NewMemoryBackend()
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// mongoDatabase takes the database name from the URL path, if any.
func mongoDatabase(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// storageError wraps a backend failure with the operation and key.
func storageError(err error, op, key string) error {
	return errors.Wrap(errors.ErrCodeStorage, err, "%s %s", op, key)
}
