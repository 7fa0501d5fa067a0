package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	gerrors "github.com/graingraph/graingraph/pkg/errors"
)

// BadgerBackend stores keys in a badger database directory.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (or creates) the database in dir. An empty dir
// opens an in-memory database.
func NewBadgerBackend(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, storageError(err, "open badger", dir)
	}
	return &BadgerBackend{db: db}, nil
}

// Get reads key in a read-only transaction.
func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError(err, "get", key)
	}
	return data, true, nil
}

// Set writes key in its own transaction.
func (b *BadgerBackend) Set(ctx context.Context, key string, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return storageError(err, "set", key)
	}
	return nil
}

// SetMany writes all entries in one transaction.
func (b *BadgerBackend) SetMany(ctx context.Context, entries map[string][]byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for k, v := range entries {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "write %d keys", len(entries))
	}
	return nil
}

// Delete removes key.
func (b *BadgerBackend) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return storageError(err, "delete", key)
	}
	return nil
}

// List iterates keys with prefix. Badger keeps keys sorted, so no extra
// sorting is needed.
func (b *BadgerBackend) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "list", prefix)
	}
	return keys, nil
}

// Close flushes and closes the database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// Ensure BadgerBackend implements Backend.
var _ Backend = (*BadgerBackend)(nil)
