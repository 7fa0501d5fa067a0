package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/graingraph/graingraph/pkg/errors"
)

// containerFormat tags files written by FileBackend.
const containerFormat = "graingraph-checkpoint/1"

// FileBackend stores every key in a single msgpack container file. The file
// is opened and released on each operation; writes replace it atomically
// through a temporary file and a rename.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// container is the on-disk layout.
type container struct {
	Format  string            `msgpack:"format"`
	Entries map[string][]byte `msgpack:"entries"`
}

// NewFileBackend uses the container at path. The file and its parent
// directory are created on first write; reads never touch the filesystem
// beyond the container itself.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "container path is empty")
	}
	return &FileBackend{path: path}, nil
}

// Path returns the container file path.
func (f *FileBackend) Path() string { return f.path }

// Get reads key from the container.
func (f *FileBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := c.Entries[key]
	return v, ok, nil
}

// Set writes a single key.
func (f *FileBackend) Set(ctx context.Context, key string, data []byte) error {
	return f.SetMany(ctx, map[string][]byte{key: data})
}

// SetMany rewrites the container once with all entries applied.
func (f *FileBackend) SetMany(ctx context.Context, entries map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		c.Entries[k] = v
	}
	return f.save(c)
}

// Delete removes key and rewrites the container if it was present.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := c.Entries[key]; !ok {
		return nil
	}
	delete(c.Entries, key)
	return f.save(c)
}

// List returns matching keys in sorted order.
func (f *FileBackend) List(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.load()
	if err != nil {
		return nil, err
	}
	return matchKeys(c.Entries, prefix), nil
}

// Close does nothing; no handle is held between operations.
func (f *FileBackend) Close() error {
	return nil
}

// load reads the container. A missing file is an empty container.
func (f *FileBackend) load() (*container, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &container{Format: containerFormat, Entries: make(map[string][]byte)}, nil
	}
	if err != nil {
		return nil, storageError(err, "read", f.path)
	}
	var c container
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s is not a checkpoint container", f.path)
	}
	if c.Format != containerFormat {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s has unknown container format %q", f.path, c.Format)
	}
	if c.Entries == nil {
		c.Entries = make(map[string][]byte)
	}
	return &c, nil
}

// save writes c to a temporary file next to the container and renames it
// into place.
func (f *FileBackend) save(c *container) error {
	data, err := msgpack.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode container")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return storageError(err, "create directory", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return storageError(err, "create temp for", f.path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageError(err, "write", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storageError(err, "sync", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return storageError(err, "close", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return storageError(err, "replace", f.path)
	}
	return nil
}

// Ensure FileBackend implements Backend.
var _ Backend = (*FileBackend)(nil)
