package store

import (
	"context"
	"strings"
)

// Scoped prefixes every key of an inner backend. The checkpoint archive uses
// it to root its layout (for example under "/CheckPoints"), which lets
// several archives share one backend.
//
// Example usage:
//
//	root := store.NewScoped(backend, "/CheckPoints")
//	root.Set(ctx, "/EdgeIndex/0/row", data) // stored as /CheckPoints/EdgeIndex/0/row
type Scoped struct {
	inner  Backend
	prefix string
}

// NewScoped wraps inner so that all keys get prefix.
func NewScoped(inner Backend, prefix string) *Scoped {
	return &Scoped{inner: inner, prefix: prefix}
}

// Prefix returns the scope prefix.
func (s *Scoped) Prefix() string { return s.prefix }

// Get reads prefix+key.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set writes prefix+key.
func (s *Scoped) Set(ctx context.Context, key string, data []byte) error {
	return s.inner.Set(ctx, s.prefix+key, data)
}

// SetMany writes every entry under the prefix.
func (s *Scoped) SetMany(ctx context.Context, entries map[string][]byte) error {
	scoped := make(map[string][]byte, len(entries))
	for k, v := range entries {
		scoped[s.prefix+k] = v
	}
	return s.inner.SetMany(ctx, scoped)
}

// Delete removes prefix+key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// List returns keys relative to the scope.
func (s *Scoped) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.inner.List(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, s.prefix)
	}
	return keys, nil
}

// Close closes the inner backend.
func (s *Scoped) Close() error {
	return s.inner.Close()
}

// Ensure Scoped implements Backend.
var _ Backend = (*Scoped)(nil)
