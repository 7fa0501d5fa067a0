//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Integration tests need live servers:
//
//	GRAINGRAPH_REDIS_URL=redis://localhost:6379/15
//	GRAINGRAPH_MONGO_URL=mongodb://localhost:27017/graingraph_test

func TestRedisBackend_Integration(t *testing.T) {
	url := os.Getenv("GRAINGRAPH_REDIS_URL")
	if url == "" {
		t.Skip("GRAINGRAPH_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer b.Close()

	// A fresh scope keeps runs from seeing each other's keys.
	s := NewScoped(b, "test:"+uuid.NewString())
	exerciseBackend(t, s)
	cleanup(t, s)
}

func TestMongoBackend_Integration(t *testing.T) {
	url := os.Getenv("GRAINGRAPH_MONGO_URL")
	if url == "" {
		t.Skip("GRAINGRAPH_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer b.Close()

	s := NewScoped(b, "test:"+uuid.NewString())
	exerciseBackend(t, s)
	cleanup(t, s)
}

func cleanup(t *testing.T, b Backend) {
	ctx := context.Background()
	keys, err := b.List(ctx, "")
	if err != nil {
		t.Logf("cleanup list: %v", err)
		return
	}
	for _, k := range keys {
		_ = b.Delete(ctx, k)
	}
}
