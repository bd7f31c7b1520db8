package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// Miss before Set
	_, hit, err := c.Get(ctx, "branch:owner/repo")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss before Set")
	}

	// Round trip
	if err := c.Set(ctx, "branch:owner/repo", []byte("main"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "branch:owner/repo")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if string(data) != "main" {
		t.Errorf("Get = %q, want %q", data, "main")
	}

	// Expired entries are treated as misses
	if err := c.Set(ctx, "expired", []byte("x"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "expired"); hit {
		t.Error("expired entry should be a miss")
	}

	// Delete is idempotent
	if err := c.Delete(ctx, "branch:owner/repo"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Delete(ctx, "branch:owner/repo"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "branch:owner/repo"); hit {
		t.Error("expected miss after Delete")
	}
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer backend.Close()

	a := NewScoped(backend, "a:")
	b := NewScoped(backend, "b:")

	if err := a.Set(ctx, "key", []byte("from-a"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	// Same key in a different scope is independent
	if _, hit, _ := b.Get(ctx, "key"); hit {
		t.Error("scopes should not share keys")
	}

	// The backend sees the prefixed key
	if _, hit, _ := backend.Get(ctx, "a:key"); !hit {
		t.Error("backend should store the prefixed key")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestKey(t *testing.T) {
	k1 := Key("branch", "owner", "repo")
	k2 := Key("branch", "owner", "repo")
	if k1 != k2 {
		t.Error("Key should be deterministic")
	}

	k3 := Key("branch", "owner", "other")
	if k1 == k3 {
		t.Error("Different parts should produce different keys")
	}

	if k1[:7] != "branch:" {
		t.Errorf("Key should carry its prefix, got %s", k1)
	}
}
