package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"marketplace-bulk-api/internal/config"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "listings", []byte(`[1]`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, "listings", []byte(`[1,2]`), 0); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, err := s.Get(ctx, "listings")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("Get() = %s, want [1,2]", got)
	}

	ok, err := s.Exists(ctx, "listings")
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v; want true", ok, err)
	}

	if err := s.Set(ctx, "short", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set(ttl) error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "listings"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "listings"); err != nil {
		t.Fatalf("Delete() of missing key error = %v", err)
	}
	if ok, _ := s.Exists(ctx, "listings"); ok {
		t.Error("key still exists after Delete")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats["backend"] == nil {
		t.Errorf("Stats() = %v, want backend name", stats)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	exerciseStore(t, s)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	value := []byte("abc")
	s.Set(ctx, "k", value, 0)
	value[0] = 'z'

	got, _ := s.Get(ctx, "k")
	got[1] = 'z'

	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value = %s, want abc", again)
	}
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "keep", []byte("1"), 0)
	s.Set(ctx, "drop", []byte("1"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	n, err := s.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpired() = %d, %v; want 1", n, err)
	}
	if ok, _ := s.Exists(ctx, "keep"); !ok {
		t.Error("entry without TTL was removed")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "a", []byte("1"), time.Millisecond)
	s.Set(ctx, "b", []byte("1"), time.Millisecond)
	s.Set(ctx, "c", []byte("1"), 0)
	time.Sleep(5 * time.Millisecond)

	n, err := s.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteExpired() = %d, want 2", n)
	}

	stats, _ := s.Stats(ctx)
	if stats["keys"] != int64(1) {
		t.Errorf("keys = %v, want 1", stats["keys"])
	}
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	if got := pg.rebind("SELECT ? WHERE a = ? AND b = ?"); got != "SELECT $1 WHERE a = $2 AND b = $3" {
		t.Errorf("postgres rebind = %q", got)
	}

	lite := &SQLStore{dialect: DialectSQLite}
	if got := lite.rebind("k = ?"); got != "k = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	s.Close()

	s, err = Open(config.StoreConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	s.Close()

	if _, err := Open(config.StoreConfig{Type: "etcd"}); err == nil {
		t.Error("Open(etcd) error = nil")
	}
}
