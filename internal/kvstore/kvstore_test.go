// ABOUTME: Contract tests run against every Store implementation
// ABOUTME: Redis cases run only when REDIS_ADDR points at a live server

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markalston/maarif-planner/internal/config"
)

func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "sub", "store.json"))
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "store.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			return s
		},
		"redis": func(t *testing.T) Store {
			addr := os.Getenv("REDIS_ADDR")
			if addr == "" {
				t.Skip("REDIS_ADDR not set")
			}
			s, err := NewRedisStore(context.Background(), addr, 15)
			if err != nil {
				t.Fatalf("NewRedisStore: %v", err)
			}
			t.Cleanup(func() {
				s.Remove(context.Background(), KeyAuthToken, KeyUser, "a", "b")
			})
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			if _, ok, err := s.Get(ctx, KeyAuthToken); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := s.Set(ctx, KeyAuthToken, "tok123"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, ok, err := s.Get(ctx, KeyAuthToken)
			if err != nil || !ok || v != "tok123" {
				t.Fatalf("Get after Set = %q, %v, %v", v, ok, err)
			}

			if err := s.Set(ctx, KeyAuthToken, "tok456"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if v, _, _ := s.Get(ctx, KeyAuthToken); v != "tok456" {
				t.Errorf("expected last write to win, got %q", v)
			}

			if err := s.Set(ctx, KeyUser, `{"id":"u1"}`); err != nil {
				t.Fatalf("Set user: %v", err)
			}
			if err := s.Remove(ctx, KeyAuthToken, KeyUser, "never-set"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			for _, k := range []string{KeyAuthToken, KeyUser} {
				if _, ok, _ := s.Get(ctx, k); ok {
					t.Errorf("expected %s removed", k)
				}
			}

			if err := s.Remove(ctx); err != nil {
				t.Errorf("Remove with no keys: %v", err)
			}
		})
	}
}

func TestFileStore_SharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	a, _ := NewFileStore(path)
	b, _ := NewFileStore(path)

	if err := a.Set(ctx, KeyAuthToken, "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := b.Get(ctx, KeyAuthToken); !ok || v != "tok" {
		t.Fatalf("second instance should see write, got %q %v", v, ok)
	}
	if err := b.Remove(ctx, KeyAuthToken); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := a.Get(ctx, KeyAuthToken); ok {
		t.Error("first instance should see removal")
	}
}

func TestFileStore_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s, _ := NewFileStore(path)
	if _, ok, err := s.Get(context.Background(), KeyUser); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}
}

func TestFileStore_UnreadableIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes reads fail.
	path := filepath.Join(dir, "store.json")
	if err := os.Mkdir(path, 0700); err != nil {
		t.Fatal(err)
	}

	s, _ := NewFileStore(path)
	_, _, err := s.Get(context.Background(), KeyAuthToken)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMemoryStore_Failing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.SetFailing(true)

	if _, _, err := s.Get(ctx, KeyAuthToken); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get: expected ErrUnavailable, got %v", err)
	}
	if err := s.Set(ctx, KeyAuthToken, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set: expected ErrUnavailable, got %v", err)
	}

	s.SetFailing(false)
	if err := s.Set(ctx, KeyAuthToken, "x"); err != nil {
		t.Errorf("Set after recovery: %v", err)
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{StoreBackend: config.StoreMemory}, "*kvstore.MemoryStore"},
		{config.Config{StoreBackend: config.StoreFile, StorePath: filepath.Join(dir, "s.json")}, "*kvstore.FileStore"},
		{config.Config{StoreBackend: config.StoreSQLite, StorePath: filepath.Join(dir, "s.db")}, "*kvstore.SQLiteStore"},
	}

	for _, tc := range tests {
		t.Run(tc.cfg.StoreBackend, func(t *testing.T) {
			s, err := Open(ctx, &tc.cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			if got := fmt.Sprintf("%T", s); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if _, err := Open(ctx, &config.Config{StoreBackend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestFileStore_WatchSeesExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	watched, _ := NewFileStore(path)
	other, _ := NewFileStore(path)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watched.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

loop:
	for {
		select {
		case <-changed:
			break loop
		case <-tick.C:
			other.Set(context.Background(), KeyAuthToken, time.Now().String())
		case <-deadline:
			t.Fatal("no change notification within 5s")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}
