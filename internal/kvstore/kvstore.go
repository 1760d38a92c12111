// ABOUTME: Device key-value store abstraction shared by every screen
// ABOUTME: String keys and values, last writer wins, no cross-key transactions

package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/markalston/maarif-planner/internal/config"
)

// Keys used by the client.
const (
	KeyAuthToken            = "authToken"
	KeyUser                 = "user"
	KeyRecentMatrixSearches = "recentMatrixSearches"
	KeyNotifications        = "notifications"
	KeyAutoBackup           = "autoBackup"
	KeyNavigationInProgress = "navigationInProgress"
)

// ErrUnavailable wraps any failure of the underlying storage medium.
var ErrUnavailable = errors.New("storage unavailable")

// Store is string-keyed persistent storage. Get reports ok=false for a
// missing key; a storage failure is returned as an error wrapping
// ErrUnavailable.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// Open returns the store selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFile:
		return NewFileStore(cfg.StorePath)
	case config.StoreSQLite:
		return NewSQLiteStore(ctx, cfg.StorePath)
	case config.StoreRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
