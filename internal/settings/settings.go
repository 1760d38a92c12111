// ABOUTME: Device-local preferences and cache maintenance
// ABOUTME: Booleans are stored as JSON; clearing the cache never touches the session

package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/markalston/maarif-planner/internal/kvstore"
)

// Settings are the device preferences.
type Settings struct {
	Notifications bool `json:"notifications"`
	AutoBackup    bool `json:"autoBackup"`
}

// Defaults apply when nothing has been stored.
var Defaults = Settings{Notifications: true, AutoBackup: false}

// cacheKeys are removed by ClearCache.
var cacheKeys = []string{kvstore.KeyRecentMatrixSearches}

// Store reads and writes preferences.
type Store struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

func (s *Store) getBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil
	}
	return v, nil
}

// Load returns the stored preferences, falling back to Defaults per key.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	notifications, err := s.getBool(ctx, kvstore.KeyNotifications, Defaults.Notifications)
	if err != nil {
		return Defaults, fmt.Errorf("reading notifications: %w", err)
	}
	autoBackup, err := s.getBool(ctx, kvstore.KeyAutoBackup, Defaults.AutoBackup)
	if err != nil {
		return Defaults, fmt.Errorf("reading autoBackup: %w", err)
	}
	return Settings{Notifications: notifications, AutoBackup: autoBackup}, nil
}

func (s *Store) SetNotifications(ctx context.Context, on bool) error {
	return s.kv.Set(ctx, kvstore.KeyNotifications, strconv.FormatBool(on))
}

func (s *Store) SetAutoBackup(ctx context.Context, on bool) error {
	return s.kv.Set(ctx, kvstore.KeyAutoBackup, strconv.FormatBool(on))
}

// Set updates one preference by name: notifications or autoBackup.
func (s *Store) Set(ctx context.Context, name string, on bool) error {
	switch name {
	case "notifications":
		return s.SetNotifications(ctx, on)
	case "autoBackup", "auto-backup":
		return s.SetAutoBackup(ctx, on)
	}
	return fmt.Errorf("unknown setting %q (want notifications or autoBackup)", name)
}

// ClearCache removes cached data such as recent searches. The session is
// kept.
func (s *Store) ClearCache(ctx context.Context) error {
	return s.kv.Remove(ctx, cacheKeys...)
}
