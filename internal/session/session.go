// ABOUTME: Session store owning the bearer token and cached user profile
// ABOUTME: Wraps the device key-value store; passed explicitly to every controller

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/models"
)

// Store holds {token, user}. Having a token says the user authenticated at
// some point; whether it is still valid is only learned from the next API
// response.
type Store struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// KV exposes the underlying store for components that keep their own keys.
func (s *Store) KV() kvstore.Store {
	return s.kv
}

// Token returns the stored token. ok is false when no session exists. A
// storage failure is returned as an error; callers treat it as
// unauthenticated.
func (s *Store) Token(ctx context.Context) (token string, ok bool, err error) {
	token, ok, err = s.kv.Get(ctx, kvstore.KeyAuthToken)
	if err != nil {
		return "", false, fmt.Errorf("reading token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, ok, nil
}

// SetSession writes the token, then the user. The writes are not atomic: a
// failure between them leaves a token without a cached profile.
func (s *Store) SetSession(ctx context.Context, token string, user models.User) error {
	if err := s.kv.Set(ctx, kvstore.KeyAuthToken, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := s.SaveUser(ctx, user); err != nil {
		return err
	}
	return nil
}

// Clear removes the token and the cached profile.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, kvstore.KeyAuthToken, kvstore.KeyUser); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// User returns the cached profile, or nil when none is stored. A corrupt
// entry is reported as absent.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	raw, ok, err := s.kv.Get(ctx, kvstore.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("reading user: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, nil
	}
	return &u, nil
}

// SaveUser overwrites the cached profile only. Profile edits are
// device-local; the backend has no profile update endpoint.
func (s *Store) SaveUser(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.KeyUser, string(data)); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// SetNavigationInProgress marks the window between a successful login and
// the main screen being shown.
func (s *Store) SetNavigationInProgress(ctx context.Context, inProgress bool) error {
	if !inProgress {
		return s.kv.Remove(ctx, kvstore.KeyNavigationInProgress)
	}
	return s.kv.Set(ctx, kvstore.KeyNavigationInProgress, "true")
}

func (s *Store) NavigationInProgress(ctx context.Context) (bool, error) {
	v, ok, err := s.kv.Get(ctx, kvstore.KeyNavigationInProgress)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}
