// ABOUTME: Manages the recent matrix searches list
// ABOUTME: Stores up to five queries, newest first, in the key-value store

package matrix

import (
	"context"
	"encoding/json"

	"github.com/markalston/maarif-planner/internal/kvstore"
)

// MaxRecentSearches is the maximum number of recent queries to keep
const MaxRecentSearches = 5

// Recent manages the list of recently searched queries
type Recent struct {
	kv kvstore.Store
}

// NewRecent creates a Recent manager backed by kv
func NewRecent(kv kvstore.Store) *Recent {
	return &Recent{kv: kv}
}

// Load reads the list. A missing or corrupt entry is an empty list.
func (r *Recent) Load(ctx context.Context) ([]string, error) {
	raw, ok, err := r.kv.Get(ctx, kvstore.KeyRecentMatrixSearches)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		// Invalid JSON, start fresh
		return []string{}, nil
	}
	if len(queries) > MaxRecentSearches {
		queries = queries[:MaxRecentSearches]
	}
	return queries, nil
}

// Save writes the list, trimmed to the maximum
func (r *Recent) Save(ctx context.Context, queries []string) error {
	if len(queries) > MaxRecentSearches {
		queries = queries[:MaxRecentSearches]
	}
	data, err := json.Marshal(queries)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, kvstore.KeyRecentMatrixSearches, string(data))
}

// Add puts query at the front, dropping an exact duplicate further down
func (r *Recent) Add(ctx context.Context, query string) ([]string, error) {
	current, err := r.Load(ctx)
	if err != nil {
		current = []string{}
	}

	updated := make([]string, 0, len(current)+1)
	updated = append(updated, query)
	for _, q := range current {
		if q != query {
			updated = append(updated, q)
		}
	}
	if len(updated) > MaxRecentSearches {
		updated = updated[:MaxRecentSearches]
	}
	return updated, r.Save(ctx, updated)
}

// Clear removes the list
func (r *Recent) Clear(ctx context.Context) error {
	return r.kv.Remove(ctx, kvstore.KeyRecentMatrixSearches)
}
