// ABOUTME: Curriculum matrix search and subject area lookup
// ABOUTME: Results are returned exactly as the backend ordered them

package matrix

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/models"
)

// ErrEmptyQuery means nothing was typed; no request is sent.
var ErrEmptyQuery = errors.New("enter a search term")

// Searcher runs matrix searches and records them as recent.
type Searcher struct {
	client *client.Client
	recent *Recent
}

func NewSearcher(c *client.Client, recent *Recent) *Searcher {
	return &Searcher{client: c, recent: recent}
}

// Recent returns the recent-searches store.
func (s *Searcher) Recent() *Recent { return s.recent }

// Search records query as recent and asks the backend. ageBand may be
// empty for no filter. Without a session nothing is recorded; once a
// token is present the query is remembered even when the request fails.
func (s *Searcher) Search(ctx context.Context, query string, ageBand models.AgeBand) ([]models.MatrixResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !s.client.HasSession(ctx) {
		return nil, client.ErrNoSession
	}
	if _, err := s.recent.Add(ctx, query); err != nil {
		slog.Warn("failed to save recent search", "error", err)
	}
	return s.client.SearchMatrix(ctx, query, ageBand)
}

type area struct {
	prefix string
	label  string
}

// Longer prefixes first so TADB is not read as a shorter code.
var areas = []area{
	{"TADB", "Turkish language"},
	{"FBAB", "Science"},
	{"SBAB", "Social studies"},
	{"HSAB", "Movement and health"},
	{"SNAB", "Art"},
	{"MAB", "Mathematics"},
	{"MHB", "Music"},
}

// SubjectArea maps a curriculum code to its learning area, or "" when
// the prefix is unknown.
func SubjectArea(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, a := range areas {
		if strings.HasPrefix(code, a.prefix) {
			return a.label
		}
	}
	return ""
}
