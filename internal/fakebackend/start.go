// ABOUTME: httptest helpers for running the fake backend inside tests
// ABOUTME: Also provides the seeding helpers used by the dev-server command

package fakebackend

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/markalston/maarif-planner/internal/models"
)

// TestSecret signs tokens issued by servers created with Start.
const TestSecret = "fake-backend-test-secret"

// Start runs a fresh backend on a loopback listener until the test ends.
func Start(tb testing.TB) (*Server, *httptest.Server) {
	tb.Helper()
	s := New(TestSecret)
	ts := httptest.NewServer(s.Handler())
	tb.Cleanup(ts.Close)
	return s, ts
}

// MustAddUser registers a teacher and returns a valid token.
func MustAddUser(tb testing.TB, s *Server, email, password string) (models.User, string) {
	tb.Helper()
	user := models.User{Email: email, Name: "Test Teacher", AgeDefault: models.AgeBand48to60}
	user, token, err := s.AddUser(user, password)
	if err != nil {
		tb.Fatalf("add user: %v", err)
	}
	return user, token
}

// MustAddPlan stores a plan owned by userID and returns its id.
func MustAddPlan(tb testing.TB, s *Server, userID string, typ models.PlanType, plan models.Plan) string {
	tb.Helper()
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt == "" {
		plan.CreatedAt = s.now().UTC().Format("2006-01-02T15:04:05Z")
	}
	s.mu.Lock()
	s.plans[typ][plan.ID] = &storedPlan{owner: userID, plan: plan}
	s.mu.Unlock()
	return plan.ID
}

// RandomSecret returns a signing secret for a single dev-server run. Tokens
// do not survive a restart.
func RandomSecret() string {
	return uuid.NewString() + uuid.NewString()
}

// SeedUser is the account created by dev-server --seed-email.
func SeedUser(email string) models.User {
	return models.User{Email: strings.TrimSpace(email), Name: "Demo Teacher", AgeDefault: models.DefaultAgeBand}
}
