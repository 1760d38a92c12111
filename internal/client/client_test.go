// ABOUTME: Tests for the planning backend API client
// ABOUTME: Runs against the in-memory fake backend and a few hand-rolled httptest servers

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/markalston/maarif-planner/internal/fakebackend"
	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func loggedIn(t *testing.T) (*Client, *session.Store, *fakebackend.Server, models.User) {
	t.Helper()
	backend, ts := fakebackend.Start(t)
	user, token := fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")

	sess := session.New(kvstore.NewMemoryStore())
	if err := sess.SetSession(context.Background(), token, user); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	return New(ts.URL, sess), sess, backend, user
}

func TestNoSession_RequestNeverSent(t *testing.T) {
	backend, ts := fakebackend.Start(t)
	c := New(ts.URL, session.New(kvstore.NewMemoryStore()))

	_, err := c.ListPlans(context.Background(), models.PlanDaily)
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if n := backend.RequestCount(); n != 0 {
		t.Errorf("expected no requests, backend saw %d", n)
	}
}

func TestStorageUnavailable_TreatedAsNoSession(t *testing.T) {
	backend, ts := fakebackend.Start(t)
	kv := kvstore.NewMemoryStore()
	kv.SetFailing(true)
	c := New(ts.URL, session.New(kv))

	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if n := backend.RequestCount(); n != 0 {
		t.Errorf("expected no requests, backend saw %d", n)
	}
}

func TestUnauthorized_ClearsSessionAndNotifies(t *testing.T) {
	c, sess, backend, _ := loggedIn(t)
	ctx := context.Background()

	tok, _, _ := sess.Token(ctx)
	backend.Revoke(tok)

	notified := 0
	c.OnUnauthorized(func() { notified++ })

	_, err := c.ListPlans(ctx, models.PlanDaily)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if notified != 1 {
		t.Errorf("expected one unauthorized callback, got %d", notified)
	}
	if _, ok, _ := sess.Token(ctx); ok {
		t.Error("expected token to be cleared after 401")
	}
	if u, _ := sess.User(ctx); u != nil {
		t.Errorf("expected user to be cleared, got %+v", u)
	}

	before := backend.RequestCount()
	if _, err := c.ListPlans(ctx, models.PlanDaily); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession on the next call, got %v", err)
	}
	if backend.RequestCount() != before {
		t.Error("expected the follow-up call to be short-circuited")
	}
}

func TestLogin_BadCredentialsIsAPIError(t *testing.T) {
	backend, ts := fakebackend.Start(t)
	fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")
	c := New(ts.URL, session.New(kvstore.NewMemoryStore()))

	_, err := c.Login(context.Background(), "teacher@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Detail != "Invalid credentials" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("login rejection must not look like an expired session")
	}
}

func TestLoginAndRegister(t *testing.T) {
	backend, ts := fakebackend.Start(t)
	fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")
	c := New(ts.URL, session.New(kvstore.NewMemoryStore()))
	ctx := context.Background()

	resp, err := c.Login(ctx, "teacher@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" || resp.User.Email != "teacher@example.com" {
		t.Errorf("unexpected login response %+v", resp)
	}

	reg, err := c.Register(ctx, &RegisterRequest{
		Name: "New", Email: "new@example.com", Password: "secret1", AgeDefault: models.AgeBand36to48,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.School != nil || reg.User.AgeDefault != models.AgeBand36to48 {
		t.Errorf("unexpected register user %+v", reg.User)
	}
}

func TestRegisterRequest_EmptyOptionalsAreNull(t *testing.T) {
	data, err := json.Marshal(&RegisterRequest{Name: "n", Email: "e", Password: "p", AgeDefault: models.DefaultAgeBand})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	json.Unmarshal(data, &fields)
	for _, key := range []string{"school", "className"} {
		v, present := fields[key]
		if !present || v != nil {
			t.Errorf("%s = %v (present %v), want explicit null", key, v, present)
		}
	}
}

func TestListDailyPlans_SendsRangeAndToken(t *testing.T) {
	c, _, backend, user := loggedIn(t)
	fakebackend.MustAddPlan(t, backend, user.ID, models.PlanDaily, models.Plan{Date: "2024-03-15", Title: "Leaves"})
	fakebackend.MustAddPlan(t, backend, user.ID, models.PlanDaily, models.Plan{Date: "2024-04-02", Title: "Rain"})

	plans, err := c.ListDailyPlans(context.Background(), "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ListDailyPlans: %v", err)
	}
	if len(plans) != 1 || plans[0].Title != "Leaves" {
		t.Errorf("unexpected plans %+v", plans)
	}

	reqs := backend.Requests()
	if last := reqs[len(reqs)-1]; last != "GET /api/plans/daily?from_date=2024-03-01&to_date=2024-03-31" {
		t.Errorf("unexpected request line %q", last)
	}
}

func TestPlanLifecycle(t *testing.T) {
	c, _, _, _ := loggedIn(t)
	ctx := context.Background()

	created, err := c.CreatePlan(ctx, models.PlanDaily, &models.NewPlan{
		Date: "2024-03-15", AgeBand: models.AgeBand48to60, Title: "Leaves",
		PlanJSON: json.RawMessage(`{"finalize":true,"theme":"Autumn"}`),
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	plan, err := c.GetPlan(ctx, models.PlanDaily, created.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got := models.DecodePlanContent(plan.PlanJSON).Theme; got != "Autumn" {
		t.Errorf("theme = %q, want Autumn", got)
	}

	if err := c.DeletePlan(ctx, models.PlanDaily, created.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	_, err = c.GetPlan(ctx, models.PlanDaily, created.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "Plan not found" {
		t.Errorf("expected server detail, got %q", err.Error())
	}
}

func TestCreatePlan_ValidationDetailSurfaced(t *testing.T) {
	c, _, _, _ := loggedIn(t)

	_, err := c.CreatePlan(context.Background(), models.PlanDaily, &models.NewPlan{
		Date: "15.03.2024", AgeBand: models.AgeBand48to60, PlanJSON: json.RawMessage(`{}`),
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 APIError, got %v", err)
	}
	if apiErr.Detail != "Invalid date format. Use YYYY-MM-DD format." {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestSearchMatrix_BothResponseShapes(t *testing.T) {
	c, _, backend, _ := loggedIn(t)
	ctx := context.Background()

	for _, wrap := range []bool{false, true} {
		backend.WrapMatrixResults(wrap)
		results, err := c.SearchMatrix(ctx, "count", models.AgeBand48to60)
		if err != nil {
			t.Fatalf("SearchMatrix(wrap=%v): %v", wrap, err)
		}
		var codes []string
		for _, r := range results {
			codes = append(codes, r.Key())
		}
		if diff := cmp.Diff([]string{"MAB.1"}, codes); diff != "" {
			t.Errorf("wrap=%v codes mismatch (-want +got):\n%s", wrap, diff)
		}
	}
}

func TestChat_SendsHistory(t *testing.T) {
	c, _, backend, _ := loggedIn(t)

	req := &models.ChatRequest{
		Message:  "for 2024-03-15 please",
		History:  []models.ChatMessage{{Role: models.RoleUser, Content: "a plan about leaves"}},
		AgeBand:  models.AgeBand48to60,
		PlanType: models.PlanDaily,
	}
	raw, err := c.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !models.DecodePlanContent(raw).Finalize {
		t.Errorf("expected a finalized reply, got %s", raw)
	}

	got := backend.ChatRequests()
	if len(got) != 1 {
		t.Fatalf("expected one chat request, got %d", len(got))
	}
	if diff := cmp.Diff(req.History[0].Content, got[0].History[0].Content); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestPortfolio(t *testing.T) {
	c, _, backend, user := loggedIn(t)
	ctx := context.Background()
	planID := fakebackend.MustAddPlan(t, backend, user.ID, models.PlanDaily, models.Plan{Date: "2024-03-15", Title: "Leaves"})

	created, err := c.AddPortfolioPhoto(ctx, planID, &models.NewPortfolioPhoto{
		PlanID: planID, ActivityTitle: "Leaf counting", PhotoBase64: "data:image/png;base64,AAAA",
	})
	if err != nil {
		t.Fatalf("AddPortfolioPhoto: %v", err)
	}

	photos, err := c.ListPortfolio(ctx, planID)
	if err != nil {
		t.Fatalf("ListPortfolio: %v", err)
	}
	if len(photos) != 1 || photos[0].ID != created.ID {
		t.Errorf("unexpected photos %+v", photos)
	}

	if err := c.DeletePortfolioPhoto(ctx, created.ID); err != nil {
		t.Fatalf("DeletePortfolioPhoto: %v", err)
	}
}

func TestErrorDetailFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Email already registered"}`, "Email already registered"},
		{"detail list", `{"detail":[{"msg":"field required"}]}`, "field required"},
		{"message", `{"message":"boom"}`, "boom"},
		{"not json", `<html>`, "backend returned status 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := New(server.URL, session.New(kvstore.NewMemoryStore()))
			_, err := c.Login(context.Background(), "a@b.c", "x")
			if err == nil || err.Error() != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestConnectionError(t *testing.T) {
	c := New("http://127.0.0.1:1", session.New(kvstore.NewMemoryStore()))
	_, err := c.Login(context.Background(), "a@b.c", "x")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := New(server.URL, session.New(kvstore.NewMemoryStore()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Login(ctx, "a@b.c", "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("timeouts must not be reported as connectivity failures")
	}
}
