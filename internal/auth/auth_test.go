// ABOUTME: Tests for the authentication flow
// ABOUTME: Covers validation, session persistence, logout and the launch check

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/fakebackend"
	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
)

func newFlow(t *testing.T) (*Flow, *session.Store, *fakebackend.Server) {
	t.Helper()
	backend, ts := fakebackend.Start(t)
	sess := session.New(kvstore.NewMemoryStore())
	c := client.New(ts.URL, sess)
	return NewFlow(context.Background(), c, sess), sess, backend
}

func TestLogin_StoresTokenAndUser(t *testing.T) {
	f, sess, backend := newFlow(t)
	ctx := context.Background()
	fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")

	user, err := f.Login(ctx, "  Teacher@Example.COM ", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "teacher@example.com" {
		t.Errorf("email = %q", user.Email)
	}
	if f.State() != Authenticated {
		t.Errorf("state = %v, want authenticated", f.State())
	}
	if _, ok, _ := sess.Token(ctx); !ok {
		t.Error("expected a stored token")
	}
	if inProgress, _ := sess.NavigationInProgress(ctx); !inProgress {
		t.Error("expected navigation flag after login")
	}

	if err := f.Arrived(ctx); err != nil {
		t.Fatalf("Arrived: %v", err)
	}
	if inProgress, _ := sess.NavigationInProgress(ctx); inProgress {
		t.Error("expected navigation flag cleared after arrival")
	}
}

func TestLogin_Rejected(t *testing.T) {
	f, sess, backend := newFlow(t)
	ctx := context.Background()
	fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")

	_, err := f.Login(ctx, "teacher@example.com", "nope")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := FailureMessage(err); got != "Invalid credentials" {
		t.Errorf("FailureMessage = %q", got)
	}
	if f.State() != Anonymous {
		t.Errorf("state = %v, want anonymous", f.State())
	}
	if _, ok, _ := sess.Token(ctx); ok {
		t.Error("expected no token after a rejected login")
	}
}

func TestLogin_ConnectionErrorMessage(t *testing.T) {
	sess := session.New(kvstore.NewMemoryStore())
	f := NewFlow(context.Background(), client.New("http://127.0.0.1:1", sess), sess)

	_, err := f.Login(context.Background(), "a@b.c", "secret1")
	if !errors.Is(err, client.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if got := FailureMessage(err); got != "connection error, please try again" {
		t.Errorf("FailureMessage = %q", got)
	}
}

func TestValidation_NoRequestSent(t *testing.T) {
	valid := RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret1"}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		want   string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = " " }, "name, email and password are required"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "name, email and password are required"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "secret2" }, "passwords do not match"},
		{"short", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc12", "abc12" }, "password must be at least 6 characters"},
		{"short multibyte", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "çğş", "çğş" }, "password must be at least 6 characters"},
		{"bad band", func(in *RegisterInput) { in.AgeDefault = "12_24" }, `invalid age band "12_24"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, backend := newFlow(t)
			in := valid
			tt.mutate(&in)

			_, err := f.Register(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
			if n := backend.RequestCount(); n != 0 {
				t.Errorf("backend saw %d requests, want 0", n)
			}
		})
	}

	t.Run("login empty password", func(t *testing.T) {
		f, _, backend := newFlow(t)
		if _, err := f.Login(context.Background(), "a@b.c", ""); err == nil {
			t.Error("expected validation error")
		}
		if backend.RequestCount() != 0 {
			t.Error("expected no request")
		}
	})
}

func TestRegister_OptionalFieldsAndDefaults(t *testing.T) {
	f, sess, _ := newFlow(t)
	ctx := context.Background()

	user, err := f.Register(ctx, RegisterInput{
		Name: " Ayse ", Email: "AYSE@example.com", Password: "secret1", ConfirmPassword: "secret1",
		School: "  ", ClassName: "Bees",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.School != nil {
		t.Errorf("school = %q, want nil", *user.School)
	}
	if user.ClassName == nil || *user.ClassName != "Bees" {
		t.Errorf("className = %v", user.ClassName)
	}
	if user.AgeDefault != models.DefaultAgeBand {
		t.Errorf("ageDefault = %q", user.AgeDefault)
	}
	cached, _ := sess.User(ctx)
	if cached == nil || cached.Name != "Ayse" {
		t.Errorf("cached user = %+v", cached)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	f, sess, backend := newFlow(t)
	ctx := context.Background()
	fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")
	if _, err := f.Login(ctx, "teacher@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	before := backend.RequestCount()

	if err := f.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok, _ := sess.Token(ctx); ok {
		t.Error("token survived logout")
	}
	if u, _ := sess.User(ctx); u != nil {
		t.Error("user survived logout")
	}
	if f.State() != Anonymous {
		t.Errorf("state = %v", f.State())
	}
	if backend.RequestCount() != before {
		t.Error("logout must not contact the backend")
	}
}

func TestCheckOnLaunch(t *testing.T) {
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		f, _, backend := newFlow(t)
		result, _, err := f.CheckOnLaunch(ctx, time.Second)
		if err != nil || result != LaunchAnonymous {
			t.Errorf("result = %v, %v", result, err)
		}
		if backend.RequestCount() != 0 {
			t.Error("expected no request without a token")
		}
	})

	t.Run("valid token refreshes profile", func(t *testing.T) {
		f, sess, backend := newFlow(t)
		user, token := fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")
		stale := user
		stale.Name = "Old Name"
		sess.SetSession(ctx, token, stale)
		sess.SetNavigationInProgress(ctx, true)

		result, got, err := f.CheckOnLaunch(ctx, time.Second)
		if err != nil || result != LaunchAuthenticated {
			t.Fatalf("result = %v, %v", result, err)
		}
		if got.Name != user.Name {
			t.Errorf("user name = %q", got.Name)
		}
		cached, _ := sess.User(ctx)
		if cached.Name != user.Name {
			t.Errorf("cached name = %q, want refreshed %q", cached.Name, user.Name)
		}
		if inProgress, _ := sess.NavigationInProgress(ctx); inProgress {
			t.Error("stale navigation flag not cleared")
		}
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		f, sess, backend := newFlow(t)
		user, token := fakebackend.MustAddUser(t, backend, "teacher@example.com", "secret1")
		sess.SetSession(ctx, token, user)
		backend.Revoke(token)

		result, _, _ := f.CheckOnLaunch(ctx, time.Second)
		if result != LaunchAnonymous {
			t.Errorf("result = %v", result)
		}
		if _, ok, _ := sess.Token(ctx); ok {
			t.Error("rejected token kept")
		}
	})

	t.Run("timeout keeps token", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		sess := session.New(kvstore.NewMemoryStore())
		sess.SetSession(ctx, "tok", models.User{ID: "u1"})
		f := NewFlow(ctx, client.New(server.URL, sess), sess)

		result, _, err := f.CheckOnLaunch(ctx, 30*time.Millisecond)
		if result != LaunchUncertain {
			t.Errorf("result = %v, want uncertain", result)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v", err)
		}
		if tok, ok, _ := sess.Token(ctx); !ok || tok != "tok" {
			t.Error("token must survive an inconclusive check")
		}
	})
}
