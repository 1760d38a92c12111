// ABOUTME: Login, register, logout and the launch-time session check
// ABOUTME: Validates input locally and persists the session on success

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
)

// MinPasswordLength is the shortest password register accepts.
const MinPasswordLength = 6

// State is where the flow is between anonymous and authenticated.
type State int

const (
	Anonymous State = iota
	Submitting
	Authenticated
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Authenticated:
		return "authenticated"
	}
	return "anonymous"
}

var (
	// ErrBusy means a login or register is already in flight.
	ErrBusy = errors.New("a request is already in progress")
)

// ValidationError is a local input rejection. No request was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RegisterInput is the raw register form.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	School          string
	ClassName       string
	AgeDefault      models.AgeBand
}

// Flow drives authentication against the backend and the session store.
type Flow struct {
	client  *client.Client
	session *session.Store

	mu    sync.Mutex
	state State
}

// NewFlow starts in Authenticated when a token is already stored.
func NewFlow(ctx context.Context, c *client.Client, s *session.Store) *Flow {
	f := &Flow{client: c, session: s}
	if _, ok, err := s.Token(ctx); err == nil && ok {
		f.state = Authenticated
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) begin() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return f.state, ErrBusy
	}
	prev := f.state
	f.state = Submitting
	return prev, nil
}

func (f *Flow) finish(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateLogin checks the login form.
func ValidateLogin(email, password string) error {
	if NormalizeEmail(email) == "" || password == "" {
		return &ValidationError{Message: "email and password are required"}
	}
	return nil
}

// ValidateRegister checks the register form in the order the user sees the
// messages.
func ValidateRegister(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" || NormalizeEmail(in.Email) == "" || in.Password == "" {
		return &ValidationError{Message: "name, email and password are required"}
	}
	if in.Password != in.ConfirmPassword {
		return &ValidationError{Message: "passwords do not match"}
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return &ValidationError{Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if in.AgeDefault != "" && !in.AgeDefault.Valid() {
		return &ValidationError{Message: fmt.Sprintf("invalid age band %q", in.AgeDefault)}
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Login authenticates and persists the session.
func (f *Flow) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}
	prev, err := f.begin()
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Login(ctx, NormalizeEmail(email), password)
	if err != nil {
		f.finish(prev)
		return nil, err
	}
	if err := f.establish(ctx, resp); err != nil {
		f.finish(prev)
		return nil, err
	}
	slog.Info("Logged in", "user_id", resp.User.ID)
	return &resp.User, nil
}

// Register creates the account and persists the session.
func (f *Flow) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := ValidateRegister(in); err != nil {
		return nil, err
	}
	prev, err := f.begin()
	if err != nil {
		return nil, err
	}

	ageDefault := in.AgeDefault
	if ageDefault == "" {
		ageDefault = models.DefaultAgeBand
	}
	resp, err := f.client.Register(ctx, &client.RegisterRequest{
		Name:       strings.TrimSpace(in.Name),
		Email:      NormalizeEmail(in.Email),
		Password:   in.Password,
		School:     optional(in.School),
		ClassName:  optional(in.ClassName),
		AgeDefault: ageDefault,
	})
	if err != nil {
		f.finish(prev)
		return nil, err
	}
	if err := f.establish(ctx, resp); err != nil {
		f.finish(prev)
		return nil, err
	}
	slog.Info("Registered", "user_id", resp.User.ID)
	return &resp.User, nil
}

func (f *Flow) establish(ctx context.Context, resp *models.AuthResponse) error {
	if err := f.session.SetSession(ctx, resp.Token, resp.User); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := f.session.SetNavigationInProgress(ctx, true); err != nil {
		slog.Warn("failed to set navigation flag", "error", err)
	}
	f.finish(Authenticated)
	return nil
}

// Arrived clears the navigation flag once the main screen is showing.
func (f *Flow) Arrived(ctx context.Context) error {
	return f.session.SetNavigationInProgress(ctx, false)
}

// Logout clears the session. It never contacts the backend.
func (f *Flow) Logout(ctx context.Context) error {
	err := f.session.Clear(ctx)
	f.finish(Anonymous)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Unauthorized records that the client cleared the session after a 401.
func (f *Flow) Unauthorized() {
	f.finish(Anonymous)
}

// LaunchResult is the outcome of CheckOnLaunch.
type LaunchResult int

const (
	// LaunchAnonymous means no usable token: none stored, or the backend
	// rejected it and it has been cleared.
	LaunchAnonymous LaunchResult = iota
	// LaunchAuthenticated means the backend accepted the token.
	LaunchAuthenticated
	// LaunchUncertain means the backend could not be reached in time. The
	// token is kept but the user is treated as logged out for now.
	LaunchUncertain
)

func (r LaunchResult) String() string {
	switch r {
	case LaunchAuthenticated:
		return "authenticated"
	case LaunchUncertain:
		return "uncertain"
	}
	return "anonymous"
}

// CheckOnLaunch validates the stored token with GET /api/auth/me, bounded
// by timeout. On success the cached profile is refreshed. A stale
// navigation flag is removed regardless of the outcome.
func (f *Flow) CheckOnLaunch(ctx context.Context, timeout time.Duration) (LaunchResult, *models.User, error) {
	if err := f.session.SetNavigationInProgress(ctx, false); err != nil {
		slog.Debug("failed to clear navigation flag", "error", err)
	}

	_, ok, err := f.session.Token(ctx)
	if err != nil || !ok {
		f.finish(Anonymous)
		return LaunchAnonymous, nil, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	user, err := f.client.Me(checkCtx)
	switch {
	case err == nil:
		if err := f.session.SaveUser(ctx, *user); err != nil {
			slog.Warn("failed to refresh cached profile", "error", err)
		}
		f.finish(Authenticated)
		return LaunchAuthenticated, user, nil
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNoSession):
		f.finish(Anonymous)
		return LaunchAnonymous, nil, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, client.ErrNetwork):
		slog.Warn("launch auth check inconclusive", "error", err)
		f.finish(Anonymous)
		return LaunchUncertain, nil, err
	default:
		f.finish(Anonymous)
		return LaunchUncertain, nil, err
	}
}

// FailureMessage is the text shown for a failed login or register: the
// server's own message when it sent one, otherwise a connection hint.
func FailureMessage(err error) string {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return "request failed"
	}
	if errors.Is(err, ErrBusy) {
		return err.Error()
	}
	return "connection error, please try again"
}
