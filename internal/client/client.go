// ABOUTME: HTTP client for the lesson-planning backend
// ABOUTME: Attaches the session token and maps failures to a small error taxonomy

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markalston/maarif-planner/internal/models"
)

var (
	// ErrNoSession means no token is stored; the request was never sent.
	ErrNoSession = errors.New("not logged in")
	// ErrUnauthorized means the backend rejected the token. The session has
	// already been cleared when this is returned.
	ErrUnauthorized = errors.New("session expired, please log in again")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
	// ErrNetwork means the request never reached the server.
	ErrNetwork = errors.New("cannot reach the server, check your connection")
)

// APIError is a non-2xx response other than an authentication rejection.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Session is the token source the client reads before every authenticated
// request and clears when the backend rejects the token.
type Session interface {
	Token(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
}

// Client is the API client for the planning backend. It holds no state
// besides its collaborators: no caching, no deduplication, no retries.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	session        Session
	onUnauthorized func()
}

// New creates a client. Requests carry no client-side deadline; callers
// bound them with ctx where needed.
func New(baseURL string, sess Session) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		session:    sess,
	}
}

// BaseURL returns the backend URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasSession reports whether a token is stored. A storage failure counts
// as no session.
func (c *Client) HasSession(ctx context.Context) bool {
	_, ok, err := c.session.Token(ctx)
	return err == nil && ok
}

// OnUnauthorized registers fn to run after a 401 has cleared the session.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

// do sends req and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var token string
	if req.auth {
		tok, ok, err := c.session.Token(ctx)
		if err != nil {
			slog.Warn("session unavailable, treating as logged out", "error", err)
			return fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		if !ok {
			return ErrNoSession
		}
		token = tok
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Debug("api request failed", "method", req.method, "path", req.path, "request_id", requestID, "error", err)
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	slog.Debug("api request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode == http.StatusUnauthorized && req.auth {
		return c.handleUnauthorized(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts transport failures to the error taxonomy
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request canceled: %w", context.Canceled)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", context.DeadlineExceeded)
	}
	return fmt.Errorf("%w (%s): %v", ErrNetwork, c.baseURL, err)
}

// handleUnauthorized clears the session so later calls fail fast with
// ErrNoSession instead of repeating a doomed request.
func (c *Client) handleUnauthorized(ctx context.Context) error {
	if err := c.session.Clear(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("failed to clear session after 401", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return ErrUnauthorized
}

// handleErrorResponse parses {detail} error bodies
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Detail  models.Text `json:"detail"`
		Message string      `json:"message"`
		Error   string      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		switch {
		case body.Detail != "":
			apiErr.Detail = string(body.Detail)
		case body.Message != "":
			apiErr.Detail = body.Message
		case body.Error != "":
			apiErr.Detail = body.Error
		}
	}
	return apiErr
}

// RegisterRequest is the register body. School and ClassName are sent as
// null when nil, never as empty strings.
type RegisterRequest struct {
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	School     *string        `json:"school"`
	ClassName  *string        `json:"className"`
	AgeDefault models.AgeBand `json:"ageDefault"`
}

// Login calls POST /api/auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register calls POST /api/auth/register
func (c *Client) Register(ctx context.Context, in *RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   in,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me calls GET /api/auth/me
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/me", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func plansPath(typ models.PlanType) string {
	return "/api/plans/" + string(typ)
}

// ListDailyPlans calls GET /api/plans/daily bounded by from and to
// (YYYY-MM-DD, inclusive).
func (c *Client) ListDailyPlans(ctx context.Context, from, to string) ([]models.Plan, error) {
	q := url.Values{}
	q.Set("from_date", from)
	q.Set("to_date", to)
	var out []models.Plan
	err := c.do(ctx, request{method: http.MethodGet, path: plansPath(models.PlanDaily), query: q, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlans calls GET /api/plans/{type} for the user's full collection
func (c *Client) ListPlans(ctx context.Context, typ models.PlanType) ([]models.Plan, error) {
	var out []models.Plan
	if err := c.do(ctx, request{method: http.MethodGet, path: plansPath(typ), auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPlan calls GET /api/plans/{type}/{id}
func (c *Client) GetPlan(ctx context.Context, typ models.PlanType, id string) (*models.Plan, error) {
	var out models.Plan
	err := c.do(ctx, request{method: http.MethodGet, path: plansPath(typ) + "/" + url.PathEscape(id), auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePlan calls POST /api/plans/{type}
func (c *Client) CreatePlan(ctx context.Context, typ models.PlanType, plan *models.NewPlan) (*models.Created, error) {
	var out models.Created
	err := c.do(ctx, request{method: http.MethodPost, path: plansPath(typ), body: plan, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlan calls DELETE /api/plans/{type}/{id}
func (c *Client) DeletePlan(ctx context.Context, typ models.PlanType, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: plansPath(typ) + "/" + url.PathEscape(id), auth: true}, nil)
}

// Chat calls POST /api/ai/chat. The reply is returned undecoded because it
// doubles as a candidate plan body.
func (c *Client) Chat(ctx context.Context, in *models.ChatRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/ai/chat", body: in, auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchMatrix calls GET /api/matrix/search. Both a bare array and a
// {"results": [...]} body are accepted.
func (c *Client) SearchMatrix(ctx context.Context, query string, ageBand models.AgeBand) ([]models.MatrixResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if ageBand != "" {
		q.Set("ageBand", string(ageBand))
	}
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/matrix/search", query: q, auth: true}, &raw); err != nil {
		return nil, err
	}

	var results []models.MatrixResult
	if err := json.Unmarshal(raw, &results); err == nil {
		return results, nil
	}
	var wrapped struct {
		Results []models.MatrixResult `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return wrapped.Results, nil
}

// ListPortfolio calls GET /api/plans/daily/{id}/portfolio
func (c *Client) ListPortfolio(ctx context.Context, planID string) ([]models.PortfolioPhoto, error) {
	var out []models.PortfolioPhoto
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   plansPath(models.PlanDaily) + "/" + url.PathEscape(planID) + "/portfolio",
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddPortfolioPhoto calls POST /api/plans/daily/{id}/portfolio
func (c *Client) AddPortfolioPhoto(ctx context.Context, planID string, photo *models.NewPortfolioPhoto) (*models.Created, error) {
	var out models.Created
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   plansPath(models.PlanDaily) + "/" + url.PathEscape(planID) + "/portfolio",
		body:   photo,
		auth:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePortfolioPhoto calls DELETE /api/portfolio/{id}
func (c *Client) DeletePortfolioPhoto(ctx context.Context, photoID string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/portfolio/" + url.PathEscape(photoID), auth: true}, nil)
}
