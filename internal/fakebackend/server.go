// ABOUTME: In-memory implementation of the planning backend HTTP contract
// ABOUTME: Serves tests and the dev-server command; state is lost on exit

package fakebackend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/markalston/maarif-planner/internal/models"
)

// ChatFunc produces the assistant reply for a chat request. A non-nil error
// is answered with 500 and the error text as detail.
type ChatFunc func(req models.ChatRequest) (json.RawMessage, error)

type account struct {
	user         models.User
	passwordHash []byte
}

type storedPlan struct {
	owner string
	plan  models.Plan
}

type storedPhoto struct {
	owner  string
	planID string
	photo  models.PortfolioPhoto
}

// Server holds all backend state behind one mutex.
type Server struct {
	secret   []byte
	tokenTTL time.Duration

	mu         sync.Mutex
	accounts   map[string]*account // by lower-cased email
	usersByID  map[string]*account
	revoked    map[string]bool
	plans      map[models.PlanType]map[string]*storedPlan
	photos     map[string]*storedPhoto
	matrix     []models.MatrixResult
	chat       ChatFunc
	wrapMatrix bool
	requests   []string
	chatLog    []models.ChatRequest
	now        func() time.Time
}

// New creates a backend signing tokens with secret.
func New(secret string) *Server {
	s := &Server{
		secret:    []byte(secret),
		tokenTTL:  7 * 24 * time.Hour,
		accounts:  make(map[string]*account),
		usersByID: make(map[string]*account),
		revoked:   make(map[string]bool),
		plans: map[models.PlanType]map[string]*storedPlan{
			models.PlanDaily:   {},
			models.PlanMonthly: {},
		},
		photos: make(map[string]*storedPhoto),
		matrix: append([]models.MatrixResult(nil), seedMatrix...),
		now:    time.Now,
	}
	s.chat = s.defaultChat
	return s
}

// Handler returns the router for /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)

			r.Get("/plans/{type}", s.handleListPlans)
			r.Post("/plans/{type}", s.handleCreatePlan)
			r.Get("/plans/{type}/{id}", s.handleGetPlan)
			r.Delete("/plans/{type}/{id}", s.handleDeletePlan)

			r.Get("/plans/daily/{id}/portfolio", s.handleListPortfolio)
			r.Post("/plans/daily/{id}/portfolio", s.handleAddPortfolio)
			r.Delete("/portfolio/{id}", s.handleDeletePortfolio)

			r.Post("/ai/chat", s.handleChat)
			r.Get("/matrix/search", s.handleMatrixSearch)
			r.Post("/matrix/search", s.handleMatrixSearch)
		})
	})
	return r
}

// SetChat replaces the assistant.
func (s *Server) SetChat(fn ChatFunc) {
	s.mu.Lock()
	s.chat = fn
	s.mu.Unlock()
}

// WrapMatrixResults switches search responses to the {"results": [...]} shape.
func (s *Server) WrapMatrixResults(wrap bool) {
	s.mu.Lock()
	s.wrapMatrix = wrap
	s.mu.Unlock()
}

// Revoke makes token fail authentication from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
}

// Requests returns "METHOD /path" for every request served, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestCount returns how many requests were served.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// ChatRequests returns every chat request body received.
func (s *Server) ChatRequests() []models.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatRequest(nil), s.chatLog...)
}

// record logs each request and keeps it for Requests.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		line := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			line += "?" + r.URL.RawQuery
		}
		s.mu.Lock()
		s.requests = append(s.requests, line)
		s.mu.Unlock()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Debug("fake backend request",
			"request_id", r.Header.Get("X-Request-ID"),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type userKey struct{}

type tokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID string) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var claims tokenClaims
		_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		acct, ok := s.usersByID[claims.UserID]
		revoked := s.revoked[token]
		s.mu.Unlock()
		if !ok || revoked {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, acct.user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}
