// ABOUTME: Register, login and profile handlers for the fake backend
// ABOUTME: Passwords are bcrypt hashed; tokens are HS256 JWTs with user_id

package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/markalston/maarif-planner/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type registerBody struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Password   string          `json:"password"`
	School     *string         `json:"school"`
	ClassName  *string         `json:"className"`
	AgeDefault *models.AgeBand `json:"ageDefault"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "name, email and password are required")
		return
	}

	ageDefault := models.DefaultAgeBand
	if body.AgeDefault != nil && *body.AgeDefault != "" {
		ageDefault = *body.AgeDefault
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not hash password")
		return
	}

	key := strings.ToLower(body.Email)
	s.mu.Lock()
	if _, exists := s.accounts[key]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	acct := &account{
		user: models.User{
			ID:         uuid.NewString(),
			Email:      body.Email,
			Name:       body.Name,
			School:     body.School,
			ClassName:  body.ClassName,
			AgeDefault: ageDefault,
		},
		passwordHash: hash,
	}
	s.accounts[key] = acct
	s.usersByID[acct.user.ID] = acct
	s.mu.Unlock()

	s.respondWithToken(w, acct.user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(body.Email)]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(body.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondWithToken(w, acct.user)
}

func (s *Server) respondWithToken(w http.ResponseWriter, user models.User) {
	token, err := s.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acct := s.usersByID[userIDFromContext(r.Context())]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, acct.user)
}

// AddUser registers an account directly and returns it with a valid token.
func (s *Server) AddUser(user models.User, password string) (models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, "", err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.AgeDefault == "" {
		user.AgeDefault = models.DefaultAgeBand
	}
	acct := &account{user: user, passwordHash: hash}

	s.mu.Lock()
	s.accounts[strings.ToLower(user.Email)] = acct
	s.usersByID[user.ID] = acct
	s.mu.Unlock()

	token, err := s.issueToken(user.ID)
	return user, token, err
}
