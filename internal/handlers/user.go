package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jason-s-yu/bridgetrainer/internal/database"
	"github.com/jason-s-yu/bridgetrainer/internal/middleware"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c credentials) valid() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// CreateUserHandler registers a new user.
//
// Request payload:
//
//	{
//	  "username": "declarer",
//	  "password": "password"
//	}
func (s *APIServer) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	}
	if err := s.Users.CreateUser(r.Context(), &user); err != nil {
		s.fail(w, r, err, "error creating user")
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler checks the credentials and returns a session token, also sent as the auth_token cookie.
func (s *APIServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := s.Users.AuthenticateUser(r.Context(), req.Username, req.Password)
	if errors.Is(err, database.ErrInvalidCredentials) {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}
	if err != nil {
		s.fail(w, r, err, "authentication failed")
		return
	}
	s.issue(w, r, user, http.StatusOK)
}

// GuestHandler creates an ephemeral user so a visitor can train without registering.
func (s *APIServer) GuestHandler(w http.ResponseWriter, r *http.Request) {
	guest := models.User{Username: "guest-" + uuid.NewString()[:8], IsEphemeral: true}
	if err := s.Users.CreateUser(r.Context(), &guest); err != nil {
		s.fail(w, r, err, "failed to create guest")
		return
	}
	s.issue(w, r, &guest, http.StatusCreated)
}

func (s *APIServer) issue(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := s.Tokens.CreateToken(user.ID)
	if err != nil {
		s.fail(w, r, err, "failed to create token")
		return
	}
	s.setTokenCookie(w, token)
	user.Password = ""
	writeJSON(w, status, loginResponse{Token: token, User: user})
}

// ClaimGuestHandler gives the current guest a username and password, keeping its rating.
func (s *APIServer) ClaimGuestHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.UserID(r.Context())
	u, err := s.Users.GetUserByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "user not found")
		return
	}
	if !u.IsEphemeral {
		http.Error(w, "user is not a guest", http.StatusBadRequest)
		return
	}

	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		http.Error(w, "invalid claim payload", http.StatusBadRequest)
		return
	}
	u.Username = strings.TrimSpace(req.Username)
	u.Password = req.Password
	if err := s.Users.ClaimUser(r.Context(), u); err != nil {
		s.fail(w, r, err, "failed to claim guest")
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusOK, u)
}

func (s *APIServer) MeHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.UserID(r.Context())
	u, err := s.Users.GetUserByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "user not found")
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusOK, u)
}

// AttemptsHandler lists the caller's recent attempts. ?limit= caps the count (default 50).
func (s *APIServer) AttemptsHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.UserID(r.Context())
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	attempts, err := s.Users.ListAttempts(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err, "failed to list attempts")
		return
	}
	if attempts == nil {
		attempts = []models.Attempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}
