// internal/handlers/api_server.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/bridgetrainer/internal/auth"
	"github.com/jason-s-yu/bridgetrainer/internal/database"
	"github.com/jason-s-yu/bridgetrainer/internal/middleware"
	"github.com/jason-s-yu/bridgetrainer/internal/models"
	"github.com/jason-s-yu/bridgetrainer/internal/quiz"
	"github.com/jason-s-yu/bridgetrainer/internal/render"
)

// UserStore is the user persistence the API needs. database.Store implements it.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	ClaimUser(ctx context.Context, u *models.User) error
	ListAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]models.Attempt, error)
}

// DealStore is the deal persistence behind the admin endpoints.
type DealStore interface {
	InsertDeal(ctx context.Context, d *models.Deal) error
	InsertDeals(ctx context.Context, deals []*models.Deal) error
	GetDeal(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	ListDeals(ctx context.Context) ([]*models.Deal, error)
	EditDeal(ctx context.Context, id uuid.UUID, edit func(d *models.Deal) error) (*models.Deal, error)
	DeleteAllDeals(ctx context.Context) (int64, error)
}

// APIServer holds everything the HTTP handlers depend on.
type APIServer struct {
	Users    UserStore
	Deals    DealStore
	Trainer  *quiz.Trainer
	Tokens   *auth.Issuer
	Renderer render.Renderer
	Log      logrus.FieldLogger
}

// Routes registers every endpoint and wraps the mux in request logging.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()
	user := middleware.RequireUser(s.Tokens)

	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	// user endpoints
	mux.HandleFunc("POST /user/create", s.CreateUserHandler)
	mux.HandleFunc("POST /user/login", s.LoginHandler)
	mux.HandleFunc("POST /user/guest", s.GuestHandler)
	mux.Handle("POST /user/claim", user(http.HandlerFunc(s.ClaimGuestHandler)))
	mux.Handle("GET /user/me", user(http.HandlerFunc(s.MeHandler)))
	mux.Handle("GET /user/attempts", user(http.HandlerFunc(s.AttemptsHandler)))

	// training
	mux.Handle("GET /problem/next", user(http.HandlerFunc(s.NextProblemHandler)))
	mux.Handle("POST /problem/answer", user(http.HandlerFunc(s.AnswerHandler)))

	// deal administration
	admin := func(h http.HandlerFunc) http.Handler { return user(s.requireAdmin(h)) }
	mux.Handle("GET /deals", admin(s.ListDealsHandler))
	mux.Handle("POST /deals", admin(s.CreateDealHandler))
	mux.Handle("DELETE /deals", admin(s.ResetDealsHandler))
	mux.Handle("GET /deals/export", admin(s.ExportDealsHandler))
	mux.Handle("POST /deals/import", admin(s.ImportDealsHandler))
	mux.Handle("GET /deals/{id}", admin(s.GetDealHandler))
	mux.Handle("PATCH /deals/{id}", admin(s.EditDealHandler))
	mux.Handle("GET /deals/{id}/diagram", admin(s.DealDiagramHandler))

	return middleware.LogMiddleware(s.Log)(mux)
}

// requireAdmin runs after RequireUser and rejects non-admin users.
func (s *APIServer) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.UserID(r.Context())
		u, err := s.Users.GetUserByID(r.Context(), id)
		if err != nil {
			s.fail(w, r, err, "user not found")
			return
		}
		if !u.IsAdmin {
			http.Error(w, "admin only", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func (s *APIServer) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   int(s.Tokens.TTL / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail maps an error to a status code. Unexpected errors are logged and reported as 500.
func (s *APIServer) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, msg, http.StatusNotFound)
	case errors.Is(err, database.ErrConflict):
		http.Error(w, msg+": already exists", http.StatusConflict)
	case errors.Is(err, quiz.ErrNoPendingProblem), errors.Is(err, quiz.ErrProblemMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.Log.WithError(err).WithField("path", r.URL.Path).Error(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
