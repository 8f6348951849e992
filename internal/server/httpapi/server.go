// Package httpapi exposes the chatgate JSON API over HTTP: the challenge
// images, the registration/login flows, the authenticated chat surface, and
// the admin endpoints. Every JSON response carries a "success" flag plus a
// human-readable "message" on failure.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/chatgate/internal/logging"
	"github.com/dmitrijs2005/chatgate/internal/server/auth"
	"github.com/dmitrijs2005/chatgate/internal/server/captcha"
	"github.com/dmitrijs2005/chatgate/internal/server/config"
	"github.com/dmitrijs2005/chatgate/internal/server/models"
	"github.com/dmitrijs2005/chatgate/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UserService is the account surface the API depends on.
type UserService interface {
	Register(ctx context.Context, name, password, email string) (*models.User, error)
	Login(ctx context.Context, name, password string) (string, *models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdatePassword(ctx context.Context, externalID, oldPassword, newPassword string) error
	List(ctx context.Context, offset, limit int64) ([]*models.User, int64, error)
}

// AdminService is the administrator surface the API depends on.
type AdminService interface {
	Login(ctx context.Context, adminName, password string) (string, *models.Admin, error)
	Create(ctx context.Context, actorName, adminName, password string) (*models.Admin, error)
}

// ChatService is the conversation surface the API depends on.
type ChatService interface {
	StartOrContinue(ctx context.Context, accountID, topicID string) (string, error)
	Ask(ctx context.Context, accountID, topicID, question string) (*services.Reply, error)
	ListTopics(ctx context.Context, accountID string, offset, limit int64) ([]*models.TopicSummary, int64, error)
	GetTopic(ctx context.Context, accountID, topicID string) ([]*models.Exchange, error)
	DeleteTopic(ctx context.Context, accountID, topicID string) error
}

// ChallengeManager issues and consumes human challenges.
type ChallengeManager interface {
	Issue(ctx context.Context, slot string) (*captcha.Challenge, error)
	CheckAndConsume(ctx context.Context, slot, supplied string) (bool, error)
}

// Server wires the services into HTTP handlers.
type Server struct {
	users        UserService
	admins       AdminService
	chat         ChatService
	challenges   ChallengeManager
	secretKey    []byte
	systemPrompt string
	logger       logging.Logger
}

func NewServer(users UserService, admins AdminService, chat ChatService, challenges ChallengeManager, cfg *config.Config, logger logging.Logger) *Server {
	return &Server{
		users:        users,
		admins:       admins,
		chat:         chat,
		challenges:   challenges,
		secretKey:    []byte(cfg.SecretKey),
		systemPrompt: cfg.SystemPrompt,
		logger:       logger,
	}
}

// Routes builds the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/login/captcha", s.handleCaptcha)
		r.Get("/register/captcha", s.handleCaptcha)
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)

		r.Route("/chat", func(r chi.Router) {
			r.Use(s.requireRole(auth.RoleUser))
			r.Post("/", s.handleChat)
			r.Post("/update_chat", s.handleNewTopic)
			r.Get("/history", s.handleTopicList)
			r.Get("/history/{topicID}", s.handleTopicDetail)
			r.Delete("/history/{topicID}", s.handleTopicDelete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireRole(auth.RoleUser))
			r.Get("/info", s.handleUserInfo)
			r.Post("/update_password", s.handleUpdatePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)
			r.With(s.requireRole(auth.RoleAdmin)).Post("/create", s.handleAdminCreate)
			r.With(s.requireRole(auth.RoleAdmin)).Get("/users", s.handleAdminUsers)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
