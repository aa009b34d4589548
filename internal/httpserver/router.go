package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"streamchat/internal/config"
	"streamchat/internal/domain"
	"streamchat/internal/logger"
	"streamchat/internal/security"
	"streamchat/internal/service"
)

// Deps carries the repositories and security components the router wires
// into services. Repositories arrive as interfaces so the storage backend is
// chosen by the caller.
type Deps struct {
	Users         domain.UserRepository
	Conversations domain.ConversationRepository
	Participants  domain.ParticipantRepository
	Messages      domain.MessageRepository

	Tokens *security.TokenService
	Hasher *security.PasswordHasher
}

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authSvc := service.NewAuthService(d.Users, d.Tokens, d.Hasher)
	convSvc := service.NewConversationService(d.Users, d.Conversations)
	msgSvc := service.NewMessageService(d.Messages, d.Participants)
	readSvc := service.NewReadService(d.Conversations, d.Participants, d.Messages)
	querySvc := service.NewQueryService(d.Conversations, d.Participants, d.Messages, cfg.MaxPageSize)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handleRegister(authSvc))
		r.Post("/login", handleLogin(authSvc))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.Tokens, d.Users))

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", handleSendStreamMessage(msgSvc))
			r.Get("/stream/{streamID}", handleListStreamMessages(querySvc, cfg.DefaultPageSize))
			r.Patch("/{messageID}", handleEditMessage(msgSvc))
			r.Delete("/{messageID}", handleDeleteMessage(msgSvc))
		})

		r.Route("/direct-messages", func(r chi.Router) {
			r.Post("/{userID}", handleSendDirectMessage(convSvc, msgSvc))
			r.Get("/{userID}", handleListDirectMessages(convSvc, querySvc, cfg.DefaultPageSize))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", handleListConversations(querySvc, cfg.DefaultPageSize))
			r.Post("/{userID}/read", handleMarkConversationRead(convSvc, readSvc))
		})
	})

	return r
}
