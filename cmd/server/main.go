package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"streamchat/internal/config"
	"streamchat/internal/httpserver"
	"streamchat/internal/logger"
	"streamchat/internal/security"
	"streamchat/internal/store/postgres"
	"streamchat/internal/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal("server failed", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Log.Sync()

	var (
		db   *sql.DB
		deps httpserver.Deps
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		deps.Users = postgres.NewUserRepo(db)
		deps.Conversations = postgres.NewConversationRepo(db)
		deps.Participants = postgres.NewParticipantRepo(db)
		deps.Messages = postgres.NewMessageRepo(db)
	default:
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		if err := sqlite.Migrate(db); err != nil {
			return err
		}
		deps.Users = sqlite.NewUserRepo(db)
		deps.Conversations = sqlite.NewConversationRepo(db)
		deps.Participants = sqlite.NewParticipantRepo(db)
		deps.Messages = sqlite.NewMessageRepo(db)
	}
	defer db.Close()

	deps.Tokens = security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	deps.Hasher = security.NewPasswordHasher(0)

	router := httpserver.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("starting server",
			zap.String("addr", cfg.HTTPAddr()),
			zap.String("driver", cfg.DBDriver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}
