// Command server runs the expense ledger web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/config"
	"expense-ledger/internal/expense"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/logging"
	"expense-ledger/internal/middleware"
	"expense-ledger/internal/server"
	"expense-ledger/internal/storage"
	"expense-ledger/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	authSvc := auth.NewService(db, cfg.SessionDuration, log)
	expenseSvc := expense.NewService(db, log)

	if err := bootstrapAdmin(ctx, db, authSvc, cfg.AdminUser, cfg.AdminPassword, log); err != nil {
		return err
	}

	templates := web.Templates()
	if cfg.TemplateDir != "" {
		templates = os.DirFS(cfg.TemplateDir)
	}
	if cfg.SecretKey == "" {
		log.Warn("SECRET_KEY not set, flash cookies will not survive a restart")
	}

	h, err := handlers.New(authSvc, expenseSvc, log, handlers.Options{
		Templates:    templates,
		SecretKey:    []byte(cfg.SecretKey),
		SecureCookie: cfg.SecureCookie,
	})
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	srv := server.New(
		setupRouter(h, web.Static(), log),
		fmt.Sprintf(":%d", cfg.Port),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		log,
	)
	srv.Every("session-sweep", cfg.SessionSweepInterval, authSvc.SweepExpiredSessions)

	log.WithFields(logrus.Fields{
		"env":     cfg.AppEnv,
		"db_path": cfg.DBPath,
	}).Info("expense ledger ready")
	return srv.Run(ctx)
}

func setupRouter(h *handlers.Handlers, static fs.FS, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	h.Routes(r)
	return r
}

type userCounter interface {
	UserCount(ctx context.Context) (int, error)
}

// bootstrapAdmin creates the configured account when no user exists yet.
func bootstrapAdmin(ctx context.Context, users userCounter, svc *auth.Service, username, password string, log logrus.FieldLogger) error {
	if username == "" {
		return nil
	}
	n, err := users.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	user, err := svc.Register(ctx, username, password)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.WithField("user_id", user.ID).Info("bootstrap user created")
	return nil
}
