// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the API together and runs it.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/database"
	"codeberg.org/oliverandrich/portfolio-gate/internal/handlers"
	"codeberg.org/oliverandrich/portfolio-gate/internal/i18n"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/access"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/auth"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/contact"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/email"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/notify"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/relay"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/session"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// App holds the long-lived components of the API.
type App struct {
	cfg      *config.Config
	repo     *repository.Repository
	hub      *sse.Hub
	sessions *session.Manager
	access   *access.Service
	contact  *contact.Service
	auth     *auth.Service
	sweeper  *access.Sweeper
	echo     *echo.Echo
}

// New builds the services and the router on top of an open database.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	if err := i18n.Init(); err != nil {
		return nil, fmt.Errorf("failed to init i18n: %w", err)
	}

	repo := repository.New(db)
	hub := sse.NewHub()

	sessions, err := session.NewManager(&cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	notifier, mailer, err := Notifiers(cfg)
	if err != nil {
		return nil, err
	}

	// A nil *email.Service must not become a non-nil Mailer.
	var replyMailer contact.Mailer
	if mailer != nil {
		replyMailer = mailer
	}

	accessSvc := access.NewService(repo, &cfg.Access, hub)
	a := &App{
		cfg:      cfg,
		repo:     repo,
		hub:      hub,
		sessions: sessions,
		access:   accessSvc,
		contact:  contact.NewService(repo, replyMailer, hub, cfg.Access.DefaultTimezone),
		auth:     auth.NewService(repo, notifier),
		sweeper:  access.NewSweeper(accessSvc, cfg.Access.SweepInterval),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg, sessions, repo)
	a.setupRoutes(e)
	a.echo = e

	return a, nil
}

// Notifiers builds the owner notification chain. The mail service is
// returned separately for replies and is nil without SMTP settings.
func Notifiers(cfg *config.Config) (notify.Notifier, *email.Service, error) {
	var (
		chain  []notify.Notifier
		mailer *email.Service
	)

	if cfg.SMTP.Enabled() {
		var err error
		mailer, err = email.NewService(&cfg.SMTP, cfg.Relay.OwnerEmail)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create mail service: %w", err)
		}
		chain = append(chain, mailer)
	}
	if cfg.Relay.Enabled() {
		chain = append(chain, relay.New(&cfg.Relay))
	}

	return notify.New(chain...), mailer, nil
}

// Handler returns the HTTP handler of the API.
func (a *App) Handler() http.Handler {
	return a.echo
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"database", cfg.Database.Driver,
	)

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	app, err := New(cfg, db)
	if err != nil {
		return err
	}

	if !cfg.Auth.RequireAdminToken {
		slog.Warn("admin authentication disabled, admin routes are open")
	}
	if !cfg.SMTP.Enabled() && !cfg.Relay.Enabled() {
		slog.Warn("no mail or relay configured, signup runs in demo mode")
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	app.sweeper.Start(sweepCtx)
	defer app.sweeper.Stop()

	return startWithGracefulShutdown(ctx, app.echo, cfg)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.TLSServer.Serve(e.TLSListener)
}
