// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/oliverandrich/portfolio-gate/internal/appcontext"
	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/handlers"
	"codeberg.org/oliverandrich/portfolio-gate/internal/i18n"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/session"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, sessions *session.Manager, repo *repository.Repository) {
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Skipper: isEventStream}))
	if cfg.Server.MaxBodySize > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	}
	e.Use(corsMiddleware(cfg.CORS))
	e.Use(i18nMiddleware())
	e.Use(AuthMiddleware(sessions, repo))
}

// isEventStream skips gzip for SSE, which must flush unbuffered.
func isEventStream(c echo.Context) bool {
	return strings.HasSuffix(c.Request().URL.Path, "/events")
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/health" || c.Request().URL.Path == "/"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// corsMiddleware allows the configured browser origins.
func corsMiddleware(cfg config.CORSConfig) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return originAllowed(cfg.AllowOrigins, origin), nil
		},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}

// originAllowed matches origin exactly or, for "*.suffix" entries, by host suffix.
func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
		suffix, ok := strings.CutPrefix(a, "*")
		if !ok {
			continue
		}
		u, err := url.Parse(origin)
		if err == nil && u.Hostname() != "" && strings.HasSuffix(u.Hostname(), suffix) {
			return true
		}
	}
	return false
}

// i18nMiddleware sets the locale based on Accept-Language header.
func i18nMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acceptLang := c.Request().Header.Get("Accept-Language")
			lang := i18n.MatchLanguage(acceptLang)
			ctx := i18n.WithLocale(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// AuthMiddleware wraps the request in an appcontext.Context and attaches
// the admin of a valid bearer token. Tokens of deleted admins are ignored.
func AuthMiddleware(sessions *session.Manager, repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &appcontext.Context{Context: c}

			data, err := sessions.ParseRequest(c.Request())
			switch {
			case err == nil:
				if _, lookupErr := repo.GetAdminByID(c.Request().Context(), data.AdminID); lookupErr != nil {
					slog.Warn("admin_token_rejected", "admin_id", data.AdminID, "error", lookupErr)
				} else {
					cc.Admin = data
				}
			case !errors.Is(err, session.ErrNoToken):
				slog.Debug("admin_token_invalid", "error", err)
			}

			return next(cc)
		}
	}
}

// RequireAdmin rejects requests without a verified admin token. With
// enforce false every request passes.
func RequireAdmin(enforce bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if enforce && appcontext.AdminFrom(c) == nil {
				return handlers.Unauthorized(c, "Admin authentication required")
			}
			return next(c)
		}
	}
}
