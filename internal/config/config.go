// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	CORS     CORSConfig
	Session  SessionConfig
	Auth     AuthConfig
	Access   AccessConfig
	SMTP     SMTPConfig
	Relay    RelayConfig
	Client   ClientConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, manual, off
	CertDir  string // Directory for the ACME cache
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres
	DSN    string
}

// CORSConfig lists the browser origins allowed to call the API.
// Entries of the form "*.fly.dev" match any origin whose host ends in ".fly.dev".
type CORSConfig struct {
	AllowOrigins []string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	MaxAge   int    // Admin token lifetime in seconds
	HashKey  string // 32-byte hex string for HMAC signing
	BlockKey string // 32-byte hex string for AES encryption (optional)
}

type AuthConfig struct {
	RequireAdminToken bool
}

type AccessConfig struct { //nolint:govet // fieldalignment not critical
	SessionDays     int
	SweepInterval   time.Duration
	DefaultTimezone string
}

// SessionDuration returns how long a verified visitor session stays active.
func (c AccessConfig) SessionDuration() time.Duration {
	return time.Duration(c.SessionDays) * 24 * time.Hour
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type RelayConfig struct {
	Endpoint   string
	AccessKey  string
	OwnerEmail string
}

// Enabled reports whether the form relay can be used.
func (c RelayConfig) Enabled() bool {
	return c.AccessKey != "" && c.OwnerEmail != ""
}

// ClientConfig configures the visitor and admin client commands.
type ClientConfig struct {
	APIURL string
	Token  string
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver: cmd.String("database-driver"),
			DSN:    cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		CORS: CORSConfig{
			AllowOrigins: splitList(cmd.StringSlice("cors-origins")),
		},
		Session: SessionConfig{
			MaxAge:   int(cmd.Int("session-max-age")),
			HashKey:  cmd.String("session-hash-key"),
			BlockKey: cmd.String("session-block-key"),
		},
		Auth: AuthConfig{
			RequireAdminToken: cmd.Bool("admin-auth"),
		},
		Access: AccessConfig{
			SessionDays:     int(cmd.Int("access-session-days")),
			SweepInterval:   cmd.Duration("access-sweep-interval"),
			DefaultTimezone: cmd.String("access-default-timezone"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Relay: RelayConfig{
			Endpoint:   cmd.String("relay-endpoint"),
			AccessKey:  cmd.String("relay-access-key"),
			OwnerEmail: cmd.String("owner-email"),
		},
		Client: ClientConfig{
			APIURL: cmd.String("api-url"),
			Token:  cmd.String("admin-token"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	if cfg.Client.APIURL == "" {
		cfg.Client.APIURL = cfg.Server.BaseURL + "/api"
	}

	applyAccessDefaults(cfg)

	return cfg
}

// applyAccessDefaults replaces unusable access settings with the built-in defaults.
func applyAccessDefaults(cfg *Config) {
	if cfg.Access.SessionDays <= 0 {
		cfg.Access.SessionDays = 7
	}
	if cfg.Access.SweepInterval <= 0 {
		cfg.Access.SweepInterval = time.Hour
	}
	if cfg.Access.DefaultTimezone == "" {
		cfg.Access.DefaultTimezone = "Asia/Kolkata"
	}
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	useTLS := shouldUseTLS(mode, host)

	scheme := "http"
	if useTLS {
		scheme = "https"
	}

	// ACME mode always uses port 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(env), toml.TOML(key, configFile))
}

// Flags returns the flags shared by every command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   3000,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-driver",
			Value:   "sqlite",
			Usage:   "Database driver (sqlite, postgres)",
			Sources: source("DATABASE_DRIVER", "database.driver"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/portfolio.db",
			Usage:   "Database DSN",
			Sources: source("DATABASE_DSN", "database.dsn"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, manual, off)",
			Sources: source("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for the ACME certificate cache",
			Sources: source("TLS_CERT_DIR", "tls.cert_dir"),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: source("TLS_EMAIL", "tls.email"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: source("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: source("TLS_KEY_FILE", "tls.key_file"),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Value:   []string{"http://localhost:4200", "https://bmsnr4262.github.io", "*.fly.dev"},
			Usage:   "Browser origins allowed to call the API (*.suffix for wildcards)",
			Sources: source("CORS_ORIGINS", "cors.origins"),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   86400, // 1 day in seconds
			Usage:   "Admin token max age in seconds",
			Sources: source("SESSION_MAX_AGE", "session.max_age"),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Admin token hash key (32-byte hex, auto-generated if empty)",
			Sources: source("SESSION_HASH_KEY", "session.hash_key"),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Admin token block key for encryption (32-byte hex, optional)",
			Sources: source("SESSION_BLOCK_KEY", "session.block_key"),
		},
		&cli.BoolFlag{
			Name:    "admin-auth",
			Value:   true,
			Usage:   "Require an admin bearer token on admin endpoints",
			Sources: source("ADMIN_AUTH", "auth.admin_token_required"),
		},
		&cli.IntFlag{
			Name:    "access-session-days",
			Value:   7,
			Usage:   "Days a verified visitor session stays active",
			Sources: source("ACCESS_SESSION_DAYS", "access.session_days"),
		},
		&cli.DurationFlag{
			Name:    "access-sweep-interval",
			Value:   time.Hour,
			Usage:   "Interval between expired session sweeps",
			Sources: source("ACCESS_SWEEP_INTERVAL", "access.sweep_interval"),
		},
		&cli.StringFlag{
			Name:    "access-default-timezone",
			Value:   "Asia/Kolkata",
			Usage:   "Timezone used when a client sends no local time",
			Sources: source("ACCESS_DEFAULT_TIMEZONE", "access.default_timezone"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host for outbound mail (demo mode if empty)",
			Sources: source("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: source("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for outbound mail",
			Sources: source("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Portfolio",
			Usage:   "Sender display name",
			Sources: source("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: source("SMTP_TLS", "smtp.tls"),
		},
		&cli.StringFlag{
			Name:    "relay-endpoint",
			Value:   "https://api.web3forms.com/submit",
			Usage:   "Form relay endpoint used to notify the site owner",
			Sources: source("RELAY_ENDPOINT", "relay.endpoint"),
		},
		&cli.StringFlag{
			Name:    "relay-access-key",
			Usage:   "Form relay access key",
			Sources: source("RELAY_ACCESS_KEY", "relay.access_key"),
		},
		&cli.StringFlag{
			Name:    "owner-email",
			Usage:   "Site owner address that receives OTP notifications",
			Sources: source("OWNER_EMAIL", "relay.owner_email"),
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "API base URL used by the client commands (defaults to base_url/api)",
			Sources: source("API_URL", "client.api_url"),
		},
		&cli.StringFlag{
			Name:    "admin-token",
			Usage:   "Admin bearer token used by the admin client commands",
			Sources: source("ADMIN_TOKEN", "client.admin_token"),
		},
	}
}
