// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/i18n"
	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/otp"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/notify"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotApproved        = errors.New("account not yet approved")
	ErrInvalidOTP         = errors.New("invalid OTP or email")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrOwnerUnreachable   = errors.New("approval OTP could not be delivered")
)

// SignupOTPTTL is how long a signup OTP stays valid.
const SignupOTPTTL = 10 * time.Minute

// dummyHash is compared against when the username is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Service struct {
	repo              *repository.Repository
	notifier          notify.Notifier
	passwordValidator *PasswordValidator
	now               func() time.Time
}

// NewService creates the admin identity service. A nil notifier puts signup
// into demo mode, where the OTP is returned to the caller. With a notifier the
// OTP only ever goes to the owner.
func NewService(repo *repository.Repository, notifier notify.Notifier) *Service {
	return &Service{
		repo:              repo,
		notifier:          notifier,
		passwordValidator: DefaultPasswordValidator(),
		now:               func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// WithClock replaces the clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// SignupParams holds the parameters for admin signup.
type SignupParams struct {
	Username string
	Email    string
	Password string
}

// SignupResult is the outcome of a signup.
type SignupResult struct {
	User *models.AdminUser
	// OTP is only set in demo mode, when no notifier is configured.
	OTP      string
	DemoMode bool
}

// Signup stores a pending admin and delivers the approval OTP to the owner.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*SignupResult, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = strings.TrimSpace(params.Email)
	if params.Username == "" || params.Email == "" || params.Password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	validation := s.passwordValidator.Validate(params.Password, params.Username, params.Email)
	if !validation.Valid {
		return nil, &PasswordValidationError{Errors: validation.Errors}
	}

	now := s.now()
	freed, err := s.repo.DeleteExpiredPendingAdmins(ctx, params.Username, params.Email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to clear expired signups: %w", err)
	}
	if freed > 0 {
		slog.Info("admin_signup_expired_cleared", "username", params.Username, "count", freed)
	}

	exists, err := s.repo.AdminExists(ctx, params.Username, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing admin: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(SignupOTPTTL)
	user := &models.AdminUser{
		Username:           params.Username,
		Email:              params.Email,
		PasswordHash:       passwordHash,
		SignupOTP:          &code,
		SignupOTPExpiresAt: &expiresAt,
		CreatedAt:          now,
	}
	if err := s.repo.CreateAdminUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("admin_signup", "admin_id", user.ID, "username", user.Username)

	if s.notifier == nil {
		return &SignupResult{User: user, OTP: code, DemoMode: true}, nil
	}

	if err := s.notifyOwner(ctx, user, code, now); err != nil {
		slog.Error("admin_signup_notify_failed", "admin_id", user.ID, "error", err)
		if err := s.repo.DeletePendingAdmin(ctx, user.ID); err != nil {
			slog.Error("admin_signup_rollback_failed", "admin_id", user.ID, "error", err)
		}
		return nil, ErrOwnerUnreachable
	}
	return &SignupResult{User: user}, nil
}

func (s *Service) notifyOwner(ctx context.Context, user *models.AdminUser, code string, now time.Time) error {
	subject := i18n.TData(ctx, "signup_notice_subject", map[string]any{"Username": user.Username})
	body := i18n.TData(ctx, "signup_notice_body", map[string]any{
		"Username": user.Username,
		"Email":    user.Email,
		"Time":     now.Format(time.RFC1123),
		"OTP":      code,
		"Minutes":  int(SignupOTPTTL / time.Minute),
	})
	return s.notifier.NotifyOwner(ctx, subject, body)
}

// VerifySignup approves the pending admin whose email and OTP match.
func (s *Service) VerifySignup(ctx context.Context, email, code string) (*models.AdminUser, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrMissingFields
	}

	user, err := s.repo.GetPendingAdmin(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("admin_verify_failed", "email", email, "reason", "no_match")
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to get pending admin: %w", err)
	}

	if user.SignupOTPExpiresAt == nil || !s.now().Before(*user.SignupOTPExpiresAt) {
		slog.Warn("admin_verify_failed", "admin_id", user.ID, "reason", "expired")
		return nil, ErrOTPExpired
	}

	if err := s.repo.ApproveAdmin(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to approve admin: %w", err)
	}
	user.IsApproved = true
	user.SignupOTP = nil
	user.SignupOTPExpiresAt = nil

	slog.Info("admin_approved", "admin_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates an approved admin and records the login.
func (s *Service) Login(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "username", username, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "username", username, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if !user.IsApproved {
		slog.Warn("login_failed", "username", username, "reason", "not_approved")
		return nil, ErrNotApproved
	}

	now := s.now()
	if err := s.repo.RecordAdminLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LoginCount++
	user.LastLoginAt = &now

	slog.Info("login_success", "admin_id", user.ID, "username", username)
	return user, nil
}
