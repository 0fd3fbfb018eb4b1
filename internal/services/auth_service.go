package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rooklabs/marquee/internal/auth"
	"github.com/rooklabs/marquee/internal/models"
	pkgauth "github.com/rooklabs/marquee/pkg/auth"
	pkglogger "github.com/rooklabs/marquee/pkg/logger"
)

// UserRepository defines the user lookups the auth service needs
type UserRepository interface {
	GetByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// LoginAttemptRepository persists the per-user throttle state
type LoginAttemptRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.LoginAttempt, error)
	Create(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error)
	IncrementAttempts(ctx context.Context, userID string) (*models.LoginAttempt, error)
	Block(ctx context.Context, userID string, until time.Time) error
	Reset(ctx context.Context, userID string) error
}

// ThrottleConfig holds the lockout policy for failed sign-ins
type ThrottleConfig struct {
	MaxRetries      int           // consecutive failures before a lockout is imposed
	LockoutDuration time.Duration // how long a lockout lasts
}

// AuthService decides whether a sign-in may proceed and records its outcome.
//
// The account locks on the MaxRetries-th consecutive failure itself: the
// failure is counted first, then the threshold is checked against the new
// value. Imposing the lock resets the counter to zero, and a successful
// sign-in resets both the counter and any stale lockout.
type AuthService struct {
	users       UserRepository
	attempts    LoginAttemptRepository
	tm          *auth.TokenManager
	throttle    ThrottleConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(
	users UserRepository,
	attempts LoginAttemptRepository,
	tm *auth.TokenManager,
	throttle ThrottleConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		attempts:    attempts,
		tm:          tm,
		throttle:    throttle,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthResponse is the successful sign-in payload
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// SignIn authenticates a user and returns a signed session token.
// Returns models.ErrInvalidCredentials on a wrong email or password and
// *models.AccountLockedError while a lockout is active.
func (s *AuthService) SignIn(ctx context.Context, email, password, ipAddress string) (*AuthResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email, true)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Identical failure for unknown email and wrong password
			s.logger.Info("sign-in failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.PasswordHash == "" {
		return nil, models.ErrInvalidCredentials
	}

	attempt, err := s.loadOrCreateAttempt(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to load login attempt record",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	if attempt.Blocked(now) {
		// An expired BlockedUntil is simply ignored here; the row is
		// cleaned up on the next successful sign-in.
		remaining := attempt.BlockedUntil.Sub(now)
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_locked",
		})
		return nil, &models.AccountLockedError{RetryAfter: remaining}
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.recordFailure(ctx, user.ID, ipAddress, now)
	}

	// Success clears the counter and any stale lockout
	if err := s.attempts.Reset(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset login attempts",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	token, err := s.tm.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user signed in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &AuthResponse{
		Token: token,
		User:  UserModelToResponse(user),
	}, nil
}

// loadOrCreateAttempt fetches the user's throttle record, lazily creating a
// fresh one (attempts=0, no lockout) on first contact.
func (s *AuthService) loadOrCreateAttempt(ctx context.Context, userID string) (*models.LoginAttempt, error) {
	attempt, err := s.attempts.FindByUserID(ctx, userID)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return s.attempts.Create(ctx, &models.LoginAttempt{
		UserID:   userID,
		Attempts: 0,
	})
}

// recordFailure counts a failed password check and decides between a plain
// rejection and a lockout. The increment is atomic in the store, so parallel
// failures for the same user cannot slip under the threshold.
func (s *AuthService) recordFailure(ctx context.Context, userID, ipAddress string, now time.Time) error {
	updated, err := s.attempts.IncrementAttempts(ctx, userID)
	if err != nil {
		s.logger.Error("failed to record login failure",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if updated.Attempts >= s.throttle.MaxRetries {
		until := now.Add(s.throttle.LockoutDuration)
		if err := s.attempts.Block(ctx, userID, until); err != nil {
			s.logger.Error("failed to impose lockout",
				slog.String("user_id", userID), slog.Any("error", err))
			return models.ErrInternalServer
		}

		s.logger.Warn("account locked after repeated sign-in failures",
			slog.String("user_id", userID),
			slog.Int("attempts", updated.Attempts))
		s.auditLogger.LogAccountLockout(userID, ipAddress, until)

		return &models.AccountLockedError{RetryAfter: s.throttle.LockoutDuration}
	}

	s.logger.Info("sign-in failed: invalid credentials",
		slog.Int("attempts", updated.Attempts))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     ipAddress,
		FailureReason: "invalid_credentials",
	})

	return models.ErrInvalidCredentials
}

// UserModelToResponse converts a user model to its public response DTO
func UserModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
