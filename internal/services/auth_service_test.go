package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rooklabs/marquee/internal/auth"
	"github.com/rooklabs/marquee/internal/models"
	pkgauth "github.com/rooklabs/marquee/pkg/auth"
	pkglogger "github.com/rooklabs/marquee/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	GetByEmailFunc func(ctx context.Context, email string, withPassword bool) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email, withPassword)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockAttemptRepo struct {
	FindByUserIDFunc      func(ctx context.Context, userID string) (*models.LoginAttempt, error)
	CreateFunc            func(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error)
	IncrementAttemptsFunc func(ctx context.Context, userID string) (*models.LoginAttempt, error)
	BlockFunc             func(ctx context.Context, userID string, until time.Time) error
	ResetFunc             func(ctx context.Context, userID string) error
}

func (m *mockAttemptRepo) FindByUserID(ctx context.Context, userID string) (*models.LoginAttempt, error) {
	return m.FindByUserIDFunc(ctx, userID)
}

func (m *mockAttemptRepo) Create(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error) {
	return m.CreateFunc(ctx, attempt)
}

func (m *mockAttemptRepo) IncrementAttempts(ctx context.Context, userID string) (*models.LoginAttempt, error) {
	return m.IncrementAttemptsFunc(ctx, userID)
}

func (m *mockAttemptRepo) Block(ctx context.Context, userID string, until time.Time) error {
	return m.BlockFunc(ctx, userID, until)
}

func (m *mockAttemptRepo) Reset(ctx context.Context, userID string) error {
	return m.ResetFunc(ctx, userID)
}

const testPassword = "correct-horse-battery"

func testUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword(testPassword)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: hash,
	}
}

func newTestAuthService(users UserRepository, attempts LoginAttemptRepository) *AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm := auth.NewTokenManager("test-secret-with-sufficient-entropy!", time.Hour)
	throttle := ThrottleConfig{MaxRetries: 3, LockoutDuration: 15 * time.Minute}
	return NewAuthService(users, attempts, tm, throttle, logger, pkglogger.NewAuditLogger(logger))
}

func existingAttempt(attempts int, blockedUntil *time.Time) *mockAttemptRepo {
	return &mockAttemptRepo{
		FindByUserIDFunc: func(ctx context.Context, userID string) (*models.LoginAttempt, error) {
			return &models.LoginAttempt{
				ID: "la-1", UserID: userID,
				Attempts: attempts, BlockedUntil: blockedUntil,
			}, nil
		},
	}
}

func TestSignInSuccessResetsAttempts(t *testing.T) {
	user := testUser(t)
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			assert.Equal(t, "ada@example.com", email)
			assert.True(t, withPassword)
			return user, nil
		},
	}

	resetCalled := false
	attempts := existingAttempt(2, nil)
	attempts.ResetFunc = func(ctx context.Context, userID string) error {
		resetCalled = true
		assert.Equal(t, user.ID, userID)
		return nil
	}

	svc := newTestAuthService(users, attempts)
	resp, err := svc.SignIn(context.Background(), "  Ada@Example.com ", testPassword, "1.2.3.4")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.True(t, resetCalled, "a successful sign-in must reset the counter")
}

func TestSignInUnknownEmail(t *testing.T) {
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(users, &mockAttemptRepo{})
	_, err := svc.SignIn(context.Background(), "nobody@example.com", "whatever", "1.2.3.4")

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestSignInWrongPasswordBelowThreshold(t *testing.T) {
	user := testUser(t)
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			return user, nil
		},
	}

	blockCalled := false
	attempts := existingAttempt(0, nil)
	attempts.IncrementAttemptsFunc = func(ctx context.Context, userID string) (*models.LoginAttempt, error) {
		return &models.LoginAttempt{UserID: userID, Attempts: 1}, nil
	}
	attempts.BlockFunc = func(ctx context.Context, userID string, until time.Time) error {
		blockCalled = true
		return nil
	}

	svc := newTestAuthService(users, attempts)
	_, err := svc.SignIn(context.Background(), user.Email, "wrong", "1.2.3.4")

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.False(t, blockCalled)
}

func TestSignInThirdFailureLocksImmediately(t *testing.T) {
	user := testUser(t)
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			return user, nil
		},
	}

	var blockedUntil time.Time
	attempts := existingAttempt(2, nil)
	attempts.IncrementAttemptsFunc = func(ctx context.Context, userID string) (*models.LoginAttempt, error) {
		return &models.LoginAttempt{UserID: userID, Attempts: 3}, nil
	}
	attempts.BlockFunc = func(ctx context.Context, userID string, until time.Time) error {
		blockedUntil = until
		return nil
	}

	svc := newTestAuthService(users, attempts)
	before := time.Now()
	_, err := svc.SignIn(context.Background(), user.Email, "wrong", "1.2.3.4")

	locked, ok := models.IsAccountLocked(err)
	require.True(t, ok, "the failure that reaches the threshold must lock")
	assert.Equal(t, 15*time.Minute, locked.RetryAfter)
	assert.Equal(t, 15, locked.RetryAfterMinutes())
	assert.WithinDuration(t, before.Add(15*time.Minute), blockedUntil, time.Second)
}

func TestSignInRejectedWhileLocked(t *testing.T) {
	user := testUser(t)
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			return user, nil
		},
	}

	until := time.Now().Add(7*time.Minute + 30*time.Second)
	attempts := existingAttempt(0, &until)
	attempts.IncrementAttemptsFunc = func(ctx context.Context, userID string) (*models.LoginAttempt, error) {
		t.Fatal("a locked account must not count new attempts")
		return nil, nil
	}

	svc := newTestAuthService(users, attempts)

	// Even the correct password is rejected during the lockout
	_, err := svc.SignIn(context.Background(), user.Email, testPassword, "1.2.3.4")

	locked, ok := models.IsAccountLocked(err)
	require.True(t, ok)
	assert.Equal(t, 8, locked.RetryAfterMinutes(), "remaining time rounds up to whole minutes")
}

func TestSignInExpiredLockIsIgnored(t *testing.T) {
	user := testUser(t)
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			return user, nil
		},
	}

	past := time.Now().Add(-1 * time.Minute)
	resetCalled := false
	attempts := existingAttempt(0, &past)
	attempts.ResetFunc = func(ctx context.Context, userID string) error {
		resetCalled = true
		return nil
	}

	svc := newTestAuthService(users, attempts)
	resp, err := svc.SignIn(context.Background(), user.Email, testPassword, "1.2.3.4")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resetCalled, "success clears the stale lockout")
}

func TestSignInCreatesAttemptRecordOnFirstContact(t *testing.T) {
	user := testUser(t)
	users := &mockUserRepo{
		GetByEmailFunc: func(ctx context.Context, email string, withPassword bool) (*models.User, error) {
			return user, nil
		},
	}

	created := false
	attempts := &mockAttemptRepo{
		FindByUserIDFunc: func(ctx context.Context, userID string) (*models.LoginAttempt, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error) {
			created = true
			assert.Equal(t, user.ID, attempt.UserID)
			assert.Equal(t, 0, attempt.Attempts)
			attempt.ID = "la-1"
			return attempt, nil
		},
		ResetFunc: func(ctx context.Context, userID string) error { return nil },
	}

	svc := newTestAuthService(users, attempts)
	_, err := svc.SignIn(context.Background(), user.Email, testPassword, "1.2.3.4")

	require.NoError(t, err)
	assert.True(t, created)
}
