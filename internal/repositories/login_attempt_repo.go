package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rooklabs/marquee/internal/database"
	"github.com/rooklabs/marquee/internal/models"
)

// LoginAttemptRepository persists per-user failed sign-in counters.
// Counter updates are single-row atomic statements so concurrent sign-in
// attempts for the same user cannot lose increments.
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func scanLoginAttemptRow(scanner rowScanner) (*models.LoginAttempt, error) {
	var attempt models.LoginAttempt

	err := scanner.Scan(
		&attempt.ID, &attempt.UserID, &attempt.Attempts, &attempt.BlockedUntil,
		&attempt.CreatedAt, &attempt.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &attempt, nil
}

func (r *LoginAttemptRepository) FindByUserID(ctx context.Context, userID string) (*models.LoginAttempt, error) {
	query := `
		SELECT id, user_id, attempts, blocked_until, created_at, updated_at
		FROM login_attempts WHERE user_id = $1
	`

	return scanLoginAttemptRow(r.db.Pool.QueryRow(ctx, query, userID))
}

func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error) {
	attempt.ID = uuid.New().String()

	now := time.Now()
	attempt.CreatedAt = now
	attempt.UpdatedAt = now

	query := `
		INSERT INTO login_attempts (id, user_id, attempts, blocked_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.ID, attempt.UserID, attempt.Attempts, attempt.BlockedUntil,
		attempt.CreatedAt, attempt.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	// A concurrent request may have created the row first; read back the
	// authoritative state either way.
	return r.FindByUserID(ctx, attempt.UserID)
}

// IncrementAttempts atomically bumps the failure counter and returns the new
// record state.
func (r *LoginAttemptRepository) IncrementAttempts(ctx context.Context, userID string) (*models.LoginAttempt, error) {
	query := `
		UPDATE login_attempts
		SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1
		RETURNING id, user_id, attempts, blocked_until, created_at, updated_at
	`

	return scanLoginAttemptRow(r.db.Pool.QueryRow(ctx, query, userID))
}

// Block imposes a lockout until the given time and resets the counter, so the
// attempt count starts fresh once the block expires.
func (r *LoginAttemptRepository) Block(ctx context.Context, userID string, until time.Time) error {
	query := `
		UPDATE login_attempts
		SET blocked_until = $2, attempts = 0, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, userID, until)
	return database.MapPostgresError(err)
}

// Reset clears the counter and any stale lockout after a successful sign-in.
func (r *LoginAttemptRepository) Reset(ctx context.Context, userID string) error {
	query := `
		UPDATE login_attempts
		SET attempts = 0, blocked_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}
