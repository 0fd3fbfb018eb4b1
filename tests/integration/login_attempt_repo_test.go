package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rooklabs/marquee/internal/models"
	"github.com/rooklabs/marquee/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAttemptRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	repo := repositories.NewLoginAttemptRepository(testDB.DB)

	newUser := func(t *testing.T, email string) *models.User {
		user, err := SeedUser(ctx, testDB.Pool, "Test User", email, "some-password")
		require.NoError(t, err)
		return user
	}

	t.Run("create and find", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		user := newUser(t, "a@example.com")

		created, err := repo.Create(ctx, &models.LoginAttempt{UserID: user.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, created.Attempts)
		assert.Nil(t, created.BlockedUntil)

		found, err := repo.FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("find missing returns not found", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		user := newUser(t, "b@example.com")

		_, err := repo.FindByUserID(ctx, user.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("create is idempotent per user", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		user := newUser(t, "c@example.com")

		first, err := repo.Create(ctx, &models.LoginAttempt{UserID: user.ID})
		require.NoError(t, err)

		second, err := repo.Create(ctx, &models.LoginAttempt{UserID: user.ID})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("increment counts atomically under concurrency", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		user := newUser(t, "d@example.com")

		_, err := repo.Create(ctx, &models.LoginAttempt{UserID: user.ID})
		require.NoError(t, err)

		const workers = 10
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementAttempts(ctx, user.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		attempt, err := repo.FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, workers, attempt.Attempts, "no increment may be lost")
	})

	t.Run("block sets lockout and zeroes the counter", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		user := newUser(t, "e@example.com")

		_, err := repo.Create(ctx, &models.LoginAttempt{UserID: user.ID})
		require.NoError(t, err)
		_, err = repo.IncrementAttempts(ctx, user.ID)
		require.NoError(t, err)

		until := time.Now().Add(15 * time.Minute)
		require.NoError(t, repo.Block(ctx, user.ID, until))

		attempt, err := repo.FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, attempt.Attempts)
		require.NotNil(t, attempt.BlockedUntil)
		assert.WithinDuration(t, until, *attempt.BlockedUntil, time.Second)
		assert.True(t, attempt.Blocked(time.Now()))
	})

	t.Run("reset clears counter and lockout", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		user := newUser(t, "f@example.com")

		_, err := repo.Create(ctx, &models.LoginAttempt{UserID: user.ID})
		require.NoError(t, err)
		_, err = repo.IncrementAttempts(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Block(ctx, user.ID, time.Now().Add(time.Hour)))

		require.NoError(t, repo.Reset(ctx, user.ID))

		attempt, err := repo.FindByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, attempt.Attempts)
		assert.Nil(t, attempt.BlockedUntil)
	})
}
