package background

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rooklabs/marquee/internal/config"
	"github.com/rooklabs/marquee/internal/models"
	"github.com/rooklabs/marquee/internal/services"
)

// MovieFinder provides the catalog lookups the notifier needs
type MovieFinder interface {
	FindReleasingWithin(ctx context.Context, days int) ([]*models.Movie, error)
	GetByID(ctx context.Context, id string) (*models.Movie, error)
}

// UserLister provides the user lookups the notifier needs
type UserLister interface {
	ListAll(ctx context.Context) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier emails every user about movies releasing soon. It runs once a
// day at a fixed wall-clock time and keeps an in-memory retry queue for
// deliveries that failed on previous runs.
type Notifier struct {
	movies MovieFinder
	users  UserLister
	sender services.EmailSender
	cfg    config.NotifyConfig
	logger *slog.Logger

	queue   *retryQueue
	running atomic.Bool
	stopCh  chan struct{}
	now     func() time.Time
}

// NewNotifier creates a new notification scheduler
func NewNotifier(
	movies MovieFinder,
	users UserLister,
	sender services.EmailSender,
	cfg config.NotifyConfig,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		movies: movies,
		users:  users,
		sender: sender,
		cfg:    cfg,
		logger: logger,
		queue:  newRetryQueue(),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
}

// Start runs the daily schedule until Stop is called or ctx is cancelled
func (n *Notifier) Start(ctx context.Context) {
	loc := n.cfg.Location()

	for {
		next := n.nextRun(n.now().In(loc))
		timer := time.NewTimer(time.Until(next))

		n.logger.Info("notification run scheduled",
			slog.Time("next_run", next))

		select {
		case <-timer.C:
			n.tick(ctx)
		case <-n.stopCh:
			timer.Stop()
			n.logger.Info("notifier stopped")
			return
		case <-ctx.Done():
			timer.Stop()
			n.logger.Info("notifier context cancelled")
			return
		}
	}
}

// Stop signals the notifier to stop
func (n *Notifier) Stop() {
	close(n.stopCh)
}

// QueueStats exposes the retry queue state for operational inspection
func (n *Notifier) QueueStats() QueueStats {
	return n.queue.Stats()
}

// ClearQueue drops every pending retry
func (n *Notifier) ClearQueue() {
	n.queue.Clear()
}

// nextRun returns the next occurrence of the configured wall-clock time
// strictly after now, in now's location.
func (n *Notifier) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(),
		n.cfg.Hour, n.cfg.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// tick performs one notification run: retries first, then the day's
// fan-out. A run never escapes: panics are recovered and logged, and an
// overlapping tick is skipped while the previous one is still executing.
func (n *Notifier) tick(ctx context.Context) {
	if !n.running.CompareAndSwap(false, true) {
		n.logger.Warn("notification run still in progress, skipping tick")
		return
	}
	defer n.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("notification run panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	retried, dropped := n.drainRetryQueue(ctx)

	sent, failed := n.fanOut(ctx)

	n.logger.Info("notification run completed",
		slog.Int("sent", sent),
		slog.Int("failed", failed),
		slog.Int("retried", retried),
		slog.Int("dropped", dropped),
		slog.Int("pending_retry", n.queue.Len()))
}

// drainRetryQueue reattempts every queued failure that is past its
// cooldown. Entries are independent; one bad entry never blocks the rest.
func (n *Notifier) drainRetryQueue(ctx context.Context) (retried, dropped int) {
	entries := n.queue.Snapshot()
	if len(entries) == 0 {
		return 0, 0
	}

	now := n.now()
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, entry := range entries {
		if now.Sub(entry.LastAttempt) < n.cfg.RetryCooldown {
			continue
		}

		wg.Add(1)
		go func(entry *failedNotification) {
			defer wg.Done()

			ok, drop := n.retryOne(ctx, entry, now)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				retried++
			}
			if drop {
				dropped++
			}
		}(entry)
	}

	wg.Wait()
	return retried, dropped
}

// retryOne reattempts a single queued delivery. It reports whether the
// delivery succeeded and whether the entry left the queue for good.
func (n *Notifier) retryOne(ctx context.Context, entry *failedNotification, now time.Time) (ok, drop bool) {
	user, err := n.users.GetByID(ctx, entry.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			n.queue.Remove(entry.UserID, entry.MovieID)
			n.logger.Info("dropping retry: user no longer exists",
				slog.String("user_id", entry.UserID))
			return false, true
		}
		n.logger.Error("retry lookup failed", slog.Any("error", err))
		return false, false
	}

	movie, err := n.movies.GetByID(ctx, entry.MovieID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			n.queue.Remove(entry.UserID, entry.MovieID)
			n.logger.Info("dropping retry: movie no longer exists",
				slog.String("movie_id", entry.MovieID))
			return false, true
		}
		n.logger.Error("retry lookup failed", slog.Any("error", err))
		return false, false
	}

	if err := n.sender.SendUpcomingMovieEmail(ctx, user, movie); err != nil {
		entry.Attempts++
		entry.LastAttempt = now
		entry.LastError = err.Error()

		if entry.Attempts >= n.cfg.MaxRetries {
			n.queue.Remove(entry.UserID, entry.MovieID)
			n.logger.Error("notification permanently failed",
				slog.String("user_id", entry.UserID),
				slog.String("movie_id", entry.MovieID),
				slog.Int("attempts", entry.Attempts),
				slog.String("last_error", entry.LastError))
			return false, true
		}

		n.queue.Put(entry)
		return false, false
	}

	n.queue.Remove(entry.UserID, entry.MovieID)
	return true, false
}

// fanOut emails every user about every movie releasing within the
// configured window. Each pair is delivered concurrently; a failure
// enqueues a fresh retry entry and does not affect the other pairs.
func (n *Notifier) fanOut(ctx context.Context) (sent, failed int) {
	movies, err := n.movies.FindReleasingWithin(ctx, n.cfg.LookaheadDays)
	if err != nil {
		n.logger.Error("failed to find upcoming movies", slog.Any("error", err))
		return 0, 0
	}
	if len(movies) == 0 {
		return 0, 0
	}

	users, err := n.users.ListAll(ctx)
	if err != nil {
		n.logger.Error("failed to list users for notification", slog.Any("error", err))
		return 0, 0
	}
	if len(users) == 0 {
		return 0, 0
	}

	now := n.now()
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, movie := range movies {
		for _, user := range users {
			wg.Add(1)
			go func(user *models.User, movie *models.Movie) {
				defer wg.Done()

				err := n.sender.SendUpcomingMovieEmail(ctx, user, movie)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					n.queue.Put(&failedNotification{
						UserID:      user.ID,
						MovieID:     movie.ID,
						Attempts:    1,
						LastAttempt: now,
						LastError:   err.Error(),
					})
					return
				}
				sent++
			}(user, movie)
		}
	}

	wg.Wait()
	return sent, failed
}
