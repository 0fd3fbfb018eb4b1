package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rooklabs/marquee/internal/models"
)

// MovieStore defines the persistence operations for the catalog
type MovieStore interface {
	Create(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	GetByID(ctx context.Context, id string) (*models.Movie, error)
	List(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error)
	Update(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	Delete(ctx context.Context, id string) error
	FindReleasingWithin(ctx context.Context, days int) ([]*models.Movie, error)
	GetStats(ctx context.Context) (*models.MovieStats, error)
}

// MovieService handles catalog business logic
type MovieService struct {
	repo   MovieStore
	logger *slog.Logger
}

func NewMovieService(repo MovieStore, logger *slog.Logger) *MovieService {
	return &MovieService{repo: repo, logger: logger}
}

func (s *MovieService) Create(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	created, err := s.repo.Create(ctx, movie)
	if err != nil {
		s.logger.Error("failed to create movie", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("movie created", slog.String("movie_id", created.ID))
	return created, nil
}

func (s *MovieService) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	movie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get movie", slog.String("movie_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return movie, nil
}

func (s *MovieService) List(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error) {
	movies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list movies", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}
	return movies, total, nil
}

// Update applies the given changes to an existing movie
func (s *MovieService) Update(ctx context.Context, id string, apply func(*models.Movie)) (*models.Movie, error) {
	movie, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(movie)

	updated, err := s.repo.Update(ctx, movie)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update movie", slog.String("movie_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return updated, nil
}

func (s *MovieService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete movie", slog.String("movie_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("movie deleted", slog.String("movie_id", id))
	return nil
}

func (s *MovieService) GetStats(ctx context.Context) (*models.MovieStats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		s.logger.Error("failed to compute movie stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}
