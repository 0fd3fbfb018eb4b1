package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rooklabs/marquee/internal/database"
	"github.com/rooklabs/marquee/internal/models"
)

const movieColumns = `id, name, original_name, description, status, release_date,
	budget, revenue, banner, genres, director, duration_minutes, rating,
	created_at, updated_at`

type MovieRepository struct {
	db *database.DB
}

func NewMovieRepository(db *database.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func scanMovieRow(scanner rowScanner) (*models.Movie, error) {
	var movie models.Movie

	err := scanner.Scan(
		&movie.ID, &movie.Name, &movie.OriginalName, &movie.Description,
		&movie.Status, &movie.ReleaseDate, &movie.Budget, &movie.Revenue,
		&movie.Banner, &movie.Genres, &movie.Director, &movie.DurationMinutes,
		&movie.Rating, &movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &movie, nil
}

func scanMovieRows(rows pgx.Rows) ([]*models.Movie, error) {
	defer rows.Close()

	movies := make([]*models.Movie, 0)

	for rows.Next() {
		movie, err := scanMovieRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return movies, nil
}

func (r *MovieRepository) Create(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	movie.ID = uuid.New().String()

	now := time.Now()
	movie.CreatedAt = now
	movie.UpdatedAt = now

	if movie.Status == "" {
		movie.Status = models.MovieStatusReleased
	}

	query := `
		INSERT INTO movies (id, name, original_name, description, status, release_date,
			budget, revenue, banner, genres, director, duration_minutes, rating,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		movie.ID, movie.Name, movie.OriginalName, movie.Description, movie.Status,
		movie.ReleaseDate, movie.Budget, movie.Revenue, movie.Banner, movie.Genres,
		movie.Director, movie.DurationMinutes, movie.Rating,
		movie.CreatedAt, movie.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return movie, nil
}

func (r *MovieRepository) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM movies WHERE id = $1 AND deleted_at IS NULL
	`, movieColumns)

	return scanMovieRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns a filtered page of movies plus the total count matching the filter.
func (r *MovieRepository) List(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argN := 1

	addArg := func(cond string, val interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argN))
		args = append(args, val)
		argN++
	}

	if filter.Name != "" {
		addArg("name ILIKE $%d", "%"+filter.Name+"%")
	}
	if filter.Status != "" {
		addArg("status = $%d", filter.Status)
	}
	if filter.Director != "" {
		addArg("director ILIKE $%d", "%"+filter.Director+"%")
	}
	if filter.MinRating != nil {
		addArg("rating >= $%d", *filter.MinRating)
	}
	if filter.MaxRating != nil {
		addArg("rating <= $%d", *filter.MaxRating)
	}
	if filter.MinDuration != nil {
		addArg("duration_minutes >= $%d", *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		addArg("duration_minutes <= $%d", *filter.MaxDuration)
	}
	if filter.InitialDate != nil {
		addArg("release_date >= $%d", *filter.InitialDate)
	}
	if filter.FinalDate != nil {
		addArg("release_date <= $%d", *filter.FinalDate)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM movies WHERE " + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.MapPostgresError(err)
	}

	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM movies WHERE %s ORDER BY created_at %s", movieColumns, where, order)

	if filter.Page > 0 && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argN, argN+1)
		args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query movies: %w", err)
	}

	movies, err := scanMovieRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return movies, total, nil
}

func (r *MovieRepository) Update(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	movie.UpdatedAt = time.Now()

	query := `
		UPDATE movies
		SET name = $2, original_name = $3, description = $4, status = $5,
			release_date = $6, budget = $7, revenue = $8, banner = $9, genres = $10,
			director = $11, duration_minutes = $12, rating = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		movie.ID, movie.Name, movie.OriginalName, movie.Description, movie.Status,
		movie.ReleaseDate, movie.Budget, movie.Revenue, movie.Banner, movie.Genres,
		movie.Director, movie.DurationMinutes, movie.Rating, movie.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return movie, nil
}

// Delete soft-deletes a movie; deleted rows stay out of every other query.
func (r *MovieRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE movies SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// FindReleasingWithin returns movies whose release date falls between today
// and the end of the lookahead window, inclusive.
func (r *MovieRepository) FindReleasingWithin(ctx context.Context, days int) ([]*models.Movie, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM movies
		WHERE deleted_at IS NULL
		  AND release_date >= CURRENT_DATE
		  AND release_date <= CURRENT_DATE + $1::int
		ORDER BY release_date
	`, movieColumns)

	rows, err := r.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming movies: %w", err)
	}

	return scanMovieRows(rows)
}

// GetStats computes catalog-wide aggregates.
func (r *MovieRepository) GetStats(ctx context.Context) (*models.MovieStats, error) {
	stats := &models.MovieStats{}

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'released'),
			COUNT(*) FILTER (WHERE status = 'in_production'),
			AVG(rating),
			AVG(duration_minutes)
		FROM movies WHERE deleted_at IS NULL
	`

	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&stats.TotalMovies, &stats.ReleasedMovies, &stats.InProductionMovies,
		&stats.AverageRating, &stats.AverageDuration,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	superlatives := []struct {
		column string
		target **models.Movie
	}{
		{"budget", &stats.HighestBudget},
		{"revenue", &stats.HighestRevenue},
		{"rating", &stats.HighestRated},
		{"duration_minutes", &stats.LongestMovie},
	}

	for _, s := range superlatives {
		query := fmt.Sprintf(`
			SELECT %s FROM movies
			WHERE deleted_at IS NULL AND %s IS NOT NULL
			ORDER BY %s DESC LIMIT 1
		`, movieColumns, s.column, s.column)

		movie, err := scanMovieRow(r.db.Pool.QueryRow(ctx, query))
		if err != nil {
			if err == models.ErrNotFound {
				continue
			}
			return nil, err
		}
		*s.target = movie
	}

	return stats, nil
}
