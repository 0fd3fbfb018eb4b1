package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rooklabs/marquee/internal/models"
	pkghttp "github.com/rooklabs/marquee/pkg/http"
)

// MovieServiceInterface defines the catalog business logic
type MovieServiceInterface interface {
	Create(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	GetByID(ctx context.Context, id string) (*models.Movie, error)
	List(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error)
	Update(ctx context.Context, id string, apply func(*models.Movie)) (*models.Movie, error)
	Delete(ctx context.Context, id string) error
	GetStats(ctx context.Context) (*models.MovieStats, error)
}

// MovieHandler handles catalog HTTP requests
type MovieHandler struct {
	service MovieServiceInterface
}

// NewMovieHandler creates a new MovieHandler
func NewMovieHandler(service MovieServiceInterface) *MovieHandler {
	return &MovieHandler{service: service}
}

const dateLayout = "2006-01-02"

// CreateMovieRequest represents the request body for creating a movie
type CreateMovieRequest struct {
	Name            string   `json:"name" validate:"required,min=1,max=255"`
	OriginalName    *string  `json:"original_name,omitempty" validate:"omitempty,max=255"`
	Description     *string  `json:"description,omitempty"`
	Status          string   `json:"status" validate:"required,oneof=released in_production post_production pre_production cancelled on_hold"`
	ReleaseDate     *string  `json:"release_date,omitempty"`
	Budget          *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Revenue         *float64 `json:"revenue,omitempty" validate:"omitempty,gte=0"`
	Genres          []string `json:"genres,omitempty" validate:"omitempty,dive,min=1"`
	Director        *string  `json:"director,omitempty" validate:"omitempty,max=255"`
	DurationMinutes *int     `json:"duration_minutes,omitempty" validate:"omitempty,gte=1"`
	Rating          *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// UpdateMovieRequest represents the request body for updating a movie.
// Only the fields present in the body are applied.
type UpdateMovieRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	OriginalName    *string  `json:"original_name,omitempty" validate:"omitempty,max=255"`
	Description     *string  `json:"description,omitempty"`
	Status          *string  `json:"status,omitempty" validate:"omitempty,oneof=released in_production post_production pre_production cancelled on_hold"`
	ReleaseDate     *string  `json:"release_date,omitempty"`
	Budget          *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Revenue         *float64 `json:"revenue,omitempty" validate:"omitempty,gte=0"`
	Banner          *string  `json:"banner,omitempty"`
	Genres          []string `json:"genres,omitempty" validate:"omitempty,dive,min=1"`
	Director        *string  `json:"director,omitempty" validate:"omitempty,max=255"`
	DurationMinutes *int     `json:"duration_minutes,omitempty" validate:"omitempty,gte=1"`
	Rating          *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// MovieResponse represents a movie in HTTP responses
type MovieResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	OriginalName    *string  `json:"original_name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Status          string   `json:"status"`
	ReleaseDate     *string  `json:"release_date,omitempty"`
	Budget          *float64 `json:"budget,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
	Banner          *string  `json:"banner,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	Director        *string  `json:"director,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// MovieListResponse is the paginated listing payload
type MovieListResponse struct {
	Data       []*MovieResponse `json:"data"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// MovieStatsResponse aggregates catalog statistics for HTTP responses
type MovieStatsResponse struct {
	TotalMovies        int            `json:"total_movies"`
	ReleasedMovies     int            `json:"released_movies"`
	InProductionMovies int            `json:"in_production_movies"`
	HighestBudget      *MovieResponse `json:"highest_budget_movie,omitempty"`
	HighestRevenue     *MovieResponse `json:"highest_revenue_movie,omitempty"`
	HighestRated       *MovieResponse `json:"highest_rated_movie,omitempty"`
	LongestMovie       *MovieResponse `json:"longest_movie,omitempty"`
	AverageRating      *float64       `json:"average_rating,omitempty"`
	AverageDuration    *float64       `json:"average_duration,omitempty"`
}

// MovieModelToResponse converts a movie model to its response DTO
func MovieModelToResponse(m *models.Movie) *MovieResponse {
	if m == nil {
		return nil
	}
	resp := &MovieResponse{
		ID:              m.ID,
		Name:            m.Name,
		OriginalName:    m.OriginalName,
		Description:     m.Description,
		Status:          string(m.Status),
		Budget:          m.Budget,
		Revenue:         m.Revenue,
		Banner:          m.Banner,
		Genres:          m.Genres,
		Director:        m.Director,
		DurationMinutes: m.DurationMinutes,
		Rating:          m.Rating,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       m.UpdatedAt.Format(time.RFC3339),
	}
	if m.ReleaseDate != nil {
		d := m.ReleaseDate.Format(dateLayout)
		resp.ReleaseDate = &d
	}
	return resp
}

// Create handles movie creation
// @Summary Create a movie
// @Tags movies
// @Accept json
// @Param request body CreateMovieRequest true "New movie"
// @Produce json
// @Success 201 {object} MovieResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /movies [post]
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	movie := &models.Movie{
		Name:            req.Name,
		OriginalName:    req.OriginalName,
		Description:     req.Description,
		Status:          models.MovieStatus(req.Status),
		Budget:          req.Budget,
		Revenue:         req.Revenue,
		Genres:          req.Genres,
		Director:        req.Director,
		DurationMinutes: req.DurationMinutes,
		Rating:          req.Rating,
	}

	if req.ReleaseDate != nil {
		d, err := time.Parse(dateLayout, *req.ReleaseDate)
		if err != nil {
			pkghttp.WriteBadRequest(w, "release_date must be YYYY-MM-DD")
			return
		}
		movie.ReleaseDate = &d
	}

	created, err := h.service.Create(r.Context(), movie)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to create movie")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, MovieModelToResponse(created))
}

// GetByID returns a single movie
// @Summary Get a movie
// @Tags movies
// @Param id path string true "Movie ID"
// @Produce json
// @Success 200 {object} MovieResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /movies/{id} [get]
func (h *MovieHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	movie, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Movie not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to get movie")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MovieModelToResponse(movie))
}

// List returns a filtered page of the catalog
// @Summary List movies
// @Tags movies
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param order query string false "created_at order: asc or desc"
// @Param name query string false "Case-insensitive name filter"
// @Param status query string false "Production status"
// @Param director query string false "Case-insensitive director filter"
// @Param min_rating query number false "Minimum rating"
// @Param max_rating query number false "Maximum rating"
// @Param min_duration query int false "Minimum duration in minutes"
// @Param max_duration query int false "Maximum duration in minutes"
// @Param initial_date query string false "Release date from (YYYY-MM-DD)"
// @Param final_date query string false "Release date to (YYYY-MM-DD)"
// @Produce json
// @Success 200 {object} MovieListResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /movies [get]
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	movies, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list movies")
		return
	}

	data := make([]*MovieResponse, 0, len(movies))
	for _, m := range movies {
		data = append(data, MovieModelToResponse(m))
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	pkghttp.WriteJSON(w, http.StatusOK, MovieListResponse{
		Data:       data,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Update applies a partial update to a movie
// @Summary Update a movie
// @Tags movies
// @Accept json
// @Param id path string true "Movie ID"
// @Param request body UpdateMovieRequest true "Fields to change"
// @Produce json
// @Success 200 {object} MovieResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /movies/{id} [put]
func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var releaseDate *time.Time
	if req.ReleaseDate != nil {
		d, err := time.Parse(dateLayout, *req.ReleaseDate)
		if err != nil {
			pkghttp.WriteBadRequest(w, "release_date must be YYYY-MM-DD")
			return
		}
		releaseDate = &d
	}

	updated, err := h.service.Update(r.Context(), id, func(m *models.Movie) {
		if req.Name != nil {
			m.Name = *req.Name
		}
		if req.OriginalName != nil {
			m.OriginalName = req.OriginalName
		}
		if req.Description != nil {
			m.Description = req.Description
		}
		if req.Status != nil {
			m.Status = models.MovieStatus(*req.Status)
		}
		if releaseDate != nil {
			m.ReleaseDate = releaseDate
		}
		if req.Budget != nil {
			m.Budget = req.Budget
		}
		if req.Revenue != nil {
			m.Revenue = req.Revenue
		}
		if req.Banner != nil {
			m.Banner = req.Banner
		}
		if req.Genres != nil {
			m.Genres = req.Genres
		}
		if req.Director != nil {
			m.Director = req.Director
		}
		if req.DurationMinutes != nil {
			m.DurationMinutes = req.DurationMinutes
		}
		if req.Rating != nil {
			m.Rating = req.Rating
		}
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Movie not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to update movie")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MovieModelToResponse(updated))
}

// Delete removes a movie from the catalog
// @Summary Delete a movie
// @Tags movies
// @Param id path string true "Movie ID"
// @Success 204 "No Content"
// @Failure 404 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /movies/{id} [delete]
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Movie not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to delete movie")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns catalog aggregates
// @Summary Catalog statistics
// @Tags movies
// @Produce json
// @Success 200 {object} MovieStatsResponse
// @Security BearerAuth
// @Router /movies/stats [get]
func (h *MovieHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to compute statistics")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MovieStatsResponse{
		TotalMovies:        stats.TotalMovies,
		ReleasedMovies:     stats.ReleasedMovies,
		InProductionMovies: stats.InProductionMovies,
		HighestBudget:      MovieModelToResponse(stats.HighestBudget),
		HighestRevenue:     MovieModelToResponse(stats.HighestRevenue),
		HighestRated:       MovieModelToResponse(stats.HighestRated),
		LongestMovie:       MovieModelToResponse(stats.LongestMovie),
		AverageRating:      stats.AverageRating,
		AverageDuration:    stats.AverageDuration,
	})
}

// parseListFilter reads pagination and filter query parameters
func parseListFilter(r *http.Request) (models.MovieListFilter, error) {
	q := r.URL.Query()

	filter := models.MovieListFilter{
		Page:     1,
		Limit:    10,
		Order:    "desc",
		Name:     q.Get("name"),
		Director: q.Get("director"),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if filter.Page, err = strconv.Atoi(v); err != nil || filter.Page < 1 {
			return filter, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 1 || filter.Limit > 100 {
			return filter, errors.New("limit must be between 1 and 100")
		}
	}
	if v := q.Get("order"); v != "" {
		if v != "asc" && v != "desc" {
			return filter, errors.New("order must be asc or desc")
		}
		filter.Order = v
	}
	if v := q.Get("status"); v != "" {
		status := models.MovieStatus(v)
		valid := false
		for _, s := range models.ValidMovieStatuses {
			if s == status {
				valid = true
				break
			}
		}
		if !valid {
			return filter, errors.New("invalid status")
		}
		filter.Status = status
	}
	if v := q.Get("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("min_rating must be a number")
		}
		filter.MinRating = &f
	}
	if v := q.Get("max_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("max_rating must be a number")
		}
		filter.MaxRating = &f
	}
	if v := q.Get("min_duration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("min_duration must be an integer")
		}
		filter.MinDuration = &n
	}
	if v := q.Get("max_duration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("max_duration must be an integer")
		}
		filter.MaxDuration = &n
	}
	if v := q.Get("initial_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, errors.New("initial_date must be YYYY-MM-DD")
		}
		filter.InitialDate = &d
	}
	if v := q.Get("final_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, errors.New("final_date must be YYYY-MM-DD")
		}
		filter.FinalDate = &d
	}

	return filter, nil
}
