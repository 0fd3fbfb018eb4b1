package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rooklabs/marquee/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMovieService struct {
	CreateFunc   func(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	GetByIDFunc  func(ctx context.Context, id string) (*models.Movie, error)
	ListFunc     func(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error)
	UpdateFunc   func(ctx context.Context, id string, apply func(*models.Movie)) (*models.Movie, error)
	DeleteFunc   func(ctx context.Context, id string) error
	GetStatsFunc func(ctx context.Context) (*models.MovieStats, error)
}

func (m *mockMovieService) Create(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	return m.CreateFunc(ctx, movie)
}

func (m *mockMovieService) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockMovieService) List(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockMovieService) Update(ctx context.Context, id string, apply func(*models.Movie)) (*models.Movie, error) {
	return m.UpdateFunc(ctx, id, apply)
}

func (m *mockMovieService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockMovieService) GetStats(ctx context.Context) (*models.MovieStats, error) {
	return m.GetStatsFunc(ctx)
}

func movieRouter(h *MovieHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/movies", h.Create)
	r.Get("/movies", h.List)
	r.Get("/movies/stats", h.GetStats)
	r.Get("/movies/{id}", h.GetByID)
	r.Put("/movies/{id}", h.Update)
	r.Delete("/movies/{id}", h.Delete)
	return r
}

func TestCreateMovie(t *testing.T) {
	svc := &mockMovieService{
		CreateFunc: func(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
			assert.Equal(t, "Dune", movie.Name)
			assert.Equal(t, models.MovieStatusPostProduction, movie.Status)
			require.NotNil(t, movie.ReleaseDate)
			assert.Equal(t, "2026-10-01", movie.ReleaseDate.Format(dateLayout))

			movie.ID = "movie-1"
			return movie, nil
		},
	}
	h := NewMovieHandler(svc)

	release := "2026-10-01"
	rec := postJSON(t, h.Create, "/movies", CreateMovieRequest{
		Name:        "Dune",
		Status:      "post_production",
		ReleaseDate: &release,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp MovieResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "movie-1", resp.ID)
	require.NotNil(t, resp.ReleaseDate)
	assert.Equal(t, "2026-10-01", *resp.ReleaseDate)
}

func TestCreateMovieRejectsInvalidInput(t *testing.T) {
	svc := &mockMovieService{
		CreateFunc: func(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}
	h := NewMovieHandler(svc)

	badDate := "01/10/2026"
	badRating := 11.0

	tests := []struct {
		name string
		body CreateMovieRequest
	}{
		{"missing name", CreateMovieRequest{Status: "released"}},
		{"unknown status", CreateMovieRequest{Name: "Dune", Status: "filming"}},
		{"bad date format", CreateMovieRequest{Name: "Dune", Status: "released", ReleaseDate: &badDate}},
		{"rating above scale", CreateMovieRequest{Name: "Dune", Status: "released", Rating: &badRating}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Create, "/movies", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListMoviesFilterParsing(t *testing.T) {
	var captured models.MovieListFilter
	svc := &mockMovieService{
		ListFunc: func(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error) {
			captured = filter
			return []*models.Movie{{ID: "movie-1", Name: "Dune"}}, 42, nil
		},
	}
	h := NewMovieHandler(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/movies?page=2&limit=20&order=asc&name=du&status=released&min_rating=7.5&max_duration=180&initial_date=2026-01-01", nil)
	rec := httptest.NewRecorder()
	movieRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 20, captured.Limit)
	assert.Equal(t, "asc", captured.Order)
	assert.Equal(t, "du", captured.Name)
	assert.Equal(t, models.MovieStatusReleased, captured.Status)
	require.NotNil(t, captured.MinRating)
	assert.Equal(t, 7.5, *captured.MinRating)
	require.NotNil(t, captured.MaxDuration)
	assert.Equal(t, 180, *captured.MaxDuration)
	require.NotNil(t, captured.InitialDate)

	var resp MovieListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 42, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Data, 1)
}

func TestListMoviesDefaults(t *testing.T) {
	svc := &mockMovieService{
		ListFunc: func(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error) {
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 10, filter.Limit)
			assert.Equal(t, "desc", filter.Order)
			return nil, 0, nil
		},
	}
	h := NewMovieHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/movies", nil)
	rec := httptest.NewRecorder()
	movieRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListMoviesRejectsBadParams(t *testing.T) {
	h := NewMovieHandler(&mockMovieService{
		ListFunc: func(ctx context.Context, filter models.MovieListFilter) ([]*models.Movie, int, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, 0, nil
		},
	})

	for _, query := range []string{
		"page=0", "limit=500", "order=sideways", "status=filming",
		"min_rating=high", "initial_date=tomorrow",
	} {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/movies?"+query, nil)
			rec := httptest.NewRecorder()
			movieRouter(h).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateMovieAppliesOnlyProvidedFields(t *testing.T) {
	existing := &models.Movie{
		ID:     "movie-1",
		Name:   "Dune",
		Status: models.MovieStatusPostProduction,
	}
	svc := &mockMovieService{
		UpdateFunc: func(ctx context.Context, id string, apply func(*models.Movie)) (*models.Movie, error) {
			apply(existing)
			return existing, nil
		},
	}
	h := NewMovieHandler(svc)

	status := "released"
	rating := 8.4
	payload, _ := json.Marshal(UpdateMovieRequest{Status: &status, Rating: &rating})

	req := httptest.NewRequest(http.MethodPut, "/movies/movie-1", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	movieRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", existing.Name)
	assert.Equal(t, models.MovieStatusReleased, existing.Status)
	require.NotNil(t, existing.Rating)
	assert.Equal(t, 8.4, *existing.Rating)
}

func TestUpdateMovieNotFound(t *testing.T) {
	svc := &mockMovieService{
		UpdateFunc: func(ctx context.Context, id string, apply func(*models.Movie)) (*models.Movie, error) {
			return nil, models.ErrNotFound
		},
	}
	h := NewMovieHandler(svc)

	payload, _ := json.Marshal(UpdateMovieRequest{})
	req := httptest.NewRequest(http.MethodPut, "/movies/missing", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	movieRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMovie(t *testing.T) {
	svc := &mockMovieService{
		DeleteFunc: func(ctx context.Context, id string) error {
			assert.Equal(t, "movie-1", id)
			return nil
		},
	}
	h := NewMovieHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/movies/movie-1", nil)
	rec := httptest.NewRecorder()
	movieRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetStats(t *testing.T) {
	rating := 7.2
	svc := &mockMovieService{
		GetStatsFunc: func(ctx context.Context) (*models.MovieStats, error) {
			return &models.MovieStats{
				TotalMovies:    10,
				ReleasedMovies: 4,
				AverageRating:  &rating,
				HighestRated: &models.Movie{
					ID: "movie-9", Name: "Best One",
					CreatedAt: time.Now(), UpdatedAt: time.Now(),
				},
			}, nil
		},
	}
	h := NewMovieHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/movies/stats", nil)
	rec := httptest.NewRecorder()
	movieRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MovieStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp.TotalMovies)
	require.NotNil(t, resp.HighestRated)
	assert.Equal(t, "movie-9", resp.HighestRated.ID)
	assert.Nil(t, resp.LongestMovie)
}
