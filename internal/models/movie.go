package models

import "time"

// MovieStatus enumerates the production states a movie can be in
type MovieStatus string

const (
	MovieStatusReleased       MovieStatus = "released"
	MovieStatusInProduction   MovieStatus = "in_production"
	MovieStatusPostProduction MovieStatus = "post_production"
	MovieStatusPreProduction  MovieStatus = "pre_production"
	MovieStatusCancelled      MovieStatus = "cancelled"
	MovieStatusOnHold         MovieStatus = "on_hold"
)

// ValidMovieStatuses lists every accepted status value (used by DTO validation)
var ValidMovieStatuses = []MovieStatus{
	MovieStatusReleased,
	MovieStatusInProduction,
	MovieStatusPostProduction,
	MovieStatusPreProduction,
	MovieStatusCancelled,
	MovieStatusOnHold,
}

type Movie struct {
	ID              string
	Name            string
	OriginalName    *string
	Description     *string
	Status          MovieStatus
	ReleaseDate     *time.Time
	Budget          *float64
	Revenue         *float64
	Banner          *string // storage URL of the uploaded banner image
	Genres          []string
	Director        *string
	DurationMinutes *int
	Rating          *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time // soft delete marker, never exposed
}

// MovieListFilter holds the optional filters for listing movies
type MovieListFilter struct {
	Page        int
	Limit       int
	Order       string // "asc" or "desc" by created_at
	Name        string
	Status      MovieStatus
	Director    string
	MinRating   *float64
	MaxRating   *float64
	MinDuration *int
	MaxDuration *int
	InitialDate *time.Time
	FinalDate   *time.Time
}

// MovieStats aggregates catalog statistics
type MovieStats struct {
	TotalMovies        int      `json:"total_movies"`
	ReleasedMovies     int      `json:"released_movies"`
	InProductionMovies int      `json:"in_production_movies"`
	HighestBudget      *Movie   `json:"highest_budget_movie,omitempty"`
	HighestRevenue     *Movie   `json:"highest_revenue_movie,omitempty"`
	HighestRated       *Movie   `json:"highest_rated_movie,omitempty"`
	LongestMovie       *Movie   `json:"longest_movie,omitempty"`
	AverageRating      *float64 `json:"average_rating,omitempty"`
	AverageDuration    *float64 `json:"average_duration,omitempty"`
}
