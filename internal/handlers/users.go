package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rooklabs/marquee/internal/models"
	"github.com/rooklabs/marquee/internal/services"
	pkghttp "github.com/rooklabs/marquee/pkg/http"
)

// UserServiceInterface defines the user business logic
type UserServiceInterface interface {
	Create(ctx context.Context, name, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// UserHandler handles user HTTP requests
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserRequest represents the request body for registration
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Create handles user registration
// @Summary Register a user
// @Tags users
// @Accept json
// @Param request body CreateUserRequest true "New user"
// @Produce json
// @Success 201 {object} services.UserResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email already in use")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Failed to create user")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, services.UserModelToResponse(user))
}

// GetByID returns a user's public profile
// @Summary Get a user
// @Tags users
// @Param id path string true "User ID"
// @Produce json
// @Success 200 {object} services.UserResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Missing user id")
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to get user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserModelToResponse(user))
}
