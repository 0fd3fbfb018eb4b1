package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rooklabs/marquee/internal/models"
	"github.com/rooklabs/marquee/internal/services"
	pkghttp "github.com/rooklabs/marquee/pkg/http"
)

// AuthServiceInterface defines the sign-in business logic
type AuthServiceInterface interface {
	SignIn(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignInRequest represents the request body for sign-in
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignIn handles user sign-in
// @Summary Sign in
// @Description Authenticates a user and returns a session token. Repeated failures lock the account temporarily.
// @Tags auth
// @Accept json
// @Param request body SignInRequest true "Credentials"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.SignIn(r.Context(), req.Email, req.Password, pkghttp.ExtractClientIP(r))
	if err != nil {
		if locked, ok := models.IsAccountLocked(err); ok {
			pkghttp.WriteTooManyRequests(w, locked.Error())
			return
		}
		if errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to sign in")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
