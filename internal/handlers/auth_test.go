package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rooklabs/marquee/internal/models"
	"github.com/rooklabs/marquee/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuthService struct {
	SignInFunc func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
	return m.SignInFunc(ctx, email, password, ipAddress)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSignInSuccess(t *testing.T) {
	svc := &mockAuthService{
		SignInFunc: func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
			assert.Equal(t, "ada@example.com", email)
			return &services.AuthResponse{
				Token: "jwt-token",
				User:  &services.UserResponse{ID: "user-1", Email: email},
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	rec := postJSON(t, h.SignIn, "/auth/signin", SignInRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp services.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, "user-1", resp.User.ID)
}

func TestSignInInvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		SignInFunc: func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
			return nil, models.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(svc)

	rec := postJSON(t, h.SignIn, "/auth/signin", SignInRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignInAccountLocked(t *testing.T) {
	svc := &mockAuthService{
		SignInFunc: func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
			return nil, &models.AccountLockedError{RetryAfter: 15 * time.Minute}
		},
	}
	h := NewAuthHandler(svc)

	rec := postJSON(t, h.SignIn, "/auth/signin", SignInRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "try again in 15 minutes")
}

func TestSignInValidation(t *testing.T) {
	svc := &mockAuthService{
		SignInFunc: func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}
	h := NewAuthHandler(svc)

	tests := []struct {
		name string
		body SignInRequest
	}{
		{"missing email", SignInRequest{Password: "something"}},
		{"malformed email", SignInRequest{Email: "not-an-email", Password: "something"}},
		{"missing password", SignInRequest{Email: "ada@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.SignIn, "/auth/signin", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignInMalformedBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
