package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Simulated login: any email succeeds after a fixed delay and yields a device token",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Log out",
		Description: "Clears the device's user and premium records",
		Tags:        []string{"Auth"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Get current user",
		Tags:        []string{"Auth"},
	}, s.handleGetCurrentUser)
}

// LoginInput contains the login request body.
type LoginInput struct {
	Body service.LoginRequest
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body service.LoginResponse
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	device := deviceID(ctx)

	if !s.loginLimiter.Allow(device) {
		return nil, huma.Error429TooManyRequests("Too many login attempts, slow down")
	}

	resp, err := s.services.Entitlements.Login(ctx, device, input.Body)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{Body: *resp}, nil
}

// LogoutOutput wraps the logout response for Huma.
type LogoutOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
	if err := s.services.Entitlements.Logout(ctx, deviceID(ctx)); err != nil {
		return nil, err
	}

	out := &LogoutOutput{}
	out.Body.Success = true
	return out, nil
}

// UserResponse contains the logged-in user data in API responses.
type UserResponse struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	LoggedInAt  time.Time `json:"logged_in_at"`
	IsPremium   bool      `json:"is_premium"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	device := deviceID(ctx)

	user, err := s.services.Entitlements.CurrentUser(ctx, device)
	if err != nil {
		return nil, err
	}

	premium, err := s.services.Entitlements.IsPremium(ctx, device)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: UserResponse{
		Email:       user.Email,
		DisplayName: user.DisplayName(),
		LoggedInAt:  user.LoggedInAt,
		IsPremium:   premium,
	}}, nil
}
