package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// defaultAuthError is the message used when an auth endpoint fails without
// an "error" field in its body.
const defaultAuthError = "An error occurred"

// User is the account returned by the profile endpoint.
type User struct {
	ID    json.Number `json:"id,omitempty"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

// SignupRequest creates an account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token issued by signup and login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest sets a new password using a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// MessageResponse is the body of the password endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthAPI wraps the account endpoints of the dashboard API.
type AuthAPI struct {
	client *Client
}

// NewAuthAPI returns the account endpoints over c.
func NewAuthAPI(c *Client) *AuthAPI {
	if c == nil {
		panic("client: NewAuthAPI requires a non-nil client")
	}
	return &AuthAPI{client: c}
}

// Signup creates an account and returns its session token.
func (a *AuthAPI) Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := a.call(ctx, http.MethodPost, "/signup", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a session token.
func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := a.call(ctx, http.MethodPost, "/login", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the account owning token.
func (a *AuthAPI) Profile(ctx context.Context, token string) (*User, error) {
	var out User
	if err := a.call(ctx, http.MethodGet, "/profile", nil, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword requests a password reset email.
func (a *AuthAPI) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.call(ctx, http.MethodPost, "/forgot-password", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password with the token from the reset email.
func (a *AuthAPI) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.call(ctx, http.MethodPost, "/reset-password", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) call(ctx context.Context, method, endpoint string, in any, token string, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	req, err := a.client.newRequest(ctx, method, endpoint, nil, body, false)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.do(req, defaultAuthError)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassServer,
			Message:    fmt.Sprintf("decode %s response", endpoint),
			Err:        err,
		}
	}
	return nil
}
