package api

import (
	"context"
	"fmt"
)

// Login starts the authentication sequence with email and password. When
// the account has two-factor authentication enabled, the response carries
// Requires2FA and the token pair is only issued by Verify2FA.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.Post(ctx, "auth/login/", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify2FA completes a two-factor login with the emailed code.
func (c *Client) Verify2FA(ctx context.Context, email, code string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.Post(ctx, "auth/verify-2fa/", map[string]string{
		"email": email,
		"code":  code,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin authenticates with a Google access token instead of a
// password.
func (c *Client) GoogleLogin(ctx context.Context, accessToken string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.Post(ctx, "auth/google/", map[string]string{
		"access_token": accessToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// Register creates a new account. The backend sends a verification email;
// the account is unusable until VerifyEmail succeeds.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.Post(ctx, "auth/register/", req, nil)
}

// VerifyEmail confirms an account with the token from the verification
// email.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.Post(ctx, "auth/verify-email/", map[string]string{"token": token}, nil)
}

// RequestPasswordReset asks the backend to email a password reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.Post(ctx, "auth/password-reset/", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset sets a new password using the uid and token from
// the reset link.
func (c *Client) ConfirmPasswordReset(ctx context.Context, uidb64, token, password string) error {
	return c.Post(ctx, "auth/password-reset-confirm/", map[string]string{
		"uidb64":           uidb64,
		"token":            token,
		"password":         password,
		"password_confirm": password,
	}, nil)
}

// CurrentUser returns the authenticated account.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "auth/me/", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return &user, nil
}

// Logout invalidates the session server-side. The local credential is
// cleared by the caller regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "auth/logout/", nil, nil)
}
