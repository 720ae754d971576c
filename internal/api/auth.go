package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// tokenPair is the credential fragment auth endpoints may return.
type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// installSession adopts tokens from an auth response when present.
func (c *Client) installSession(raw json.RawMessage) {
	var pair tokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return
	}
	if pair.Access != "" {
		c.SetAccessToken(pair.Access)
	}
	if pair.Refresh != "" {
		c.SetRefreshToken(pair.Refresh)
	}
}

// Login authenticates with email and password. When the server answers with
// tokens they are installed; tenants with OTP enabled answer without tokens
// and expect a VerifyOTP call next.
func (c *Client) Login(ctx context.Context, email, password string) error {
	raw, err := c.Request(ctx, http.MethodPost, "auth/login/", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return err
	}
	c.installSession(raw)
	return nil
}

// VerifyOTP confirms the one-time code sent to email and installs the session.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	raw, err := c.Request(ctx, http.MethodPost, "auth/otp/verify/", map[string]string{
		"email": email,
		"otp":   code,
	}, nil)
	if err != nil {
		return err
	}
	c.installSession(raw)
	return nil
}

// RegisterWithInvite completes invitation-based onboarding and installs the
// session the server returns.
func (c *Client) RegisterWithInvite(ctx context.Context, inviteToken, name, password string) error {
	raw, err := c.Request(ctx, http.MethodPost, "auth/register/", map[string]string{
		"token":    inviteToken,
		"name":     name,
		"password": password,
	}, nil)
	if err != nil {
		return err
	}
	c.installSession(raw)
	return nil
}

// RequestPasswordReset asks the server to mail a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := c.Request(ctx, http.MethodPost, "auth/password/reset/", map[string]string{
		"email": email,
	}, nil)
	return err
}

// ResetPassword sets a new password using a reset token from email.
func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) error {
	_, err := c.Request(ctx, http.MethodPost, "auth/password/reset/confirm/", map[string]string{
		"token":    resetToken,
		"password": password,
	}, nil)
	return err
}
