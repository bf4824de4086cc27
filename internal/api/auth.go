package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/shared"
)

// RegisterParams are the fields accepted by the register endpoint.
type RegisterParams struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// Login authenticates with username/password and stores the returned bearer
// credential in the token store. Setting a new credential discards any old one.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Token, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrInvalidInput)
	}

	body := map[string]string{"username": username, "password": password}

	var token models.Token
	if _, err := c.Do(ctx, http.MethodPost, "/auth/login", body, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if c.tokens != nil {
		saved := &oauth2.Token{
			AccessToken: token.AccessToken,
			TokenType:   token.TokenType,
			Expiry:      time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
		}
		if err := c.tokens.Save(saved); err != nil {
			return nil, fmt.Errorf("failed to store credential: %w", err)
		}
	}

	return &token, nil
}

// Register creates a new account. Does not log in.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if params.Username == "" || params.Email == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", shared.ErrInvalidInput)
	}

	var user models.User
	if _, err := c.Do(ctx, http.MethodPost, "/auth/register", params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the authenticated user, validating the stored credential.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// HealthStatus summarizes the backend's component checks.
type HealthStatus struct {
	Status        string         `json:"status"` // healthy, degraded, unhealthy
	Timestamp     time.Time      `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Checks        map[string]any `json:"checks"`
}

// Health probes the backend's liveness endpoint. Served outside /api and
// without authentication.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health/", nil)
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}
