// Package directory implements the HTTP client for the user directory
// service, which owns user profiles, roles and account statuses.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
)

// Client talks to the user directory's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a directory client with a bounded per-call timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) userURL(id string) string {
	return c.baseURL + "/v1/users/" + url.PathEscape(id)
}

// GetUser fetches a profile by subject ID. A 404 maps to ErrUserNotFound;
// everything else non-2xx is an upstream failure.
func (c *Client) GetUser(ctx context.Context, id string) (*identity.UserRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeRecord(resp)
	case http.StatusNotFound:
		return nil, identity.ErrUserNotFound
	default:
		return nil, fmt.Errorf("user directory returned HTTP %d", resp.StatusCode)
	}
}

// ListUsers fetches all profiles
func (c *Client) ListUsers(ctx context.Context) ([]identity.UserRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user directory returned HTTP %d", resp.StatusCode)
	}

	var recs []identity.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("invalid directory response: %w", err)
	}
	return recs, nil
}

// CreateUser registers a new profile. A 409 maps to ErrUserExists.
func (c *Client) CreateUser(ctx context.Context, user identity.NewUser) (*identity.UserRecord, error) {
	body, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return decodeRecord(resp)
	case http.StatusConflict:
		return nil, identity.ErrUserExists
	default:
		return nil, fmt.Errorf("user directory returned HTTP %d", resp.StatusCode)
	}
}

// UpdateUser applies a partial update and returns the updated record
func (c *Client) UpdateUser(ctx context.Context, id string, update identity.UserUpdate) (*identity.UserRecord, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.userURL(id), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeRecord(resp)
	case http.StatusNotFound:
		return nil, identity.ErrUserNotFound
	default:
		return nil, fmt.Errorf("user directory returned HTTP %d", resp.StatusCode)
	}
}

// TouchLastSeen records activity for the subject. Best-effort; callers run
// it off the request path.
func (c *Client) TouchLastSeen(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.userURL(id)+"/activity", nil)
	if err != nil {
		return fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user directory returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func decodeRecord(resp *http.Response) (*identity.UserRecord, error) {
	var rec identity.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid directory response: %w", err)
	}
	return &rec, nil
}
