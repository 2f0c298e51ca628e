// Package provider implements the HTTP client for the external identity
// provider, which owns token issuance and verification.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
)

// Client verifies bearer tokens against the identity provider's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client. The timeout bounds every
// verification call; a slow provider fails closed rather than hanging the
// admission pipeline.
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

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

type verifyError struct {
	Error string `json:"error"`
}

// VerifyToken checks a raw bearer token with the provider.
//
// A 401 response carries an error code distinguishing invalid, expired and
// revoked tokens, which maps onto the corresponding sentinel errors. Any
// transport failure or unexpected status is an upstream error.
func (c *Client) VerifyToken(ctx context.Context, token string) (*identity.TokenClaims, error) {
	body, err := json.Marshal(verifyRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to encode verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tokens/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var vr verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
			return nil, fmt.Errorf("invalid provider response: %w", err)
		}
		if vr.Subject == "" {
			return nil, fmt.Errorf("provider response missing subject")
		}
		return &identity.TokenClaims{Subject: vr.Subject, Email: vr.Email}, nil

	case http.StatusUnauthorized:
		var ve verifyError
		if err := json.NewDecoder(resp.Body).Decode(&ve); err != nil {
			return nil, identity.ErrTokenInvalid
		}
		switch ve.Error {
		case "expired":
			return nil, identity.ErrTokenExpired
		case "revoked":
			return nil, identity.ErrTokenRevoked
		default:
			return nil, identity.ErrTokenInvalid
		}

	default:
		return nil, fmt.Errorf("identity provider returned HTTP %d", resp.StatusCode)
	}
}
