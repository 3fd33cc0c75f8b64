package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrAccountNotFound is returned when the provider has no account for the id.
var ErrAccountNotFound = errors.New("identity: account not found")

// Subscription is the structured subscription object some accounts carry.
type Subscription struct {
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// Account is the plan-bearing view of a provider account. Plan information
// may live on the subscription object, on the public metadata, or on the
// private metadata depending on how the account was provisioned.
type Account struct {
	ID              string         `json:"id"`
	Subscription    *Subscription  `json:"subscription"`
	PublicMetadata  map[string]any `json:"public_metadata"`
	PrivateMetadata map[string]any `json:"private_metadata"`
}

// Client talks to the external identity/entitlement provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a provider client. The HTTP client carries its own
// timeout as a backstop; callers still bound individual calls with contexts.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Account fetches the account by id. The request is abandoned when ctx
// expires.
func (c *Client) Account(ctx context.Context, userID string) (*Account, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("identity: user id is required")
	}

	endpoint := c.baseURL + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: fetch account: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAccountNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity: unexpected status %d", resp.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("identity: decode account: %w", err)
	}
	return &account, nil
}
