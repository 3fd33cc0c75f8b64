// Package usagesync is the client-side companion of the usage API: a thin
// HTTP client plus a cache that keeps the last authoritative entitlement
// fresh with periodic, pausable refreshes.
package usagesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Entitlement mirrors the JSON entitlement payload served by the usage API.
type Entitlement struct {
	RemainingCount int       `json:"remainingCount"`
	DailyLimit     int       `json:"dailyLimit"`
	ResetTime      time.Time `json:"resetTime"`
	CanUseChat     bool      `json:"canUseChat"`
	PlanName       string    `json:"planName"`
	CurrentUsage   int       `json:"currentUsage"`
}

// APIError is the decoded error payload of a non-2xx usage API response.
type APIError struct {
	Message        string    `json:"error"`
	Code           string    `json:"errorCode"`
	RemainingCount int       `json:"remainingCount"`
	ResetTime      time.Time `json:"resetTime"`
	Status         int       `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("usage api: %s (%s)", e.Message, e.Code)
}

// StatusOptions select the server-side behavior of a status check.
type StatusOptions struct {
	// Consume asks the server to enforce limits as if a chat invocation
	// were about to happen.
	Consume bool
	// Fresh rejects degraded plan resolution instead of serving
	// best-effort data.
	Fresh bool
}

// Client calls the usage API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the caller's current entitlement.
func (c *Client) Status(ctx context.Context, opts StatusOptions) (Entitlement, error) {
	q := url.Values{}
	if opts.Consume {
		q.Set("intent", "use")
	}
	if opts.Fresh {
		q.Set("fresh", "1")
	}
	target := c.baseURL + "/v1/usage/status"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, target)
}

// Increment records one chat invocation and returns the new entitlement.
func (c *Client) Increment(ctx context.Context) (Entitlement, error) {
	return c.do(ctx, http.MethodPost, c.baseURL+"/v1/usage/increment")
}

func (c *Client) do(ctx context.Context, method, target string) (Entitlement, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return Entitlement{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Entitlement{}, fmt.Errorf("usage api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var ent Entitlement
		if err := json.NewDecoder(resp.Body).Decode(&ent); err != nil {
			return Entitlement{}, fmt.Errorf("decode entitlement: %w", err)
		}
		return ent, nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "SYSTEM_ERROR"
		apiErr.Message = fmt.Sprintf("usage api returned status %d", resp.StatusCode)
	}
	return Entitlement{}, apiErr
}
