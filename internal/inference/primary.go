// Package inference fronts the two AI backends: the comprehensive-AI REST
// service (primary) and the chat-completion provider chain (fallback). No
// provider error escapes this package to the end user.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrPrimaryUnavailable is returned when the primary service cannot serve a
// call; callers fall back to the chat chain.
var ErrPrimaryUnavailable = errors.New("inference: primary service unavailable")

// PrimaryClient talks to the comprehensive-AI service over REST.
type PrimaryClient struct {
	baseURL string
	http    *http.Client
}

// NewPrimaryClient creates a client for the comprehensive-AI service.
func NewPrimaryClient(baseURL string, timeout time.Duration) *PrimaryClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PrimaryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health probes the service's availability endpoint.
func (c *PrimaryClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("inference: building health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference: health probe failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference: health probe returned %d", resp.StatusCode)
	}
	return nil
}

type comprehensiveRequest struct {
	Query string `json:"query"`
}

type scheduleRequest struct {
	Query     string `json:"query"`
	Date      string `json:"date,omitempty"`
	UserToken string `json:"user_token,omitempty"`
}

type primaryResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
	Answer   string `json:"answer"`
}

// Comprehensive sends a free-text query to the comprehensive endpoint.
func (c *PrimaryClient) Comprehensive(ctx context.Context, query string) (string, error) {
	return c.post(ctx, "/api/bot/comprehensive", comprehensiveRequest{Query: query}, "")
}

// MedicineSchedule asks the dedicated schedule endpoint, forwarding the
// caller's bearer token.
func (c *PrimaryClient) MedicineSchedule(ctx context.Context, query, date, userToken string) (string, error) {
	return c.post(ctx, "/api/bot/medicine-schedule", scheduleRequest{
		Query:     query,
		Date:      date,
		UserToken: userToken,
	}, userToken)
}

func (c *PrimaryClient) post(ctx context.Context, path string, payload any, bearer string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("inference: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("inference: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Node-Bridge", "true")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference: primary call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("inference: reading primary response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("inference: primary returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed primaryResponse
	if err := json.Unmarshal(raw, &parsed); err == nil {
		for _, candidate := range []string{parsed.Response, parsed.Message, parsed.Answer} {
			if strings.TrimSpace(candidate) != "" {
				return strings.TrimSpace(candidate), nil
			}
		}
	}
	// services that answer with a bare string or unknown envelope
	text := strings.TrimSpace(strings.Trim(string(raw), `"`))
	if text == "" {
		return "", errors.New("inference: primary returned empty response")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
