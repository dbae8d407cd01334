// Package domainapi is the REST boundary to the domain service that owns the
// catalog and record persistence. Every call forwards the caller's bearer
// token; failures are classified into a small guidance taxonomy the dialog
// layer turns into user-facing retry advice.
package domainapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CatalogItem is one medicine or vaccine known to the domain service.
type CatalogItem struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Client calls the domain service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a domain-service client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Data []CatalogItem `json:"data"`
}

// ListMedicines fetches the caller's medicine catalog.
func (c *Client) ListMedicines(ctx context.Context, token string) ([]CatalogItem, error) {
	return c.list(ctx, "/api/v1/medicines", token)
}

// ListVaccines fetches the caller's vaccine catalog.
func (c *Client) ListVaccines(ctx context.Context, token string) ([]CatalogItem, error) {
	return c.list(ctx, "/api/v1/vaccines", token)
}

func (c *Client) list(ctx context.Context, path, token string) ([]CatalogItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("domainapi: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &CallError{Kind: ErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, body)
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// some deployments answer with a bare array
		var items []CatalogItem
		if err2 := json.Unmarshal(body, &items); err2 == nil {
			return items, nil
		}
		return nil, fmt.Errorf("domainapi: decoding catalog: %w", err)
	}
	return parsed.Data, nil
}

// CreateMedicine persists a medicine or supplement record.
func (c *Client) CreateMedicine(ctx context.Context, token string, fields map[string]any) error {
	return c.post(ctx, "/api/v1/medicines", token, fields)
}

// CreateVaccine persists a vaccine record.
func (c *Client) CreateVaccine(ctx context.Context, token string, fields map[string]any) error {
	return c.post(ctx, "/api/v1/vaccines", token, fields)
}

// CreateMedicineSchedule persists a medicine schedule.
func (c *Client) CreateMedicineSchedule(ctx context.Context, token string, fields map[string]any) error {
	return c.post(ctx, "/api/v1/medicine-schedules", token, fields)
}

// CreateVaccineSchedule persists a vaccine schedule.
func (c *Client) CreateVaccineSchedule(ctx context.Context, token string, fields map[string]any) error {
	return c.post(ctx, "/api/v1/vaccine-schedules", token, fields)
}

func (c *Client) post(ctx context.Context, path, token string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("domainapi: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("domainapi: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &CallError{Kind: ErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, raw)
	}
	return nil
}
