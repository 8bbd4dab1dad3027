package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"taggerd/internal/api"
)

// apiClient is a thin HTTP client for a running taggerd API.
type apiClient struct {
	base string
	auth string
	http *http.Client
}

func newAPIClient(address, auth string) *apiClient {
	base := strings.TrimSpace(address)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		auth: auth,
		// Inference can take a while on first model load.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *apiClient) Interrogate(ctx context.Context, req api.InterrogateRequest) (api.InterrogateResponse, error) {
	var resp api.InterrogateResponse
	err := c.do(ctx, http.MethodPost, "/tagger/v1/interrogate", req, &resp)
	return resp, err
}

func (c *apiClient) Interrogators(ctx context.Context) (api.InterrogatorsResponse, error) {
	var resp api.InterrogatorsResponse
	err := c.do(ctx, http.MethodGet, "/tagger/v1/interrogators", nil, &resp)
	return resp, err
}

func (c *apiClient) History(ctx context.Context, limit int) (api.HistoryResponse, error) {
	path := "/tagger/v1/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp api.HistoryResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// Unload returns the server's plain-text unload summary.
func (c *apiClient) Unload(ctx context.Context) (string, error) {
	body, err := c.raw(ctx, http.MethodPost, "/tagger/v1/unload-interrogators", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := c.raw(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) raw(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != "" {
		if user, password, ok := strings.Cut(c.auth, ":"); ok {
			req.SetBasicAuth(user, password)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapDialError(err, c.base)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, apiErr.Detail)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func wrapDialError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to %s: connection refused; start the daemon with `taggerd serve`", base)
	}
	return fmt.Errorf("connect to %s: %w", base, err)
}
