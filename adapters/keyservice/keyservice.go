// Package keyservice provides a client for the external key-issuance
// service. The service owns the opaque credential; shopgate only tracks
// the key string and its validity window locally.
//
// API Contract:
//
//	POST /key
//	Request:  {"email": "...", "api_key": "...", "valid_to": "2024-01-15T12:00:00Z"}
//	Response: {"api_key": "..."}
//
//	PUT /key/{userID}
//	Request:  {"email": "...", "api_key": "...", "valid_to": "..."}
//	Response: {}
//
//	POST /expire-key/{userID}
//	Response: {}
package keyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artpar/shopgate/ports"
)

// Config configures the remote client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Remote is an HTTP client for the key-issuance service.
type Remote struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewRemote creates a key-issuance service client.
func NewRemote(cfg Config) *Remote {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Remote{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

type keyRequest struct {
	Email   string    `json:"email"`
	APIKey  string    `json:"api_key"`
	ValidTo time.Time `json:"valid_to"`
}

// CreateKey registers a new opaque key valid until validTo.
func (r *Remote) CreateKey(ctx context.Context, email, apiKey string, validTo time.Time) error {
	return r.request(ctx, http.MethodPost, "/key", keyRequest{
		Email:   email,
		APIKey:  apiKey,
		ValidTo: validTo,
	}, nil)
}

// UpdateKey moves the validity window of an existing key, leaving the
// key value unchanged.
func (r *Remote) UpdateKey(ctx context.Context, userID, email, apiKey string, validTo time.Time) error {
	return r.request(ctx, http.MethodPut, "/key/"+userID, keyRequest{
		Email:   email,
		APIKey:  apiKey,
		ValidTo: validTo,
	}, nil)
}

// ExpireKey marks the user's key expired on the service side.
func (r *Remote) ExpireKey(ctx context.Context, userID string) error {
	return r.request(ctx, http.MethodPost, "/expire-key/"+userID, nil, nil)
}

// request sends an HTTP request to the key-issuance service.
func (r *Remote) request(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// RemoteError represents an error reported by the key-issuance service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("key service error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	if re, ok := err.(*RemoteError); ok {
		return re.StatusCode == 404
	}
	return false
}

// Ensure interface compliance.
var _ ports.KeyService = (*Remote)(nil)
