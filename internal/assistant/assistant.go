// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assistant implements the external AI capability client used for
// all drafting queries. The engine treats the capability as opaque: it
// answers a question, optionally continuing a named thread, and returns the
// answer body, citations, and the authoritative thread reference.
// Implements: prd004-conversation (R3);
//
//	docs/ARCHITECTURE § Assistant Capability.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/manuscript-engine/internal/httputil"
	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// queryPath is the ask endpoint of the assistant API.
const queryPath = "/query"

// Client calls the assistant HTTP API.
type Client struct {
	cfg    types.AssistantConfig
	client *http.Client
}

// NewClient builds a Client from configuration. The configured timeout
// bounds each request; callers may tighten it further per call through the
// context (R3.2).
func NewClient(cfg types.AssistantConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// queryRequest is the request body for the assistant query endpoint.
type queryRequest struct {
	Question        string `json:"question"`
	CurrentThreadID string `json:"current_thread_id,omitempty"`
	Dependent       bool   `json:"dependent"`
}

// queryResponse is the response body from the assistant query endpoint.
type queryResponse struct {
	Response  string   `json:"response"`
	Citations []string `json:"citations"`
	ThreadID  string   `json:"thread_id"`
}

// Ask sends a question to the assistant. An empty threadRef opens a new
// thread; a non-empty one continues that dialogue. Every failure wraps
// types.ErrAssistant so the pipeline can classify it without losing the
// cause (R3.1, R3.3).
func (c *Client) Ask(ctx context.Context, question, threadRef string) (types.Answer, error) {
	body, err := json.Marshal(queryRequest{
		Question:        question,
		CurrentThreadID: threadRef,
		Dependent:       threadRef != "",
	})
	if err != nil {
		return types.Answer{}, fmt.Errorf("%w: encoding request: %v", types.ErrAssistant, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+queryPath, bytes.NewReader(body))
	if err != nil {
		return types.Answer{}, fmt.Errorf("%w: creating request: %v", types.ErrAssistant, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return types.Answer{}, fmt.Errorf("%w: %v", types.ErrAssistant, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.Answer{}, fmt.Errorf("%w: assistant API returned HTTP %d: %s", types.ErrAssistant, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return types.Answer{}, fmt.Errorf("%w: parsing response: %v", types.ErrAssistant, err)
	}

	return types.Answer{
		Response:  qr.Response,
		Citations: qr.Citations,
		ThreadRef: qr.ThreadID,
	}, nil
}
