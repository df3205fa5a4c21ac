// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StoreConfig holds settings for the endpoint store.
// Per prd002-endpoint-store R1.2.
type StoreConfig struct {
	// StateDir is the directory holding the SQLite database and export
	// files (e.g. "state/").
	StateDir string `json:"state_dir" yaml:"state_dir"`

	// MaxResults is the default maximum number of catalog or history rows
	// returned per query (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// AssistantConfig holds settings for the external AI capability client.
// Per prd004-conversation R3.1-R3.3.
type AssistantConfig struct {
	// BaseURL is the root of the assistant API (e.g. "http://localhost:5000").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional bearer token for the assistant API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-request timeout. Continuity state does not
	// transition when a request times out (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// UserAgent is the User-Agent header sent with requests
	// (e.g. "manuscript-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PipelineConfig groups all stage configurations for the drafting pipeline.
type PipelineConfig struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant"`
}
