// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds settings for the PubMed E-utilities client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI API key. Keyed requests are allowed a
	// higher sustained rate (10/s instead of 3/s).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Tool and Email identify the caller to NCBI per their usage policy.
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// FetchConfig holds settings for the fetch pipeline.
type FetchConfig struct {
	// DataDir is the cache root. One JSON file per record, plus the
	// run summary, live directly under it.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// RateLimitPerSec is the maximum sustained request rate to the
	// E-utilities API across all concurrent fetches. Cache hits are
	// exempt since they never reach the network.
	RateLimitPerSec float64 `json:"rate_limit_per_sec" yaml:"rate_limit_per_sec"`

	// MaxRetries is the number of additional attempts after a rate-limit
	// response before a record is given up on.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// ConcurrentRequests bounds the number of simultaneous in-flight
	// fetch operations.
	ConcurrentRequests int `json:"concurrent_requests" yaml:"concurrent_requests"`

	// BatchSize is reserved. A prior batching stage was removed; the
	// field is kept so existing config files keep parsing. It has no
	// effect on fetch behavior.
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
}

// CollectorConfig holds settings for ESearch-based URL discovery.
type CollectorConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults caps the number of record URLs returned per run
	// (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// APIKey is an optional NCBI API key, shared with the client.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email identifies the caller to NCBI.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// CatalogConfig holds settings for the local SQLite catalog built over the
// record cache.
type CatalogConfig struct {
	// DataDir is the record cache root; the catalog database lives at
	// DataDir/catalog.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of search results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
