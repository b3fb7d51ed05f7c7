// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collector discovers record-locating URLs via the E-utilities
// ESearch API.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

// esearchBase is the E-utilities ESearch endpoint. Declared as a var so
// tests can substitute an httptest server.
var esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"

// recordURLBase is the canonical article URL prefix a PMID is appended to.
const recordURLBase = "https://pubmed.ncbi.nlm.nih.gov/"

const dateFmt = "2006/01/02"

// Query holds the search criteria that select records for a harvest run.
type Query struct {
	Term     string
	Keywords []string
	DateFrom time.Time
	DateTo   time.Time
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return q.Term == "" && len(q.Keywords) == 0
}

// term combines the free text and keywords into one ESearch term.
func (q Query) term() string {
	parts := make([]string, 0, 1+len(q.Keywords))
	if q.Term != "" {
		parts = append(parts, q.Term)
	}
	parts = append(parts, q.Keywords...)
	return strings.Join(parts, " ")
}

// Collector turns a Query into the set of record URLs for one run.
type Collector struct {
	http  *http.Client
	query Query
	cfg   types.CollectorConfig
}

// New returns a Collector for query using cfg.
func New(query Query, cfg types.CollectorConfig) *Collector {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pubmed-harvester/0.1"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}
	return &Collector{
		http:  &http.Client{Timeout: cfg.Timeout},
		query: query,
		cfg:   cfg,
	}
}

// CollectURLs queries ESearch and returns the set of record URLs matching
// the collector's query. An empty result set is not an error; the caller
// treats it as nothing to do.
func (c *Collector) CollectURLs(ctx context.Context) (map[string]struct{}, error) {
	if c.query.IsEmpty() {
		return nil, fmt.Errorf("empty query: provide a search term or keywords")
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {c.query.term()},
		"retmax":  {fmt.Sprintf("%d", c.cfg.MaxResults)},
		"retmode": {"json"},
	}
	if !c.query.DateFrom.IsZero() {
		params.Set("mindate", c.query.DateFrom.Format(dateFmt))
		params.Set("datetype", "pdat")
	}
	if !c.query.DateTo.IsZero() {
		params.Set("maxdate", c.query.DateTo.Format(dateFmt))
		params.Set("datetype", "pdat")
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, esearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ESearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESearch returned HTTP %d", resp.StatusCode)
	}

	var er esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing ESearch response: %w", err)
	}

	urls := make(map[string]struct{}, len(er.Result.IDList))
	for _, id := range er.Result.IDList {
		if id = strings.TrimSpace(id); id != "" {
			urls[recordURLBase+id] = struct{}{}
		}
	}
	return urls, nil
}

// ESearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}
