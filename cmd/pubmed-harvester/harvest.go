// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-harvester/internal/collector"
	"github.com/pdiddy/pubmed-harvester/internal/fetcher"
	"github.com/pdiddy/pubmed-harvester/internal/pubmed"
	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "pubmed-harvester/0.1"
	defaultDataDir     = "data/abstracts"
	defaultMaxRetries  = 3
	defaultConcurrency = 5
	defaultMaxResults  = 100

	// NCBI allows 3 requests/s anonymously and 10/s with an API key.
	defaultRate      = 3
	defaultKeyedRate = 10
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Discover and fetch PubMed abstracts matching a query",
	Long: `Harvest discovers PubMed record URLs via ESearch, fetches each abstract
through EFetch under a concurrency bound and a request-rate ceiling, and
writes one JSON record per abstract under the data directory. Records
already present in the cache are not re-fetched. A run summary is written
to fetch_summary.json after all fetches settle.

The query comes from --query/--keyword flags or from a YAML query file.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("query", "", "free-text search term")
	harvestCmd.Flags().StringSlice("keyword", nil, "additional search keyword (repeatable)")
	harvestCmd.Flags().String("query-file", "", "YAML query file (overrides --query and --keyword)")
	harvestCmd.Flags().String("date-from", "", "earliest publication date (YYYY-MM-DD)")
	harvestCmd.Flags().String("date-to", "", "latest publication date (YYYY-MM-DD)")
	harvestCmd.Flags().Int("max-results", 0, "maximum record URLs to discover (default 100)")
	harvestCmd.Flags().String("data-dir", "", "record cache directory (default data/abstracts)")
	harvestCmd.Flags().Float64("rate-limit", 0, "maximum requests per second (default 3, 10 with an API key)")
	harvestCmd.Flags().Int("max-retries", 0, "retries per record after a rate-limit response (default 3)")
	harvestCmd.Flags().Int("concurrency", 0, "maximum simultaneous fetches (default 5)")
	harvestCmd.Flags().Int("batch-size", 0, "reserved; accepted for config compatibility, no effect")
	harvestCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	harvestCmd.Flags().String("api-key", "", "NCBI API key (default: .secrets/ncbi-api-key)")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	query, fileMaxResults, err := harvestQuery(cmd)
	if err != nil {
		return err
	}
	if query.IsEmpty() {
		return fmt.Errorf("provide a search query via --query, --keyword, or --query-file")
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	httpCfg := types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent}

	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	apiKey := secretDefault("ncbi-api-key", apiKeyFlag)
	email := secretDefault("ncbi-email", "")

	rateFallback := float64(defaultRate)
	if apiKey != "" {
		rateFallback = defaultKeyedRate
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults == 0 {
		maxResults = fileMaxResults
	}

	fetchCfg := types.FetchConfig{
		DataDir:            settingStr(dataDir, "fetch.data_dir", defaultDataDir),
		RateLimitPerSec:    settingFloat(rateLimit, "fetch.rate_limit_per_sec", rateFallback),
		MaxRetries:         settingInt(maxRetries, "fetch.max_retries", defaultMaxRetries),
		ConcurrentRequests: settingInt(concurrency, "fetch.concurrent_requests", defaultConcurrency),
		BatchSize:          batchSize,
	}

	client := pubmed.NewClient(types.ClientConfig{
		HTTPConfig: httpCfg,
		APIKey:     apiKey,
		Tool:       "pubmed-harvester",
		Email:      email,
	})

	coll := collector.New(query, types.CollectorConfig{
		HTTPConfig: httpCfg,
		MaxResults: settingInt(maxResults, "collector.max_results", defaultMaxResults),
		APIKey:     apiKey,
		Email:      email,
	})

	f := fetcher.New(client, coll, fetchCfg, os.Stdout)
	summary, err := f.Run(context.Background())
	if err != nil {
		return err
	}
	if summary == nil {
		// Nothing discovered; the fetcher already said so.
		return nil
	}
	// Partial failure is a normal outcome; the summary is the signal.
	return nil
}

// harvestQuery builds the discovery query from flags or a query file. The
// second return value is the query file's max_results, zero when absent.
func harvestQuery(cmd *cobra.Command) (collector.Query, int, error) {
	queryFile, _ := cmd.Flags().GetString("query-file")
	if queryFile != "" {
		qf, err := collector.ReadQueryFile(queryFile)
		if err != nil {
			return collector.Query{}, 0, err
		}
		q, err := qf.Query.ToQuery()
		return q, qf.Config.MaxResults, err
	}

	term, _ := cmd.Flags().GetString("query")
	keywords, _ := cmd.Flags().GetStringSlice("keyword")
	dateFrom, _ := cmd.Flags().GetString("date-from")
	dateTo, _ := cmd.Flags().GetString("date-to")

	params := collector.QueryParams{
		Term:     term,
		Keywords: keywords,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}
	q, err := params.ToQuery()
	return q, 0, err
}
