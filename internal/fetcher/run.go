// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

// summaryFile is the run summary filename under the data directory,
// overwritten each run.
const summaryFile = "fetch_summary.json"

// FetchAll runs FetchSingle over urls with at most cfg.ConcurrentRequests
// in flight, returning only the records that resolved. Absences are
// dropped; the orchestrator reconstructs the failure count from the set
// size. Result order carries no relation to input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls map[string]struct{}) []*types.Record {
	sem := make(chan struct{}, f.cfg.ConcurrentRequests)
	ch := make(chan *types.Record, len(urls))
	var wg sync.WaitGroup

	for u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if rec := f.FetchSingle(ctx, u); rec != nil {
				ch <- rec
			}
		}(u)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var records []*types.Record
	for rec := range ch {
		records = append(records, rec)
	}
	return records
}

// Run executes one harvest: discover URLs, fetch them all, persist and
// return the summary. An empty URL set returns (nil, nil): nothing to
// do, not an error. Partial failure is normal and reported only through
// the summary counts.
func (f *Fetcher) Run(ctx context.Context) (*types.RunSummary, error) {
	urls, err := f.collector.CollectURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting record URLs: %w", err)
	}
	if len(urls) == 0 {
		fmt.Fprintln(f.w, "No record URLs discovered, nothing to do.")
		return nil, nil
	}
	fmt.Fprintf(f.w, "Discovered %d record URLs.\n", len(urls))

	records := f.FetchAll(ctx, urls)

	summary := &types.RunSummary{
		TotalURLs:         len(urls),
		SuccessfulFetches: len(records),
		FailedFetches:     len(urls) - len(records),
	}

	if err := f.writeSummary(summary); err != nil {
		return summary, fmt.Errorf("writing run summary: %w", err)
	}

	fmt.Fprintf(f.w, "\nRun summary: %d total, %d fetched, %d failed\n",
		summary.TotalURLs, summary.SuccessfulFetches, summary.FailedFetches)
	return summary, nil
}

func (f *Fetcher) writeSummary(summary *types.RunSummary) error {
	if err := os.MkdirAll(f.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", f.cfg.DataDir, err)
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return os.WriteFile(filepath.Join(f.cfg.DataDir, summaryFile), data, 0o644)
}
