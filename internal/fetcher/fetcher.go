// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetcher turns a set of record URLs into cached abstract records
// under a concurrency bound and a global request-rate ceiling.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/pubmed-harvester/internal/cache"
	"github.com/pdiddy/pubmed-harvester/internal/pubmed"
	"github.com/pdiddy/pubmed-harvester/internal/ratelimit"
	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

// cooldownSleep waits out a rate-limit cool-down. Tests override this to
// observe waits without sleeping.
var cooldownSleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// AbstractClient fetches one abstract record from the remote repository.
type AbstractClient interface {
	GetAbstractByID(ctx context.Context, id string) (*types.Record, error)
}

// URLCollector produces the set of record URLs for one run.
type URLCollector interface {
	CollectURLs(ctx context.Context) (map[string]struct{}, error)
}

// Fetcher resolves record URLs to cached records. Per-URL failures never
// escape it; every attempt settles to a record or nothing, and the run
// summary is the only aggregate failure signal.
type Fetcher struct {
	client    AbstractClient
	collector URLCollector
	cache     *cache.Store
	limiter   *ratelimit.Limiter
	cfg       types.FetchConfig
	w         io.Writer
}

// New returns a Fetcher writing progress lines to w. The rate limiter is
// shared by all concurrent fetches so the aggregate network request rate
// stays at or below cfg.RateLimitPerSec.
func New(client AbstractClient, collector URLCollector, cfg types.FetchConfig, w io.Writer) *Fetcher {
	if cfg.ConcurrentRequests <= 0 {
		cfg.ConcurrentRequests = 1
	}
	return &Fetcher{
		client:    client,
		collector: collector,
		cache:     cache.NewStore(cfg.DataDir),
		limiter:   ratelimit.New(cfg.RateLimitPerSec),
		cfg:       cfg,
		w:         w,
	}
}

// FetchSingle resolves one URL to a record, consulting the cache first and
// the network on a miss. Rate-limit responses are retried up to
// cfg.MaxRetries times with a cool-down wait; any other failure gives up
// immediately. Returns nil when no record could be obtained.
func (f *Fetcher) FetchSingle(ctx context.Context, rawURL string) *types.Record {
	id, err := ExtractID(rawURL)
	if err != nil {
		fmt.Fprintf(f.w, "failed:  %s (%v)\n", rawURL, err)
		return nil
	}

	if f.cache.Exists(id) {
		rec, loadErr := f.cache.Load(id)
		if loadErr == nil {
			fmt.Fprintf(f.w, "cached:  %s\n", id)
			return rec
		}
		// Treat a corrupt or unreadable entry as a miss; the fresh
		// Save below repairs it.
		fmt.Fprintf(f.w, "warning: %v, refetching\n", loadErr)
	}

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			fmt.Fprintf(f.w, "failed:  %s (%v)\n", id, err)
			return nil
		}

		rec, err := f.client.GetAbstractByID(ctx, id)
		if err == nil {
			if saveErr := f.cache.Save(id, rec); saveErr != nil {
				fmt.Fprintf(f.w, "warning: %v\n", saveErr)
			}
			fmt.Fprintf(f.w, "fetched: %s\n", id)
			return rec
		}

		var rl *pubmed.RateLimitError
		if !errors.As(err, &rl) {
			fmt.Fprintf(f.w, "failed:  %s (%v)\n", id, err)
			return nil
		}
		if attempt == f.cfg.MaxRetries {
			fmt.Fprintf(f.w, "failed:  %s (rate limited, gave up after %d attempts)\n", id, attempt+1)
			return nil
		}

		d := f.cooldown(rl)
		fmt.Fprintf(f.w, "rate limited: %s, retrying in %v (attempt %d/%d)\n",
			id, d, attempt+1, f.cfg.MaxRetries)
		if err := cooldownSleep(ctx, d); err != nil {
			fmt.Fprintf(f.w, "failed:  %s (%v)\n", id, err)
			return nil
		}
	}
	return nil
}

// cooldown returns the wait before retrying after a throttle signal: at
// least one rate-limit interval, extended by the server's Retry-After
// hint when present.
func (f *Fetcher) cooldown(rl *pubmed.RateLimitError) time.Duration {
	d := f.limiter.Interval()
	if d <= 0 {
		d = time.Second
	}
	if rl.RetryAfter > 0 {
		d += rl.RetryAfter
	}
	return d
}
