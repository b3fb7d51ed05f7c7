// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-harvester/internal/cache"
	"github.com/pdiddy/pubmed-harvester/internal/pubmed"
	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

const testURL = "https://pubmed.ncbi.nlm.nih.gov/15858239"

// mockClient records calls and answers via the respond function.
type mockClient struct {
	mu      sync.Mutex
	calls   []string
	respond func(call int, id string) (*types.Record, error)
}

func (m *mockClient) GetAbstractByID(_ context.Context, id string) (*types.Record, error) {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	n := len(m.calls)
	m.mu.Unlock()
	return m.respond(n, id)
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// sleepRecorder replaces cooldownSleep and records requested waits.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
	err   error
}

func (r *sleepRecorder) install(t *testing.T) {
	t.Helper()
	orig := cooldownSleep
	cooldownSleep = func(_ context.Context, d time.Duration) error {
		r.mu.Lock()
		r.waits = append(r.waits, d)
		r.mu.Unlock()
		return r.err
	}
	t.Cleanup(func() { cooldownSleep = orig })
}

func (r *sleepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waits)
}

func sampleRecord(id string) *types.Record {
	return &types.Record{
		ID:              id,
		Title:           "The role of ret gene in the pathogenesis of Hirschsprung disease",
		Abstract:        "This is a test abstract about Hirschsprung disease.",
		Authors:         []string{"Smigiel R", "Patkowski D", "Slezak R"},
		PublicationDate: "2004 Jul-Sep",
		Journal:         "Med Wieku Rozwoj",
		DOI:             "10.1000/test.12345",
		Keywords:        []string{"Hirschsprung Disease", "Genetics", "RET Gene"},
	}
}

func testConfig(t *testing.T) types.FetchConfig {
	t.Helper()
	return types.FetchConfig{
		DataDir:            t.TempDir(),
		RateLimitPerSec:    1000, // effectively no gating in tests
		MaxRetries:         2,
		ConcurrentRequests: 2,
	}
}

func newTestFetcher(t *testing.T, client AbstractClient, cfg types.FetchConfig) (*Fetcher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(client, nil, cfg, &buf), &buf
}

func TestFetchSingleSuccess(t *testing.T) {
	client := &mockClient{respond: func(_ int, id string) (*types.Record, error) {
		return sampleRecord(id), nil
	}}
	cfg := testConfig(t)
	f, buf := newTestFetcher(t, client, cfg)

	rec := f.FetchSingle(context.Background(), testURL)
	require.NotNil(t, rec)
	assert.Equal(t, "15858239", rec.ID)
	assert.Equal(t, []string{"15858239"}, client.calls)
	assert.Contains(t, buf.String(), "fetched: 15858239")

	// The record must now be on disk.
	got, err := cache.NewStore(cfg.DataDir).Load("15858239")
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
}

func TestFetchSingleCacheHitSkipsClient(t *testing.T) {
	client := &mockClient{respond: func(_ int, _ string) (*types.Record, error) {
		return nil, fmt.Errorf("client must not be called")
	}}
	cfg := testConfig(t)
	require.NoError(t, cache.NewStore(cfg.DataDir).Save("15858239", sampleRecord("15858239")))

	f, buf := newTestFetcher(t, client, cfg)
	rec := f.FetchSingle(context.Background(), testURL)
	require.NotNil(t, rec)
	assert.Equal(t, "15858239", rec.ID)
	assert.Zero(t, client.callCount())
	assert.Contains(t, buf.String(), "cached:  15858239")
}

func TestFetchSingleIdempotent(t *testing.T) {
	client := &mockClient{respond: func(_ int, id string) (*types.Record, error) {
		return sampleRecord(id), nil
	}}
	f, _ := newTestFetcher(t, client, testConfig(t))

	require.NotNil(t, f.FetchSingle(context.Background(), testURL))
	require.NotNil(t, f.FetchSingle(context.Background(), testURL))
	assert.Equal(t, 1, client.callCount(), "second fetch must hit the cache")
}

func TestFetchSingleCacheHitsBypassRateGate(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitPerSec = 1 // 1s interval would dominate if hits were gated
	store := cache.NewStore(cfg.DataDir)
	for _, id := range []string{"15858239", "12345678", "87654321"} {
		require.NoError(t, store.Save(id, sampleRecord(id)))
	}

	client := &mockClient{respond: func(_ int, _ string) (*types.Record, error) {
		return nil, fmt.Errorf("client must not be called")
	}}
	f, _ := newTestFetcher(t, client, cfg)

	start := time.Now()
	for _, u := range []string{
		"https://pubmed.ncbi.nlm.nih.gov/15858239",
		"https://pubmed.ncbi.nlm.nih.gov/12345678",
		"https://pubmed.ncbi.nlm.nih.gov/87654321",
	} {
		require.NotNil(t, f.FetchSingle(context.Background(), u))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchSingleRetryThenSuccess(t *testing.T) {
	rec := &sleepRecorder{}
	rec.install(t)

	// Rate limited on the first two attempts, succeeds on the third.
	client := &mockClient{respond: func(call int, id string) (*types.Record, error) {
		if call <= 2 {
			return nil, &pubmed.RateLimitError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Second}
		}
		return sampleRecord(id), nil
	}}
	f, _ := newTestFetcher(t, client, testConfig(t))

	got := f.FetchSingle(context.Background(), testURL)
	require.NotNil(t, got)
	assert.Equal(t, 3, client.callCount())
	require.Equal(t, 2, rec.count())
	for _, d := range rec.waits {
		assert.GreaterOrEqual(t, d, time.Second, "cool-down shorter than the Retry-After hint")
	}
}

func TestFetchSingleGiveUp(t *testing.T) {
	rec := &sleepRecorder{}
	rec.install(t)

	client := &mockClient{respond: func(_ int, _ string) (*types.Record, error) {
		return nil, &pubmed.RateLimitError{StatusCode: http.StatusTooManyRequests}
	}}
	cfg := testConfig(t)
	f, buf := newTestFetcher(t, client, cfg)

	got := f.FetchSingle(context.Background(), testURL)
	assert.Nil(t, got)
	// max_retries + 1 total attempts, cool-down between each pair.
	assert.Equal(t, cfg.MaxRetries+1, client.callCount())
	assert.Equal(t, cfg.MaxRetries, rec.count())
	assert.Contains(t, buf.String(), "gave up")
}

func TestFetchSingleClientErrorNoRetry(t *testing.T) {
	rec := &sleepRecorder{}
	rec.install(t)

	client := &mockClient{respond: func(_ int, id string) (*types.Record, error) {
		return nil, &pubmed.ClientError{ID: id, Err: fmt.Errorf("unknown ID")}
	}}
	f, buf := newTestFetcher(t, client, testConfig(t))

	got := f.FetchSingle(context.Background(), testURL)
	assert.Nil(t, got)
	assert.Equal(t, 1, client.callCount())
	assert.Zero(t, rec.count())
	assert.Contains(t, buf.String(), "failed:  15858239")
}

func TestFetchSingleMalformedURL(t *testing.T) {
	client := &mockClient{respond: func(_ int, _ string) (*types.Record, error) {
		return nil, fmt.Errorf("client must not be called")
	}}
	f, buf := newTestFetcher(t, client, testConfig(t))

	got := f.FetchSingle(context.Background(), "https://pubmed.ncbi.nlm.nih.gov/not-an-id")
	assert.Nil(t, got)
	assert.Zero(t, client.callCount())
	assert.Contains(t, buf.String(), "failed:")
}

func TestFetchSingleCorruptCacheRefetches(t *testing.T) {
	cfg := testConfig(t)
	store := cache.NewStore(cfg.DataDir)
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))
	require.NoError(t, os.WriteFile(store.Path("15858239"), []byte(`{"id": "158`), 0o644))

	client := &mockClient{respond: func(_ int, id string) (*types.Record, error) {
		return sampleRecord(id), nil
	}}
	f, buf := newTestFetcher(t, client, cfg)

	got := f.FetchSingle(context.Background(), testURL)
	require.NotNil(t, got)
	assert.Equal(t, 1, client.callCount(), "corrupt entry must fall through to the network")
	assert.Contains(t, buf.String(), "warning:")

	// The bad file was replaced by the fresh fetch.
	repaired, err := store.Load("15858239")
	require.NoError(t, err)
	assert.Equal(t, got.Title, repaired.Title)
}

func TestFetchSingleCancelledDuringCooldown(t *testing.T) {
	rec := &sleepRecorder{err: context.Canceled}
	rec.install(t)

	client := &mockClient{respond: func(_ int, _ string) (*types.Record, error) {
		return nil, &pubmed.RateLimitError{StatusCode: http.StatusTooManyRequests}
	}}
	f, buf := newTestFetcher(t, client, testConfig(t))

	got := f.FetchSingle(context.Background(), testURL)
	assert.Nil(t, got)
	assert.Equal(t, 1, client.callCount())
	assert.True(t, strings.Contains(buf.String(), "context canceled"))
}
