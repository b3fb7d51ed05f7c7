// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains a SQLite index over the on-disk record cache
// for local search and statistics.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubmed-harvester/internal/cache"
	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

const (
	dbFile = "catalog.db"
	// summaryFile is the run summary the fetch pipeline writes next to
	// the record files; skipped during reindexing.
	summaryFile = "fetch_summary.json"
)

// Store manages the catalog database. The fetch pipeline never writes to
// it; the catalog is rebuilt from the cache on demand, so a failed reindex
// cannot corrupt a harvest run.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the catalog database at dataDir/catalog.db.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dataDir: cfg.DataDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS abstracts (
			id TEXT PRIMARY KEY,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			publication_date TEXT,
			journal TEXT,
			doi TEXT,
			keywords TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_abstracts_journal ON abstracts(journal)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ReindexSummary holds counts from one catalog rebuild.
type ReindexSummary struct {
	Indexed int
	Failed  int
}

// Total returns the number of cache entries processed.
func (s ReindexSummary) Total() int {
	return s.Indexed + s.Failed
}

// Reindex walks the record cache and upserts every readable record into
// the catalog. Corrupt entries are reported and skipped; they do not
// abort the rebuild.
func (s *Store) Reindex(ctx context.Context, w io.Writer) (ReindexSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return ReindexSummary{}, fmt.Errorf("reading data directory %s: %w", s.dataDir, err)
	}

	store := cache.NewStore(s.dataDir)
	var summary ReindexSummary

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == summaryFile {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		id := strings.TrimSuffix(name, ".json")
		rec, err := store.Load(id)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			summary.Failed++
			continue
		}

		if err := s.upsert(ctx, rec); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			summary.Failed++
			continue
		}
		summary.Indexed++
	}

	fmt.Fprintf(w, "\nindexed: %d, failed: %d\n", summary.Indexed, summary.Failed)
	return summary, nil
}

func (s *Store) upsert(ctx context.Context, rec *types.Record) error {
	authorsJSON, _ := json.Marshal(rec.Authors)
	keywordsJSON, _ := json.Marshal(rec.Keywords)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO abstracts (id, title, abstract, authors, publication_date, journal, doi, keywords)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract,
			authors=excluded.authors, publication_date=excluded.publication_date,
			journal=excluded.journal, doi=excluded.doi, keywords=excluded.keywords`,
		rec.ID, rec.Title, rec.Abstract, string(authorsJSON),
		rec.PublicationDate, rec.Journal, rec.DOI, string(keywordsJSON),
	)
	if err != nil {
		return fmt.Errorf("upserting abstract %s: %w", rec.ID, err)
	}
	return nil
}

// Search returns records whose title, abstract, or keywords contain term,
// capped at the configured maximum.
func (s *Store) Search(ctx context.Context, term string) ([]types.Record, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("empty search term")
	}

	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, authors, publication_date, journal, doi, keywords
		 FROM abstracts
		 WHERE title LIKE ? OR abstract LIKE ? OR keywords LIKE ?
		 ORDER BY id
		 LIMIT ?`,
		pattern, pattern, pattern, s.maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []types.Record
	for rows.Next() {
		var rec types.Record
		var authorsJSON, keywordsJSON string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Abstract, &authorsJSON,
			&rec.PublicationDate, &rec.Journal, &rec.DOI, &keywordsJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		json.Unmarshal([]byte(authorsJSON), &rec.Authors)
		json.Unmarshal([]byte(keywordsJSON), &rec.Keywords)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Stats holds catalog-wide counts.
type Stats struct {
	Abstracts int `json:"abstracts"`
	WithDOI   int `json:"with_doi"`
	Journals  int `json:"journals"`
}

// Stats reports counts over the indexed abstracts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT count(*),
			count(CASE WHEN doi != '' THEN 1 END),
			count(DISTINCT CASE WHEN journal != '' THEN journal END)
		 FROM abstracts`)
	if err := row.Scan(&st.Abstracts, &st.WithDOI, &st.Journals); err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return st, nil
}
