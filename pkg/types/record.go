// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Record holds one bibliographic abstract fetched from PubMed.
//
// The JSON field names form a stable on-disk format: the fetch pipeline
// writes one file per record under the data directory and downstream
// consumers read those files directly. A Record is immutable once fetched;
// it is never mutated or deleted by this system.
type Record struct {
	// ID is the PubMed identifier (PMID), used as the cache key and
	// filename stem.
	ID string `json:"id" yaml:"id"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the article authors in source order ("LastName Initials").
	Authors []string `json:"authors" yaml:"authors"`

	// PublicationDate is the publication date as reported by PubMed,
	// kept free-form (e.g. "2004 Jul-Sep").
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// Journal is the journal title.
	Journal string `json:"journal" yaml:"journal"`

	// DOI is the digital object identifier, when PubMed reports one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Keywords lists MeSH headings and author keywords in source order.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// RunSummary is the aggregate outcome of one harvest run. It is written to
// fetch_summary.json under the data directory after all fetches settle.
type RunSummary struct {
	TotalURLs         int `json:"total_urls"`
	SuccessfulFetches int `json:"successful_fetches"`
	FailedFetches     int `json:"failed_fetches"`
}

// HasFailures reports whether any URL failed to resolve to a record.
func (s RunSummary) HasFailures() bool {
	return s.FailedFetches > 0
}
