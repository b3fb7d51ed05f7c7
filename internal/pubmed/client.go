// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed fetches abstract records from the NCBI E-utilities API.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

// efetchBase is the E-utilities EFetch endpoint. Declared as a var so
// tests can substitute an httptest server.
var efetchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// Client fetches single abstract records by PMID.
type Client struct {
	http *http.Client
	cfg  types.ClientConfig
}

// NewClient returns a Client using cfg. Timeout and UserAgent fall back to
// sensible defaults when unset.
func NewClient(cfg types.ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pubmed-harvester/0.1"
	}
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// GetAbstractByID fetches one abstract record. HTTP 429 yields a
// *RateLimitError carrying the Retry-After hint; every other failure
// yields a *ClientError.
func (c *Client) GetAbstractByID(ctx context.Context, id string) (*types.Record, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {id},
		"retmode": {"xml"},
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Tool != "" {
		params.Set("tool", c.cfg.Tool)
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, efetchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ClientError{ID: id, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ClientError{ID: id, Err: fmt.Errorf("EFetch request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{ID: id, Err: fmt.Errorf("EFetch returned HTTP %d", resp.StatusCode)}
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, &ClientError{ID: id, Err: fmt.Errorf("parsing EFetch response: %w", err)}
	}
	if len(set.Articles) == 0 {
		return nil, &ClientError{ID: id, Err: fmt.Errorf("no article in EFetch response")}
	}

	return set.Articles[0].toRecord(id), nil
}

// parseRetryAfter interprets a Retry-After header value as delay seconds.
// HTTP-date values are ignored; NCBI sends seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// EFetch XML structures (PubmedArticleSet subset).
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
	Data     pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID         string        `xml:"PMID"`
	Article      article       `xml:"Article"`
	MeshHeadings []meshHeading `xml:"MeshHeadingList>MeshHeading"`
	Keywords     []string      `xml:"KeywordList>Keyword"`
}

type article struct {
	Title         string        `xml:"ArticleTitle"`
	AbstractTexts []string      `xml:"Abstract>AbstractText"`
	Authors       []author      `xml:"AuthorList>Author"`
	Journal       journal       `xml:"Journal"`
	ELocationIDs  []eLocationID `xml:"ELocationID"`
}

type author struct {
	LastName       string `xml:"LastName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

type journal struct {
	Title   string  `xml:"Title"`
	PubDate pubDate `xml:"JournalIssue>PubDate"`
}

type pubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type eLocationID struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}

type meshHeading struct {
	Descriptor string `xml:"DescriptorName"`
}

type pubmedData struct {
	ArticleIDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

// toRecord flattens the parsed article into the stable record shape.
// fallbackID is used when the citation omits the PMID.
func (a pubmedArticle) toRecord(fallbackID string) *types.Record {
	rec := &types.Record{
		ID:       strings.TrimSpace(a.Citation.PMID),
		Title:    strings.TrimSpace(a.Citation.Article.Title),
		Abstract: joinAbstract(a.Citation.Article.AbstractTexts),
		Journal:  strings.TrimSpace(a.Citation.Article.Journal.Title),
	}
	if rec.ID == "" {
		rec.ID = fallbackID
	}

	for _, au := range a.Citation.Article.Authors {
		if name := au.displayName(); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	rec.PublicationDate = a.Citation.Article.Journal.PubDate.display()
	rec.DOI = a.doi()

	for _, mh := range a.Citation.MeshHeadings {
		if d := strings.TrimSpace(mh.Descriptor); d != "" {
			rec.Keywords = append(rec.Keywords, d)
		}
	}
	for _, kw := range a.Citation.Keywords {
		if k := strings.TrimSpace(kw); k != "" {
			rec.Keywords = append(rec.Keywords, k)
		}
	}
	return rec
}

// joinAbstract merges structured abstract sections into one text. PubMed
// splits abstracts into labeled AbstractText elements (BACKGROUND,
// METHODS, ...); the record keeps them as a single string.
func joinAbstract(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (au author) displayName() string {
	if au.CollectiveName != "" {
		return strings.TrimSpace(au.CollectiveName)
	}
	name := strings.TrimSpace(au.LastName + " " + au.Initials)
	return name
}

// display renders the publication date the way PubMed prints it: the
// MedlineDate when present (e.g. "2004 Jul-Sep"), otherwise "Year Month Day"
// from whichever parts exist.
func (d pubDate) display() string {
	if d.MedlineDate != "" {
		return strings.TrimSpace(d.MedlineDate)
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Year, d.Month, d.Day} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// doi prefers the ArticleIdList entry, falling back to an ELocationID of
// type "doi". Older citations carry only one of the two.
func (a pubmedArticle) doi() string {
	for _, aid := range a.Data.ArticleIDs {
		if strings.EqualFold(aid.Type, "doi") {
			return strings.TrimSpace(aid.Value)
		}
	}
	for _, loc := range a.Citation.Article.ELocationIDs {
		if strings.EqualFold(loc.Type, "doi") {
			return strings.TrimSpace(loc.Value)
		}
	}
	return ""
}
