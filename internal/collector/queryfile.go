// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collector

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// QueryFile is the on-disk representation of a harvest query. Researchers
// keep query files under version control and re-run harvests without
// retyping criteria.
type QueryFile struct {
	Query  QueryParams     `yaml:"query"`
	Config QueryFileConfig `yaml:"config"`
}

// QueryParams stores the query in a serializable form.
type QueryParams struct {
	Term     string   `yaml:"term,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	DateFrom string   `yaml:"date_from,omitempty"`
	DateTo   string   `yaml:"date_to,omitempty"`
}

// QueryFileConfig stores discovery limits alongside the query.
type QueryFileConfig struct {
	MaxResults int `yaml:"max_results,omitempty"`
}

const fileDateFmt = "2006-01-02"

// ReadQueryFile loads a query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// WriteQueryFile saves query parameters to a YAML file.
func WriteQueryFile(path string, query Query, maxResults int) error {
	qf := QueryFile{
		Query: QueryParams{
			Term:     query.Term,
			Keywords: query.Keywords,
		},
		Config: QueryFileConfig{MaxResults: maxResults},
	}
	if !query.DateFrom.IsZero() {
		qf.Query.DateFrom = query.DateFrom.Format(fileDateFmt)
	}
	if !query.DateTo.IsZero() {
		qf.Query.DateTo = query.DateTo.Format(fileDateFmt)
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ToQuery converts stored QueryParams back into a Query.
func (p QueryParams) ToQuery() (Query, error) {
	q := Query{
		Term:     p.Term,
		Keywords: p.Keywords,
	}
	if p.DateFrom != "" {
		t, err := time.Parse(fileDateFmt, p.DateFrom)
		if err != nil {
			return q, fmt.Errorf("invalid date_from %q: %w", p.DateFrom, err)
		}
		q.DateFrom = t
	}
	if p.DateTo != "" {
		t, err := time.Parse(fileDateFmt, p.DateTo)
		if err != nil {
			return q, fmt.Errorf("invalid date_to %q: %w", p.DateTo, err)
		}
		q.DateTo = t
	}
	return q, nil
}
