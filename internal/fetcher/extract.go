// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetcher

import (
	"fmt"
	"strings"
)

// MalformedURLError reports a URL whose path does not end in a numeric
// record identifier. Not retried; the URL simply yields no record.
type MalformedURLError struct {
	URL string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("no record identifier in URL %q", e.URL)
}

// ExtractID returns the trailing numeric path segment of a record URL,
// e.g. "15858239" from "https://pubmed.ncbi.nlm.nih.gov/15858239/".
func ExtractID(rawURL string) (string, error) {
	trimmed := strings.TrimRight(rawURL, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 || idx == len(trimmed)-1 {
		return "", &MalformedURLError{URL: rawURL}
	}
	id := trimmed[idx+1:]
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", &MalformedURLError{URL: rawURL}
		}
	}
	return id, nil
}
