// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetcher

import (
	"errors"
	"testing"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"pubmed https", "https://pubmed.ncbi.nlm.nih.gov/15858239", "15858239", false},
		{"legacy ncbi", "http://www.ncbi.nlm.nih.gov/pubmed/15858239", "15858239", false},
		{"trailing slash", "https://pubmed.ncbi.nlm.nih.gov/15858239/", "15858239", false},
		{"short id", "https://pubmed.ncbi.nlm.nih.gov/42", "42", false},
		{"non-numeric tail", "https://pubmed.ncbi.nlm.nih.gov/abstract", "", true},
		{"mixed tail", "https://pubmed.ncbi.nlm.nih.gov/15858239abc", "", true},
		{"no path", "15858239", "", true},
		{"empty", "", "", true},
		{"only slashes", "https://pubmed.ncbi.nlm.nih.gov///", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractID(tt.url)
			if tt.wantErr {
				var malformed *MalformedURLError
				if !errors.As(err, &malformed) {
					t.Fatalf("ExtractID(%q) error = %v, want MalformedURLError", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractID(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ExtractID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
