package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// CitationError reports a URL cited by the model that was not supplied as evidence
type CitationError struct {
	URL string
}

func (e *CitationError) Error() string {
	return fmt.Sprintf("model cited URL outside provided evidence: %s", e.URL)
}

// ExtractURLs returns the distinct URLs in text, in order of appearance
func ExtractURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	var urls []string
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:")
		if seen[m] {
			continue
		}
		seen[m] = true
		urls = append(urls, m)
	}
	return urls
}

// CheckCitations fails on the first URL in text not present in allowed
func CheckCitations(text string, allowed []string) error {
	allow := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		allow[normalizeURL(u)] = true
	}
	for _, u := range ExtractURLs(text) {
		if !allow[normalizeURL(u)] {
			return &CitationError{URL: u}
		}
	}
	return nil
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}
