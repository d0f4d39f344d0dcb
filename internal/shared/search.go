package shared

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

var (
	searchMu      sync.Mutex
	searchMatcher = search.New(language.Und, search.IgnoreCase, search.IgnoreDiacritics)
)

// MatchesQuery reports whether any field contains query as a
// case-insensitive substring. An empty query matches everything.
func MatchesQuery(query string, fields ...string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	searchMu.Lock()
	defer searchMu.Unlock()
	pattern := searchMatcher.CompileString(query)
	for _, field := range fields {
		if start, _ := pattern.IndexString(field); start >= 0 {
			return true
		}
	}
	return false
}
