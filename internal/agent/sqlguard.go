package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// maxRows caps generated queries that carry no LIMIT of their own.
const maxRows = 200

var fenceRe = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

var forbiddenTokens = []string{
	"insert", "update", "delete", "drop", "alter", "create", "replace",
	"truncate", "pragma", "attach", "detach", "vacuum", "reindex",
}

var limitRe = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// CleanSQL strips markdown fences and a trailing semicolon from model output.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	return s
}

// ValidateSQL checks that a cleaned query is a single read-only SELECT.
func ValidateSQL(query string) error {
	if query == "" {
		return fmt.Errorf("empty query")
	}
	if strings.Contains(query, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	lower := strings.ToLower(query)
	if !strings.HasPrefix(lower, "select") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	for _, tok := range forbiddenTokens {
		if containsToken(lower, tok) {
			return fmt.Errorf("forbidden keyword %q", tok)
		}
	}
	return nil
}

// EnsureLimit appends a row cap when the query has no LIMIT clause.
func EnsureLimit(query string) string {
	if limitRe.MatchString(query) {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, maxRows)
}

func containsToken(lower, tok string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], tok)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(lower[i-1])
		afterIdx := i + len(tok)
		after := afterIdx >= len(lower) || !isWordChar(lower[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(tok)
	}
}

// Underscore is a boundary on purpose so pragma_table_info and friends are
// still caught.
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
