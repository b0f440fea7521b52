package nlquery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsafeSQL is returned when generated SQL fails the read-only check.
var ErrUnsafeSQL = errors.New("nlquery: generated SQL failed safety validation")

var fenceRe = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")

// stmtStartRe anchors on SELECT or WITH at the start of a line, so prose like
// "here is a query with the results" never gets sliced mid-sentence.
var stmtStartRe = regexp.MustCompile(`(?im)^[ \t]*(?:select|with)\b`)

// CleanSQL strips markdown code fences and surrounding noise from LLM output.
// Models frequently wrap SQL in ```sql fences or prepend prose despite
// instructions not to.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)

	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	// Drop any prose lines before the statement itself.
	if loc := stmtStartRe.FindStringIndex(s); loc != nil {
		s = s[loc[0]:]
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}

// deniedKeywords are statement types and constructs that must never appear in
// generated SQL. Matching is word-boundary based so column names like
// "created_at" do not trip the "create" check.
var deniedKeywords = []string{
	"insert", "update", "delete", "drop", "truncate", "alter", "create",
	"grant", "revoke", "copy", "vacuum", "execute", "call", "do",
	"set", "reset", "listen", "notify", "prepare", "deallocate",
	"pg_sleep", "pg_read_file", "pg_ls_dir", "lo_import", "lo_export",
}

var wordRe = regexp.MustCompile(`[a-z_]+`)

// ValidateSQL enforces that generated SQL is a single read-only statement.
// Only SELECT and WITH statements pass, and no denied keyword may appear
// anywhere, including inside CTE bodies.
func ValidateSQL(sql string) error {
	s := strings.TrimSpace(strings.ToLower(sql))
	if s == "" {
		return fmt.Errorf("%w: empty statement", ErrUnsafeSQL)
	}

	if !strings.HasPrefix(s, "select") && !strings.HasPrefix(s, "with") {
		return fmt.Errorf("%w: only SELECT statements are allowed", ErrUnsafeSQL)
	}

	// A semicolon mid-statement means statement stacking.
	if strings.Contains(s, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrUnsafeSQL)
	}

	denied := make(map[string]bool, len(deniedKeywords))
	for _, kw := range deniedKeywords {
		denied[kw] = true
	}
	for _, word := range wordRe.FindAllString(s, -1) {
		if denied[word] {
			return fmt.Errorf("%w: forbidden keyword %q", ErrUnsafeSQL, word)
		}
	}

	return nil
}
