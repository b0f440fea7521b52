package nlquery

import (
	"strings"
	"testing"
)

// The seeded corpus is what makes a fresh tenant's SQL generation usable, so
// it needs real breadth across the salon schema and every statement must pass
// the same safety gate generated SQL goes through.
func TestDefaultTrainingCorpus(t *testing.T) {
	if len(defaultExamples) < 30 {
		t.Fatalf("expected at least 30 seeded question-SQL pairs, have %d", len(defaultExamples))
	}

	seen := make(map[string]bool, len(defaultExamples))
	for _, ex := range defaultExamples {
		if ex.question == "" {
			t.Error("seeded example with empty question")
		}
		if seen[ex.question] {
			t.Errorf("duplicate seeded question %q", ex.question)
		}
		seen[ex.question] = true

		if err := ValidateSQL(CleanSQL(ex.sql)); err != nil {
			t.Errorf("seeded SQL for %q failed validation: %v", ex.question, err)
		}
	}
}

func TestDefaultTrainingSchemaCoverage(t *testing.T) {
	tables := []string{
		"customers", "technicians", "services", "bookings",
		"booking_services", "products", "product_sales",
	}
	for _, table := range tables {
		found := false
		for _, ex := range defaultExamples {
			if containsWord(ex.sql, table) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no seeded example touches the %s table", table)
		}
	}
}

func containsWord(sql, word string) bool {
	for _, w := range wordRe.FindAllString(strings.ToLower(sql), -1) {
		if w == word {
			return true
		}
	}
	return false
}
