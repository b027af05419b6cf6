package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConceptsFromReports(t *testing.T) {
	r1 := `{"human_summary":"s1","concepts_to_review":["ser vs estar","past tense"]}`
	r2 := `{"human_summary":"s2","concepts_to_review":["past tense","gender agreement"]}`

	t.Run("union with dedup", func(t *testing.T) {
		got := ConceptsFromReports([]string{r1, r2})
		assert.ElementsMatch(t, []string{"ser vs estar", "past tense", "gender agreement"}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := ConceptsFromReports([]string{r1, r2})
		twice := ConceptsFromReports([]string{r1, r2, r1, r2})
		assert.ElementsMatch(t, once, twice)
	})

	t.Run("unparseable reports are skipped", func(t *testing.T) {
		got := ConceptsFromReports([]string{"not json at all", r1})
		assert.ElementsMatch(t, []string{"ser vs estar", "past tense"}, got)
	})

	t.Run("empty concept strings are dropped", func(t *testing.T) {
		got := ConceptsFromReports([]string{`{"human_summary":"s","concepts_to_review":["","a"]}`})
		assert.Equal(t, []string{"a"}, got)
	})

	t.Run("no reports", func(t *testing.T) {
		assert.Empty(t, ConceptsFromReports(nil))
	})
}
