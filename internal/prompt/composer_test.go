package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"dialogic/internal/types"
)

var profile = types.UserProfile{
	Language:     "Spanish",
	BaseLanguage: "English",
	Level:        "B1 intermediate",
	Interests:    "travel",
}

func TestSystemBaseline(t *testing.T) {
	got := System(profile, nil, nil)

	assert.Contains(t, got, "Act as a Spanish conversationalist")
	assert.Contains(t, got, "B1 intermediate")
	assert.Contains(t, got, "travel")
	assert.Contains(t, got, "mistakes in English")
	assert.Contains(t, got, "EXACTLY two keys")
	assert.Contains(t, got, `"response"`)
	assert.Contains(t, got, `"feedback"`)
	assert.Contains(t, got, "MUST be a valid JSON object")

	// Optional sections stay out when they have no content.
	assert.NotContains(t, got, "PAST MISTAKES")
	assert.NotContains(t, got, "HISTORICAL WEAKNESSES")

	// No leading or trailing whitespace.
	assert.Equal(t, strings.TrimSpace(got), got)
}

func TestSystemIsDeterministic(t *testing.T) {
	log := []types.MistakeLogEntry{{UserInput: "yo es", Feedback: "Use 'soy', not 'es'."}}
	concepts := []string{"ser vs estar"}
	assert.Equal(t, System(profile, log, concepts), System(profile, log, concepts))
}

func TestSystemDefaults(t *testing.T) {
	got := System(types.UserProfile{}, nil, nil)

	assert.Contains(t, got, "Spanish")
	assert.Contains(t, got, "English")
	assert.Contains(t, got, "B1 intermediate")
	assert.Contains(t, got, "general topics")
}

func TestSystemMistakesSection(t *testing.T) {
	log := []types.MistakeLogEntry{
		{UserInput: "yo es feliz", Feedback: "Use 'soy' with ser for identity."},
		{UserInput: "gracias", Feedback: "Correct! No mistakes here."},
		{UserInput: "", Feedback: ""},
	}

	got := System(profile, log, nil)
	assert.Contains(t, got, "=== PAST MISTAKES ===")
	assert.Contains(t, got, "yo es feliz")
	assert.Contains(t, got, "Use 'soy' with ser for identity.")
	// Praise never reaches the corrective section.
	assert.NotContains(t, got, "Correct! No mistakes here.")
}

func TestSystemAllPraiseOmitsSection(t *testing.T) {
	log := []types.MistakeLogEntry{
		{UserInput: "hola", Feedback: "Correct!"},
		{UserInput: "adiós", Feedback: "NO MISTAKES at all."},
	}

	got := System(profile, log, nil)
	assert.NotContains(t, got, "PAST MISTAKES")
}

func TestSystemConceptsSection(t *testing.T) {
	got := System(profile, nil, []string{"ser vs estar", "past tense"})

	assert.Contains(t, got, "=== HISTORICAL WEAKNESSES TO ENFORCE ===")
	assert.Contains(t, got, "- ser vs estar")
	assert.Contains(t, got, "- past tense")
	assert.Contains(t, got, "CRITICAL SCENARIO INSTRUCTION")
	// The scenario directive restates the interests.
	assert.Contains(t, got, "strictly based on the user's interests: travel")
}

func TestReportBaseline(t *testing.T) {
	got := Report(profile, nil)

	assert.Contains(t, got, "Act as an expert Spanish language coach")
	assert.Contains(t, got, "B1 intermediate")
	assert.Contains(t, got, "=== MISTAKE LOG ===")
	assert.Contains(t, got, "No significant mistakes were recorded.")
	assert.Contains(t, got, `"human_summary"`)
	assert.Contains(t, got, `"concepts_to_review"`)
	assert.Equal(t, strings.TrimSpace(got), got)
}

func TestReportMistakeLog(t *testing.T) {
	log := []types.MistakeLogEntry{
		{UserInput: "yo es", Feedback: "Use 'soy'."},
		{UserInput: "bien", Feedback: "Correct."},
	}

	got := Report(profile, log)
	assert.Contains(t, got, "yo es")
	assert.Contains(t, got, "Use 'soy'.")
	assert.NotContains(t, got, "No significant mistakes were recorded.")
	// Praise is filtered here too; only the raw ledger keeps it.
	assert.NotContains(t, got, `"bien"`)
}
