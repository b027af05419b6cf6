// Package prompt composes the system instructions sent to the LLM backend.
// Composition is pure: the same profile, ledger, and concept set always
// produce the same instruction text.
package prompt

import (
	"fmt"
	"strings"

	"dialogic/internal/types"
)

// Profile defaults applied when a field is empty. The scenario should still
// run for a partially configured profile rather than fail.
const (
	defaultLanguage     = "Spanish"
	defaultBaseLanguage = "English"
	defaultLevel        = "B1 intermediate"
	defaultInterests    = "general topics"
)

// System builds the role-play system instruction from the profile, the
// current mistake ledger, and the concept set carried over from prior
// sessions. The PAST MISTAKES and HISTORICAL WEAKNESSES sections are
// rendered only when they have content.
func System(profile types.UserProfile, mistakeLog []types.MistakeLogEntry, concepts []string) string {
	language := orDefault(profile.Language, defaultLanguage)
	baseLanguage := orDefault(profile.BaseLanguage, defaultBaseLanguage)
	level := orDefault(profile.Level, defaultLevel)
	interests := orDefault(profile.Interests, defaultInterests)

	var mistakesSection string
	if formatted := formatMistakes(mistakeLog, "User: %q\nFeedback: %q", "\n\n"); formatted != "" {
		mistakesSection = fmt.Sprintf("\n\n=== PAST MISTAKES ===\n"+
			"The user has previously made the following mistakes in this conversation:\n%s\n\n"+
			"Please try to naturally incorporate opportunities for the user to practice and correct these past mistakes in your upcoming responses.",
			formatted)
	}

	var reviewSection string
	if len(concepts) > 0 {
		var b strings.Builder
		for i, c := range concepts {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + c)
		}
		reviewSection = fmt.Sprintf("\n\n=== HISTORICAL WEAKNESSES TO ENFORCE ===\n"+
			"The user has previously struggled with the following concepts:\n%s\n\n"+
			"CRITICAL SCENARIO INSTRUCTION:\n"+
			"1. Define a specific scenario strictly based on the user's interests: %s.\n"+
			"2. Actively engineer situational constraints in this role-play that FORCE the user to utilize the specific linguistic mechanics listed above.\n"+
			"3. Initiate the conversation by immediately placing the user in a context where they MUST respond using those mechanics.",
			b.String(), interests)
	}

	return strings.TrimSpace(fmt.Sprintf(`
Act as a %[1]s conversationalist and tutor. You will conduct a role-play scenario—tailored for a %[2]s level.
If no historical weaknesses are provided, range the scenario from a professional debate to a chaotic travel mishap, incorporating the user's interests: %[3]s.%[4]s%[5]s

For every interaction, you MUST output a strictly valid JSON object with EXACTLY two keys:
1. "response": Your response in %[1]s to keep the role-play moving. Keep the vocabulary and complexity appropriate for a %[2]s speaker.
2. "feedback": A brief, sharp explanation of the user's mistakes in %[6]s, including grammar, syntax, and word choice corrections. If the user made no mistakes, provide a brief encouraging remark or note that it was correct in %[6]s.

CRITICAL: Your entire output MUST be a valid JSON object. Do not include markdown code blocks (like `+"```json"+`), greetings, or any text outside of the JSON object.

Example Output (Structure example):
{
  "response": "[Response in %[1]s goes here]",
  "feedback": "[%[6]s feedback on user's mistakes goes here]"
}
`, language, level, interests, reviewSection, mistakesSection, baseLanguage))
}

// Report builds the system instruction for end-of-scenario report
// generation from the full session ledger.
func Report(profile types.UserProfile, mistakeLog []types.MistakeLogEntry) string {
	language := orDefault(profile.Language, defaultLanguage)
	level := orDefault(profile.Level, defaultLevel)

	formatted := formatMistakes(mistakeLog, "- User said: %q\n  Feedback: %q", "\n")
	if formatted == "" {
		formatted = "No significant mistakes were recorded."
	}

	return strings.TrimSpace(fmt.Sprintf(`
Act as an expert %[1]s language coach. The user has just completed a %[1]s conversation scenario at a %[2]s level.

Based on the following list of mistakes and feedback from the session, generate a performance report.

=== MISTAKE LOG ===
%[3]s

You MUST output a strictly valid JSON object with EXACTLY two keys:
1. "human_summary": A markdown-formatted summary of the user's performance, identifying 3-5 core linguistic concepts (grammar rules, vocabulary themes, syntax patterns) they struggled with, brief explanations, and a specific exercise/focus area. Use bullet points.
2. "concepts_to_review": An array of strings, where each string is a concise summary (1-2 sentences max) of a core linguistic concept the user failed, which will be fed to an AI in the future to FORCE practice.

CRITICAL: Your entire output MUST be a valid JSON object. Do not include markdown code blocks (like `+"```json"+`), greetings, or any text outside of the JSON object.

Example Output (Structure example):
{
  "human_summary": "### Core Concepts to Review\n...",
  "concepts_to_review": [
    "Uses incorrect past tense conjugation for regular AR verbs.",
    "Struggles with gender agreement between nouns and adjectives."
  ]
}
`, language, level, formatted))
}

// formatMistakes renders ledger entries with the given line format,
// excluding praise: entries whose feedback contains "correct" or
// "no mistakes" (case-insensitive) stay in the ledger but never reach the
// corrective prompt sections.
func formatMistakes(mistakeLog []types.MistakeLogEntry, lineFormat, sep string) string {
	var lines []string
	for _, m := range mistakeLog {
		if m.Feedback == "" || isPraise(m.Feedback) {
			continue
		}
		lines = append(lines, fmt.Sprintf(lineFormat, m.UserInput, m.Feedback))
	}
	return strings.Join(lines, sep)
}

func isPraise(feedback string) bool {
	lower := strings.ToLower(feedback)
	return strings.Contains(lower, "correct") || strings.Contains(lower, "no mistakes")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
