// Package envelope decodes the strict JSON objects the model is instructed
// to emit. Model output is untrusted free text: it may be wrapped in
// markdown fences, truncated, or pure prose. Parsing never fails past this
// package's boundary; callers branch on the Decoded flag instead of
// catching errors.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Turn is the per-turn envelope: the in-language reply plus feedback on the
// user's mistakes in their base language.
type Turn struct {
	Response string `json:"response"`
	Feedback string `json:"feedback"`
}

// Report is the end-of-scenario envelope: a markdown performance summary
// plus the concept strings carried into future scenarios.
type Report struct {
	HumanSummary     string   `json:"human_summary"`
	ConceptsToReview []string `json:"concepts_to_review"`
}

// TurnResult is the outcome of parsing a turn envelope. Decoded is false
// when the fallback was substituted.
type TurnResult struct {
	Turn    Turn
	Decoded bool
}

// ReportResult is the outcome of parsing a report envelope.
type ReportResult struct {
	Report  Report
	Decoded bool
}

// fallbackResponse is shown to the user when the model output could not be
// decoded. The reply stays in-language so the role-play is not broken.
const fallbackResponse = "Lo siento, ha ocurrido un error en mi procesamiento. ¿Podemos intentarlo de nuevo?"

const rawExcerptLimit = 100

// ParseTurn extracts a Turn from raw model output. Malformed input of any
// kind yields the fixed fallback turn with the failure captured in Feedback.
func ParseTurn(raw string) TurnResult {
	clean := stripFences(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &obj); err != nil || obj == nil {
		return TurnResult{Turn: fallbackTurn(raw)}
	}

	return TurnResult{
		Turn: Turn{
			Response: stringField(obj, "response"),
			Feedback: stringField(obj, "feedback"),
		},
		Decoded: true,
	}
}

// ParseReport extracts a Report from raw model output. Malformed input
// yields an empty concept list and an explanatory summary.
func ParseReport(raw string) ReportResult {
	clean := stripFences(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &obj); err != nil || obj == nil {
		return ReportResult{Report: Report{
			HumanSummary:     fmt.Sprintf("Report generation failed: the model did not return valid JSON. Raw output: %s...", excerpt(raw)),
			ConceptsToReview: []string{},
		}}
	}

	report := Report{
		HumanSummary:     stringField(obj, "human_summary"),
		ConceptsToReview: []string{},
	}
	if rawList, ok := obj["concepts_to_review"]; ok {
		var concepts []string
		// A malformed or null array degrades to an empty list, not a failure.
		if err := json.Unmarshal(rawList, &concepts); err == nil && concepts != nil {
			report.ConceptsToReview = concepts
		}
	}
	return ReportResult{Report: report, Decoded: true}
}

func fallbackTurn(raw string) Turn {
	return Turn{
		Response: fallbackResponse,
		Feedback: fmt.Sprintf("[System Error] Failed to parse LLM output as JSON. Raw output: %s...", excerpt(raw)),
	}
}

// stripFences removes a leading/trailing markdown code fence, with or
// without a language tag, so a model that disobeys the JSON-only directive
// still gets decoded.
func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}

	clean = strings.TrimPrefix(clean, "```")
	// Drop a language tag like "json" on the opening fence.
	if idx := strings.IndexAny(clean, "\n{["); idx > 0 {
		tag := strings.TrimSpace(clean[:idx])
		if tag != "" && !strings.ContainsAny(tag, "{}[]\"") {
			clean = clean[idx:]
		}
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

func stringField(obj map[string]json.RawMessage, key string) string {
	rawVal, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(rawVal, &s); err != nil {
		return ""
	}
	return s
}

func excerpt(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) <= rawExcerptLimit {
		return trimmed
	}
	// Back off to a rune boundary so the diagnostic stays valid UTF-8.
	cut := rawExcerptLimit
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut]
}
