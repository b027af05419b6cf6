package coach

import "dialogic/internal/envelope"

// ConceptsFromReports merges the concepts_to_review arrays of the given
// stored report strings into one deduplicated concept set. Reports that
// fail to parse are skipped: they came from an LLM and may be garbage.
//
// First-seen order is preserved so composed prompts are deterministic;
// callers treat the result as an unordered set. The merge is idempotent.
func ConceptsFromReports(reports []string) []string {
	seen := make(map[string]struct{})
	var concepts []string
	for _, raw := range reports {
		result := envelope.ParseReport(raw)
		if !result.Decoded {
			continue
		}
		for _, c := range result.Report.ConceptsToReview {
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			concepts = append(concepts, c)
		}
	}
	return concepts
}
