package coach

import "dialogic/internal/types"

// BuildMistakeLog derives the mistake ledger from a conversation history.
// It is recomputed from scratch on every turn and at report time, never
// incrementally mutated.
//
// For every non-hidden assistant message carrying feedback, the nearest
// preceding non-hidden user message supplies the user_input. Feedback on
// the assistant's reply to the hidden bootstrap turn therefore attributes
// an empty user_input: the bootstrap message is deliberately not a valid
// lookup source.
func BuildMistakeLog(messages []Message) []types.MistakeLogEntry {
	var log []types.MistakeLogEntry
	for i, m := range messages {
		if m.Role != RoleAssistant || m.IsHidden || m.Feedback == "" {
			continue
		}
		log = append(log, types.MistakeLogEntry{
			UserInput: precedingUserInput(messages, i),
			Feedback:  m.Feedback,
		})
	}
	return log
}

func precedingUserInput(messages []Message, from int) string {
	for i := from - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser && !messages[i].IsHidden {
			return messages[i].Content
		}
	}
	return ""
}
