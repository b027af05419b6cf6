package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dialogic/internal/types"
)

func TestBuildMistakeLog(t *testing.T) {
	t.Run("hidden bootstrap is not a user_input source", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "kickoff", IsHidden: true},
			{Role: RoleAssistant, Content: "a1", Feedback: "F1"},
			{Role: RoleUser, Content: "U2"},
			{Role: RoleAssistant, Content: "a2", Feedback: "F2"},
		}
		assert.Equal(t, []types.MistakeLogEntry{
			{UserInput: "", Feedback: "F1"},
			{UserInput: "U2", Feedback: "F2"},
		}, BuildMistakeLog(messages))
	})

	t.Run("assistant without feedback is skipped", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "U1"},
			{Role: RoleAssistant, Content: "a1"},
			{Role: RoleUser, Content: "U2"},
			{Role: RoleAssistant, Content: "a2", Feedback: "F2"},
		}
		assert.Equal(t, []types.MistakeLogEntry{
			{UserInput: "U2", Feedback: "F2"},
		}, BuildMistakeLog(messages))
	})

	t.Run("hidden assistant feedback is excluded", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "U1"},
			{Role: RoleAssistant, Content: "a1", Feedback: "F1", IsHidden: true},
		}
		assert.Empty(t, BuildMistakeLog(messages))
	})

	t.Run("nearest preceding user wins", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "U1"},
			{Role: RoleAssistant, Content: "a1"},
			{Role: RoleUser, Content: "U2"},
			{Role: RoleAssistant, Content: "a2", Feedback: "F2"},
		}
		log := BuildMistakeLog(messages)
		assert.Len(t, log, 1)
		assert.Equal(t, "U2", log[0].UserInput)
	})

	t.Run("empty history", func(t *testing.T) {
		assert.Empty(t, BuildMistakeLog(nil))
	})

	t.Run("recomputed not incremental", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "U1"},
			{Role: RoleAssistant, Content: "a1", Feedback: "F1"},
		}
		first := BuildMistakeLog(messages)
		second := BuildMistakeLog(messages)
		assert.Equal(t, first, second)
	})
}
