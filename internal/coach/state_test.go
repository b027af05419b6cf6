package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateOf(t *testing.T) {
	tests := []struct {
		name      string
		userTurns int
		hasReport bool
		want      ScenarioState
	}{
		{"no turns", 0, false, StateActive},
		{"one turn", 1, false, StateActive},
		{"threshold reached", MaxTurns, false, StateComplete},
		{"past threshold", MaxTurns + 1, false, StateComplete},
		{"reported", MaxTurns, true, StateReported},
		{"report wins regardless of turns", 0, true, StateReported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateOf(tt.userTurns, tt.hasReport))
		})
	}
}

func TestConversationState(t *testing.T) {
	var nilConv *Conversation
	assert.Equal(t, StateUninitialized, nilConv.State())
	assert.Equal(t, StateUninitialized, (&Conversation{}).State())
	assert.Equal(t, StateBootstrapping, (&Conversation{ID: "c1"}).State())

	conv := &Conversation{ID: "c1", Messages: []Message{
		{Role: RoleUser, Content: "kickoff", IsHidden: true},
		{Role: RoleAssistant, Content: "¡Hola!"},
	}}
	// Hidden turns never count toward the threshold.
	assert.Equal(t, StateActive, conv.State())
	assert.Equal(t, 0, conv.UserTurns())

	conv.Messages = append(conv.Messages,
		Message{Role: RoleUser, Content: "u1"},
		Message{Role: RoleAssistant, Content: "a1"},
		Message{Role: RoleUser, Content: "u2"},
		Message{Role: RoleAssistant, Content: "a2"},
	)
	assert.Equal(t, StateComplete, conv.State())

	conv.Report = `{"human_summary":"ok","concepts_to_review":[]}`
	assert.Equal(t, StateReported, conv.State())
}

func TestScenarioStateString(t *testing.T) {
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "reported", StateReported.String())
	assert.Equal(t, "unknown", ScenarioState(99).String())
}
