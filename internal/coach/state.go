package coach

// MaxTurns is the fixed number of non-hidden user turns a scenario runs
// for before the performance report is generated.
const MaxTurns = 2

// ScenarioState is the explicit lifecycle of one Conversation. It is never
// stored: it is recomputed from the message history and report presence so
// transitions stay auditable.
type ScenarioState int

const (
	// StateUninitialized means no conversation exists yet.
	StateUninitialized ScenarioState = iota
	// StateBootstrapping means the conversation exists but the synthetic
	// opening exchange has not completed.
	StateBootstrapping
	// StateActive means the scenario is running and accepts user turns.
	StateActive
	// StateComplete means the turn threshold was reached but no report has
	// been generated yet. No further user turns are accepted.
	StateComplete
	// StateReported is terminal: the report exists and the only actions are
	// viewing it or resetting to a fresh conversation.
	StateReported
)

func (s ScenarioState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBootstrapping:
		return "bootstrapping"
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	case StateReported:
		return "reported"
	default:
		return "unknown"
	}
}

// StateOf derives the scenario state for a conversation with the given
// completed non-hidden user turn count and report presence.
func StateOf(userTurns int, hasReport bool) ScenarioState {
	switch {
	case hasReport:
		return StateReported
	case userTurns >= MaxTurns:
		return StateComplete
	default:
		return StateActive
	}
}

// State reports the conversation's current scenario state.
func (c *Conversation) State() ScenarioState {
	if c == nil || c.ID == "" {
		return StateUninitialized
	}
	if len(c.Messages) == 0 {
		return StateBootstrapping
	}
	return StateOf(c.UserTurns(), c.Report != "")
}
