package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialogic/internal/envelope"
	"dialogic/internal/logging"
	"dialogic/internal/prompt"
	"dialogic/internal/provider"
	"dialogic/internal/types"
)

// Sentinel errors surfaced to the UI layer.
var (
	// ErrEmptyInput rejects blank submissions before any state changes.
	ErrEmptyInput = errors.New("coach: empty submission")
	// ErrTurnInFlight rejects a submission while a generation is outstanding.
	ErrTurnInFlight = errors.New("coach: a turn is already in flight")
	// ErrScenarioComplete rejects submissions once the turn threshold is
	// reached; the scenario must be reset to continue practicing.
	ErrScenarioComplete = errors.New("coach: scenario complete")
	// ErrAborted reports a user-cancelled generation.
	ErrAborted = errors.New("coach: generation aborted")
)

// bootstrapContent is the hidden synthetic turn that kicks off a scenario.
// The model sees it; the user never does.
const bootstrapContent = "Let's start the role-play scenario. Please initiate the conversation without responding to this message."

// streamErrorContent replaces the assistant placeholder when a generation
// fails. It is shown in the transcript but never persisted.
const streamErrorContent = "*** Error processing request. Check your API key or network connection. ***"

// reportNudge is the single user turn sent with the report instruction so
// every backend has a non-empty turn list to complete against.
const reportNudge = "Please generate the performance report now."

// conceptReportWindow is how many recent reports feed the concept set.
const conceptReportWindow = 3

// Store is the persistence surface the session needs. *store.LocalStore
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	GetConversation(id string) (*Conversation, error)
	SaveConversation(c *Conversation) error
	SaveConversationReport(id, report string) error
	RecentReports(limit int) ([]string, error)
	GetActiveConversation() (string, error)
	SetActiveConversation(id string) error
}

// Session drives one scenario at a time against a single provider client.
// All methods are safe for the UI's message-loop-plus-command-goroutine
// calling pattern.
type Session struct {
	store   Store
	client  provider.Client
	profile types.UserProfile

	mu           sync.Mutex
	conv         *Conversation
	concepts     []string
	bootstrapped bool
	inFlight     bool
}

// NewSession wires a session over a store and a ready provider client.
func NewSession(store Store, client provider.Client, profile types.UserProfile) *Session {
	return &Session{store: store, client: client, profile: profile}
}

// Profile returns the learner profile the session was started with.
func (s *Session) Profile() types.UserProfile { return s.profile }

// State reports the current scenario state.
func (s *Session) State() ScenarioState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.State()
}

// Concepts returns the concept set derived at start or last reset.
func (s *Session) Concepts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.concepts...)
}

// Messages returns a snapshot of the visible transcript, hidden turns
// excluded.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return nil
	}
	visible := make([]Message, 0, len(s.conv.Messages))
	for _, m := range s.conv.Messages {
		if !m.IsHidden {
			visible = append(visible, m)
		}
	}
	return visible
}

// Report returns the decoded stored report, if one exists.
func (s *Session) Report() (envelope.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil || s.conv.Report == "" {
		return envelope.Report{}, false
	}
	result := envelope.ParseReport(s.conv.Report)
	return result.Report, true
}

// Start resumes the persisted active conversation if one loads, otherwise
// begins a fresh scenario with the hidden bootstrap exchange. onChunk
// observes the streamed opening line when a bootstrap happens.
func (s *Session) Start(ctx context.Context, onChunk provider.ChunkFunc) error {
	s.mu.Lock()
	s.concepts = s.loadConcepts()

	if id, err := s.store.GetActiveConversation(); err == nil && id != "" {
		conv, err := s.store.GetConversation(id)
		if err == nil {
			logging.SessionDebug("Resuming conversation %s: %d messages, state=%s",
				id, len(conv.Messages), conv.State())
			s.conv = conv
			s.bootstrapped = true
			s.mu.Unlock()
			// A scenario that closed without a report gets one now.
			if conv.State() == StateComplete {
				return s.generateReport(ctx)
			}
			return nil
		}
		// A stale pointer must not wedge startup.
		logging.Get(logging.CategorySession).Warnf("Active conversation %s failed to load, starting fresh: %v", id, err)
	}

	s.conv = &Conversation{ID: uuid.NewString()}
	if err := s.store.SetActiveConversation(s.conv.ID); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to record active conversation: %w", err)
	}
	s.mu.Unlock()

	return s.bootstrap(ctx, onChunk)
}

// Reset abandons the current scenario and starts a new one. The concept
// set is re-derived first so weaknesses from the just-finished report feed
// the next scenario.
func (s *Session) Reset(ctx context.Context, onChunk provider.ChunkFunc) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	s.concepts = s.loadConcepts()
	s.conv = &Conversation{ID: uuid.NewString()}
	s.bootstrapped = false
	if err := s.store.SetActiveConversation(s.conv.ID); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to record active conversation: %w", err)
	}
	s.mu.Unlock()

	return s.bootstrap(ctx, onChunk)
}

// ClearHistory drops the in-memory transcript without touching storage.
// The mistake ledger is derived from the transcript, so it empties too.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil || s.inFlight {
		return
	}
	s.conv.Messages = nil
	s.conv.Report = ""
	s.bootstrapped = false
}

// loadConcepts derives the review set from recent reports. Failures are
// logged and treated as an empty set. Caller holds s.mu.
func (s *Session) loadConcepts() []string {
	reports, err := s.store.RecentReports(conceptReportWindow)
	if err != nil {
		logging.Get(logging.CategorySession).Warnf("Failed to load recent reports: %v", err)
		return nil
	}
	concepts := ConceptsFromReports(reports)
	logging.SessionDebug("Derived %d concepts from %d recent reports", len(concepts), len(reports))
	return concepts
}

// bootstrap runs the hidden opening exchange exactly once per conversation.
func (s *Session) bootstrap(ctx context.Context, onChunk provider.ChunkFunc) error {
	s.mu.Lock()
	if s.bootstrapped {
		s.mu.Unlock()
		return nil
	}
	s.bootstrapped = true
	s.inFlight = true

	s.conv.Messages = append(s.conv.Messages,
		Message{Role: RoleUser, Content: bootstrapContent, IsHidden: true},
		Message{Role: RoleAssistant},
	)
	history := chatHistory(s.conv.Messages[:len(s.conv.Messages)-1])
	system := prompt.System(s.profile, nil, s.concepts)
	s.mu.Unlock()

	raw, err := s.client.StreamChat(ctx, history, system, onChunk)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		return s.failTurn(err)
	}

	// The opening line carries no feedback: there is no learner input to
	// correct yet.
	turn := envelope.ParseTurn(raw)
	s.conv.Messages[len(s.conv.Messages)-1] = Message{Role: RoleAssistant, Content: turn.Turn.Response}
	return s.persistLocked()
}

// Submit runs one user turn: append, stream, parse, replace the
// placeholder, persist, and close the scenario with a report when the
// turn threshold is reached.
func (s *Session) Submit(ctx context.Context, input string, onChunk provider.ChunkFunc) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	if s.conv == nil {
		s.mu.Unlock()
		return errors.New("coach: session not started")
	}
	if st := s.conv.State(); st == StateComplete || st == StateReported {
		s.mu.Unlock()
		return ErrScenarioComplete
	}
	s.inFlight = true

	// The ledger covers prior turns only; this turn's feedback lands in
	// the next one.
	mistakeLog := BuildMistakeLog(s.conv.Messages)
	s.conv.Messages = append(s.conv.Messages,
		Message{Role: RoleUser, Content: input},
		Message{Role: RoleAssistant},
	)
	history := chatHistory(s.conv.Messages[:len(s.conv.Messages)-1])
	system := prompt.System(s.profile, mistakeLog, s.concepts)
	s.mu.Unlock()

	raw, err := s.client.StreamChat(ctx, history, system, onChunk)

	s.mu.Lock()
	if err != nil {
		defer s.mu.Unlock()
		s.inFlight = false
		return s.failTurn(err)
	}

	turn := envelope.ParseTurn(raw)
	s.conv.Messages[len(s.conv.Messages)-1] = Message{
		Role:     RoleAssistant,
		Content:  turn.Turn.Response,
		Feedback: turn.Turn.Feedback,
	}
	persistErr := s.persistLocked()
	complete := s.conv.UserTurns() >= MaxTurns && s.conv.Report == ""
	s.inFlight = false
	s.mu.Unlock()

	if persistErr != nil {
		return persistErr
	}
	if complete {
		return s.generateReport(ctx)
	}
	return nil
}

// generateReport closes the scenario: rebuild the full ledger, stream the
// report instruction, and persist the decoded result. Runs at most once
// per conversation.
func (s *Session) generateReport(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	if s.conv == nil || s.conv.Report != "" {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = true
	mistakeLog := BuildMistakeLog(s.conv.Messages)
	system := prompt.Report(s.profile, mistakeLog)
	id := s.conv.ID
	s.mu.Unlock()

	logging.SessionDebug("Generating report for conversation %s: %d ledger entries", id, len(mistakeLog))

	raw, err := s.client.StreamChat(ctx,
		[]provider.ChatMessage{{Role: RoleUser, Content: reportNudge}},
		system, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		if provider.IsAbort(err) {
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Re-encode the parsed report so storage always holds the two-field
	// schema, even when the model misbehaved and the fallback applied.
	result := envelope.ParseReport(raw)
	encoded, err := json.Marshal(result.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	s.conv.Report = string(encoded)
	s.conv.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveConversationReport(id, s.conv.Report); err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}
	return nil
}

// failTurn handles a failed generation: the placeholder becomes a visible
// error banner, nothing is persisted, and aborts keep their identity.
// Caller holds s.mu.
func (s *Session) failTurn(err error) error {
	if n := len(s.conv.Messages); n > 0 && s.conv.Messages[n-1].Role == RoleAssistant && s.conv.Messages[n-1].Content == "" {
		s.conv.Messages[n-1] = Message{Role: RoleAssistant, Content: streamErrorContent}
	}
	if provider.IsAbort(err) {
		logging.SessionDebug("Generation aborted by user")
		return fmt.Errorf("%w: %v", ErrAborted, err)
	}
	logging.Get(logging.CategorySession).Errorf("Generation failed: %v", err)
	return fmt.Errorf("generation failed: %w", err)
}

// persistLocked saves the conversation. Caller holds s.mu.
func (s *Session) persistLocked() error {
	s.conv.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveConversation(s.conv); err != nil {
		return fmt.Errorf("failed to persist conversation: %w", err)
	}
	return nil
}

// chatHistory converts stored messages to the provider wire shape. Hidden
// turns are included: the model needs them for coherence even though the
// UI never renders them.
func chatHistory(messages []Message) []provider.ChatMessage {
	history := make([]provider.ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, provider.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history
}
