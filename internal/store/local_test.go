package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dialogic/internal/coach"
	"dialogic/internal/provider"
	"dialogic/internal/types"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProviderKeyRoundTrip(t *testing.T) {
	s := newTestStore(t)

	key, err := s.GetProviderKey(provider.ProviderOpenAI)
	if err != nil {
		t.Fatalf("GetProviderKey failed: %v", err)
	}
	if key != "" {
		t.Errorf("Expected empty key before storage, got %q", key)
	}

	if err := s.SetProviderKey(provider.ProviderOpenAI, "sk-test-123"); err != nil {
		t.Fatalf("SetProviderKey failed: %v", err)
	}

	key, err = s.GetProviderKey(provider.ProviderOpenAI)
	if err != nil {
		t.Fatalf("GetProviderKey failed: %v", err)
	}
	if key != "sk-test-123" {
		t.Errorf("Expected stored key, got %q", key)
	}

	// Overwrite should replace, not duplicate.
	if err := s.SetProviderKey(provider.ProviderOpenAI, "sk-test-456"); err != nil {
		t.Fatalf("SetProviderKey overwrite failed: %v", err)
	}
	key, _ = s.GetProviderKey(provider.ProviderOpenAI)
	if key != "sk-test-456" {
		t.Errorf("Expected overwritten key, got %q", key)
	}
}

func TestActiveProvider(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetActiveProvider()
	if err != nil {
		t.Fatalf("GetActiveProvider failed: %v", err)
	}
	if p != "" {
		t.Errorf("Expected no active provider, got %q", p)
	}

	if err := s.SetActiveProvider(provider.ProviderAnthropic); err != nil {
		t.Fatalf("SetActiveProvider failed: %v", err)
	}
	p, err = s.GetActiveProvider()
	if err != nil {
		t.Fatalf("GetActiveProvider failed: %v", err)
	}
	if p != provider.ProviderAnthropic {
		t.Errorf("Expected anthropic, got %q", p)
	}
}

func TestActiveProviderIgnoresUnknownValue(t *testing.T) {
	s := newTestStore(t)

	// Simulate a row written by a newer or corrupted install.
	if err := s.setSetting(keyActiveProvider, "not-a-provider"); err != nil {
		t.Fatalf("setSetting failed: %v", err)
	}

	p, err := s.GetActiveProvider()
	if err != nil {
		t.Fatalf("GetActiveProvider failed: %v", err)
	}
	if p != "" {
		t.Errorf("Expected unknown provider to read as unset, got %q", p)
	}
}

func TestClearAllCredentials(t *testing.T) {
	s := newTestStore(t)

	for _, p := range provider.All() {
		if err := s.SetProviderKey(p, "secret-"+string(p)); err != nil {
			t.Fatalf("SetProviderKey(%s) failed: %v", p, err)
		}
	}
	s.SetActiveProvider(provider.ProviderGemini)
	s.SetActiveConversation("conv-1")
	s.SaveProfile(types.UserProfile{Language: "French"})

	if err := s.ClearAllCredentials(); err != nil {
		t.Fatalf("ClearAllCredentials failed: %v", err)
	}

	for _, p := range provider.All() {
		key, _ := s.GetProviderKey(p)
		if key != "" {
			t.Errorf("Expected %s key cleared, got %q", p, key)
		}
	}
	if p, _ := s.GetActiveProvider(); p != "" {
		t.Errorf("Expected active provider cleared, got %q", p)
	}
	if id, _ := s.GetActiveConversation(); id != "" {
		t.Errorf("Expected active conversation cleared, got %q", id)
	}

	// Logout wipes credentials, not the learner profile.
	profile, err := s.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Language != "French" {
		t.Errorf("Expected profile to survive logout, got %+v", profile)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)

	profile, err := s.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile != (types.UserProfile{}) {
		t.Errorf("Expected zero profile before save, got %+v", profile)
	}

	want := types.UserProfile{
		Language:     "Spanish",
		BaseLanguage: "English",
		Level:        "B1 intermediate",
		Interests:    "travel, cooking",
	}
	if err := s.SaveProfile(want); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	got, err := s.GetProfile()
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got != want {
		t.Errorf("Profile mismatch: got %+v want %+v", got, want)
	}
}

func TestConversationRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetConversation("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing conversation, got %v", err)
	}

	conv := &coach.Conversation{
		ID: "conv-1",
		Messages: []coach.Message{
			{Role: coach.RoleUser, Content: "kickoff", IsHidden: true},
			{Role: coach.RoleAssistant, Content: "¡Hola! Bienvenido."},
			{Role: coach.RoleUser, Content: "Hola, quiero una mesa."},
			{Role: coach.RoleAssistant, Content: "Claro.", Feedback: "Correct!"},
		},
	}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.GetConversation("conv-1")
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if diff := cmp.Diff(conv.Messages, got.Messages); diff != "" {
		t.Errorf("Messages round-trip mismatch (-want +got):\n%s", diff)
	}
	if got.Report != "" {
		t.Errorf("Expected no report, got %q", got.Report)
	}

	// Upsert with more messages.
	conv.Messages = append(conv.Messages, coach.Message{Role: coach.RoleUser, Content: "Gracias."})
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation upsert failed: %v", err)
	}
	got, _ = s.GetConversation("conv-1")
	if len(got.Messages) != 5 {
		t.Errorf("Expected 5 messages after upsert, got %d", len(got.Messages))
	}
}

func TestSaveConversationReport(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveConversationReport("missing", "{}"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing conversation, got %v", err)
	}

	conv := &coach.Conversation{ID: "conv-1", Messages: []coach.Message{{Role: coach.RoleUser, Content: "hola"}}}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	report := `{"human_summary":"Good work","concepts_to_review":["ser vs estar"]}`
	if err := s.SaveConversationReport("conv-1", report); err != nil {
		t.Fatalf("SaveConversationReport failed: %v", err)
	}

	got, err := s.GetConversation("conv-1")
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.Report != report {
		t.Errorf("Report mismatch: got %q", got.Report)
	}
}

func TestRecentReportsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, report := range []string{"r-old", "r-mid", "", "r-new"} {
		conv := &coach.Conversation{
			ID:        "conv-" + string(rune('a'+i)),
			Messages:  []coach.Message{{Role: coach.RoleUser, Content: "hola"}},
			Report:    report,
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveConversation(conv); err != nil {
			t.Fatalf("SaveConversation failed: %v", err)
		}
	}

	reports, err := s.RecentReports(3)
	if err != nil {
		t.Fatalf("RecentReports failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reports))
	}
	// Newest first, conversations without a report skipped.
	if reports[0] != "r-new" || reports[1] != "r-mid" || reports[2] != "r-old" {
		t.Errorf("Unexpected report order: %v", reports)
	}

	reports, err = s.RecentReports(2)
	if err != nil {
		t.Fatalf("RecentReports failed: %v", err)
	}
	if len(reports) != 2 || reports[0] != "r-new" {
		t.Errorf("Limit not applied, got %v", reports)
	}
}

func TestListConversations(t *testing.T) {
	s := newTestStore(t)

	conv := &coach.Conversation{
		ID: "conv-1",
		Messages: []coach.Message{
			{Role: coach.RoleUser, Content: "kickoff", IsHidden: true},
			{Role: coach.RoleAssistant, Content: "¡Hola!"},
			{Role: coach.RoleUser, Content: "Hola."},
		},
		Report: `{"human_summary":"ok","concepts_to_review":[]}`,
	}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	summaries, err := s.ListConversations(10)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Turns != 1 {
		t.Errorf("Hidden kickoff must not count as a turn, got %d", summaries[0].Turns)
	}
	if !summaries[0].HasReport {
		t.Error("Expected HasReport true")
	}
}
