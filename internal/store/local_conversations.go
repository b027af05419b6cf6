package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dialogic/internal/coach"
	"dialogic/internal/logging"
)

// SaveConversation upserts a conversation transcript. Messages are stored
// as JSON exactly as they serialize, so anything written by one version of
// the app reads back byte-compatible in the next.
func (s *LocalStore) SaveConversation(c *coach.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c == nil || c.ID == "" {
		return errors.New("store: conversation requires an id")
	}

	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("failed to serialize messages: %w", err)
	}

	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	logging.StoreDebug("Saving conversation %s: %d messages", c.ID, len(c.Messages))

	_, err = s.db.Exec(
		`INSERT INTO conversations (id, messages, report, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET messages = excluded.messages, report = excluded.report, updated_at = excluded.updated_at`,
		c.ID, string(messages), c.Report, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	return nil
}

// GetConversation loads a conversation by id. Returns ErrNotFound when no
// such conversation exists.
func (s *LocalStore) GetConversation(id string) (*coach.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		messages  string
		report    sql.NullString
		updatedAt time.Time
	)
	err := s.db.QueryRow(
		"SELECT messages, report, updated_at FROM conversations WHERE id = ?", id,
	).Scan(&messages, &report, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}

	c := &coach.Conversation{ID: id, UpdatedAt: updatedAt, Report: report.String}
	if err := json.Unmarshal([]byte(messages), &c.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages for %s: %w", id, err)
	}
	return c, nil
}

// SaveConversationReport attaches a serialized assessment report to an
// existing conversation and bumps its timestamp.
func (s *LocalStore) SaveConversationReport(id, report string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE conversations SET report = ?, updated_at = ? WHERE id = ?",
		report, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save report for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	logging.StoreDebug("Saved report for conversation %s (%d bytes)", id, len(report))
	return nil
}

// RecentReports returns the serialized reports of the most recently
// updated conversations that have one, newest first.
func (s *LocalStore) RecentReports(limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.Query(
		`SELECT report FROM conversations
		 WHERE report IS NOT NULL AND report != ''
		 ORDER BY updated_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []string
	for rows.Next() {
		var report string
		if err := rows.Scan(&report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// ConversationSummary is a lightweight row for browsing past scenarios.
type ConversationSummary struct {
	ID        string
	Turns     int
	HasReport bool
	UpdatedAt time.Time
}

// ListConversations returns summaries of stored conversations, newest
// first. Used by the report browsing commands.
func (s *LocalStore) ListConversations(limit int) ([]ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, messages, report, updated_at FROM conversations
		 ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var summaries []ConversationSummary
	for rows.Next() {
		var (
			summary  ConversationSummary
			messages string
			report   sql.NullString
		)
		if err := rows.Scan(&summary.ID, &messages, &report, &summary.UpdatedAt); err != nil {
			continue
		}
		summary.HasReport = report.String != ""

		var msgs []coach.Message
		if err := json.Unmarshal([]byte(messages), &msgs); err == nil {
			summary.Turns = (&coach.Conversation{Messages: msgs}).UserTurns()
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
