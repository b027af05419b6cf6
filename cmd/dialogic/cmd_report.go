package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"dialogic/internal/envelope"
	"dialogic/internal/store"
)

var reportListLimitFlag int

// reportCmd browses past performance reports
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Browse performance reports",
	Long: `Browse the performance reports generated at the end of each
scenario.

Available subcommands:
  list - List recent conversations and whether they have a report
  show - Render one conversation's report`,
}

// reportListCmd lists recent conversations
var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversations",
	RunE:  runReportList,
}

// reportShowCmd renders a single report
var reportShowCmd = &cobra.Command{
	Use:   "show [conversation-id]",
	Short: "Show a conversation's performance report",
	Long: `Render the performance report for a conversation. With no
argument the most recent reported conversation is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReportShow,
}

func init() {
	reportListCmd.Flags().IntVar(&reportListLimitFlag, "limit", 20, "Maximum conversations to list")
}

func runReportList(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.ListConversations(reportListLimitFlag)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations yet. Run 'dialogic' to start practicing.")
		return nil
	}

	fmt.Printf("%-36s  %-6s  %-8s  %s\n", "ID", "TURNS", "REPORT", "UPDATED")
	fmt.Println(strings.Repeat("-", 72))
	for _, s := range summaries {
		report := "-"
		if s.HasReport {
			report = "yes"
		}
		fmt.Printf("%-36s  %-6d  %-8s  %s\n", s.ID, s.Turns, report, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		id, err = latestReportedConversation(st)
		if err != nil {
			return err
		}
	}

	conv, err := st.GetConversation(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("conversation %s not found", id)
		}
		return err
	}
	if conv.Report == "" {
		return fmt.Errorf("conversation %s has no report yet", id)
	}

	result := envelope.ParseReport(conv.Report)

	fmt.Printf("Conversation %s (%d turns)\n\n", conv.ID, conv.UserTurns())
	fmt.Println(renderMarkdown(result.Report.HumanSummary))

	if len(result.Report.ConceptsToReview) > 0 {
		fmt.Println("Concepts to review:")
		for _, concept := range result.Report.ConceptsToReview {
			fmt.Printf("  - %s\n", concept)
		}
	}
	return nil
}

// latestReportedConversation returns the most recently updated conversation
// that has a report.
func latestReportedConversation(st *store.LocalStore) (string, error) {
	summaries, err := st.ListConversations(0)
	if err != nil {
		return "", err
	}
	for _, s := range summaries {
		if s.HasReport {
			return s.ID, nil
		}
	}
	return "", errors.New("no reported conversations yet")
}

// renderMarkdown renders for the terminal, returning the raw text when the
// renderer cannot be built.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}
