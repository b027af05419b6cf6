package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"dialogic/cmd/dialogic/ui"
	"dialogic/internal/coach"
)

// Tea messages produced by session commands.
type sessionReadyMsg struct{}
type turnDoneMsg struct{}
type turnFailedMsg struct{ err error }

// chatModel is the bubbletea model for the interactive coach.
type chatModel struct {
	chatCtx *chatContext
	session *coach.Session

	styles   ui.Styles
	renderer *glamour.TermRenderer

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model

	// cancel aborts the in-flight generation; nil when idle.
	cancel context.CancelFunc

	isLoading bool
	starting  bool
	status    string
	err       error

	width  int
	height int
	ready  bool
}

func initChat(chatCtx *chatContext) chatModel {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Type your reply..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.Prompt = styles.Prompt.Render("> ")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return chatModel{
		chatCtx:   chatCtx,
		session:   chatCtx.session,
		styles:    styles,
		renderer:  renderer,
		textinput: ti,
		spinner:   sp,
		isLoading: true,
		starting:  true,
	}
}

func (m chatModel) Init() tea.Cmd {
	session := m.session
	start := func() tea.Msg {
		if err := session.Start(context.Background(), nil); err != nil {
			return turnFailedMsg{err}
		}
		return sessionReadyMsg{}
	}
	return tea.Batch(textinput.Blink, m.spinner.Tick, start)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.abortTurn()
			return m, tea.Quit

		case tea.KeyCtrlS:
			if m.isLoading {
				m.abortTurn()
			}
			return m, nil

		case tea.KeyCtrlR:
			if !m.isLoading {
				m.session.ClearHistory()
				m.status = "History cleared. The scenario continues from a blank transcript."
				m.refreshViewport()
			}
			return m, nil

		case tea.KeyCtrlN:
			if !m.isLoading {
				return m.startNewScenario()
			}
			return m, nil

		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 4
		verticalMargin := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

		m.textinput.Width = msg.Width - 6

		wrap := msg.Width - 4
		if wrap > 100 {
			wrap = 100
		}
		if wrap > 10 {
			if renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(wrap),
			); err == nil {
				m.renderer = renderer
			}
		}

		m.refreshViewport()

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			// Mid-turn the transcript already holds the submitted user
			// message and the placeholder; keep the view current.
			m.refreshViewport()
		}

	case sessionReadyMsg:
		m.isLoading = false
		m.starting = false
		m.cancel = nil
		m.err = nil
		m.refreshViewport()
		m.viewport.GotoBottom()

	case turnDoneMsg:
		m.isLoading = false
		m.cancel = nil
		m.err = nil
		if m.session.State() == coach.StateReported {
			m.status = "Scenario complete. Your performance report is below."
		}
		m.refreshViewport()
		m.viewport.GotoBottom()

	case turnFailedMsg:
		m.isLoading = false
		m.starting = false
		m.cancel = nil
		switch {
		case errors.Is(msg.err, coach.ErrAborted):
			m.status = "Response cancelled."
		case errors.Is(msg.err, coach.ErrScenarioComplete):
			m.status = "Scenario complete. Press Ctrl+N for a new one."
		case errors.Is(msg.err, coach.ErrEmptyInput):
			m.status = ""
		default:
			m.err = msg.err
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
	}

	if !m.isLoading {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleSubmit dispatches the input line: quit words, slash commands, or a
// scenario turn.
func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	switch strings.ToLower(input) {
	case "exit", "quit":
		m.abortTurn()
		return m, tea.Quit
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	if m.session.State() >= coach.StateComplete {
		m.status = "Scenario complete. Press Ctrl+N for a new one."
		m.textinput.Reset()
		return m, nil
	}

	m.textinput.Reset()
	m.status = ""
	m.err = nil
	m.isLoading = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	session := m.session
	submit := func() tea.Msg {
		defer cancel()
		if err := session.Submit(ctx, input, nil); err != nil {
			return turnFailedMsg{err}
		}
		return turnDoneMsg{}
	}

	return m, tea.Batch(m.spinner.Tick, submit)
}

// handleCommand processes slash commands.
func (m chatModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textinput.Reset()

	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit":
		m.abortTurn()
		return m, tea.Quit

	case "/new":
		return m.startNewScenario()

	case "/clear":
		m.session.ClearHistory()
		m.status = "History cleared. The scenario continues from a blank transcript."
		m.refreshViewport()
		return m, nil

	case "/report":
		if _, ok := m.session.Report(); ok {
			m.status = "Report shown below."
		} else {
			m.status = "No report yet. Finish the scenario first."
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case "/help":
		m.status = "Commands: /new /clear /report /help /quit. Keys: Ctrl+S cancel, Ctrl+R clear, Ctrl+N new scenario."
		return m, nil

	default:
		m.status = fmt.Sprintf("Unknown command %q. Try /help.", input)
		return m, nil
	}
}

// startNewScenario discards the current conversation and bootstraps a
// fresh one.
func (m chatModel) startNewScenario() (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil
	m.isLoading = true
	m.starting = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	session := m.session
	reset := func() tea.Msg {
		defer cancel()
		if err := session.Reset(ctx, nil); err != nil {
			return turnFailedMsg{err}
		}
		return sessionReadyMsg{}
	}

	return m, tea.Batch(m.spinner.Tick, reset)
}

// abortTurn cancels the in-flight generation, if any.
func (m *chatModel) abortTurn() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
}

// renderHistory renders the visible transcript plus, once present, the
// performance report.
func (m *chatModel) renderHistory() string {
	var b strings.Builder

	for _, msg := range m.session.Messages() {
		switch msg.Role {
		case coach.RoleUser:
			b.WriteString(m.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")

		case coach.RoleAssistant:
			b.WriteString(m.styles.CoachLabel.Render("Coach"))
			b.WriteString("\n")
			if msg.Content == "" && m.isLoading {
				b.WriteString(m.styles.Muted.Render("..."))
			} else {
				b.WriteString(m.styles.CoachResponse.Render(m.safeRenderMarkdown(msg.Content)))
			}
			b.WriteString("\n")
			if msg.Feedback != "" {
				b.WriteString(m.styles.Feedback.Render("Feedback: " + msg.Feedback))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if report, ok := m.session.Report(); ok {
		b.WriteString(m.styles.RenderDivider(max(20, m.width-4)))
		b.WriteString("\n")
		b.WriteString(m.styles.Title.Render("Performance Report"))
		b.WriteString("\n")
		b.WriteString(m.safeRenderMarkdown(report.HumanSummary))
		b.WriteString("\n")
		if len(report.ConceptsToReview) > 0 {
			b.WriteString(m.styles.Subtitle.Render("Concepts to review:"))
			b.WriteString("\n")
			for _, concept := range report.ConceptsToReview {
				b.WriteString("  - " + concept + "\n")
			}
		}
	}

	return b.String()
}

// safeRenderMarkdown renders markdown, falling back to the raw text if the
// renderer panics on malformed input.
func (m *chatModel) safeRenderMarkdown(content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = content
		}
	}()

	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

func (m chatModel) View() string {
	if !m.ready {
		return "Starting dialogic..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	var loading string
	if m.isLoading {
		label := "Thinking..."
		if m.starting {
			label = "Setting the scene..."
		}
		loading = m.spinner.View() + " " + m.styles.Muted.Render(label)
	}

	inputArea := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Border).
		Padding(0, 1).
		Width(m.width - 2).
		Render(m.textinput.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		loading,
		inputArea,
		footer,
	)
}

func (m chatModel) renderHeader() string {
	title := m.styles.Header.
		Width(m.width).
		Render(fmt.Sprintf("dialogic · %s · %s", profileLabel(m.session.Profile()), m.chatCtx.provider))
	return title + "\n"
}

func (m chatModel) renderFooter() string {
	var parts []string

	if m.err != nil {
		parts = append(parts, m.styles.Error.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		parts = append(parts, m.styles.Info.Render(m.status))
	}

	var hints string
	switch {
	case m.isLoading:
		hints = "Ctrl+S: cancel · Ctrl+C: quit"
	case m.session.State() >= coach.StateComplete:
		hints = "Ctrl+N: new scenario · /report: show report · exit: quit"
	default:
		hints = "Enter: send · Ctrl+R: clear · Ctrl+N: new scenario · exit: quit"
	}
	parts = append(parts, m.styles.Footer.Render(hints))

	return strings.Join(parts, "\n")
}

func runInteractiveChat() error {
	chatCtx, err := newChatContext()
	if err != nil {
		return err
	}
	defer chatCtx.Close()

	p := tea.NewProgram(
		initChat(chatCtx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	return err
}
