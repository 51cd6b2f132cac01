package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"course-rag/internal/service"
)

// QueryPort is the TUI-facing subset of the RAG service.
type QueryPort interface {
	Query(ctx context.Context, text, sessionID string) (service.Answer, error)
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service    QueryPort
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	sessionID  string
	header     string
	status     string
	busy       bool
	ready      bool
}

type answerMsg struct {
	answer service.Answer
	err    error
}

// New creates a new chat model. The header line typically summarizes the
// ingested catalog.
func New(svc QueryPort, header string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the course materials and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: svc, input: ti, viewport: vp, header: header, status: "Ready."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header line, status line, query frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.sessionID = msg.answer.SessionID
			m.transcript = append(m.transcript, renderAnswer(msg.answer))
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.transcript = append(m.transcript, userStyle.Render("You: ")+q)
			m.input.SetValue("")
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			svc, sessionID := m.service, m.sessionID
			return m, func() tea.Msg {
				ans, err := svc.Query(context.Background(), q, sessionID)
				return answerMsg{answer: ans, err: err}
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Course Materials Assistant") +
		"  " + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.header)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No conversation yet."
	}
	return strings.Join(m.transcript, "\n\n")
}

func renderAnswer(ans service.Answer) string {
	out := assistantStyle.Render("Assistant: ") + ans.Text
	if len(ans.Sources) > 0 {
		var refs []string
		for _, src := range ans.Sources {
			ref := src.Course
			if src.LessonNumber != nil {
				ref += fmt.Sprintf(" - Lesson %d", *src.LessonNumber)
			}
			refs = append(refs, ref)
		}
		out += "\n" + sourceStyle.Render("Sources: "+strings.Join(dedupe(refs), ", "))
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
