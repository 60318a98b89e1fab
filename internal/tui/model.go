// Package tui is a terminal chat console over the RAG service.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// ChatPort is the TUI-facing subset of the RAG service.
type ChatPort interface {
	Chat(ctx context.Context, query string) (string, error)
}

type role int

const (
	roleUser role = iota
	roleAssistant
	roleError
)

type entry struct {
	role role
	text string
}

// answerMsg carries a finished chat call back to the model.
type answerMsg struct {
	query string
	reply string
	err   error
}

// Model is the Bubble Tea model for the chat console.
type Model struct {
	ctx        context.Context
	service    ChatPort
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []entry
	status     string
	pending    bool
	ready      bool
}

// New creates a chat console. ctx bounds every chat call.
func New(ctx context.Context, service ChatPort, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   title,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, spacer
		vh := msg.Height - reserved - th
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, vh)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{roleError, msg.err.Error()})
			m.status = "Request failed"
		} else {
			m.transcript = append(m.transcript, entry{roleAssistant, msg.reply})
			m.status = "Ready"
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.input.Reset()
			m.pending = true
			m.status = "Thinking..."
			m.transcript = append(m.transcript, entry{roleUser, q})
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		reply, err := svc.Chat(ctx, q)
		return answerMsg{query: q, reply: reply, err: err}
	}
}

// View renders the transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("RAG Notebook")
	status := m.status
	if m.pending {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		queryBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return hintStyle.Render("No messages yet.")
	}
	width := max(10, m.viewport.Width-2)
	parts := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		body := wordwrap.String(e.text, width)
		switch e.role {
		case roleUser:
			parts = append(parts, userStyle.Render("You")+"\n"+body)
		case roleAssistant:
			parts = append(parts, assistantStyle.Render("Assistant")+"\n"+body)
		default:
			parts = append(parts, errorStyle.Render("Error")+"\n"+body)
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle        = lipgloss.NewStyle().Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
