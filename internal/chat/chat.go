// Package chat runs the interactive terminal session.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/docent/internal/agent"
	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/util"
)

// Session is what the chat needs from the agent. *agent.Agent satisfies it.
type Session interface {
	Ask(ctx context.Context, question string) (agent.State, error)
	Mode() agent.Mode
	SetMode(m agent.Mode) error
}

// Options tune the session display.
type Options struct {
	Model   string
	Verbose bool
}

const helpText = `Commands:
  help           Show this help message
  mode           Show the current mode
  mode <name>    Switch to offline or online
  quit           Exit the chat (also exit, q)

Anything else is sent to the assistant as a question.`

type role int

const (
	roleUser role = iota
	roleAssistant
	roleSystem
)

type entry struct {
	role    role
	content string
}

type answerMsg struct{ state agent.State }

type answerErr struct{ error }

type model struct {
	ctx          context.Context
	session      Session
	opts         Options
	textArea     textarea.Model
	viewport     viewport.Model
	spinner      spinner.Model
	history      []entry
	isLoading    bool
	quitting     bool
	width        int
	height       int
	renderer     *glamour.TermRenderer
	requestStart time.Time
}

func newModel(ctx context.Context, session Session, opts Options) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Ask about LangGraph or LangChain..."
	ta.Focus()
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	m := &model{
		ctx:      ctx,
		session:  session,
		opts:     opts,
		textArea: ta,
		viewport: viewport.New(100, 5),
		spinner:  s,
	}
	m.history = append(m.history, entry{roleSystem, "Type your question, 'help' for commands, or 'quit' to exit."})
	return m
}

func askCmd(ctx context.Context, session Session, question string) tea.Cmd {
	return func() tea.Msg {
		state, err := session.Ask(ctx, question)
		if err != nil {
			return answerErr{err}
		}
		return answerMsg{state}
	}
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textArea.Value())
			m.textArea.Reset()
			if input == "" {
				return m, nil
			}
			return m, m.handleInput(input)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.renderer = nil
		m.refreshViewport()
		return m, nil

	case answerMsg:
		m.isLoading = false
		m.history = append(m.history, entry{roleAssistant, msg.state.Answer})
		if m.opts.Verbose {
			m.history = append(m.history, entry{roleSystem, describeState(msg.state)})
		}
		m.refreshViewport()
		return m, nil

	case answerErr:
		m.isLoading = false
		logging.LogWarn("[CHAT] question failed: %v", msg.error)
		m.history = append(m.history, entry{roleSystem, fmt.Sprintf("Error: %v", msg.error)})
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.textArea, cmd = m.textArea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleInput runs a chat command or sends input as a question.
func (m *model) handleInput(input string) tea.Cmd {
	fields := strings.Fields(strings.ToLower(input))
	switch fields[0] {
	case "quit", "exit", "q":
		if len(fields) == 1 {
			m.quitting = true
			return tea.Quit
		}
	case "help":
		if len(fields) == 1 {
			m.history = append(m.history, entry{roleSystem, helpText})
			m.refreshViewport()
			return nil
		}
	case "mode":
		switch len(fields) {
		case 1:
			m.history = append(m.history, entry{roleSystem, "Current mode: " + m.session.Mode().String()})
			m.refreshViewport()
			return nil
		case 2:
			m.history = append(m.history, entry{roleSystem, m.switchMode(fields[1])})
			m.refreshViewport()
			return nil
		}
	}

	m.history = append(m.history, entry{roleUser, input})
	m.isLoading = true
	m.requestStart = time.Now()
	m.refreshViewport()
	return tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.session, input))
}

func (m *model) switchMode(name string) string {
	mode, err := agent.ParseMode(name)
	if err != nil {
		return err.Error()
	}
	if err := m.session.SetMode(mode); err != nil {
		return "Cannot switch mode: " + err.Error()
	}
	logging.LogEvent("[CHAT] mode switched to %s", mode)
	return "Mode set to " + mode.String()
}

func describeState(s agent.State) string {
	return fmt.Sprintf("contexts=%d confidence=%.3f decision=%s web_results=%d",
		len(s.Contexts), s.Confidence, s.Decision, len(s.WebResults))
}

// renderMarkdown falls back to plain text when glamour cannot render.
func (m *model) renderMarkdown(content string) string {
	if m.renderer == nil {
		width := m.width
		if width == 0 {
			width = 80
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(max(width-4, 20)))
		if err != nil {
			return content
		}
		m.renderer = r
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}

var (
	userStyle      = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle    = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
)

func (m *model) refreshViewport() {
	wrap := m.width - 2
	var b strings.Builder
	for _, e := range m.history {
		switch e.role {
		case roleUser:
			b.WriteString(userStyle.Render("You: ") + util.WrapToWidth(e.content, wrap) + "\n\n")
		case roleAssistant:
			b.WriteString(assistantStyle.Render("Assistant:") + "\n" + m.renderMarkdown(e.content) + "\n\n")
		default:
			b.WriteString(systemStyle.Render(util.WrapToWidth(e.content, wrap)) + "\n\n")
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("docent"),
		headerStyle.MarginLeft(1).Render("Mode: "+strings.ToUpper(m.session.Mode().String())),
		headerStyle.MarginLeft(1).Render("Model: "+m.opts.Model),
	)

	footer := m.textArea.View()
	if m.isLoading {
		footer = fmt.Sprintf("%s Thinking... %.1fs", m.spinner.View(), time.Since(m.requestStart).Seconds())
	}
	return header + "\n\n" + m.viewport.View() + "\n" + footer
}

// Run starts the interactive session and blocks until the user quits.
func Run(ctx context.Context, session Session, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(ctx, session, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session: %w", err)
	}
	return nil
}
