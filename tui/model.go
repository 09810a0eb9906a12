// Package tui is the terminal host for the playground: a bubbletea program
// that feeds keystrokes to the orchestrator and draws the frames it
// publishes.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/clipboard"
	"github.com/wippyai/digest-playground/orchestrator"
	"github.com/wippyai/digest-playground/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Padding(0, 1)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Underline(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Copier writes a value to the clipboard.
type Copier interface {
	Copy(value string) clipboard.Method
}

type copiedMsg struct {
	what   string
	method clipboard.Method
}

// Model is the bubbletea model.
type Model struct {
	orch    *orchestrator.Orchestrator
	box     *Mailbox
	clip    Copier
	input   textinput.Model
	spin    spinner.Model
	help    help.Model
	regions render.Regions
	kind    render.Kind
	link    string
	status  string
	width   int
	version dp.Version
}

// New builds a model over a started orchestrator, seeding the input and
// version selector from its form.
func New(orch *orchestrator.Orchestrator, box *Mailbox, clip Copier) *Model {
	form := orch.Form()

	ti := textinput.New()
	ti.Prompt = "SQL> "
	ti.Placeholder = "SELECT * FROM t WHERE id = 1"
	ti.CharLimit = 0
	ti.Width = 60
	ti.SetValue(form.SQL)
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	frame := box.Latest()
	link := frame.Link
	if link == "" {
		link = orch.ShareLink()
	}

	return &Model{
		orch:    orch,
		box:     box,
		clip:    clip,
		input:   ti,
		spin:    sp,
		help:    help.New(),
		regions: render.Map(frame.Display),
		kind:    frame.Display.Kind,
		link:    link,
		version: form.Version,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.box.Next())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if w := msg.Width - len(m.input.Prompt) - 2; w > 10 {
			m.input.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.box.Close()
			m.orch.Close()
			return m, tea.Quit

		case key.Matches(msg, keys.NextVersion):
			m.selectVersion(m.version.Next())
			return m, nil

		case key.Matches(msg, keys.PrevVersion):
			m.selectVersion(m.version.Prev())
			return m, nil

		case key.Matches(msg, keys.CopyLink):
			return m, m.copy("link", m.orch.ShareLink())

		case key.Matches(msg, keys.CopyText):
			if !m.regions.Result {
				m.status = "no digest text to copy"
				return m, nil
			}
			return m, m.copy("text", m.regions.Text)

		case key.Matches(msg, keys.CopyHash):
			if !m.regions.Result {
				m.status = "no digest to copy"
				return m, nil
			}
			return m, m.copy("digest", m.regions.Hash)
		}

	case frameMsg:
		m.regions = render.Apply(m.regions, msg.Display)
		m.kind = msg.Display.Kind
		m.link = msg.Link
		return m, m.box.Next()

	case copiedMsg:
		if msg.method == clipboard.MethodNone {
			m.status = "could not copy " + msg.what
		} else {
			m.status = "copied " + msg.what
		}
		return m, nil

	case spinner.TickMsg:
		if m.kind != render.KindLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.status = ""
		m.orch.SetSQL(v)
	}
	return m, cmd
}

func (m *Model) selectVersion(v dp.Version) {
	m.version = v
	m.status = ""
	m.orch.SetVersion(v)
}

func (m *Model) copy(what, value string) tea.Cmd {
	clip := m.clip
	return func() tea.Msg {
		return copiedMsg{what: what, method: clip.Copy(value)}
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SQL Digest"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.versionSelector())
	b.WriteString("\n\n")

	width := m.width
	if width > 2 {
		width -= 2
	}
	if body := render.View(m.regions, m.spin.View(), width); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}

	if m.link != "" {
		b.WriteString(statusStyle.Render("Share: "))
		b.WriteString(linkStyle.Render(m.link))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))

	return b.String()
}

func (m *Model) versionSelector() string {
	opts := make([]string, 0, len(dp.Versions))
	for _, v := range dp.Versions {
		if v == m.version {
			opts = append(opts, selectedStyle.Render(v.Label()))
		} else {
			opts = append(opts, optionStyle.Render(v.Label()))
		}
	}
	return statusStyle.Render("Version ") + lipgloss.JoinHorizontal(lipgloss.Top, opts...)
}

// Run starts orch and blocks until the user quits.
func Run(ctx context.Context, orch *orchestrator.Orchestrator, box *Mailbox, clip Copier, opts ...tea.ProgramOption) error {
	orch.Start(ctx)
	defer orch.Close()
	defer box.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(orch, box, clip), opts...)
	_, err := p.Run()
	return err
}
