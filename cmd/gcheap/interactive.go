package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/gcheap/heap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	rootStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

const maxLogLines = 12

type logLine struct {
	text string
	err  bool
}

type interactiveModel struct {
	session *session
	input   textinput.Model
	log     []logLine
	history []string
	histIdx int
}

func newInteractiveModel(h *heap.Heap) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "num 42"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{
		session: newSession(h),
		input:   ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "q" {
				return m, tea.Quit
			}
			m.run(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) run(line string) {
	m.history = append(m.history, line)
	m.histIdx = len(m.history)
	m.appendLog(logLine{text: "> " + line})

	out, err := m.session.exec(line)
	if err != nil {
		m.appendLog(logLine{text: err.Error(), err: true})
		return
	}
	for _, l := range strings.Split(out, "\n") {
		if l != "" {
			m.appendLog(logLine{text: l})
		}
	}
}

func (m *interactiveModel) appendLog(l logLine) {
	m.log = append(m.log, l)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	st := m.session.heap.Stats()
	b.WriteString(titleStyle.Render("gcheap"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(fmt.Sprintf("live %d • slots %d • roots %d • collections %d",
		st.Live, st.Slots, m.session.heap.NumRoots(), st.Collections)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.valuesView()),
		" ",
		panelStyle.Render(m.logView()),
	))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("help commands • ↑/↓ history • enter run • esc quit"))

	return b.String()
}

func (m *interactiveModel) valuesView() string {
	entries := m.session.entries()
	if len(entries) == 0 {
		return helpStyle.Render("no values")
	}
	var lines []string
	for _, e := range entries {
		name := nameStyle.Render(fmt.Sprintf("%-4s", e.name))
		switch {
		case !e.live:
			lines = append(lines, name+" "+deadStyle.Render("swept"))
		case e.rooted:
			lines = append(lines, name+" "+typeStyle.Render(fmt.Sprintf("%-6s", e.kind))+" "+rootStyle.Render(e.value))
		default:
			lines = append(lines, name+" "+typeStyle.Render(fmt.Sprintf("%-6s", e.kind))+" "+e.value)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *interactiveModel) logView() string {
	if len(m.log) == 0 {
		return helpStyle.Render(usage())
	}
	lines := make([]string, len(m.log))
	for i, l := range m.log {
		switch {
		case l.err:
			lines[i] = errorStyle.Render(l.text)
		case strings.HasPrefix(l.text, "> "):
			lines[i] = l.text
		default:
			lines[i] = resultStyle.Render(l.text)
		}
	}
	return strings.Join(lines, "\n")
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(h *heap.Heap) error {
	p := tea.NewProgram(newInteractiveModel(h), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
