package main

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/msgpack"
	"github.com/wippyai/msgpack/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxVisibleLines = 24

type inspectModel struct {
	u        *msgpack.Unpacker
	skip     textinput.Model
	lines    []string
	status   string
	depth    int
	done     bool
	entering bool
}

func newInspectModel(data []byte) (*inspectModel, error) {
	u, err := msgpack.NewUnpacker(data, nil)
	if err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.Placeholder = "count"
	ti.CharLimit = 10
	ti.Width = 10

	return &inspectModel{u: u, skip: ti}, nil
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.entering {
		switch keyMsg.String() {
		case "enter":
			m.entering = false
			m.skip.Blur()
			m.runSkip(m.skip.Value())
			m.skip.SetValue("")
			return m, nil
		case "esc":
			m.entering = false
			m.skip.Blur()
			m.skip.SetValue("")
			return m, nil
		default:
			var cmd tea.Cmd
			m.skip, cmd = m.skip.Update(msg)
			return m, cmd
		}
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "enter", " ":
		m.step()
	case "s":
		m.entering = true
		m.skip.Focus()
	}
	return m, nil
}

// step decodes one item and appends a rendered line.
func (m *inspectModel) step() {
	if m.done {
		return
	}
	start := m.u.Offset()
	if err := m.u.Next(); err != nil {
		m.done = true
		if stderrors.Is(err, errors.ErrEndOfInput) {
			m.status = "end of stream"
		} else {
			m.status = errorStyle.Render(err.Error())
		}
		return
	}
	it := m.u.Item()
	line := offsetStyle.Render(fmt.Sprintf("%08x", start)) +
		"  " + strings.Repeat("  ", m.depth) + itemStyle.Render(renderItem(it))
	m.lines = append(m.lines, line)
	m.status = fmt.Sprintf("%d item(s), offset %d", len(m.lines), m.u.Offset())

	// Indentation is cosmetic here: deepen on headers, never past a cap.
	if (it.Type == msgpack.ItemArray || it.Type == msgpack.ItemMap) && it.Size > 0 && m.depth < 8 {
		m.depth++
	}
}

func (m *inspectModel) runSkip(value string) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		m.status = errorStyle.Render("skip needs a non-negative count")
		return
	}
	if err := m.u.Skip(n); err != nil {
		m.done = true
		if stderrors.Is(err, errors.ErrEndOfInput) {
			m.status = "end of stream"
		} else {
			m.status = errorStyle.Render(err.Error())
		}
		return
	}
	m.lines = append(m.lines, helpStyle.Render(fmt.Sprintf("-- skipped %d item(s) --", n)))
	m.status = fmt.Sprintf("offset %d", m.u.Offset())
}

func (m *inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("msgpack inspect"))
	b.WriteString("\n\n")

	lines := m.lines
	if len(lines) > maxVisibleLines {
		lines = lines[len(lines)-maxVisibleLines:]
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	if m.status != "" {
		b.WriteByte('\n')
		b.WriteString(m.status)
		b.WriteByte('\n')
	}

	if m.entering {
		b.WriteString("\nskip: ")
		b.WriteString(m.skip.View())
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(helpStyle.Render("n/enter/space: next item  s: skip N  q: quit"))
	b.WriteByte('\n')
	return b.String()
}

func runInteractive(data []byte) error {
	m, err := newInspectModel(data)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	return err
}
