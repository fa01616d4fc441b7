package main

import (
	"fmt"
	"os"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wyre-dev/xpath-go/xmlnode"
	"github.com/wyre-dev/xpath-go/xpath"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

// runRepl implements the interactive "xpath repl file.xml" form: a text
// input for expressions, evaluated against the document loaded at
// startup, with every result rendered as a scrollback line.
func runRepl(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: xpath repl <file.xml>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := xmlnode.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	p := tea.NewProgram(newReplModel(doc, args[0]))
	_, err = p.Run()
	return err
}

type replModel struct {
	input    textinput.Model
	doc      *xmlnode.Node
	source   string
	history  []string
	quitting bool
}

func newReplModel(doc *xmlnode.Node, source string) replModel {
	ti := textinput.New()
	ti.Placeholder = "//page/location/@lat"
	ti.Focus()
	return replModel{input: ti, doc: doc, source: source}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			expr := m.input.Value()
			if expr != "" {
				m.history = append(m.history, m.evaluate(expr))
				m.input.SetValue("")
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m replModel) evaluate(expr string) string {
	ctx := xpath.NewContext(m.doc)
	value, err := xpath.Eval(expr, ctx)
	if err != nil {
		return promptStyle.Render(expr) + "\n" + errorStyle.Render(err.Error())
	}
	return promptStyle.Render(expr) + "\n" + resultStyle.Render(describeValue(value))
}

func describeValue(v xpath.Value) string {
	if v.Type() != xpath.NodeSetType {
		return v.GoString()
	}
	nodes := v.Nodes()
	if len(nodes) == 0 {
		return "(empty node-set)"
	}
	out := ""
	for i, n := range nodes {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%s %s %q", n.Kind(), n.LocalName(), n.StringValue())
	}
	return out
}

func (m replModel) View() tea.View {
	header := headerStyle.Render("xpath repl -- " + m.source)
	b := header + "\n\n"
	for _, h := range m.history {
		b += h + "\n\n"
	}
	b += m.input.View()
	return tea.NewView(b)
}
