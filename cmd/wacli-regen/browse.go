package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/runtime"
	"github.com/RAKUDEJI/wacli/witapi"
)

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the generated registry interactively",
		Long: `Generate the registry module in memory, link every command to an echo
plugin and dispatch commands through the module's run export.

The echo plugin reports the argv it received and rejects calls that
omit required positional arguments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := tea.NewProgram(newBrowseModel(a.loadSession), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			m, err := p.Run()
			if bm, ok := m.(*browseModel); ok {
				bm.close()
			}
			return err
		},
	}
}

// session is a live registry instance linked to echo plugins.
type session struct {
	rt    *runtime.Runtime
	inst  *runtime.Instance
	calls *callLog
	app   witapi.AppMeta
	cmds  []witapi.CommandSchema
}

func (s *session) close() {
	ctx := context.Background()
	if s.inst != nil {
		s.inst.Close(ctx)
	}
	if s.rt != nil {
		s.rt.Close(ctx)
	}
}

func (a *app) loadSession() (*session, error) {
	reg, out, err := a.generate()
	if err != nil {
		return nil, err
	}
	return newSession(context.Background(), reg, out.Wasm)
}

func newSession(ctx context.Context, reg *registry.Registry, wasm []byte) (*session, error) {
	rt, err := runtime.New(ctx)
	if err != nil {
		return nil, err
	}
	s := &session{rt: rt, calls: &callLog{}}

	mod, err := rt.Load(ctx, wasm)
	if err != nil {
		s.close()
		return nil, err
	}
	if s.inst, err = mod.Instantiate(ctx, echoPlugins(reg, s.calls)); err != nil {
		s.close()
		return nil, err
	}
	if s.app, err = s.inst.AppMeta(ctx); err != nil {
		s.close()
		return nil, err
	}
	schemas, err := s.inst.ListSchemas(ctx)
	if err != nil {
		s.close()
		return nil, err
	}
	for _, c := range schemas {
		if !c.Hidden {
			s.cmds = append(s.cmds, c)
		}
	}
	return s, nil
}

// callLog records the last plugin invocation.
type callLog struct {
	mu      sync.Mutex
	command string
	argv    []string
}

func (l *callLog) record(command string, argv []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.command = command
	l.argv = argv
}

// take returns and clears the last invocation.
func (l *callLog) take() (string, []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cmd, argv := l.command, l.argv
	l.command, l.argv = "", nil
	return cmd, argv
}

// echoPlugins links every command in reg to a plugin that records its argv
// and exits 0.
func echoPlugins(reg *registry.Registry, calls *callLog) map[string]runtime.Plugin {
	plugins := make(map[string]runtime.Plugin, len(reg.Commands))
	for i := range reg.Commands {
		c := &reg.Commands[i]
		name := c.Name
		required := requiredPositionals(c.Args)
		plugins[c.ImportModule()] = runtime.Plugin{
			Meta: c.Meta(),
			Run: func(_ context.Context, argv []string) (uint32, *witapi.CommandError) {
				calls.record(name, argv)
				if n := countPositionals(argv); n < len(required) {
					return 0, &witapi.CommandError{
						Kind:    witapi.ErrInvalidArgs,
						Message: "missing <" + required[n] + ">",
					}
				}
				return 0, nil
			},
		}
	}
	return plugins
}

func requiredPositionals(args []registry.Arg) []string {
	var names []string
	for _, a := range args {
		if a.Kind == witapi.ArgPositional && a.Required {
			names = append(names, a.Name)
		}
	}
	return names
}

func countPositionals(argv []string) int {
	n := 0
	for _, s := range argv {
		if !strings.HasPrefix(s, "-") {
			n++
		}
	}
	return n
}

type browseState int

const (
	stateSelectCommand browseState = iota
	stateInputArgs
	stateShowResult
)

type browseModel struct {
	err      error
	load     func() (*session, error)
	sess     *session
	result   string
	input    textinput.Model
	selected int
	state    browseState
}

func newBrowseModel(load func() (*session, error)) *browseModel {
	return &browseModel{load: load, state: stateSelectCommand}
}

type loadedMsg struct {
	err  error
	sess *session
}

type runResultMsg struct {
	err    error
	result string
}

func (m *browseModel) Init() tea.Cmd {
	return func() tea.Msg {
		s, err := m.load()
		return loadedMsg{sess: s, err: err}
	}
}

func (m *browseModel) close() {
	if m.sess != nil {
		m.sess.close()
		m.sess = nil
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectCommand && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectCommand && m.sess != nil && m.selected < len(m.sess.cmds)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectCommand:
				if m.sess == nil || len(m.sess.cmds) == 0 {
					return m, nil
				}
				m.prepareInput()
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.runCommand(m.input.Value())

			case stateShowResult:
				m.reset()
			}
			return m, nil

		case "esc":
			if m.state != stateSelectCommand {
				m.reset()
			}
			return m, nil
		}

	case loadedMsg:
		m.err = msg.err
		m.sess = msg.sess
		return m, nil

	case runResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browseModel) reset() {
	m.state = stateSelectCommand
	m.result = ""
	m.err = nil
}

func (m *browseModel) prepareInput() {
	c := m.sess.cmds[m.selected]
	ti := textinput.New()
	ti.Prompt = c.Name + " "
	ti.Placeholder = usagePlaceholder(c)
	ti.Width = 60
	ti.Focus()
	m.input = ti
}

func usagePlaceholder(c witapi.CommandSchema) string {
	if c.Usage != "" {
		return c.Usage
	}
	var parts []string
	for _, a := range visibleArgs(c.Args, false) {
		parts = append(parts, argSynopsis(a))
	}
	return strings.Join(parts, " ")
}

// runCommand dispatches through the registry's run export by the selected
// command's name. The returned tea.Cmd runs off the update loop.
func (m *browseModel) runCommand(line string) tea.Cmd {
	s := m.sess
	name := s.cmds[m.selected].Name
	argv := strings.Fields(line)
	return func() tea.Msg {
		code, cerr, err := s.inst.Run(context.Background(), name, argv)
		if err != nil {
			return runResultMsg{err: err}
		}
		plugin, got := s.calls.take()
		return runResultMsg{result: formatRun(name, plugin, got, code, cerr)}
	}
}

func formatRun(name, plugin string, argv []string, code uint32, cerr *witapi.CommandError) string {
	var b strings.Builder
	if plugin != "" {
		fmt.Fprintf(&b, "%s plugin received %q\n", plugin, argv)
	} else {
		fmt.Fprintf(&b, "no plugin was called for %s\n", name)
	}
	if cerr != nil {
		fmt.Fprintf(&b, "err(%s)", cerr.Error())
	} else {
		fmt.Fprintf(&b, "ok(%d)", code)
	}
	return b.String()
}

func (m *browseModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.sess == nil {
		return "Generating registry..."
	}

	var b strings.Builder
	title := m.sess.app.Name
	if title == "" {
		title = "wacli registry"
	}
	b.WriteString(titleStyle.Render(title))
	if m.sess.app.Version != "" {
		b.WriteString(" " + m.sess.app.Version)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectCommand:
		if len(m.sess.cmds) == 0 {
			b.WriteString("The registry has no visible commands.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a command to run:\n\n")
		for i, c := range m.sess.cmds {
			line := c.Name
			if c.Summary != "" {
				line += "  " + c.Summary
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + nameStyle.Render(c.Name))
				if c.Summary != "" {
					b.WriteString("  " + c.Summary)
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateInputArgs:
		c := m.sess.cmds[m.selected]
		fmt.Fprintf(&b, "Arguments for %s\n\n", nameStyle.Render(c.Name))
		b.WriteString(m.input.View())
		b.WriteString("\n")
		for _, a := range visibleArgs(c.Args, false) {
			b.WriteString("  " + labelStyle.Render(argSynopsis(a)))
			if a.Help != "" {
				b.WriteString("  " + a.Help)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter run • esc back"))

	case stateShowResult:
		c := m.sess.cmds[m.selected]
		fmt.Fprintf(&b, "Result of %s:\n\n", nameStyle.Render(c.Name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}
	return b.String()
}
