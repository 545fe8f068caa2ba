package panels

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// KeySender receives one decoded key press per call; the cli plugin
// implements it to translate raw keys into panel/command bus traffic
// (spec.md §4.3 "Input routing"), mirroring the blocking key-poll task the
// original feeds into its CLI plugin.
type KeySender interface {
	SendKey(ctrl bool, key string)
}

// Program drives a Manager through bubbletea: Program.Init acquires the
// terminal, model.View delegates to Manager.Render, and external mutation
// (via bus commands) is delivered through a tea.Msg the bus-side plugin
// sends on Refresh.
type Program struct {
	manager     *Manager
	program     *tea.Program
	restoreFn   func() error
	rawAcquired bool
}

// NewProgram wraps manager in a bubbletea program; nothing runs until Run
// is called. keys may be nil (no key routing, e.g. in tests).
func NewProgram(manager *Manager, keys KeySender) *Program {
	p := &Program{manager: manager}
	model := &model{manager: manager, keys: keys}
	p.program = tea.NewProgram(model, tea.WithAltScreen())
	return p
}

// Init acquires raw terminal mode and records how to restore it, per the
// panels "init" command (spec.md §4.3). The restore runs only when Restore
// is called; neither Init nor Quit calls it.
func (p *Program) Init() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil // non-interactive (tests, piped input): no-op
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("panels: acquiring raw terminal: %w", err)
	}
	p.rawAcquired = true
	p.restoreFn = func() error { return term.Restore(fd, oldState) }
	return nil
}

// Restore undoes Init; it is a no-op if Init did not acquire raw mode.
func (p *Program) Restore() error {
	if !p.rawAcquired || p.restoreFn == nil {
		return nil
	}
	return p.restoreFn()
}

// Refresh asks the running program to re-render, called after any panels
// command mutates the Manager.
func (p *Program) Refresh() {
	if p.program != nil {
		p.program.Send(refreshMsg{})
	}
}

// Quit ends the bubbletea event loop, called from the process's shutdown
// path (an exit/quit/q bus command, or a terminating signal) since nothing
// inside the TUI itself triggers process exit — CONTROL+c is routed to the
// cli plugin like any other key (spec.md §4.3's output_clear binding).
func (p *Program) Quit() {
	if p.program != nil {
		p.program.Quit()
	}
}

// Run starts the bubbletea event loop; it blocks until quit.
func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}

type refreshMsg struct{}

// model is the bubbletea glue: it owns no state of its own beyond terminal
// size, deferring everything else to Manager.
type model struct {
	manager       *Manager
	keys          KeySender
	width, height int
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case refreshMsg:
		// no state change; View re-reads the Manager on the next render.
	case tea.KeyMsg:
		if m.keys != nil {
			if ctrl, key := decodeKey(msg); key != "" {
				m.keys.SendKey(ctrl, key)
			}
		}
	}
	return m, nil
}

// decodeKey renders a tea.KeyMsg down to the single-token vocabulary the
// cli plugin switches on: "up"/"down"/"left"/"right"/"tab"/"enter"/
// "backspace"/"a".."z", with ctrl reported separately since bubbletea bakes
// it into the KeyType rather than exposing a modifier flag (spec.md §4.3's
// CONTROL+arrows/wasd/c vocabulary). CONTROL+c lands here too, forwarded to
// the cli plugin's output_clear binding rather than quitting the program.
func decodeKey(msg tea.KeyMsg) (ctrl bool, key string) {
	switch msg.Type {
	case tea.KeyUp:
		return false, "up"
	case tea.KeyDown:
		return false, "down"
	case tea.KeyLeft:
		return false, "left"
	case tea.KeyRight:
		return false, "right"
	case tea.KeyCtrlUp:
		return true, "up"
	case tea.KeyCtrlDown:
		return true, "down"
	case tea.KeyCtrlLeft:
		return true, "left"
	case tea.KeyCtrlRight:
		return true, "right"
	case tea.KeyCtrlD:
		return true, "d"
	case tea.KeyCtrlA:
		return true, "a"
	case tea.KeyCtrlS:
		return true, "s"
	case tea.KeyCtrlW:
		return true, "w"
	case tea.KeyCtrlC:
		return true, "c"
	case tea.KeyTab:
		return false, "tab"
	case tea.KeyEnter:
		return false, "enter"
	case tea.KeyBackspace:
		return false, "backspace"
	case tea.KeyRunes:
		return false, string(msg.Runes)
	default:
		return false, ""
	}
}

func (m *model) View() string {
	return m.manager.Render(m.width, m.height)
}
