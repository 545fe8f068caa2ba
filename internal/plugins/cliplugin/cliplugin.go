// Package cliplugin implements the "cli" plugin: the node's one text input
// surface, either a blocking stdin prompt (headless mode) or a decoded key
// stream forwarded from the panels terminal program (gui mode), per
// spec.md §4.3 "Input routing". Grounded on
// original_source/src/plugins/plugin_cli.rs.
package cliplugin

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

// titleCaser matches the teacher's cases.Title(language.English) usage for
// rendering a configured, arbitrary-cased name for display.
var titleCaser = cases.Title(language.English)

func titleCase(name string) string { return titleCaser.String(name) }

const moduleName = "cli"

// subTitleInterval is how often gui mode refreshes the owning panel's
// sub-title clock; a var so tests can shrink it.
var subTitleInterval = time.Second

// promptDelay is the pause between a submitted cli-mode line and the next
// prompt, matching the original's one-second breather.
var promptDelay = time.Second

type inputMode int

const (
	modeNone inputMode = iota
	modeGui
	modeCli
)

// Plugin owns the edit buffer and command history for gui mode, and drives
// the blocking stdin loop for cli mode. Only one mode is ever active.
type Plugin struct {
	plugin.Base

	selfName string
	in       io.Reader
	out      io.Writer

	mu           sync.Mutex
	mode         inputMode
	started      bool
	guiPanel     string
	output       string
	history      []string
	historyIndex int

	startSubTitleTicker func(panel string)
	startStdinLoop      func()
}

// New builds a cli plugin. selfName labels the gui sub-title clock with the
// node's configured name.
func New(sender msg.Sender, selfName string) *Plugin {
	p := &Plugin{selfName: selfName, in: os.Stdin, out: os.Stdout}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	p.startSubTitleTicker = p.runSubTitleTicker
	p.startStdinLoop = p.runStdinLoop
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "init":
		p.handleInit(args)
	case "arrow":
		p.handleArrow(args)
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s` for cmd `%s`", moduleName, action, m.Text))
	}
}

// handleInit implements "p cli init gui <panel>" and "p cli init cli",
// mirroring plugin_cli.rs's two start_input_loop_* tasks.
func (p *Plugin) handleInit(args []string) {
	if len(args) == 0 {
		p.Warn(fmt.Sprintf("[%s] init: missing mode", moduleName))
		return
	}

	p.mu.Lock()
	switch args[0] {
	case "gui":
		if p.started && p.mode == modeGui {
			p.mu.Unlock()
			p.Warn(fmt.Sprintf("[%s] started and GUI mode already. Ignore.", moduleName))
			return
		}
		if len(args) < 2 {
			p.mu.Unlock()
			p.Warn(fmt.Sprintf("[%s] init gui: want <panel>", moduleName))
			return
		}
		panel := args[1]
		p.started = true
		p.mode = modeGui
		p.guiPanel = panel
		p.output = ""
		p.mu.Unlock()

		p.renderPrompt(panel, "")
		p.Info(fmt.Sprintf("[%s] init gui mode (panel: `%s`)", moduleName, panel))
		go p.startSubTitleTicker(panel)

	case "cli":
		if p.started && p.mode == modeCli {
			p.mu.Unlock()
			p.Warn(fmt.Sprintf("[%s] started and CLI mode already. Ignore.", moduleName))
			return
		}
		p.started = true
		p.mode = modeCli
		p.mu.Unlock()

		go p.startStdinLoop()
		p.Info(fmt.Sprintf("[%s] init cli mode", moduleName))

	default:
		p.mu.Unlock()
		p.Warn(fmt.Sprintf("[%s] unknown mode %q for init", moduleName, args[0]))
	}
}

// handleArrow implements "p cli arrow <dir>", reached when the panels
// plugin forwards an arrow keypress to whichever plugin owns the active
// panel. Only up/down navigate history; left/right are no-ops here.
func (p *Plugin) handleArrow(args []string) {
	if len(args) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch args[0] {
	case "up":
		if p.historyIndex > 0 {
			p.historyIndex--
			p.output = p.history[p.historyIndex]
		}
		p.renderLocked()
	case "down":
		if p.historyIndex < len(p.history) {
			p.historyIndex++
			if p.historyIndex < len(p.history) {
				p.output = p.history[p.historyIndex]
			} else {
				p.output = ""
			}
		}
		p.renderLocked()
	}
}

// SendKey implements panels.KeySender: it is called once per decoded key
// press from the bubbletea terminal program while this plugin is in gui
// mode (spec.md §4.3).
func (p *Plugin) SendKey(ctrl bool, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode != modeGui {
		return
	}
	if ctrl {
		p.handleCtrlKeyLocked(key)
		return
	}

	switch key {
	case "tab":
		p.Cmd("p panels tab")
	case "up":
		p.Cmd("p panels arrow up")
	case "down":
		p.Cmd("p panels arrow down")
	case "left":
		p.Cmd("p panels arrow left")
	case "right":
		p.Cmd("p panels arrow right")
	case "enter":
		p.commitLocked()
	case "backspace":
		if r := []rune(p.output); len(r) > 0 {
			p.output = string(r[:len(r)-1])
		}
		p.renderLocked()
	case "":
		// decodeKey returned nothing recognizable; ignore.
	default:
		p.output += key
		p.renderLocked()
	}
}

func (p *Plugin) handleCtrlKeyLocked(key string) {
	var action string
	switch key {
	case "up":
		action = "location up"
	case "down":
		action = "location down"
	case "left":
		action = "location left"
	case "right":
		action = "location right"
	case "d":
		action = "size +x"
	case "a":
		action = "size -x"
	case "s":
		action = "size +y"
	case "w":
		action = "size -y"
	case "c":
		action = "output_clear"
	default:
		return
	}
	p.Cmd("p panels " + action)
}

// commitLocked pushes the edit buffer to history (unless it duplicates the
// last entry), emits it as a bus command in its own right, then clears it.
func (p *Plugin) commitLocked() {
	line := p.output
	if len(p.history) == 0 || p.history[len(p.history)-1] != line {
		p.history = append(p.history, line)
		p.historyIndex = len(p.history)
	}
	p.Cmd(line)
	p.output = ""
	p.renderLocked()
}

func (p *Plugin) renderLocked() {
	p.renderPrompt(p.guiPanel, p.output)
}

func (p *Plugin) renderPrompt(panel, output string) {
	if panel == "" {
		return
	}
	p.Cmd(fmt.Sprintf("p panels output_update %s > %s", panel, output))
}

func (p *Plugin) tickSubTitle(panel string) {
	ts := time.Now().Format(time.RFC3339)
	p.Cmd(fmt.Sprintf("p panels sub_title %s - %s - %s", panel, titleCase(p.selfName), ts))
}

func (p *Plugin) runSubTitleTicker(panel string) {
	ticker := time.NewTicker(subTitleInterval)
	defer ticker.Stop()
	for range ticker.C {
		p.tickSubTitle(panel)
	}
}

// runStdinLoop drives headless (non-gui) mode: each line read becomes a
// bus command in its own right, exactly as if typed at the gui prompt.
func (p *Plugin) runStdinLoop() {
	p.prompt()
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.Cmd(scanner.Text())
		time.Sleep(promptDelay)
		p.prompt()
	}
	if err := scanner.Err(); err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to read input: %v", moduleName, err))
	}
}

func (p *Plugin) prompt() {
	fmt.Fprintf(p.out, "%s > ", time.Now().Format(time.RFC3339))
}
