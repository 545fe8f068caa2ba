// Package panelsplugin wires internal/panels's pure Manager into the
// message bus as the "panels" plugin, implementing the command table of
// spec.md §4.3.
package panelsplugin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/panels"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "panels"

// Plugin adapts a *panels.Manager and an optional *panels.Program (nil in
// tests and non-interactive runs) to the bus command vocabulary.
type Plugin struct {
	plugin.Base
	manager *panels.Manager
	program *panels.Program
}

// New builds a panels plugin over program's manager. program may be nil —
// every command still mutates the Manager, just without a terminal to
// refresh.
func New(sender msg.Sender, manager *panels.Manager, program *panels.Program) *Plugin {
	p := &Plugin{manager: manager, program: program}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "init":
		p.handleInit()
	case "create":
		p.handleCreate(args)
	case "tab":
		p.manager.Tab()
	case "size":
		p.handleSize(args)
	case "location":
		p.handleLocation(args)
	case "arrow":
		p.handleArrow(args)
	case "sub_title":
		p.handleSubTitle(args)
	case "output_update":
		p.handleOutputUpdate(args)
	case "output_push":
		p.handleOutputPush(args)
	case "output_clear":
		p.manager.OutputClear()
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
		return
	}
	p.refresh()
}

func (p *Plugin) refresh() {
	if p.program != nil {
		p.program.Refresh()
	}
}

func (p *Plugin) handleInit() {
	if p.program == nil {
		return
	}
	if err := p.program.Init(); err != nil {
		p.Warn(fmt.Sprintf("[%s] init: %v", moduleName, err))
	}
}

func (p *Plugin) handleCreate(args []string) {
	if len(args) < 6 {
		p.Warn(fmt.Sprintf("[%s] create: want title plugin x y w h", moduleName))
		return
	}
	x, y, w, h, err := parseGeometry(args[2], args[3], args[4], args[5])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] create: %v", moduleName, err))
		return
	}
	p.manager.Create(args[0], args[1], x, y, w, h)
}

func (p *Plugin) handleSize(args []string) {
	if len(args) < 1 {
		return
	}
	dx, dy, err := parseSigned(args[0])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] size: %v", moduleName, err))
		return
	}
	p.manager.Size(dx, dy)
}

// parseSigned parses tokens like "+x", "-x", "+y", "-y" into (dx, dy).
func parseSigned(tok string) (int, int, error) {
	if len(tok) != 2 {
		return 0, 0, fmt.Errorf("want +x/-x/+y/-y, got %q", tok)
	}
	sign := 1
	switch tok[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return 0, 0, fmt.Errorf("want +x/-x/+y/-y, got %q", tok)
	}
	switch tok[1] {
	case 'x', 'X':
		return sign, 0, nil
	case 'y', 'Y':
		return 0, sign, nil
	default:
		return 0, 0, fmt.Errorf("want +x/-x/+y/-y, got %q", tok)
	}
}

func (p *Plugin) handleLocation(args []string) {
	if len(args) < 1 {
		return
	}
	dir, err := panels.ParseLocation(args[0])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] location: %v", moduleName, err))
		return
	}
	p.manager.Move(dir)
}

func (p *Plugin) handleArrow(args []string) {
	if len(args) < 1 {
		return
	}
	name, ok := p.manager.ActivePluginName()
	if !ok {
		return
	}
	p.Cmd(fmt.Sprintf("p %s arrow %s", name, args[0]))
}

func (p *Plugin) handleSubTitle(args []string) {
	if len(args) < 2 {
		return
	}
	p.manager.SubTitle(args[0], strings.Join(args[1:], " "))
}

func (p *Plugin) handleOutputUpdate(args []string) {
	if len(args) < 2 {
		return
	}
	p.manager.OutputUpdate(args[0], strings.Join(args[1:], " "))
}

func (p *Plugin) handleOutputPush(args []string) {
	if len(args) < 2 {
		return
	}
	p.manager.OutputPush(args[0], strings.Join(args[1:], " "))
}

func parseGeometry(xs, ys, ws, hs string) (x, y, w, h int, err error) {
	vals := make([]int, 4)
	for i, s := range []string{xs, ys, ws, hs} {
		v, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid geometry value %q: %w", s, convErr)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
