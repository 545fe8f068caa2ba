// Package logplugin implements the "log" plugin: the terminal point of
// every Log Msg the bus re-emits as "p log log <level> <text>" (spec.md
// §4.1). Before a gui panel is assigned it prints to stdout directly;
// once assigned, output is pushed into that panel instead.
package logplugin

import (
	"fmt"
	"time"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "log"

// Stdout is the plugin's fallback writer before a gui panel is assigned;
// a test seam, matching the teacher's prefer-interfaces-over-globals style
// without requiring every caller to pass one in.
var Stdout = fmt.Println

// Plugin implements the log/gui command vocabulary.
type Plugin struct {
	plugin.Base
	guiPanel string
}

// New builds a log plugin.
func New(sender msg.Sender) *Plugin {
	p := &Plugin{}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "log":
		p.handleLog(m, args)
	case "gui":
		if len(args) > 0 {
			p.guiPanel = args[0]
		}
	case "arrow":
		// no-op: the log panel has no interactive state to move.
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

func (p *Plugin) handleLog(m msg.Msg, args []string) {
	if len(args) < 2 {
		p.Warn(fmt.Sprintf("[%s] log: missing level/msg", moduleName))
		return
	}
	level, text := args[0], args[1]
	line := fmt.Sprintf("%s [%s] %s", time.Unix(m.TS, 0).Format(time.RFC3339), level, text)

	if p.guiPanel == "" {
		Stdout(line)
		return
	}
	p.Cmd(fmt.Sprintf("p panels output_push %s %s", p.guiPanel, line))
}
