// Package scriptsplugin bootstraps the process by reading a
// newline-delimited bus-command file and emitting each line as a Cmd
// (spec.md §4.5 "scripts", §6 "--script <path>"). Grounded on
// original_source/src/plugins/plugin_scripts.rs.
package scriptsplugin

import (
	"bufio"
	"fmt"
	"os"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "scripts"

// Plugin re-emits a script file's lines as bus commands on init.
type Plugin struct {
	plugin.Base
	path string
}

// New builds a scripts plugin reading from path (the process's --script
// flag value, default "./init.scripts").
func New(sender msg.Sender, path string) *Plugin {
	p := &Plugin{path: path}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "init":
		p.handleInit()
	case "show":
		p.handleShow()
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s` for cmd `%s`", moduleName, action, m.Text))
	}
}

func (p *Plugin) handleInit() {
	file, err := os.Open(p.path)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] init script (`%s`) not found!", moduleName, p.path))
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		p.Cmd(scanner.Text())
	}
}

func (p *Plugin) handleShow() {
	file, err := os.Open(p.path)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] init script (`%s`) not found!", moduleName, p.path))
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		p.Info(fmt.Sprintf("[%s] %s", moduleName, scanner.Text()))
	}
}
