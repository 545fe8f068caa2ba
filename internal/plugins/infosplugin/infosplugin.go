// Package infosplugin renders the fleet's DevInfo table into its assigned
// panel whenever another plugin reports a change, and applies weather's
// "update_item summary|daily" pushes to the same display surface
// (spec.md §4.4, §4.5).
package infosplugin

import (
	"fmt"
	"strings"

	"github.com/timlin1972/cng3/internal/devinfo"
	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "infos"

// Plugin renders devinfo.Table rows into its panel on every update_item.
type Plugin struct {
	plugin.Base
	table    *devinfo.Table
	guiPanel string
	weather  map[string]string // city -> rendered block, shown below the table
	order    []string
}

// New builds an infos plugin bound to the shared devinfo.Table owned by
// the devices plugin.
func New(sender msg.Sender, table *devinfo.Table) *Plugin {
	p := &Plugin{table: table, weather: make(map[string]string)}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "gui":
		if len(args) > 0 {
			p.guiPanel = args[0]
			p.render()
		}
	case "update_item":
		p.handleUpdateItem(args)
	case "arrow":
		// no-op: the infos panel has no interactive cursor.
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

// handleUpdateItem accepts either "update_item <name>" (a devinfo row
// changed, re-render the whole table) or "update_item <kind> <city>
// <text...>" from the weather plugin (kind ∈ {summary, daily}).
func (p *Plugin) handleUpdateItem(args []string) {
	if len(args) == 0 {
		p.Warn(fmt.Sprintf("[%s] update_item: missing argument", moduleName))
		return
	}
	if args[0] == "summary" || args[0] == "daily" {
		if len(args) < 3 {
			p.Warn(fmt.Sprintf("[%s] update_item %s: want <city> <text>", moduleName, args[0]))
			return
		}
		city, text := args[1], strings.Join(args[2:], " ")
		if _, seen := p.weather[city]; !seen {
			p.order = append(p.order, city)
		}
		p.weather[city] = text
		p.render()
		return
	}
	// Otherwise args[0] is a device name whose row changed.
	p.render()
}

func (p *Plugin) render() {
	if p.guiPanel == "" {
		return
	}
	p.Cmd(fmt.Sprintf("p panels output_update %s %s", p.guiPanel, p.table.RenderTable()))
	for _, city := range p.order {
		p.Cmd(fmt.Sprintf("p panels output_push %s %s", p.guiPanel, p.weather[city]))
	}
}
