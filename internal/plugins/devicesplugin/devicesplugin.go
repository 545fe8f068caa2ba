// Package devicesplugin maintains the fleet-wide DevInfo table (spec.md
// §3, §4.4): it receives "p devices <key> <name> <payload>" commands
// forwarded by the mqtt plugin, applies them to the table, and
// re-broadcasts a display update to the infos plugin.
package devicesplugin

import (
	"fmt"
	"strconv"

	"github.com/timlin1972/cng3/internal/devinfo"
	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "devices"

// Plugin owns the process's single devinfo.Table.
type Plugin struct {
	plugin.Base
	table *devinfo.Table
}

// New builds a devices plugin.
func New(sender msg.Sender) *Plugin {
	p := &Plugin{table: devinfo.NewTable()}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

// Table exposes the underlying table for read access by other in-process
// collaborators (the nas plugin's IPResolver, the infos plugin at wiring
// time) without routing every lookup through the bus.
func (p *Plugin) Table() *devinfo.Table { return p.table }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	if len(args) < 2 {
		p.Warn(fmt.Sprintf("[%s] %s: want <name> <payload>", moduleName, action))
		return
	}
	name, payload := args[0], args[1]

	switch action {
	case "onboard":
		p.apply(m.TS, name, func(info *devinfo.Info) {
			info.Onboard = payload == "1"
		})
	case "version":
		p.apply(m.TS, name, func(info *devinfo.Info) {
			info.Version = payload
		})
	case "tailscale_ip":
		p.apply(m.TS, name, func(info *devinfo.Info) {
			info.TailscaleIP = payload
		})
	case "temperature":
		v, err := strconv.ParseFloat(payload, 32)
		if err != nil {
			p.Warn(fmt.Sprintf("[%s] temperature: bad payload %q", moduleName, payload))
			return
		}
		f := float32(v)
		p.apply(m.TS, name, func(info *devinfo.Info) {
			info.Temperature = &f
		})
	case "app_uptime":
		v, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			p.Warn(fmt.Sprintf("[%s] app_uptime: bad payload %q", moduleName, payload))
			return
		}
		p.apply(m.TS, name, func(info *devinfo.Info) {
			info.AppUptime = &v
		})
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

// apply upserts the named peer and re-broadcasts the refreshed row to the
// infos plugin for display, mirroring the original's "update, then notify
// the table view" flow.
func (p *Plugin) apply(ts int64, name string, mutate func(*devinfo.Info)) {
	p.table.Upsert(ts, name, mutate)
	p.Cmd(fmt.Sprintf("p infos update_item %s", name))
}
