// Package systemplugin owns the node's own liveness broadcast: every
// publishInterval it pushes version, Tailscale IP, temperature, and
// process uptime out through the mqtt plugin (spec.md §4.4 "publish
// cadence"). Grounded on original_source/src/plugins/plugin_system.rs
// (the "show" action) with the periodic-publish loop added per spec.md,
// since the original's publish cadence lived in plugin_mqtt.rs rather than
// plugin_system.rs.
package systemplugin

import (
	"context"
	"fmt"
	"time"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
	"github.com/timlin1972/cng3/internal/sysutil"
)

const moduleName = "system"

// publishInterval is spec.md §5's "system publish interval 300s".
const publishInterval = 300 * time.Second

// Version is the build version string, set via -ldflags at build time;
// "dev" is the unreleased-build default.
var Version = "dev"

// Plugin periodically re-publishes this node's own facts over mqtt.
type Plugin struct {
	plugin.Base
	selfName string
}

// New builds a system plugin. Run must be called once to start the
// publish loop; HandleCmd alone only answers "show" and "publish_now".
func New(sender msg.Sender, selfName string) *Plugin {
	p := &Plugin{selfName: selfName}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "show":
		p.Info(fmt.Sprintf("system: version=%s uptime=%ds", Version, sysutil.Uptime()))
	case "publish_now":
		p.publishAll()
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

// Run drives the periodic publish loop until ctx is cancelled, mirroring
// the bus's own select-on-shutdown idiom (internal/bus.Bus.Run).
func (p *Plugin) Run(ctx context.Context) {
	p.publishAll()
	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.publishAll()
		case <-ctx.Done():
			return
		}
	}
}

// publishAll pushes every fact through "p mqtt publish <retain> <key>
// <payload>"; only onboard is retained.
func (p *Plugin) publishAll() {
	p.Cmd("p mqtt publish true onboard 1")
	p.Cmd(fmt.Sprintf("p mqtt publish false version %s", Version))
	if ip, ok := sysutil.TailscaleIP(); ok {
		p.Cmd(fmt.Sprintf("p mqtt publish false tailscale_ip %s", ip))
	}
	if temp, ok := sysutil.Temperature(); ok {
		p.Cmd(fmt.Sprintf("p mqtt publish false temperature %.1f", temp))
	}
	p.Cmd(fmt.Sprintf("p mqtt publish false app_uptime %d", sysutil.Uptime()))
}
