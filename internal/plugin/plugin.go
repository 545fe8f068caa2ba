// Package plugin defines the capability every long-lived bus handler
// implements, and the router that dispatches commands to them by name.
package plugin

import (
	"fmt"
	"strings"

	"github.com/timlin1972/cng3/internal/msg"
)

// Plugin is a long-lived stateful command handler addressed by Name().
// Implementations own private state and a msg.Sender; they never share
// memory directly with other plugins — every interaction crosses the bus.
type Plugin interface {
	// Name returns the plugin's stable short identifier, e.g. "nas".
	Name() string

	// HandleCmd processes one Cmd Msg already addressed to this plugin
	// (action + args, with "p <name>" stripped). Side effects happen via
	// the plugin's own Send/Info/Warn/Cmd calls, never via a return value.
	HandleCmd(m msg.Msg, action string, args []string)
}

// Base is embedded by every concrete plugin to provide the Send/Info/Warn/Cmd
// convenience methods required by the capability table in spec.md §4.1,
// without every plugin re-implementing Msg construction.
type Base struct {
	ModuleName string
	Sender     msg.Sender
}

// Send forwards m to the bus unchanged.
func (b *Base) Send(m msg.Msg) { b.Sender.Send(m) }

// Info emits an info-level log Msg tagged with the plugin's module name.
func (b *Base) Info(text string) {
	b.Sender.Send(msg.NewLog(b.ModuleName, msg.LevelInfo, text))
}

// Warn emits a warn-level log Msg tagged with the plugin's module name.
func (b *Base) Warn(text string) {
	b.Sender.Send(msg.NewLog(b.ModuleName, msg.LevelWarn, text))
}

// Cmd emits a command Msg tagged with the plugin's module name, letting a
// plugin address another plugin without a direct call.
func (b *Base) Cmd(text string) {
	b.Sender.Send(msg.NewCmd(b.ModuleName, text))
}

// Router owns every plugin instance, constructed in a fixed order at process
// start (see cmd/cng3), and dispatches "p <plugin> <action> [args...]"
// commands to the named plugin. Dispatch itself never blocks on plugin work
// finishing concurrently with another plugin: the caller (the bus consumer)
// invokes HandleCmd serially, so no two calls for the same plugin overlap.
type Router struct {
	plugins []Plugin
	byName  map[string]Plugin
	logger  msg.Sender
}

// NewRouter builds a Router over plugins in construction order. Order is
// preserved for the "plugins show" meta-command and matches the dependency
// order in spec.md §2 (leaves first).
func NewRouter(logger msg.Sender, plugins ...Plugin) *Router {
	byName := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		byName[p.Name()] = p
	}
	return &Router{plugins: plugins, byName: byName, logger: logger}
}

// Dispatch hands m to the plugin named by tokens[0], where tokens is the
// shell-split argument list following "p" (tokens[0] == plugin name,
// tokens[1] == action, tokens[2:] == action args). The reserved name
// "plugins" is handled by the router itself.
func (r *Router) Dispatch(m msg.Msg, tokens []string) {
	if len(tokens) == 0 {
		r.warn(fmt.Sprintf("empty plugin command: %q", m.Text))
		return
	}
	name := tokens[0]
	if name == "plugins" {
		r.handleMeta(tokens[1:])
		return
	}
	p, ok := r.byName[name]
	if !ok {
		r.warn(fmt.Sprintf("unknown plugin %q in command %q", name, m.Text))
		return
	}
	action := ""
	var args []string
	if len(tokens) > 1 {
		action = tokens[1]
	}
	if len(tokens) > 2 {
		args = tokens[2:]
	}
	p.HandleCmd(m, action, args)
}

// handleMeta implements the "plugins" meta-plugin: currently only "show",
// which lists every registered plugin name in construction order.
func (r *Router) handleMeta(tokens []string) {
	if len(tokens) == 0 || tokens[0] != "show" {
		r.warn(fmt.Sprintf("unknown plugins action: %v", tokens))
		return
	}
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	r.logger.Send(msg.NewLog("plugins", msg.LevelInfo, "registered plugins: "+strings.Join(names, ", ")))
}

// Plugin looks up a registered plugin by name for use outside the bus.
func (r *Router) Plugin(name string) (Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

func (r *Router) warn(text string) {
	r.logger.Send(msg.NewLog("plugins", msg.LevelWarn, text))
}
