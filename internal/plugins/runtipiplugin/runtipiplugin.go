// Package runtipiplugin copies music files synced into the shared NAS
// tree out to a runtipi media-library folder, on whichever peer is
// designated the "runtipi server" (spec.md §4.5 "runtipi", grounded on
// original_source/src/plugins/plugin_runtipi.rs).
package runtipiplugin

import (
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "runtipi"

// musicFolder is where runtipi's own music app expects library files.
const musicFolder = "~/runtipi/media/data/music/"

// musicPrefix is the NAS-relative path runtipi watches for; anything
// outside it is ignored. filenames arrive as produced by
// internal/nas.ComputeFileList and the monitor plugin's relay, both built
// with filepath.Join against the "./nas" folder root — Join cleans the
// leading "./" away, so the prefix here has to match that, not the literal
// folder constant.
const musicPrefix = "nas/music/"

// Plugin copies file_modify events for musicPrefix paths into musicFolder,
// but only when selfName matches the configured runtipi server.
type Plugin struct {
	plugin.Base

	mu            sync.Mutex
	selfName      string
	runtipiServer string
}

// New builds a runtipi plugin for selfName, this node's own cfg name.
func New(sender msg.Sender, selfName string) *Plugin {
	p := &Plugin{selfName: selfName}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "init":
		p.handleInit(args)
	case "show":
		p.handleShow()
	case "file_modify":
		p.handleFileModify(args)
	case "arrow":
		// no-op: runtipi has no interactive panel.
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s` for cmd `%s`", moduleName, action, m.Text))
	}
}

func (p *Plugin) handleInit(args []string) {
	if len(args) < 1 {
		return
	}
	p.mu.Lock()
	p.runtipiServer = args[0]
	p.mu.Unlock()
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	server := p.runtipiServer
	p.mu.Unlock()
	p.Info(fmt.Sprintf("Runtipi Server: %s", server))
}

func (p *Plugin) handleFileModify(args []string) {
	p.mu.Lock()
	isServer := p.runtipiServer == p.selfName
	p.mu.Unlock()
	if !isServer {
		p.Warn(fmt.Sprintf("[%s] Runtipi server is not me, cannot handle file modify action.", moduleName))
		return
	}
	if len(args) < 1 {
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to decode filename: %v", moduleName, err))
		return
	}
	filename := string(decoded)
	if !strings.HasPrefix(filename, musicPrefix) {
		return
	}

	p.Info(fmt.Sprintf("[%s] copying %s to %s", moduleName, filename, musicFolder))
	cmd := exec.Command("cp", "-f", filename, musicFolder)
	if err := cmd.Run(); err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to copy file: %v", moduleName, err))
		return
	}
	p.Info(fmt.Sprintf("[%s] file copied successfully.", moduleName))
}
