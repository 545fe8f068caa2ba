// Package nasplugin wires internal/nas's pure synchronization algorithms
// into the message bus (spec.md §4.2, plugin command vocabulary ported from
// original_source/src/plugins/plugin_nas.rs). One node is the "nas server";
// every other onboard peer reconciles against it as a client.
package nasplugin

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/nas"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "nas"

// waitingForServerIPDelay mirrors spec.md §5's "delayed-server-IP retry 3 s".
const waitingForServerIPDelay = 3 * time.Second

// peerState is this node's bookkeeping for one peer heard through
// "devices onboard" (nas_infos in the original); every node records it, and
// the server's fan-out pushes to the peers recorded here.
type peerState struct {
	ts          int64
	name        string
	onboard     bool
	state       nas.State
	tailscaleIP string
}

// IPResolver looks up a peer's Tailscale IP by name; ok is false while the
// IP is unknown. Satisfied by internal/devinfo's directory in production,
// a map in tests.
type IPResolver interface {
	TailscaleIP(name string) (string, bool)
}

// Plugin implements the nas bus command vocabulary: show, init, devices,
// nas_state, file_modify, file_remove, self_nas_state.
type Plugin struct {
	plugin.Base

	mu         sync.Mutex
	inited     bool
	guiPanel   string
	selfName   string
	nasServer  string
	nasState   nas.State // client-side view of this node's own state
	peers      []peerState
	folder     string
	folderLock *flock.Flock
	port       int
	resolver   IPResolver
	doer       nas.HTTPDoer
}

// New builds a nas plugin for selfName, syncing folder against the nas
// server peer's web port.
func New(sender msg.Sender, selfName, folder string, folderLock *flock.Flock, port int, resolver IPResolver) *Plugin {
	p := &Plugin{
		guiPanel:   "infos",
		selfName:   selfName,
		nasState:   nas.StateUnsync,
		folder:     folder,
		folderLock: folderLock,
		port:       port,
		resolver:   resolver,
		doer:       nas.DefaultClient,
	}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

// HandleCmd dispatches one nas bus command by its action token, the token
// right after "nas" (tokens[2], where tokens[0]=="p", [1]=="nas").
func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "show":
		p.handleShow()
	case "init":
		p.handleInit(args)
	case "devices":
		p.handleDevices(args)
	case "nas_state":
		p.handleNasState(args)
	case "file_modify":
		p.handleFileModify(args)
	case "file_remove":
		p.handleFileRemove(args)
	case "self_nas_state":
		p.handleSelfNasState(args)
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

func (p *Plugin) isServer() bool {
	return p.nasServer == p.selfName
}

func (p *Plugin) handleInit(args []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inited {
		return
	}
	p.inited = true
	if len(args) < 1 {
		return
	}
	p.nasServer = args[0]
	p.Cmd(fmt.Sprintf("p %s nas nas_server %s", p.guiPanel, p.nasServer))
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Info(fmt.Sprintf("Nas Server: %s", p.nasServer))
	p.Info(fmt.Sprintf("Nas State: %s", p.nasState))
	p.Info(fmt.Sprintf("%-12s %-7s %-16s", "Name", "Onboard", "Tailscale IP"))
	for _, peer := range p.peers {
		onboard := "off"
		if peer.onboard {
			onboard = "on "
		}
		ip := peer.tailscaleIP
		if ip == "" {
			ip = "n/a"
		}
		p.Info(fmt.Sprintf("%-12s %-7s %-16s", peer.name, onboard, ip))
	}
}

func (p *Plugin) findPeer(name string) *peerState {
	for i := range p.peers {
		if p.peers[i].name == name {
			return &p.peers[i]
		}
	}
	return nil
}

// handleDevices handles "p nas devices onboard <name> <0|1>" and
// "p nas devices tailscale_ip <name> <ip>".
func (p *Plugin) handleDevices(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "onboard":
		if len(args) < 3 {
			return
		}
		p.handleDevicesOnboard(args[1], args[2])
	case "tailscale_ip":
		if len(args) < 3 {
			return
		}
		p.mu.Lock()
		if peer := p.findPeer(args[1]); peer != nil {
			peer.ts = time.Now().Unix()
			peer.tailscaleIP = args[2]
		}
		p.mu.Unlock()
	}
}

func (p *Plugin) handleDevicesOnboard(name, onboardStr string) {
	onboard := onboardStr == "1"

	p.mu.Lock()
	ts := time.Now().Unix()
	if peer := p.findPeer(name); peer != nil {
		peer.ts = ts
		peer.onboard = onboard
	} else {
		p.peers = append(p.peers, peerState{ts: ts, name: name, onboard: onboard, state: nas.StateUnsync})
	}
	p.mu.Unlock()

	p.Cmd(fmt.Sprintf("p %s nas onboard %s %s", p.guiPanel, name, onboardStr))
	p.updateInfosClientNasState()

	event := nas.EventOffboard
	if onboard {
		event = nas.EventOnboard
	}
	p.handleNasEvent(name, event)
}

func (p *Plugin) updateInfosClientNasState() {
	p.mu.Lock()
	state := p.nasState
	p.mu.Unlock()
	p.Cmd(fmt.Sprintf("p %s nas nas_state %s", p.guiPanel, state))
}

// handleNasEvent routes an onboard/offboard event for name: server-side
// bookkeeping if this node is the nas server, client-side reconciliation
// kickoff otherwise. On a client, every Onboard from the server starts a
// reconciliation run whatever the current state; a run already in progress
// is not detected.
func (p *Plugin) handleNasEvent(name string, event nas.Event) {
	p.mu.Lock()
	isServer := p.isServer()
	nasServer := p.nasServer
	p.mu.Unlock()

	if isServer {
		return // server state is driven by check_hash/nas_state, not onboard events directly
	}
	if name != nasServer {
		return
	}

	p.mu.Lock()
	next := nas.ClientTransition(p.nasState, event)
	changed := next != p.nasState
	p.nasState = next
	p.mu.Unlock()

	if changed {
		p.updateInfosClientNasState()
	}
	if event == nas.EventOnboard {
		go p.reconcileAgainstServer()
	}
}

// reconcileAgainstServer resolves the server's Tailscale IP and runs the
// client-initiated reconciliation loop, retrying in
// waitingForServerIPDelay if the IP is not yet known (spec.md §4.2).
func (p *Plugin) reconcileAgainstServer() {
	p.mu.Lock()
	nasServer := p.nasServer
	p.mu.Unlock()

	ip, ok := p.resolver.TailscaleIP(nasServer)
	if !ok {
		p.Info(fmt.Sprintf("[%s] %s: Unknown IP, re-onboard in %s.", moduleName, nasServer, waitingForServerIPDelay))
		time.AfterFunc(waitingForServerIPDelay, func() {
			p.Cmd(fmt.Sprintf("p nas devices onboard %s 1", nasServer))
		})
		return
	}

	p.Cmd("p nas self_nas_state Syncing")
	r := &nas.Reconciler{
		Doer:       p.doer,
		SelfName:   p.selfName,
		Folder:     p.folder,
		FolderLock: p.folderLock,
		ServerIP:   ip,
		Port:       p.port,
		Log:        func(text string) { p.Info(fmt.Sprintf("[%s] %s", moduleName, text)) },
	}
	if err := r.Reconcile(context.Background()); err != nil {
		p.Warn(fmt.Sprintf("[%s] %s: reconcile failed: %v", moduleName, nasServer, err))
		return
	}
	p.Cmd("p nas self_nas_state Synced")
}

// handleNasState is the server-side update triggered by a /check_hash
// handler: "p nas nas_state <name> <Synced|Syncing>".
func (p *Plugin) handleNasState(args []string) {
	if len(args) < 2 {
		return
	}
	name, stateStr := args[0], args[1]
	state, err := nas.ParseState(stateStr)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] nas_state: %v", moduleName, err))
		return
	}

	p.mu.Lock()
	peer := p.findPeer(name)
	if peer == nil {
		p.mu.Unlock()
		return
	}
	peer.state = state
	p.mu.Unlock()

	p.Cmd(fmt.Sprintf("p %s nas nas_state %s %s", p.guiPanel, name, state))
}

// handleSelfNasState is the client-side counterpart: the reconciliation
// goroutine reports its own progress via "p nas self_nas_state <state>".
func (p *Plugin) handleSelfNasState(args []string) {
	if len(args) < 1 {
		return
	}
	state, err := nas.ParseState(args[0])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] self_nas_state: %v", moduleName, err))
		return
	}
	p.mu.Lock()
	p.nasState = state
	p.mu.Unlock()
	p.updateInfosClientNasState()
}

// handleFileModify fans a locally-observed modify event out to peers: the
// server pushes to every onboard client, a synced client pushes to the
// server. filename arrives base64-encoded (spec.md §4.2's monitor bridge).
func (p *Plugin) handleFileModify(args []string) {
	filename, ok := p.decodeFilename(args)
	if !ok {
		return
	}
	p.fanOut(filename, p.putToOne)
}

// handleFileRemove mirrors handleFileModify for a locally-observed removal.
func (p *Plugin) handleFileRemove(args []string) {
	filename, ok := p.decodeFilename(args)
	if !ok {
		return
	}
	p.fanOut(filename, p.removeFromOne)
}

func (p *Plugin) decodeFilename(args []string) (string, bool) {
	if len(args) < 1 {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to decode filename: %v", moduleName, err))
		return "", false
	}
	return string(decoded), true
}

func (p *Plugin) fanOut(filename string, apply func(remoteIP, remoteName, filename string)) {
	p.mu.Lock()
	isServer := p.isServer()
	selfName := p.selfName
	nasServer := p.nasServer
	synced := p.nasState == nas.StateSynced
	peers := append([]peerState(nil), p.peers...)
	p.mu.Unlock()

	if isServer {
		for _, peer := range peers {
			if peer.name != selfName && peer.onboard && peer.tailscaleIP != "" {
				apply(peer.tailscaleIP, peer.name, filename)
			}
		}
		return
	}

	if !synced {
		return
	}
	ip, ok := p.resolver.TailscaleIP(nasServer)
	if !ok {
		return
	}
	apply(ip, nasServer, filename)
}

func (p *Plugin) putToOne(remoteIP, remoteName, filename string) {
	r := &nas.Reconciler{
		Doer:       p.doer,
		SelfName:   p.selfName,
		Folder:     p.folder,
		FolderLock: p.folderLock,
		ServerIP:   remoteIP,
		Port:       p.port,
	}
	if err := r.PutFile(context.Background(), filename); err != nil {
		p.Warn(fmt.Sprintf("[%s] put `%s` to %s failed: %v", moduleName, filename, remoteName, err))
	}
}

func (p *Plugin) removeFromOne(remoteIP, remoteName, filename string) {
	r := &nas.Reconciler{
		Doer:       p.doer,
		SelfName:   p.selfName,
		Folder:     p.folder,
		FolderLock: p.folderLock,
		ServerIP:   remoteIP,
		Port:       p.port,
	}
	if err := r.RemoveRemote(context.Background(), filename); err != nil {
		p.Warn(fmt.Sprintf("[%s] remove `%s` from %s failed: %v", moduleName, filename, remoteName, err))
	}
}
