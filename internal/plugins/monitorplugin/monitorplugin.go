// Package monitorplugin watches the shared NAS folder for local filesystem
// changes and, after debouncing, forwards them to the nas plugin for
// fan-out (spec.md §4.2 "Filesystem-event bridge"). Grounded on the
// teacher's fsnotify usage pattern and spec.md's debounce contract; no
// original_source file implements this bridge directly (the original
// watches via a different OS-level API), so the debounce and dispatch
// logic is built straight from the specification.
package monitorplugin

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "monitor"

// debounceWindow mirrors spec.md §5's "monitor debounce 10 s". A var, not
// a const, so tests can shrink it instead of sleeping 10 real seconds.
var debounceWindow = 10 * time.Second

// kind distinguishes the two event classes the nas plugin cares about;
// fsnotify's Create/Write collapse into modify, Remove/Rename into remove.
type kind int

const (
	kindModify kind = iota
	kindRemove
)

type debounceKey struct {
	path string
	kind kind
}

// Plugin watches Folder recursively once Start is called, debouncing
// per-(path,kind) events before relaying them to the nas plugin (and, for
// modifications, the runtipi plugin).
type Plugin struct {
	plugin.Base

	Folder string

	mu      sync.Mutex
	timers  map[debounceKey]*time.Timer
	watcher *fsnotify.Watcher
}

// New builds a monitor plugin over folder. Start must be called once to
// begin watching.
func New(sender msg.Sender, folder string) *Plugin {
	p := &Plugin{Folder: folder, timers: make(map[debounceKey]*time.Timer)}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "show":
		p.Info(fmt.Sprintf("monitor: watching %s", p.Folder))
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

// Start adds watches for p.Folder and every existing subdirectory and
// returns; Run drains the resulting fsnotify events. fsnotify (like
// inotify underneath it) never watches a subtree on its own, so every
// directory has to be added individually.
func (p *Plugin) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("monitor: new watcher: %w", err)
	}
	if err := addTree(w, p.Folder); err != nil {
		w.Close()
		return fmt.Errorf("monitor: watch %s: %w", p.Folder, err)
	}
	p.mu.Lock()
	p.watcher = w
	p.mu.Unlock()
	return nil
}

// addTree adds w.Add for root and every directory beneath it.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}

// Run drains watcher events until done is closed, relaying debounced
// changes to the nas plugin. Start must have succeeded first.
func (p *Plugin) Run(done <-chan struct{}) {
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handleEvent(ev)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.Warn(fmt.Sprintf("[%s] watcher error: %v", moduleName, err))
		case <-done:
			p.watcher.Close()
			return
		}
	}
}

func (p *Plugin) handleEvent(ev fsnotify.Event) {
	var k kind
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		k = kindRemove
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		k = kindModify
		if ev.Op&fsnotify.Create != 0 {
			p.watchIfDir(ev.Name)
		}
	default:
		return
	}
	rel, err := filepath.Rel(p.Folder, ev.Name)
	if err != nil {
		rel = ev.Name
	}
	p.debounce(debounceKey{path: rel, kind: k})
}

// watchIfDir extends the watch to a newly created directory (and anything
// already inside it, in case a whole subtree was created at once) so later
// events under it are observed — fsnotify only watches the directories it
// was explicitly told about.
func (p *Plugin) watchIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	p.mu.Lock()
	w := p.watcher
	p.mu.Unlock()
	if w == nil {
		return
	}
	if err := addTree(w, path); err != nil {
		p.Warn(fmt.Sprintf("[%s] watching new directory %s: %v", moduleName, path, err))
	}
}

// debounce schedules relay after debounceWindow, cancelling any pending
// timer already scheduled for the same (path, kind) key — spec.md §4.2
// "a fresh event cancels any pending delayed handler for the same key".
func (p *Plugin) debounce(key debounceKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.timers[key]; ok {
		existing.Stop()
	}
	p.timers[key] = time.AfterFunc(debounceWindow, func() {
		p.mu.Lock()
		delete(p.timers, key)
		p.mu.Unlock()
		p.relay(key)
	})
}

// relay fans a debounced event out to every plugin that cares about the
// shared folder's contents: nas (peer reconciliation) always, and runtipi
// (local music library mirroring) on modify only — runtipi ignores remove
// events and is a no-op on any peer but the designated runtipi server.
// The filename is rejoined onto p.Folder before sending, matching
// ComputeFileList's filename convention (internal/nas/filelist.go), since
// that is the literal OS path nas.Reconciler's putFile/getFile read and
// write against.
func (p *Plugin) relay(key debounceKey) {
	filename := filepath.ToSlash(filepath.Join(p.Folder, key.path))
	encoded := base64.StdEncoding.EncodeToString([]byte(filename))
	switch key.kind {
	case kindModify:
		p.Cmd(fmt.Sprintf("p nas file_modify %s", encoded))
		p.Cmd(fmt.Sprintf("p runtipi file_modify %s", encoded))
	case kindRemove:
		p.Cmd(fmt.Sprintf("p nas file_remove %s", encoded))
	}
}
