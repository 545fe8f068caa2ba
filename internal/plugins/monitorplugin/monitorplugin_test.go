package monitorplugin

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/timlin1972/cng3/internal/msg"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []msg.Msg
}

func (f *fakeSender) Send(m msg.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
}

func (f *fakeSender) snapshot() []msg.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]msg.Msg, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestWriteEventRelaysFileModifyAfterDebounce(t *testing.T) {
	old := debounceWindow
	debounceWindow = 10 * time.Millisecond
	defer func() { debounceWindow = old }()

	sender := &fakeSender{}
	p := New(sender, "/nas")

	p.handleEvent(fsnotify.Event{Name: "/nas/file.txt", Op: fsnotify.Write})

	waitFor(t, func() bool { return len(sender.snapshot()) == 2 })
	msgs := sender.snapshot()
	encoded := base64.StdEncoding.EncodeToString([]byte("/nas/file.txt"))
	if msgs[0].Text != "p nas file_modify "+encoded {
		t.Fatalf("text[0] = %q", msgs[0].Text)
	}
	if msgs[1].Text != "p runtipi file_modify "+encoded {
		t.Fatalf("text[1] = %q", msgs[1].Text)
	}
}

func TestRemoveEventRelaysFileRemove(t *testing.T) {
	old := debounceWindow
	debounceWindow = 10 * time.Millisecond
	defer func() { debounceWindow = old }()

	sender := &fakeSender{}
	p := New(sender, "/nas")

	p.handleEvent(fsnotify.Event{Name: "/nas/file.txt", Op: fsnotify.Remove})

	waitFor(t, func() bool { return len(sender.snapshot()) == 1 })
	if !strings.HasPrefix(sender.snapshot()[0].Text, "p nas file_remove ") {
		t.Fatalf("unexpected relay: %q", sender.snapshot()[0].Text)
	}
}

func TestRepeatedEventsForSameKeyCoalesceIntoOneRelay(t *testing.T) {
	old := debounceWindow
	debounceWindow = 30 * time.Millisecond
	defer func() { debounceWindow = old }()

	sender := &fakeSender{}
	p := New(sender, "/nas")

	for i := 0; i < 5; i++ {
		p.handleEvent(fsnotify.Event{Name: "/nas/file.txt", Op: fsnotify.Write})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(80 * time.Millisecond)
	if got := len(sender.snapshot()); got != 2 {
		t.Fatalf("expected exactly 1 coalesced relay (nas + runtipi), got %d messages", got)
	}
}

func TestRelayRejoinsFolderOntoNestedPath(t *testing.T) {
	old := debounceWindow
	debounceWindow = 10 * time.Millisecond
	defer func() { debounceWindow = old }()

	sender := &fakeSender{}
	p := New(sender, "./nas")

	p.handleEvent(fsnotify.Event{Name: "nas/music/song.mp3", Op: fsnotify.Write})

	waitFor(t, func() bool { return len(sender.snapshot()) == 2 })
	want := base64.StdEncoding.EncodeToString([]byte("nas/music/song.mp3"))
	if sender.snapshot()[0].Text != "p nas file_modify "+want {
		t.Fatalf("text = %q, want filename rejoined onto folder", sender.snapshot()[0].Text)
	}
}

// TestStartWatchesExistingSubdirectoriesAndNewOnes exercises the real
// fsnotify watcher end to end: Start must pick up a pre-existing nested
// directory, and Run must extend the watch to a directory created after
// Start so a file written inside it is still observed.
func TestStartWatchesExistingSubdirectoriesAndNewOnes(t *testing.T) {
	old := debounceWindow
	debounceWindow = 20 * time.Millisecond
	defer func() { debounceWindow = old }()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "existing"), 0o755); err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{}
	p := New(sender, root)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := make(chan struct{})
	go p.Run(done)
	defer close(done)

	if err := os.WriteFile(filepath.Join(root, "existing", "a.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(sender.snapshot()) >= 2 })

	sender.mu.Lock()
	sender.msgs = nil
	sender.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(root, "fresh"), 0o755); err != nil {
		t.Fatal(err)
	}
	// give the watcher a moment to observe and register the new directory
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "fresh", "b.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(sender.snapshot()) >= 2 })
}
