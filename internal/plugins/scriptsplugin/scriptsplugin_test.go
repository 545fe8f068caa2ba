package scriptsplugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/timlin1972/cng3/internal/msg"
)

type fakeSender struct {
	msgs []msg.Msg
}

func (f *fakeSender) Send(m msg.Msg) { f.msgs = append(f.msgs, m) }

func writeScript(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "init.scripts")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitEmitsEachLineAsCmd(t *testing.T) {
	path := writeScript(t, "p panels create log log 0 0 50 50", "p nas init nas-server")
	sender := &fakeSender{}
	p := New(sender, path)

	p.HandleCmd(msg.NewCmd("test", "p scripts init"), "init", nil)

	if len(sender.msgs) != 2 {
		t.Fatalf("expected 2 emitted commands, got %d", len(sender.msgs))
	}
	if !sender.msgs[0].IsCmd() || sender.msgs[0].Text != "p panels create log log 0 0 50 50" {
		t.Fatalf("unexpected first command: %+v", sender.msgs[0])
	}
}

func TestInitMissingFileWarns(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "/nonexistent/path/init.scripts")

	p.HandleCmd(msg.NewCmd("test", "p scripts init"), "init", nil)

	if len(sender.msgs) != 1 || sender.msgs[0].Level != msg.LevelWarn {
		t.Fatalf("expected a single warn message, got %+v", sender.msgs)
	}
}

func TestUnknownActionWarns(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "unused")

	p.HandleCmd(msg.NewCmd("test", "p scripts mystery"), "mystery", nil)

	if len(sender.msgs) != 1 || sender.msgs[0].Level != msg.LevelWarn {
		t.Fatalf("expected a single warn message, got %+v", sender.msgs)
	}
}
