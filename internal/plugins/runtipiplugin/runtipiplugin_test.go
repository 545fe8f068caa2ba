package runtipiplugin

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timlin1972/cng3/internal/msg"
)

type fakeSender struct {
	msgs []msg.Msg
}

func (f *fakeSender) Send(m msg.Msg) { f.msgs = append(f.msgs, m) }

func TestFileModifyIgnoredWhenNotRuntipiServer(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "peer-a")
	p.HandleCmd(msg.NewCmd("test", "p runtipi init peer-b"), "init", []string{"peer-b"})

	encoded := base64.StdEncoding.EncodeToString([]byte("nas/music/song.mp3"))
	p.HandleCmd(msg.NewCmd("test", "p runtipi file_modify "+encoded), "file_modify", []string{encoded})

	if len(sender.msgs) != 1 || sender.msgs[0].Level != msg.LevelWarn {
		t.Fatalf("expected a single warn (not runtipi server), got %+v", sender.msgs)
	}
}

func TestFileModifyOutsideMusicPrefixIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "peer-a")
	p.HandleCmd(msg.NewCmd("test", "p runtipi init peer-a"), "init", []string{"peer-a"})

	encoded := base64.StdEncoding.EncodeToString([]byte("nas/docs/readme.txt"))
	p.HandleCmd(msg.NewCmd("test", "p runtipi file_modify "+encoded), "file_modify", []string{encoded})

	if len(sender.msgs) != 0 {
		t.Fatalf("expected no action for a non-music path, got %+v", sender.msgs)
	}
}

// TestFileModifyMatchesMonitorPluginsFilenameConvention pins the exact
// filename shape the monitor plugin's relay emits (filepath.Join(folder,
// rel), matching internal/nas.ComputeFileList) against musicPrefix, since
// these two constants drifting apart is exactly what let this path go dead.
func TestFileModifyMatchesMonitorPluginsFilenameConvention(t *testing.T) {
	folder := "./nas"
	rel := "music/song.mp3"
	filename := filepath.ToSlash(filepath.Join(folder, rel))

	if !strings.HasPrefix(filename, musicPrefix) {
		t.Fatalf("monitor-style filename %q does not match musicPrefix %q", filename, musicPrefix)
	}
}

func TestFileModifyWithinMusicPrefixAttemptsCopy(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "peer-a")
	p.HandleCmd(msg.NewCmd("test", "p runtipi init peer-a"), "init", []string{"peer-a"})

	encoded := base64.StdEncoding.EncodeToString([]byte("nas/music/song.mp3"))
	p.HandleCmd(msg.NewCmd("test", "p runtipi file_modify "+encoded), "file_modify", []string{encoded})

	// The source file doesn't exist in the test sandbox, so cp fails, but
	// that failure proves the prefix check let the copy attempt through.
	if len(sender.msgs) != 2 {
		t.Fatalf("expected an info (starting copy) and a warn (cp failed), got %+v", sender.msgs)
	}
	if sender.msgs[1].Level != msg.LevelWarn {
		t.Fatalf("expected the second message to report the failed copy, got %+v", sender.msgs[1])
	}
}

func TestShowReportsConfiguredServer(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "peer-a")
	p.HandleCmd(msg.NewCmd("test", "p runtipi init peer-a"), "init", []string{"peer-a"})

	p.HandleCmd(msg.NewCmd("test", "p runtipi show"), "show", nil)

	if len(sender.msgs) != 1 || !strings.Contains(sender.msgs[0].Text, "peer-a") {
		t.Fatalf("expected show to mention peer-a, got %+v", sender.msgs)
	}
}

func TestUnknownActionWarns(t *testing.T) {
	sender := &fakeSender{}
	p := New(sender, "peer-a")

	p.HandleCmd(msg.NewCmd("test", "p runtipi mystery"), "mystery", nil)

	if len(sender.msgs) != 1 || sender.msgs[0].Level != msg.LevelWarn {
		t.Fatalf("expected a single warn message, got %+v", sender.msgs)
	}
}
