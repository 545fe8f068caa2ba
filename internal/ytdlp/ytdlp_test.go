package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFakeBinary(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell binaries are unix-only")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYtDlpInitRecordsVersion(t *testing.T) {
	bin := writeFakeBinary(t, "yt-dlp", `echo "2025.01.01"`)
	y := &YtDlp{Bin: bin}

	v, err := y.Init(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "2025.01.01" || y.Version() != "2025.01.01" {
		t.Fatalf("version = %q", v)
	}
}

func TestYtDlpInitErrorsWhenBinaryMissing(t *testing.T) {
	y := &YtDlp{Bin: "/nonexistent/yt-dlp"}
	if _, err := y.Init(context.Background()); err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestFfmpegInitParsesVersionFromFirstLine(t *testing.T) {
	bin := writeFakeBinary(t, "ffmpeg", `echo "ffmpeg version 4.4.2-0ubuntu0.22.04.1 Copyright"`)
	f := &Ffmpeg{Bin: bin}

	v, err := f.Init(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "4.4.2-0ubuntu0.22.04.1" || f.Version() != v {
		t.Fatalf("version = %q", v)
	}
}
