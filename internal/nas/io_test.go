package nas

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func TestIsValidFilenameRejectsParentTraversal(t *testing.T) {
	cases := []string{"../escape.txt", "a/../../b.txt", "/etc/passwd", ""}
	for _, c := range cases {
		if IsValidFilename(c) {
			t.Errorf("IsValidFilename(%q) = true, want false", c)
		}
	}
}

func TestIsValidFilenameAcceptsNormalPaths(t *testing.T) {
	cases := []string{"a.txt", "dir/b.txt", "./dir/c.txt"}
	for _, c := range cases {
		if !IsValidFilename(c) {
			t.Errorf("IsValidFilename(%q) = false, want true", c)
		}
	}
}

func TestWriteFileWritesContentAndMtime(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	lock := flock.New(filepath.Join(dir, ".lock"))

	if err := WriteFile(lock, target, "aGVsbG8=", "2024-01-02T03:04:05Z"); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hello" {
		t.Fatalf("content = %q", content)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if !info.ModTime().UTC().Equal(want) {
		t.Fatalf("mtime = %v, want %v", info.ModTime().UTC(), want)
	}
}

func TestWriteFileSkipsIdenticalContentLeavingMtimeUntouched(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	lock := flock.New(filepath.Join(dir, ".lock"))

	if err := WriteFile(lock, target, "aGVsbG8=", "2024-01-02T03:04:05Z"); err != nil {
		t.Fatal(err)
	}
	before, _ := os.Stat(target)

	if err := WriteFile(lock, target, "aGVsbG8=", "2030-06-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	after, _ := os.Stat(target)

	if !before.ModTime().Equal(after.ModTime()) {
		t.Fatalf("mtime changed despite identical content: %v -> %v", before.ModTime(), after.ModTime())
	}
}

func TestSafeRemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(filepath.Join(dir, ".lock"))

	if err := SafeRemove(lock, target); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, err = %v", err)
	}
}

func TestSafeRemoveMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	lock := flock.New(filepath.Join(dir, ".lock"))
	if err := SafeRemove(lock, filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
