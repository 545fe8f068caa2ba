package nas

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/timlin1972/cng3/internal/hashutil"
)

// IsValidFilename enforces spec.md §6's filename validation: no absolute
// paths, no component other than Normal or CurDir (".") — in particular no
// "..".
func IsValidFilename(name string) bool {
	if name == "" || filepath.IsAbs(name) {
		return false
	}
	for _, part := range splitPath(filepath.ToSlash(name)) {
		if part == ".." {
			return false
		}
	}
	return true
}

// splitPath returns the "/"-separated components of p as written, without
// cleaning, so a ".." anywhere in p appears as its own component.
func splitPath(p string) []string {
	return strings.Split(p, "/")
}

// WriteFile decodes base64 content and writes it to filename, setting its
// mtime to the supplied RFC3339 instant. It short-circuits (performs no I/O
// beyond the initial read-and-compare) when the file already holds the same
// content, per spec.md §4.2's idempotence law, and leaves mtime untouched
// in that case.
//
// folderLock guards the shared folder against the local filesystem watcher
// observing a write this same process is still making (SPEC_FULL.md §4.2).
func WriteFile(folderLock *flock.Flock, filename, content, mtime string) error {
	if err := folderLock.Lock(); err != nil {
		return fmt.Errorf("locking nas folder: %w", err)
	}
	defer folderLock.Unlock()

	if existing, err := os.ReadFile(filename); err == nil {
		if base64.StdEncoding.EncodeToString(existing) == content {
			return nil
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return fmt.Errorf("decoding content for %s: %w", filename, err)
	}

	mt, err := time.Parse(time.RFC3339, mtime)
	if err != nil {
		return fmt.Errorf("parsing mtime %q: %w", mtime, err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating parent dir for %s: %w", filename, err)
		}
	}

	if err := os.WriteFile(filename, decoded, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}

	if err := os.Chtimes(filename, mt, mt); err != nil {
		return fmt.Errorf("setting mtime on %s: %w", filename, err)
	}

	return nil
}

// SafeRemove removes filename (file or directory tree), guarded by the same
// shared-folder lock as WriteFile.
func SafeRemove(folderLock *flock.Flock, filename string) error {
	if err := folderLock.Lock(); err != nil {
		return fmt.Errorf("locking nas folder: %w", err)
	}
	defer folderLock.Unlock()

	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("path not found: %s", filename)
	}
	return os.RemoveAll(filename)
}

// readFileBase64 reads filename and returns its content, base64-encoded for
// wire transport (spec.md §6 upload body).
func readFileBase64(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	return base64.StdEncoding.EncodeToString(content), nil
}

// localMeta returns filename's content hash and RFC3339 mtime, the two
// pieces put_file needs before calling /verify_hash and /upload.
func localMeta(filename string) (hash string, mtimeRFC3339 string, err error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", filename, err)
	}
	info, err := os.Stat(filename)
	if err != nil {
		return "", "", fmt.Errorf("stat %s: %w", filename, err)
	}
	return hashutil.Hex(content), info.ModTime().UTC().Format(time.RFC3339), nil
}
