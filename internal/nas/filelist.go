package nas

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/timlin1972/cng3/internal/hashutil"
)

// ComputeFileList walks folder recursively and builds a FileList sorted
// ascending by filename, per spec.md §3. mtimes are truncated to whole
// seconds: the wire format (RFC3339, spec.md §4.2 step 4) carries no
// sub-second precision, so truncating here keeps local comparisons
// consistent with what a peer will see after a round trip.
func ComputeFileList(folder string) (FileList, error) {
	var files []FileMeta

	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		filename := filepath.ToSlash(filepath.Join(folder, rel))
		files = append(files, FileMeta{
			Filename: filename,
			Hash:     hashutil.Hex(content),
			Mtime:    info.ModTime().Truncate(time.Second),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return FileList{HashStr: hashutil.HexString("")}, nil
		}
		return FileList{}, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return FileList{Files: files, HashStr: hashStr(files)}, nil
}

// hashStr implements spec.md §3's FileList fingerprint: SHA-256 over
// "filename1:hash1|filename2:hash2|...", mtimes excluded.
func hashStr(files []FileMeta) string {
	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = f.Filename + ":" + f.Hash
	}
	return hashutil.HexString(strings.Join(parts, "|"))
}

// CompareAndGenerateActions computes the reconciliation plan that brings a
// client's folder to match the server's, per spec.md §4.2 step 3. The plan
// is deterministic for a given pair of sorted FileLists: for every filename
// present on both sides with a differing hash or mtime, a PutFile is
// emitted if the client's copy is strictly newer, else a GetFile; for every
// server-only filename a GetFile; for every client-only filename a PutFile.
func CompareAndGenerateActions(server, client FileList) []Action {
	var actions []Action

	for _, sf := range server.Files {
		if cf, ok := client.FindByFilename(sf.Filename); ok {
			if cf.Hash != sf.Hash || !cf.Mtime.Equal(sf.Mtime) {
				if cf.Mtime.After(sf.Mtime) {
					actions = append(actions, Action{Kind: ActionPutFile, Filename: sf.Filename, Mtime: cf.Mtime})
				} else {
					actions = append(actions, Action{Kind: ActionGetFile, Filename: sf.Filename, Mtime: sf.Mtime})
				}
			}
		} else {
			actions = append(actions, Action{Kind: ActionGetFile, Filename: sf.Filename, Mtime: sf.Mtime})
		}
	}

	for _, cf := range client.Files {
		if _, ok := server.FindByFilename(cf.Filename); !ok {
			actions = append(actions, Action{Kind: ActionPutFile, Filename: cf.Filename, Mtime: cf.Mtime})
		}
	}

	return actions
}
