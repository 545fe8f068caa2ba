package nas

import (
	"encoding/json"
	"fmt"
	"time"
)

// Info is a server's or client's record of one known peer (spec.md §3
// NasInfo). ID holds a stable per-peer identifier and Name is the lookup
// key; no code in this module assigns ID (the nas plugin keeps its own
// per-peer records, which carry no ID).
type Info struct {
	TS           int64
	Name         string
	ID           string
	Onboard      bool
	State        State
	TailscaleIP  string
	HasTailscale bool
}

// FileMeta describes one file under the shared folder (spec.md §3).
type FileMeta struct {
	Filename string
	Hash     string
	Mtime    time.Time
}

// FileList is the ordered, content-addressed inventory of the shared folder
// (spec.md §3). Files is sorted ascending by Filename; HashStr is the
// fingerprint used to detect divergence between two peers.
type FileList struct {
	Files   []FileMeta `json:"files"`
	HashStr string     `json:"hash_str"`
}

// fileMetaWire is FileMeta's wire shape: Mtime travels as RFC3339, the
// format spec.md §4.2 step 4 specifies for get/put mtime propagation.
type fileMetaWire struct {
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Mtime    string `json:"mtime"`
}

// MarshalJSON renders Mtime as RFC3339.
func (f FileMeta) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileMetaWire{
		Filename: f.Filename,
		Hash:     f.Hash,
		Mtime:    f.Mtime.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON parses Mtime from RFC3339.
func (f *FileMeta) UnmarshalJSON(data []byte) error {
	var w fileMetaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	mt, err := time.Parse(time.RFC3339, w.Mtime)
	if err != nil {
		return fmt.Errorf("nas: parsing FileMeta.Mtime %q: %w", w.Mtime, err)
	}
	f.Filename = w.Filename
	f.Hash = w.Hash
	f.Mtime = mt
	return nil
}

// FindByFilename returns the FileMeta for filename, if present.
func (fl FileList) FindByFilename(filename string) (FileMeta, bool) {
	for _, f := range fl.Files {
		if f.Filename == filename {
			return f, true
		}
	}
	return FileMeta{}, false
}

// ActionKind distinguishes the two reconciliation plan items.
type ActionKind int

const (
	ActionGetFile ActionKind = iota
	ActionPutFile
)

// Action is one item of a computed reconciliation plan (spec.md §3
// SyncAction).
type Action struct {
	Kind     ActionKind
	Filename string
	Mtime    time.Time
}
