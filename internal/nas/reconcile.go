package nas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/flock"
)

// HTTPDoer is satisfied by *http.Client; tests substitute a fake.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultClient is the reconciliation loop's HTTP client. spec.md §5 notes
// "HTTP calls inherit the default client timeout of the HTTP library" — the
// stdlib's zero-value client has *no* timeout, so SPEC_FULL.md §4.2 sets one
// explicitly, generous for a LAN peer while still bounding a hung transfer.
var DefaultClient HTTPDoer = &http.Client{Timeout: 30 * time.Second}

// Reconciler drives the client-initiated reconciliation loop of spec.md
// §4.2 against one NAS server.
type Reconciler struct {
	Doer       HTTPDoer
	SelfName   string
	Folder     string
	FolderLock *flock.Flock
	ServerIP   string
	Port       int
	// Log receives a progress line for every step; may be nil.
	Log func(text string)
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log(fmt.Sprintf(format, args...))
	}
}

func (r *Reconciler) url(path string) string {
	return fmt.Sprintf("http://%s:%d%s", r.ServerIP, r.Port, path)
}

func (r *Reconciler) postJSON(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url(path), bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Doer.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

type checkHashRequest struct {
	Data struct {
		Name    string `json:"name"`
		HashStr string `json:"hash_str"`
	} `json:"data"`
}

type checkHashResponse struct {
	Data struct {
		Result   int       `json:"result"`
		FileList *FileList `json:"file_list,omitempty"`
	} `json:"data"`
}

type verifyHashRequest struct {
	Data struct {
		Filename string `json:"filename"`
		HashStr  string `json:"hash_str"`
	} `json:"data"`
}

type verifyHashResponse struct {
	Data struct {
		Result int `json:"result"`
	} `json:"data"`
}

type fileOnlyRequest struct {
	Data struct {
		Filename string `json:"filename"`
	} `json:"data"`
}

type downloadResponse struct {
	Data struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
		Mtime    string `json:"mtime"`
	} `json:"data"`
}

type uploadRequest struct {
	Data struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
		Mtime    string `json:"mtime"`
	} `json:"data"`
}

// Reconcile runs one round of spec.md §4.2's algorithm: compute the local
// FileList, check its hash against the server, and if they differ, fetch
// the server's FileList, compute a plan, and apply it. It loops internally
// until a round ends with a hash match, returning nil once Synced or an
// error if any step failed (the caller retries at the next triggering
// event, per spec.md §4.2 "Failure semantics").
func (r *Reconciler) Reconcile(ctx context.Context) error {
	for {
		local, err := ComputeFileList(r.Folder)
		if err != nil {
			return fmt.Errorf("computing local file list: %w", err)
		}

		r.logf("%s: check hash", r.ServerIP)
		var checkResp checkHashResponse
		checkReq := checkHashRequest{}
		checkReq.Data.Name = r.SelfName
		checkReq.Data.HashStr = local.HashStr
		if err := r.postJSON(ctx, "/check_hash", checkReq, &checkResp); err != nil {
			return err
		}

		if checkResp.Data.Result == 0 {
			r.logf("%s: hash matched, synced", r.ServerIP)
			return nil
		}
		if checkResp.Data.FileList == nil {
			return fmt.Errorf("check_hash: server reported mismatch but sent no file list")
		}

		r.logf("%s: hash mismatched, syncing", r.ServerIP)
		actions := CompareAndGenerateActions(*checkResp.Data.FileList, local)
		for _, action := range actions {
			if err := r.apply(ctx, action); err != nil {
				return fmt.Errorf("applying %v for %s: %w", action.Kind, action.Filename, err)
			}
		}
		// loop back to step 1, per spec.md §4.2 step 5.
	}
}

func (r *Reconciler) apply(ctx context.Context, action Action) error {
	switch action.Kind {
	case ActionGetFile:
		return r.getFile(ctx, action.Filename)
	case ActionPutFile:
		return r.putFile(ctx, action.Filename)
	default:
		return fmt.Errorf("unknown action kind %v", action.Kind)
	}
}

func (r *Reconciler) getFile(ctx context.Context, filename string) error {
	req := fileOnlyRequest{}
	req.Data.Filename = filename
	var resp downloadResponse
	if err := r.postJSON(ctx, "/download", req, &resp); err != nil {
		return err
	}
	if err := WriteFile(r.FolderLock, resp.Data.Filename, resp.Data.Content, resp.Data.Mtime); err != nil {
		return err
	}
	r.logf("GET `%s` from %s", filename, r.ServerIP)
	return nil
}

// putFile uploads filename to the server, but only after a cheap
// /verify_hash pre-check — the idempotence law of spec.md §4.2: repeated
// runs against an already-converged peer do no upload work.
func (r *Reconciler) putFile(ctx context.Context, filename string) error {
	content, err := readFileBase64(filename)
	if err != nil {
		return err
	}
	hashStr, mtime, err := localMeta(filename)
	if err != nil {
		return err
	}

	vreq := verifyHashRequest{}
	vreq.Data.Filename = filename
	vreq.Data.HashStr = hashStr
	var vresp verifyHashResponse
	if err := r.postJSON(ctx, "/verify_hash", vreq, &vresp); err != nil {
		return err
	}
	if vresp.Data.Result == 0 {
		r.logf("PUT `%s` to %s ignored, same", filename, r.ServerIP)
		return nil
	}

	ureq := uploadRequest{}
	ureq.Data.Filename = filename
	ureq.Data.Content = content
	ureq.Data.Mtime = mtime
	if err := r.postJSON(ctx, "/upload", ureq, nil); err != nil {
		return err
	}
	r.logf("PUT `%s` to %s", filename, r.ServerIP)
	return nil
}

// PutFile uploads filename to this reconciler's server, skipping the
// transfer if a /verify_hash pre-check shows the server already holds the
// same content. Used by the fan-out path for locally-modified files.
func (r *Reconciler) PutFile(ctx context.Context, filename string) error {
	return r.putFile(ctx, filename)
}

// RemoveRemote issues a /remove call for filename against this reconciler's
// server, used by the fan-out path for locally-deleted files.
func (r *Reconciler) RemoveRemote(ctx context.Context, filename string) error {
	req := fileOnlyRequest{}
	req.Data.Filename = filename
	if err := r.postJSON(ctx, "/remove", req, nil); err != nil {
		return err
	}
	r.logf("REMOVE `%s` to %s", filename, r.ServerIP)
	return nil
}
