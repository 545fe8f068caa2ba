// Package ytdlp wraps the yt-dlp and ffmpeg command-line tools as
// subprocesses (spec.md §1 "external tools invoked as subprocesses",
// §4.5 "music"). Grounded on original_source/src/utils/yt_dlp.rs and
// original_source/src/utils/ffmpeg.rs's is_available/get_version/init
// shape, reimplemented over os/exec instead of tokio::process.
package ytdlp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// YtDlp shells out to the yt-dlp binary.
type YtDlp struct {
	Bin     string
	version string
}

// NewYtDlp returns a YtDlp invoking the "yt-dlp" binary on PATH.
func NewYtDlp() *YtDlp { return &YtDlp{Bin: "yt-dlp"} }

// Init verifies yt-dlp is available and records its version string.
func (y *YtDlp) Init(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, y.Bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("ytdlp: yt-dlp not found: %w", err)
	}
	y.version = strings.TrimSpace(string(out))
	return y.version, nil
}

// Version returns the version recorded by the last successful Init.
func (y *YtDlp) Version() string { return y.version }

// Download runs yt-dlp against url, writing output into destDir using
// outputTemplate (yt-dlp's -o syntax).
func (y *YtDlp) Download(ctx context.Context, url, destDir, outputTemplate string) error {
	cmd := exec.CommandContext(ctx, y.Bin, "-o", outputTemplate, "-P", destDir, url)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ytdlp: download %s: %w: %s", url, err, out)
	}
	return nil
}

// Ffmpeg shells out to the ffmpeg binary.
type Ffmpeg struct {
	Bin     string
	version string
}

// NewFfmpeg returns an Ffmpeg invoking the "ffmpeg" binary on PATH.
func NewFfmpeg() *Ffmpeg { return &Ffmpeg{Bin: "ffmpeg"} }

// Init verifies ffmpeg is available and records its version string,
// parsed from "-version"'s first line ("ffmpeg version X.Y.Z ...").
func (f *Ffmpeg) Init(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, f.Bin, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ytdlp: ffmpeg not found: %w", err)
	}
	firstLine := strings.SplitN(string(out), "\n", 2)[0]
	fields := strings.Fields(firstLine)
	if len(fields) < 3 {
		return "", fmt.Errorf("ytdlp: unable to extract ffmpeg version from %q", firstLine)
	}
	f.version = fields[2]
	return f.version, nil
}

// Version returns the version recorded by the last successful Init.
func (f *Ffmpeg) Version() string { return f.version }

// ExtractAudio transcodes src into destPath using ffmpeg's -vn (no video)
// and the given audio codec.
func (f *Ffmpeg) ExtractAudio(ctx context.Context, src, destPath, codec string) error {
	cmd := exec.CommandContext(ctx, f.Bin, "-y", "-i", src, "-vn", "-acodec", codec, destPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ytdlp: extract audio from %s: %w: %s", src, err, out)
	}
	return nil
}
