// Package musicplugin wraps yt-dlp and ffmpeg as subprocesses: it
// downloads a track into a staging directory, then has ffmpeg extract the
// audio into the music folder and deletes the staged file (spec.md §4.5 "music", §6 "./yt_dlp_cache/
// is scratch"). Grounded on
// original_source/src/plugins/plugin_music.rs's init/show shape.
package musicplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
	"github.com/timlin1972/cng3/internal/ytdlp"
)

const moduleName = "music"

// Plugin wraps yt-dlp/ffmpeg for the "download" command.
type Plugin struct {
	plugin.Base

	guiPanel string
	stageDir string
	musicDir string
	ytDlp    *ytdlp.YtDlp
	ffmpeg   *ytdlp.Ffmpeg
}

// New builds a music plugin staging downloads in stageDir before moving
// them into musicDir.
func New(sender msg.Sender, stageDir, musicDir string) *Plugin {
	p := &Plugin{
		guiPanel: "infos",
		stageDir: stageDir,
		musicDir: musicDir,
		ytDlp:    ytdlp.NewYtDlp(),
		ffmpeg:   ytdlp.NewFfmpeg(),
	}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "init":
		p.handleInit()
	case "show":
		p.handleShow()
	case "download":
		p.handleDownload(args)
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s` for cmd `%s`", moduleName, action, m.Text))
	}
}

func (p *Plugin) handleInit() {
	ctx := context.Background()
	if _, err := p.ytDlp.Init(ctx); err != nil {
		p.Warn(fmt.Sprintf("[%s] yt-dlp not found", moduleName))
	}
	if _, err := p.ffmpeg.Init(ctx); err != nil {
		p.Warn(fmt.Sprintf("[%s] ffmpeg not found", moduleName))
	}
	if err := os.MkdirAll(p.stageDir, 0o755); err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to create staging dir: %v", moduleName, err))
	}
	if err := os.MkdirAll(p.musicDir, 0o755); err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to create music dir: %v", moduleName, err))
	}
	p.Info(fmt.Sprintf("[%s] init", moduleName))
}

func (p *Plugin) handleShow() {
	p.Info(fmt.Sprintf("[%s] show (yt-dlp %s, ffmpeg %s)", moduleName, p.ytDlp.Version(), p.ffmpeg.Version()))
}

// handleDownload implements "p music download <url> <title>": stage via
// yt-dlp, have ffmpeg write the audio straight into musicDir as
// "<title>.mp3", then delete the staged file. The result is written in
// place, not moved atomically.
func (p *Plugin) handleDownload(args []string) {
	if len(args) < 2 {
		p.Warn(fmt.Sprintf("[%s] download: want <url> <title>", moduleName))
		return
	}
	url, title := args[0], args[1]
	ctx := context.Background()

	stagedTemplate := title + ".%(ext)s"
	if err := p.ytDlp.Download(ctx, url, p.stageDir, stagedTemplate); err != nil {
		p.Warn(fmt.Sprintf("[%s] download failed: %v", moduleName, err))
		return
	}

	stagedPath := filepath.Join(p.stageDir, title+".webm")
	finalPath := filepath.Join(p.musicDir, title+".mp3")
	if err := p.ffmpeg.ExtractAudio(ctx, stagedPath, finalPath, "libmp3lame"); err != nil {
		p.Warn(fmt.Sprintf("[%s] extract audio failed: %v", moduleName, err))
		return
	}
	if err := os.Remove(stagedPath); err != nil {
		p.Warn(fmt.Sprintf("[%s] failed to clean up staged file: %v", moduleName, err))
	}
	p.Info(fmt.Sprintf("[%s] downloaded %q", moduleName, title))
}
