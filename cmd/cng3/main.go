// Command cng3 is the process entry point: it loads configuration,
// constructs every plugin in dependency order (spec.md §2 "leaves first"),
// wires them into the message bus and its HTTP/MQTT/filesystem/terminal
// collaborators, then blocks until an exit command or OS signal arrives.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/timlin1972/cng3/internal/bus"
	"github.com/timlin1972/cng3/internal/cfg"
	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/panels"
	"github.com/timlin1972/cng3/internal/plugin"
	"github.com/timlin1972/cng3/internal/plugins/cliplugin"
	"github.com/timlin1972/cng3/internal/plugins/devicesplugin"
	"github.com/timlin1972/cng3/internal/plugins/infosplugin"
	"github.com/timlin1972/cng3/internal/plugins/logplugin"
	"github.com/timlin1972/cng3/internal/plugins/monitorplugin"
	"github.com/timlin1972/cng3/internal/plugins/mqttplugin"
	"github.com/timlin1972/cng3/internal/plugins/musicplugin"
	"github.com/timlin1972/cng3/internal/plugins/nasplugin"
	"github.com/timlin1972/cng3/internal/plugins/panelsplugin"
	"github.com/timlin1972/cng3/internal/plugins/runtipiplugin"
	"github.com/timlin1972/cng3/internal/plugins/scriptsplugin"
	"github.com/timlin1972/cng3/internal/plugins/systemplugin"
	"github.com/timlin1972/cng3/internal/plugins/todosplugin"
	"github.com/timlin1972/cng3/internal/plugins/weatherplugin"
	"github.com/timlin1972/cng3/internal/web"
)

// webPort is the NAS HTTP API's fixed listening port (spec.md §6 "bound to
// 0.0.0.0 on the web port"); no corpus constant names a different value,
// so it matches the port every nasplugin test passes to New.
const webPort = 8080

const (
	nasFolder = "./nas"
	uploadDir = "./nas_uploads"
	nasMount  = "/nas"
)

var scriptPath string

var rootCmd = &cobra.Command{
	Use:   "cng3",
	Short: "A fleet peer node: liveness/NAS-sync/terminal agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(scriptPath)
	},
}

func init() {
	rootCmd.Flags().StringVar(&scriptPath, "script", "./init.scripts", "bus-command script run at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(scriptPath string) error {
	c, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("cng3: loading config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if err := os.MkdirAll(nasFolder, 0o755); err != nil {
		return fmt.Errorf("cng3: creating nas folder: %w", err)
	}
	folderLock := flock.New(filepath.Join(nasFolder, ".lock"))

	b := bus.New(ctx, cancel, logger)

	manager := panels.NewManager()
	cli := cliplugin.New(b, c.Name)
	program := panels.NewProgram(manager, cli)
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	logPlugin := logplugin.New(b)
	panelsPlugin := panelsplugin.New(b, manager, program)
	systemPlugin := systemplugin.New(b, c.Name)
	devicesPlugin := devicesplugin.New(b)
	infosPlugin := infosplugin.New(b, devicesPlugin.Table())
	mqttPlugin := mqttplugin.New(b, c.Name)
	monitorPlugin := monitorplugin.New(b, nasFolder)
	nasPlugin := nasplugin.New(b, c.Name, nasFolder, folderLock, webPort, devicesPlugin.Table())
	weatherPlugin := weatherplugin.New(b)
	scriptsPlugin := scriptsplugin.New(b, scriptPath)
	todosPlugin := todosplugin.New(b)
	musicPlugin := musicplugin.New(b, "./yt_dlp_cache", "./music")
	runtipiPlugin := runtipiplugin.New(b, c.Name)

	router := plugin.NewRouter(b,
		logPlugin,
		panelsPlugin,
		systemPlugin,
		devicesPlugin,
		infosPlugin,
		mqttPlugin,
		monitorPlugin,
		nasPlugin,
		weatherPlugin,
		scriptsPlugin,
		todosPlugin,
		musicPlugin,
		runtipiPlugin,
		cli,
	)
	b.SetRouter(router)

	webServer := web.New(nasFolder, folderLock, uploadDir, nasMount, b, logger)
	go func() {
		if err := webServer.Run(fmt.Sprintf(":%d", webPort)); err != nil {
			logger.Printf("cng3: web server exited: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := webServer.Shutdown(); err != nil {
			logger.Printf("cng3: web server shutdown: %v", err)
		}
	}()

	if err := monitorPlugin.Start(); err != nil {
		logger.Printf("cng3: monitor: %v", err)
	} else {
		go monitorPlugin.Run(ctx.Done())
	}

	go systemPlugin.Run(ctx)
	go weatherPlugin.Run(ctx)
	go todosPlugin.Run(ctx)

	go b.Run()

	b.Send(msg.NewCmd("main", "p scripts init"))

	if !isInteractive() {
		<-ctx.Done()
		return nil
	}
	if err := program.Run(); err != nil {
		logger.Printf("cng3: panels program exited: %v", err)
	}
	cancel()
	return nil
}

func isInteractive() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
