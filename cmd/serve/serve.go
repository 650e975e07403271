package serve

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/config"
	"github.com/stratastor/rodent/internal/constants"
	"github.com/stratastor/rodent/internal/managers"
	"github.com/stratastor/rodent/pkg/catalog"
	"github.com/stratastor/rodent/pkg/devicemanager"
	"github.com/stratastor/rodent/pkg/httpclient"
	"github.com/stratastor/rodent/pkg/lifecycle"
	"github.com/stratastor/rodent/pkg/lrs/compat"
	"github.com/stratastor/rodent/pkg/lrs/selection"
	"github.com/stratastor/rodent/pkg/lrs/service"
	"github.com/stratastor/rodent/pkg/lrs/types"
	"github.com/stratastor/rodent/pkg/server"
)

var detached bool

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Rodent server",
		Run:   runServe,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) {
	rc := config.GetConfig()
	pidFile := constants.RodentPIDFilePath
	// Check for existing instance before proceeding
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}

	if detached {
		ctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: rc.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        []string{"rodent", "serve"},
		}

		d, err := ctx.Reborn()
		if err != nil {
			fmt.Printf("Failed to start daemon: %v\n", err)
			os.Exit(1)
		}

		if d != nil {
			fmt.Println("Rodent is running as a daemon")
			return
		}
		defer ctx.Release()
	}

	startServer()
}

func startServer() {
	cfg := config.GetConfig()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := buildLRSService(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to initialize LRS service: %v\n", err)
		os.Exit(1)
	}
	managers.SetLRSService(svc)

	// Register the context canceller
	lifecycle.RegisterContextCanceller(cancel)

	// Register shutdown hook for server cleanup
	lifecycle.RegisterShutdownHook(func() {
		fmt.Println("Shutting down server")
		if err := svc.Shutdown(ctx); err != nil {
			fmt.Printf("Error during LRS service shutdown: %v\n", err)
		}
		if err := server.Shutdown(ctx); err != nil {
			fmt.Printf("Error during server shutdown: %v\n", err)
		}
	})

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP)
	go lifecycle.HandleSignals(ctx)

	// Start the server
	fmt.Printf("Starting Rodent server on port %d\n", cfg.Server.Port)
	if err := server.Start(ctx, cfg.Server.Port); err != nil {
		fmt.Printf("Failed to start server: %v", err)
	}
}

// buildLRSService wires the catalog client, per-family device-manager
// adapters and the LRS service façade from the loaded configuration, and
// starts the periodic housekeeping tick if enabled.
func buildLRSService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	log, err := logger.NewTag(config.NewLoggerConfig(cfg), "lrs")
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.LRS.Catalog.Timeout)
	if err != nil {
		timeout = 10 * time.Second
	}
	cat := catalog.NewRESTClient(cfg.LRS.Catalog.BaseURL, httpclient.ClientConfig{Timeout: timeout})

	adapters := devicemanager.ByFamily{
		types.FamilyTape: devicemanager.Adapters{
			Device:     devicemanager.NewTapeDevice(log, "/dev"),
			Library:    devicemanager.NewTapeLibrary(log, cfg.LRS.LibDevice),
			Filesystem: devicemanager.NewTapeFilesystem(log),
			IO:         devicemanager.NewTapeIO(log),
		},
		types.FamilyDir: devicemanager.Adapters{
			Device:     devicemanager.NewDirDevice(log, cfg.LRS.DirRoot),
			Library:    devicemanager.NewDirLibrary(log, cfg.LRS.DirRoot),
			Filesystem: devicemanager.NewDirFilesystem(log),
			IO:         devicemanager.NewDirIO(log),
		},
	}

	tapeTypes := make(map[string]compat.TapeType, len(cfg.LRS.TapeTypes))
	for name, tt := range cfg.LRS.TapeTypes {
		tapeTypes[name] = compat.TapeType{DriveRW: tt.DriveRW}
	}
	driveTypes := make(map[string]compat.DriveType, len(cfg.LRS.DriveTypes))
	for name, dt := range cfg.LRS.DriveTypes {
		driveTypes[name] = compat.DriveType{Models: dt.Models}
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}

	svc := service.New(log)
	svcCfg := service.Config{
		MountPrefix:   cfg.LRS.MountPrefix,
		DefaultFamily: types.Family(cfg.LRS.DefaultFamily),
		LibDevice:     cfg.LRS.LibDevice,
		Policy:        selection.Name(cfg.LRS.Policy),
		TapeTypes:     tapeTypes,
		DriveTypes:    driveTypes,
	}
	if err := svc.Init(cat, adapters, host, svcCfg, cfg.LRS.ThreadID); err != nil {
		return nil, err
	}

	if err := svc.ReloadState(ctx); err != nil {
		log.Warn("initial reload_state failed", "error", err)
	}

	if cfg.LRS.Housekeeping.Enabled {
		interval, err := time.ParseDuration(cfg.LRS.Housekeeping.Interval)
		if err != nil {
			interval = 5 * time.Minute
		}
		if err := svc.StartHousekeeping(ctx, interval); err != nil {
			log.Warn("failed to start housekeeping", "error", err)
		}
	}

	return svc, nil
}
