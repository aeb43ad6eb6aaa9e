package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridpool/gridpool/pkg/api"
	"github.com/gridpool/gridpool/pkg/config"
	"github.com/gridpool/gridpool/pkg/log"
	"github.com/gridpool/gridpool/pkg/manager"
	"github.com/gridpool/gridpool/pkg/notify"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// serverAddr is the server the client commands talk to.
var serverAddr string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gridpool",
	Short: "Gridpool - faculty-pooled compute scheduling",
	Long: `Gridpool pools contributed compute nodes into faculties and
schedules resource requests against the pooled capacity, one day at a
time. Removing capacity triggers cascading rescheduling so the pool
is never overcommitted.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Gridpool version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:8080", "Gridpool server address")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(policyCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Gridpool server",
	Long: `Run the Gridpool scheduling engine and its HTTP API.

The server owns the capacity and schedule ledgers, runs the daily
node-removal batch, and reschedules jobs when capacity is withdrawn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}
		if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
			cfg.DataDir = dataDir
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})

		var notifier notify.Notifier
		var redisNotifier *notify.RedisNotifier
		if cfg.Redis.Enabled {
			redisNotifier = notify.NewRedisNotifier(cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Stream)
			notifier = redisNotifier
		}

		mgr, err := manager.NewManager(&manager.Config{
			DataDir:          cfg.DataDir,
			CutoverHour:      cfg.CutoverHour,
			AssignmentPolicy: cfg.Policies.Assignment,
			JobPolicy:        cfg.Policies.Job,
		}, notifier)
		if err != nil {
			return fmt.Errorf("failed to create manager: %v", err)
		}
		mgr.Start()

		apiServer := api.NewServer(mgr)
		errCh := make(chan error, 1)
		go func() {
			if err := apiServer.Start(cfg.Listen); err != nil {
				errCh <- fmt.Errorf("API server error: %v", err)
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		}

		apiServer.Stop()
		if err := mgr.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown: %v", err)
		}
		if redisNotifier != nil {
			redisNotifier.Close()
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().String("config", "", "Path to a YAML config file")
	serverCmd.Flags().String("listen", "", "Address for the HTTP API (overrides config)")
	serverCmd.Flags().String("data-dir", "", "Data directory (overrides config)")
}
