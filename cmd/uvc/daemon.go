package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KingArtGames/uversioncontrol/internal/dashboard"
	"github.com/KingArtGames/uversioncontrol/internal/store"
	"github.com/KingArtGames/uversioncontrol/internal/watcher"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the status synchronization daemon",
	Long: `Run the engine's background refresh loop until interrupted.

With 'watch: true' in the configuration, working-copy file changes
automatically queue status requests. With 'snapshot_path' set, the
status cache and remote rules persist across daemon restarts. With
'dashboard_port' set, status and progress events are broadcast to
WebSocket clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := log.New(os.Stderr, "[uvc] ", log.LstdFlags)
		eng := buildEngine(cfg)
		defer eng.Close()

		// Restore the previous session's snapshot before going live.
		var snap *store.Store
		if cfg.SnapshotPath != "" {
			snap, err = store.Open(cfg.SnapshotPath)
			if err != nil {
				return fmt.Errorf("opening snapshot store: %w", err)
			}
			defer snap.Close()

			entries, err := snap.LoadSnapshot()
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}
			eng.Cache().Merge(entries)

			rules, err := snap.LoadRemoteRules()
			if err != nil {
				return fmt.Errorf("loading remote rules: %w", err)
			}
			eng.SetStatusRequestRule(rules, true)
			logger.Printf("Restored %d cached entries, %d remote rules", len(entries), len(rules))
		}

		var dash *dashboard.Server
		if cfg.DashboardPort > 0 {
			dash = dashboard.NewServer(&dashboard.Config{Port: cfg.DashboardPort, Logger: logger})
			if err := dash.Start(); err != nil {
				return fmt.Errorf("starting dashboard: %w", err)
			}
			defer func() { _ = dash.Stop() }()
			dashboard.NewHandler(dash, eng, logger)
		}

		eng.Start()

		if cfg.Watch {
			w, err := watcher.New(cfg.WorkingCopy, eng.RequestStatus, logger)
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			if err := w.Start(); err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer func() { _ = w.Stop() }()
		}

		// Prime the cache with a full local tree refresh.
		if err := eng.RefreshAll(false); err != nil {
			logger.Printf("Initial refresh failed: %v", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Println("Shutting down")

		eng.Stop()

		if snap != nil {
			if err := snap.SaveSnapshot(eng.Cache().Snapshot()); err != nil {
				logger.Printf("Failed to persist snapshot: %v", err)
			}
			if err := snap.SaveRemoteRules(eng.RemoteRules()); err != nil {
				logger.Printf("Failed to persist remote rules: %v", err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
