package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KingArtGames/uversioncontrol/internal/status"
	"github.com/KingArtGames/uversioncontrol/internal/svn"
)

var statusRemote bool

var statusCmd = &cobra.Command{
	Use:   "status [paths...]",
	Short: "Show working copy status",
	Long: `Query and print status for the given paths, or the whole working
copy when no paths are given. --remote includes a server round-trip,
reporting out-of-date files and locks held by others.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng := buildEngine(cfg)
		defer eng.Close()
		eng.Start()

		if len(args) == 0 {
			if err := eng.RefreshAll(statusRemote); err != nil {
				return err
			}
		} else {
			if statusRemote {
				eng.RequestStatusRemote(args)
			} else {
				eng.RequestStatus(args)
			}
			eng.FlushNow()
		}

		paths := eng.GetFilteredAssets(func(e status.Entry) bool {
			return e.Status != status.StatusNormal && e.Status != status.StatusNone
		})
		sort.Strings(paths)

		for _, path := range paths {
			entry := eng.GetAssetStatus(path)
			line := fmt.Sprintf("%-12s %s", entry.Status, path)
			if entry.RemoteStatus == status.StatusModified {
				line += "  (out of date)"
			}
			if entry.LockedByOther {
				line += fmt.Sprintf("  [locked by %s]", entry.LockOwner)
			}
			fmt.Println(line)
		}
		if len(paths) == 0 {
			fmt.Println("Working copy clean")
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show client binary and configuration info",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runner := svn.NewRunner(cfg.Client, cfg.WorkingCopy)
		if err := runner.LookPath(); err != nil {
			return err
		}

		version, err := runner.Version(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Client:       %s (%s)\n", cfg.Client, version)
		fmt.Printf("Working copy: %s\n", cfg.WorkingCopy)
		fmt.Printf("Refresh:      %v, batch size %d\n", cfg.RefreshInterval(), cfg.MaxBatchSize)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusRemote, "remote", "u", false, "include server round-trip")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(infoCmd)
}
