package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KingArtGames/uversioncontrol/internal/engine"
)

var (
	commitMessage string
	forceFlag     bool
	resolveAccept string
)

// withEngine runs fn against a started engine with progress echoed to
// the terminal.
func withEngine(fn func(eng *engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng := buildEngine(cfg)
	defer eng.Close()
	eng.OnProgress(func(line string) { fmt.Println(line) })
	eng.Start()

	return fn(eng)
}

var commitCmd = &cobra.Command{
	Use:   "commit [paths...]",
	Short: "Commit the given paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Commit(args, commitMessage)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [paths...]",
	Short: "Update the given paths to the latest revision",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Update(args)
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add [paths...]",
	Short: "Schedule paths for addition",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Add(args)
		})
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert [paths...]",
	Short: "Discard local modifications",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Revert(args)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [paths...]",
	Short: "Schedule paths for deletion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Delete(args, forceFlag)
		})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock [paths...]",
	Short: "Acquire repository locks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.GetLock(args, forceFlag)
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock [paths...]",
	Short: "Release repository locks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.ReleaseLock(args)
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move or rename an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Move(args[0], args[1])
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [paths...]",
	Short: "Resolve conflicts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := engine.ResolvePolicy(resolveAccept)
		switch policy {
		case engine.ResolveOurs, engine.ResolveTheirs, engine.ResolveIgnore:
		default:
			return fmt.Errorf("invalid --accept %q: use ours, theirs, or ignore", resolveAccept)
		}
		return withEngine(func(eng *engine.Engine) error {
			return eng.Resolve(args, policy)
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Release stale working copy locks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Cleanup()
		})
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <url> <path>",
	Short: "Check out a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(eng *engine.Engine) error {
			return eng.Checkout(args[0], args[1])
		})
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	deleteCmd.Flags().BoolVar(&forceFlag, "force", false, "force the operation")
	lockCmd.Flags().BoolVar(&forceFlag, "force", false, "steal an existing lock")
	resolveCmd.Flags().StringVar(&resolveAccept, "accept", "ours", "conflict side to accept (ours, theirs, ignore)")

	rootCmd.AddCommand(commitCmd, updateCmd, addCmd, revertCmd, deleteCmd,
		lockCmd, unlockCmd, moveCmd, resolveCmd, cleanupCmd, checkoutCmd)
}
