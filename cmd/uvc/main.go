// Command uvc is the headless companion to the editor integration: it
// runs the status synchronization daemon and exposes one-shot versions
// of the engine's operations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KingArtGames/uversioncontrol/internal/config"
	"github.com/KingArtGames/uversioncontrol/internal/engine"
	"github.com/KingArtGames/uversioncontrol/internal/svn"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "uvc",
	Short: "Version control status synchronization for editor working copies",
	Long: `uvc keeps an editor's view of Subversion status fresh without
blocking interactive use. A background loop batches and deduplicates
status queries; mutating operations (commit, update, lock, ...) run
serialized against it and re-request status for their paths.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "uvc.yaml", "configuration file")
}

// loadConfig reads the configured file, falling back to defaults when
// the default file is absent.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if configPath == "uvc.yaml" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}
	return config.Load(configPath)
}

// buildEngine constructs an engine over the configured working copy.
func buildEngine(cfg *config.Config) *engine.Engine {
	runner := svn.NewRunner(cfg.Client, cfg.WorkingCopy)

	engCfg := engine.DefaultConfig()
	engCfg.RefreshInterval = cfg.RefreshInterval()
	engCfg.MaxBatchSize = cfg.MaxBatchSize

	return engine.New(runner, engCfg)
}
