// Package main is the entrypoint for the sunder CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/config"
	"github.com/salvadalba/sunder/internal/engine"
	"github.com/salvadalba/sunder/internal/logging"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "sunder",
		Short: "A local-first personal knowledge base",
		Long: `sunder stores notes on disk, indexes them for lexical and semantic
search, tracks latent links between them, and watches a directory for
changes.

Quick Start:
  sunder scan ~/notes     Import a directory of markdown notes
  sunder watch ~/notes    Watch a directory and keep it indexed
  sunder search "query"   Search your notes`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config.toml (overrides auto-detect)")

	root.AddCommand(noteCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(linksCmd())
	root.AddCommand(graphCmd())
	root.AddCommand(settingsCmd())
	root.AddCommand(reindexCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openEngine loads config and wires a full Engine, used by every
// subcommand that touches the store.
func openEngine() (*engine.Engine, error) {
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadConfigFrom(cfgPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: logging.Level(cfg.Log.Level), JSON: cfg.Log.JSON})
	return engine.New(cfg)
}
