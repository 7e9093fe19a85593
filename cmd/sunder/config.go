package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if cfgPath != "" {
				cfg, err = config.LoadConfigFrom(cfgPath)
			} else {
				cfg, err = config.LoadConfig()
			}
			if err != nil {
				return err
			}
			return runConfigShow(cfg, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runConfigShow(cfg *config.Config, jsonOut bool) error {
	if jsonOut {
		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	fmt.Printf("database: %s\n", dbPath)
	fmt.Printf("embedding.resource_dir: %s\n", cfg.Embedding.ResourceDir)
	fmt.Printf("embedding.intra_op_threads: %d\n", cfg.Embedding.IntraOpThreads)
	fmt.Printf("log.level: %s  log.json: %v\n", cfg.Log.Level, cfg.Log.JSON)
	return nil
}
