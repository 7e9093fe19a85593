package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/engine"
)

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed every note from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runReindex(e)
		},
	}
}

func runReindex(e *engine.Engine) error {
	count, err := e.Indexer.ReindexAll(func(indexed, total int, title string) {
		fmt.Printf("\r[%d/%d] %s", indexed, total, title)
	})
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Printf("reindexed %d notes\n", count)
	return nil
}
