package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/engine"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [directory]",
		Short: "Import every markdown file in a directory once, without watching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runScan(e, args[0])
		},
	}
}

func runScan(e *engine.Engine, dir string) error {
	err := e.ScanDirectory(dir, func(current, total int, path string) {
		fmt.Printf("\r[%d/%d] %s", current, total, path)
	})
	fmt.Println()
	return err
}
