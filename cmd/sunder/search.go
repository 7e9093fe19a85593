package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/engine"
	"github.com/salvadalba/sunder/internal/search"
)

func searchCmd() *cobra.Command {
	var (
		mode    string
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes by hybrid, fulltext, or semantic match",
		Long: `Search notes.

Examples:
  sunder search "project decisions"
  sunder search --mode fulltext "exact phrase"
  sunder search --mode semantic "a vague recollection"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runSearch(e, strings.Join(args, " "), mode, limit, jsonOut)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "hybrid", "Search mode: hybrid, fulltext, semantic")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runSearch(e *engine.Engine, query, mode string, limit int, jsonOut bool) error {
	results, err := e.Search.Search(query, search.Mode(mode), limit)
	if err != nil {
		return err
	}

	if jsonOut {
		data, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%.4f  [%s]  %s  (%s)\n", r.Score, r.MatchType, r.Title, r.ID)
		if r.Snippet != "" {
			fmt.Printf("  %s\n", r.Snippet)
		}
	}
	return nil
}
