package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/config"
	"github.com/salvadalba/sunder/internal/engine"
)

func linksCmd() *cobra.Command {
	var (
		noteID    string
		threshold float64
		limit     int
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "links [content]",
		Short: "Find latent links: notes whose embedding is close to some content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runLinks(e, args[0], noteID, threshold, limit, jsonOut)
		},
	}
	cmd.Flags().StringVar(&noteID, "exclude", "", "Note ID to exclude from results (the note the content came from)")
	cmd.Flags().Float64Var(&threshold, "threshold", config.DefaultLinksThreshold, "Minimum cosine similarity")
	cmd.Flags().IntVar(&limit, "limit", config.DefaultLinksLimit, "Maximum number of links")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runLinks(e *engine.Engine, content, excludeNoteID string, threshold float64, limit int, jsonOut bool) error {
	links, err := e.Linker.LatentLinks(content, excludeNoteID, threshold, limit)
	if err != nil {
		return err
	}

	if jsonOut {
		data, _ := json.MarshalIndent(links, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	if len(links) == 0 {
		fmt.Println("No latent links found.")
		return nil
	}
	for _, l := range links {
		fmt.Printf("%.4f  %s  (%s)\n", l.Similarity, l.Title, l.NoteID)
		if l.Snippet != "" {
			fmt.Printf("  %s\n", l.Snippet)
		}
	}
	return nil
}
