package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/config"
	"github.com/salvadalba/sunder/internal/engine"
)

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Query and rebuild the note similarity graph",
	}
	cmd.AddCommand(graphShowCmd())
	cmd.AddCommand(graphRebuildCmd())
	return cmd
}

func graphShowCmd() *cobra.Command {
	var (
		center    string
		threshold float64
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the similarity graph over all notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runGraphShow(e, center, threshold, jsonOut)
		},
	}
	cmd.Flags().StringVar(&center, "center", "", "Focal note ID (accepted, but the full graph is returned regardless)")
	cmd.Flags().Float64Var(&threshold, "threshold", config.DefaultGraphThreshold, "Minimum cached similarity to include as an edge")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runGraphShow(e *engine.Engine, center string, threshold float64, jsonOut bool) error {
	data, err := e.Graph.Graph(center, threshold)
	if err != nil {
		return err
	}

	if jsonOut {
		out, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("%d nodes, %d edges\n", len(data.Nodes), len(data.Edges))
	for _, n := range data.Nodes {
		fmt.Printf("  %s  cluster=%d  %s\n", n.ID, n.Cluster, n.Title)
	}
	for _, edge := range data.Edges {
		fmt.Printf("  %s -- %s  (%.4f)\n", edge.Source, edge.Target, edge.Weight)
	}
	return nil
}

func graphRebuildCmd() *cobra.Command {
	var noteID string
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the similarity cache for one note, or every note",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runGraphRebuild(e, noteID)
		},
	}
	cmd.Flags().StringVar(&noteID, "note", "", "Rebuild only this note's cached similarities (default: rebuild all)")
	return cmd
}

func runGraphRebuild(e *engine.Engine, noteID string) error {
	if noteID != "" {
		if err := e.Graph.RebuildForNote(noteID); err != nil {
			return err
		}
		fmt.Println("rebuilt similarity cache for", noteID)
		return nil
	}
	count, err := e.Graph.RebuildAll()
	if err != nil {
		return err
	}
	fmt.Printf("rebuilt %d cached similarity pairs\n", count)
	return nil
}
