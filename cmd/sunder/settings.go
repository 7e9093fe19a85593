package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/engine"
	"github.com/salvadalba/sunder/internal/settings"
)

type settingsPatch struct {
	threshold *float64
	debounce  *int
	theme     *string
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and update user preferences",
	}
	cmd.AddCommand(settingsGetCmd())
	cmd.AddCommand(settingsSetCmd())
	return cmd
}

func settingsGetCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runSettingsGet(e, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runSettingsGet(e *engine.Engine, jsonOut bool) error {
	s, err := e.Settings.Get()
	if err != nil {
		return err
	}
	if jsonOut {
		data, _ := json.MarshalIndent(s, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("watch_directory: %s\n", s.WatchDirectory)
	fmt.Printf("similarity_threshold: %.2f\n", s.SimilarityThreshold)
	fmt.Printf("debounce_ms: %d\n", s.DebounceMs)
	fmt.Printf("theme: %s\n", s.Theme)
	return nil
}

func settingsSetCmd() *cobra.Command {
	var (
		threshold float64
		debounce  int
		theme     string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update one or more settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			var patch settingsPatch
			if cmd.Flags().Changed("threshold") {
				patch.threshold = &threshold
			}
			if cmd.Flags().Changed("debounce-ms") {
				patch.debounce = &debounce
			}
			if cmd.Flags().Changed("theme") {
				patch.theme = &theme
			}
			return runSettingsSet(e, patch)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Similarity threshold in [0,1]")
	cmd.Flags().IntVar(&debounce, "debounce-ms", 0, "Stored debounce_ms setting in milliseconds [100,2000]; the watcher itself waits a fixed 500ms")
	cmd.Flags().StringVar(&theme, "theme", "", "UI theme: dark or light")
	return cmd
}

func runSettingsSet(e *engine.Engine, patch settingsPatch) error {
	if err := e.Settings.Update(settings.Patch{
		SimilarityThreshold: patch.threshold,
		DebounceMs:          patch.debounce,
		Theme:               patch.theme,
	}); err != nil {
		return err
	}
	fmt.Println("settings updated")
	return nil
}
