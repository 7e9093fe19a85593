package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salvadalba/sunder/internal/engine"
	"github.com/salvadalba/sunder/internal/noterepo"
)

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Create, read, update, delete, and list notes",
	}
	cmd.AddCommand(noteCreateCmd())
	cmd.AddCommand(noteGetCmd())
	cmd.AddCommand(noteUpdateCmd())
	cmd.AddCommand(noteDeleteCmd())
	cmd.AddCommand(noteListCmd())
	return cmd
}

func noteCreateCmd() *cobra.Command {
	var (
		title    string
		content  string
		filePath string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runNoteCreate(e, title, content, filePath, jsonOut)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Note title (required)")
	cmd.Flags().StringVar(&content, "content", "", "Note content")
	cmd.Flags().StringVar(&filePath, "file-path", "", "Source file path, if backed by a file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runNoteCreate(e *engine.Engine, title, content, filePath string, jsonOut bool) error {
	note, err := e.CreateNote(title, content, filePath)
	if err != nil {
		return err
	}
	return printNote(note, jsonOut)
}

func noteGetCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Fetch a note by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runNoteGet(e, args[0], jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runNoteGet(e *engine.Engine, id string, jsonOut bool) error {
	note, err := e.Notes.Get(id)
	if err != nil {
		return err
	}
	return printNote(note, jsonOut)
}

func noteUpdateCmd() *cobra.Command {
	var (
		title   string
		content string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a note's title and/or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			var titlePtr, contentPtr *string
			if cmd.Flags().Changed("title") {
				titlePtr = &title
			}
			if cmd.Flags().Changed("content") {
				contentPtr = &content
			}
			return runNoteUpdate(e, args[0], titlePtr, contentPtr, jsonOut)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New content")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runNoteUpdate(e *engine.Engine, id string, title, content *string, jsonOut bool) error {
	note, err := e.UpdateNote(id, title, content)
	if err != nil {
		return err
	}
	return printNote(note, jsonOut)
}

func noteDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runNoteDelete(e, args[0])
		},
	}
}

func runNoteDelete(e *engine.Engine, id string) error {
	if err := e.DeleteNote(id); err != nil {
		return err
	}
	fmt.Println("deleted", id)
	return nil
}

func noteListCmd() *cobra.Command {
	var (
		offset  int
		limit   int
		sortBy  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine()
			if err != nil {
				return err
			}
			defer e.Close()
			return runNoteList(e, offset, limit, sortBy, jsonOut)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	cmd.Flags().IntVar(&limit, "limit", 20, "Pagination limit")
	cmd.Flags().StringVar(&sortBy, "sort-by", "updated_at", "Sort field: created_at, title, updated_at")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runNoteList(e *engine.Engine, offset, limit int, sortBy string, jsonOut bool) error {
	list, err := e.Notes.List(offset, limit, sortBy)
	if err != nil {
		return err
	}
	if jsonOut {
		data, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	if len(list.Notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}
	for _, item := range list.Notes {
		fmt.Printf("%s  %s\n", item.ID, item.Title)
		if item.Snippet != "" {
			fmt.Printf("  %s\n", strings.TrimSpace(item.Snippet))
		}
	}
	fmt.Printf("\n%d of %d\n", len(list.Notes), list.Total)
	return nil
}

func printNote(note *noterepo.Note, jsonOut bool) error {
	if jsonOut {
		data, _ := json.MarshalIndent(note, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("%s  %s\n", note.ID, note.Title)
	fmt.Printf("updated: %s  words: %d\n", note.UpdatedAt, note.WordCount)
	return nil
}
