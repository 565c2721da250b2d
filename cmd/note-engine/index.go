// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/note-engine/internal/commit"
	"github.com/pdiddy/note-engine/internal/notesindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain and query the notes index (update, list, search)",
	Long: `Index manages the SQLite retrieval index built from the committed
output documents. Every raw note entry and attachment is indexed by its
content id with FTS5 full-text search. Use subcommands to update the
index from the latest commit, list indexed ids, or search content.`,
}

// --- update subcommand ---

var indexUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Index the committed output documents",
	Long: `Update loads the committed documents from the output directory and
replaces the index contents with them. An unchanged commit (same
fingerprint as the last indexed one) is skipped.`,
	RunE: runIndexUpdate,
}

func runIndexUpdate(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	finalizer, err := commit.New(cfg.OutputDir)
	if err != nil {
		return err
	}
	set, err := finalizer.LoadSet()
	if err != nil {
		return err
	}
	if set.RawNotes == "" {
		return fmt.Errorf("no committed documents in %s: run process first", cfg.OutputDir)
	}

	store, err := notesindex.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(context.Background(), set, os.Stdout)
	return err
}

// --- list subcommand ---

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed content ids",
	RunE:  runIndexList,
}

func runIndexList(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	store, err := notesindex.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		if e.Origin != "" {
			fmt.Fprintf(os.Stdout, "%-12s %s (from %s)\n", e.Kind, e.ID, e.Origin)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-12s %s\n", e.Kind, e.ID)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

// --- search subcommand ---

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over indexed notes and attachments",
	RunE:  runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search query required")
	}

	cfg := pipelineConfig()
	store, err := notesindex.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := store.Search(context.Background(), strings.Join(args, " "), notesindex.QueryOptions{
		Kind:       notesindex.EntryKind(kind),
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range results {
		content := strings.Join(strings.Fields(r.Content), " ")
		if len(content) > 80 {
			content = content[:77] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d %-30s %s\n", i+1, r.ID, content)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	indexListCmd.Flags().Bool("json", false, "output entries as JSON")

	indexSearchCmd.Flags().String("kind", "", "restrict to one kind: note or attachment")
	indexSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexSearchCmd.Flags().Bool("json", false, "output results as JSON")

	indexCmd.AddCommand(indexUpdateCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexSearchCmd)

	rootCmd.AddCommand(indexCmd)
}
