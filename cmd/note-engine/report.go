// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/note-engine/internal/commit"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the run report of the most recent pipeline run",
	Long: `Report prints the persisted run report from the output directory:
status, counts, skipped records, and the validation outcome. A rejected
run's report explains why the previous commit was preserved.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	finalizer, err := commit.New(cfg.OutputDir)
	if err != nil {
		return err
	}
	report, err := finalizer.LoadReport()
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("no run report in %s: run process first", cfg.OutputDir)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

func init() {
	reportCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(reportCmd)
}
