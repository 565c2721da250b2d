// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/note-engine/internal/disassemble"
	"github.com/pdiddy/note-engine/internal/pipeline"
	"github.com/pdiddy/note-engine/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the consolidation pipeline once",
	Long: `Process scans the input directory, extracts every supported file into
source records, assigns content ids, disassembles records into summary
and raw fragments plus attachments, and renders the three output
documents. The candidate output is validated for reference closure and
content preservation; only a valid candidate replaces the previous
commit.`,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	applyProcessFlags(cmd, &cfg)

	p := pipeline.New(cfg, nil, condenserFor(cfg.Disassemble))
	report, err := p.Run(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if report.Status == types.StatusRejected {
		return fmt.Errorf("run rejected: previous commit preserved")
	}
	return nil
}

// condenserFor picks the summarization backend. The claude backend needs
// an API key; without one the local excerpt heuristic is used.
func condenserFor(cfg types.DisassembleConfig) disassemble.Condenser {
	if cfg.Backend == types.CondenserClaude && cfg.APIKey != "" {
		return disassemble.NewClaudeCondenser(cfg.AIConfig)
	}
	if cfg.Backend == types.CondenserClaude {
		fmt.Fprintln(os.Stderr, "warning: no anthropic-api-key available, using excerpt condenser")
	}
	return &disassemble.ExcerptCondenser{Meter: disassemble.NewMeter()}
}

func applyProcessFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	if cmd.Flags().Changed("workers") {
		cfg.Ingest.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("backend") {
		backend, _ := cmd.Flags().GetString("backend")
		cfg.Disassemble.Backend = types.CondenserBackend(backend)
	}
	if cmd.Flags().Changed("min-summary-tokens") {
		cfg.Disassemble.MinSummaryTokens, _ = cmd.Flags().GetInt("min-summary-tokens")
	}
	if cmd.Flags().Changed("summary-ratio") {
		cfg.Disassemble.SummaryRatio, _ = cmd.Flags().GetFloat64("summary-ratio")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Ingest.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
}

func init() {
	processCmd.Flags().Int("workers", 0, "extraction worker pool size")
	processCmd.Flags().String("backend", "", "condenser backend: excerpt or claude")
	processCmd.Flags().Int("min-summary-tokens", 0, "notes shorter than this get no summary entry")
	processCmd.Flags().Float64("summary-ratio", 0, "condense target as a fraction of source length")
	processCmd.Flags().Duration("timeout", 0, "per-record extraction timeout")

	rootCmd.AddCommand(processCmd)
}
