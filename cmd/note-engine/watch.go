// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/note-engine/internal/ingest"
	"github.com/pdiddy/note-engine/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the pipeline whenever the input directory changes",
	Long: `Watch runs the pipeline once, then monitors the input directory and
re-runs consolidation after filesystem changes. Bursts of events are
coalesced with a debounce window so one save triggers one run. Stop
with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	applyProcessFlags(cmd, &cfg)
	debounce, _ := cmd.Flags().GetDuration("debounce")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, nil, condenserFor(cfg.Disassemble))

	runOnce := func() {
		if _, err := p.Run(ctx, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		}
	}

	runOnce()
	fmt.Fprintf(os.Stdout, "watching %s\n", cfg.InputDir)

	err := ingest.Watch(ctx, cfg.InputDir, debounce, os.Stdout, runOnce)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	watchCmd.Flags().Duration("debounce", 2*time.Second, "quiet period before a change triggers a run")
	watchCmd.Flags().Int("workers", 0, "extraction worker pool size")
	watchCmd.Flags().String("backend", "", "condenser backend: excerpt or claude")
	watchCmd.Flags().Int("min-summary-tokens", 0, "notes shorter than this get no summary entry")
	watchCmd.Flags().Float64("summary-ratio", 0, "condense target as a fraction of source length")
	watchCmd.Flags().Duration("timeout", 0, "per-record extraction timeout")

	rootCmd.AddCommand(watchCmd)
}
