// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one consolidation run end to end:
// ingest, identify, disassemble, split, validate, finalize. Phases run
// strictly in sequence; each consumes the previous phase's output as an
// immutable value. A run is a single logical transaction: it terminates
// either committed (with per-record skips listed) or rejected (with
// reasons listed), never as a silent partial write.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/note-engine/internal/commit"
	"github.com/pdiddy/note-engine/internal/disassemble"
	"github.com/pdiddy/note-engine/internal/identify"
	"github.com/pdiddy/note-engine/internal/ingest"
	"github.com/pdiddy/note-engine/internal/split"
	"github.com/pdiddy/note-engine/internal/validate"
	"github.com/pdiddy/note-engine/pkg/types"
)

// Pipeline wires the stages for repeated runs over one configuration.
type Pipeline struct {
	cfg       types.PipelineConfig
	registry  *ingest.Registry
	condenser disassemble.Condenser
}

// New builds a Pipeline. A nil registry gets the built-in handlers; a nil
// condenser gets the excerpt heuristic.
func New(cfg types.PipelineConfig, registry *ingest.Registry, condenser disassemble.Condenser) *Pipeline {
	if registry == nil {
		registry = ingest.NewRegistry(cfg.Ingest)
	}
	if condenser == nil {
		condenser = &disassemble.ExcerptCondenser{Meter: disassemble.NewMeter()}
	}
	return &Pipeline{cfg: cfg, registry: registry, condenser: condenser}
}

// Run executes one consolidation run, printing progress to w, and returns
// the persisted run report. An error return means the run could not reach
// a terminal state at all (bad configuration, cancelled context, output
// directory unusable); every other outcome, including rejection, is
// reported through the RunReport.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (*types.RunReport, error) {
	finalizer, err := commit.New(p.cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	report := &types.RunReport{StartedAt: time.Now().UTC()}

	ingested, err := ingest.Run(ctx, p.cfg.InputDir, p.registry, p.cfg.Ingest, w)
	if err != nil {
		return nil, err
	}
	report.Skipped = ingested.Skipped
	report.IngestStats = ingested.Stats

	assignments, err := identify.Assign(ingested.Records)
	if err != nil {
		return p.reject(finalizer, report, w, err)
	}

	results, err := disassemble.DisassembleAll(ctx, ingested.Records, assignments, p.condenser, p.cfg.Disassemble)
	if err != nil {
		return p.reject(finalizer, report, w, err)
	}

	docs, graph, err := split.Build(results)
	if err != nil {
		return p.reject(finalizer, report, w, err)
	}

	fragments, attachments := split.Collect(results)
	candidate := types.OutputSet{
		Summary:     docs.Summary,
		RawNotes:    docs.RawNotes,
		Attachments: docs.Attachments,
		Fingerprint: validate.Fingerprint(fragments, attachments),
	}

	report.Fingerprint = candidate.Fingerprint
	report.Notes = len(graph.Notes())
	report.Attachments = len(graph.Attachments())
	report.Validation = validate.Run(candidate, graph)

	if err := finalizer.Finalize(candidate, report); err != nil {
		return nil, err
	}

	p.printOutcome(report, w)
	return report, nil
}

// reject records a whole-run failure: the candidate is discarded before
// validation, the previous commit stays untouched, and the reason is
// persisted in the run report.
func (p *Pipeline) reject(finalizer *commit.Finalizer, report *types.RunReport, w io.Writer, cause error) (*types.RunReport, error) {
	report.Validation.Valid = false
	report.Reasons = append(report.Reasons, cause.Error())
	if err := finalizer.Finalize(types.OutputSet{}, report); err != nil {
		return nil, err
	}

	p.printOutcome(report, w)

	// Bad input and construction bugs surface as errors too, so callers
	// exit non-zero; the report still records the terminal state.
	return report, cause
}

func (p *Pipeline) printOutcome(report *types.RunReport, w io.Writer) {
	switch report.Status {
	case types.StatusCommitted:
		fmt.Fprintf(w, "\ncommitted: %d note(s), %d attachment(s), %d record(s) skipped\n",
			report.Notes, report.Attachments, len(report.Skipped))
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "  skipped %s: %s\n", s.SourcePath, s.Reason)
		}
	case types.StatusRejected:
		fmt.Fprintf(w, "\nrejected: previous commit preserved\n")
		for _, r := range report.Reasons {
			fmt.Fprintf(w, "  reason: %s\n", r)
		}
	}
}
