// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/note-engine/internal/commit"
	"github.com/pdiddy/note-engine/internal/ingest"
	"github.com/pdiddy/note-engine/pkg/types"
)

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scenarioConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	return types.PipelineConfig{
		InputDir:  filepath.Join(t.TempDir(), "in"),
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Disassemble: types.DisassembleConfig{
			MinSummaryTokens: 30,
			SummaryRatio:     0.35,
		},
	}
}

// setupScenario writes the three-record corpus: a dated standup note with
// an embedded image reference, a dated meeting doc, and an undated
// scratch note too short to summarize.
func setupScenario(t *testing.T, inputDir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(inputDir, 0o755))

	writeInput(t, inputDir, "photo.jpg", "jpegbytes")
	writeInput(t, inputDir, "20240110-standup.md",
		"# Standup\n\nDiscussed the rollout plan at length and assigned owners for every workstream. "+
			"The dependency graph from the whiteboard session is captured in ![whiteboard](photo.jpg). "+
			"Follow-ups are due before the next session on Friday.\n")
	writeInput(t, inputDir, "20240111-planning.md",
		"# Planning\n\nQuarterly planning covered hiring, the migration timeline, and budget asks. "+
			"Each team presented capacity estimates and flagged risks that need executive attention. "+
			"Decisions were recorded and owners assigned for every open question raised.\n")
	writeInput(t, inputDir, "scratch.txt", "todo: check the logs")
}

func TestRunThreeRecordScenario(t *testing.T) {
	cfg := scenarioConfig(t)
	setupScenario(t, cfg.InputDir)

	var buf bytes.Buffer
	report, err := New(cfg, nil, nil).Run(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, types.StatusCommitted, report.Status)

	// The standalone photo.jpg also ingests as an image record.
	assert.Equal(t, 4, report.Notes)
	assert.True(t, report.Validation.Valid)

	f, err := commit.New(cfg.OutputDir)
	require.NoError(t, err)
	set, err := f.LoadSet()
	require.NoError(t, err)

	// Raw Notes: every record, each with its own [NOTE:...] section.
	assert.Contains(t, set.RawNotes, "## [NOTE:20240110-standup]")
	assert.Contains(t, set.RawNotes, "## [NOTE:20240111-planning]")
	assert.Contains(t, set.RawNotes, "## [NOTE:scratch-")

	// Summary: the scratch note is below the threshold and excluded.
	assert.Contains(t, set.Summary, "## [NOTE:20240110-standup]")
	assert.Contains(t, set.Summary, "## [NOTE:20240111-planning]")
	assert.NotContains(t, set.Summary, "scratch-")

	// The standup raw entry references the photo by marker, and the
	// Attachments document defines the same id.
	assert.Contains(t, set.RawNotes, "[ATTACH:JPG:20240110-")
	marker := set.RawNotes[strings.Index(set.RawNotes, "[ATTACH:JPG:20240110-"):]
	marker = marker[:strings.Index(marker, "]")+1]
	assert.Contains(t, set.Attachments, "## "+marker)
	assert.Contains(t, set.Attachments, "- note: [NOTE:20240110-standup]")
}

func TestRunIdempotent(t *testing.T) {
	cfg := scenarioConfig(t)
	setupScenario(t, cfg.InputDir)

	p := New(cfg, nil, nil)
	first, err := p.Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	f, err := commit.New(cfg.OutputDir)
	require.NoError(t, err)
	before, err := f.LoadSet()
	require.NoError(t, err)

	second, err := p.Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	after, err := f.LoadSet()
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, before.Summary, after.Summary)
	assert.Equal(t, before.RawNotes, after.RawNotes)
	assert.Equal(t, before.Attachments, after.Attachments)
}

// stallHandler blocks until its per-record deadline.
type stallHandler struct{}

func (h *stallHandler) Name() string { return "stall" }

func (h *stallHandler) Extract(ctx context.Context, path string) (types.SourceRecord, error) {
	<-ctx.Done()
	return types.SourceRecord{}, ctx.Err()
}

func TestRunTimedOutRecordDoesNotBlockCommit(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Ingest.Include = []string{"**.md", "**.txt", "**.jpg", "**.stall"}
	cfg.Ingest.Timeout = 50 * time.Millisecond
	setupScenario(t, cfg.InputDir)
	writeInput(t, cfg.InputDir, "hang.stall", "x")

	reg := ingest.NewRegistry(cfg.Ingest)
	reg.Register(".stall", &stallHandler{})

	report, err := New(cfg, reg, nil).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCommitted, report.Status)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "timeout", report.Skipped[0].Reason)
	assert.Contains(t, report.Skipped[0].SourcePath, "hang.stall")
	assert.Equal(t, 4, report.Notes, "the other records still commit")
}

func TestRunPersistsReport(t *testing.T) {
	cfg := scenarioConfig(t)
	setupScenario(t, cfg.InputDir)

	_, err := New(cfg, nil, nil).Run(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	f, err := commit.New(cfg.OutputDir)
	require.NoError(t, err)
	report, err := f.LoadReport()
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, types.StatusCommitted, report.Status)
	assert.NotEmpty(t, report.Fingerprint)
	assert.NotEmpty(t, report.IngestStats)
}
