// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package commit is the pipeline's finalizer. A validated candidate
// OutputSet atomically replaces the previously committed one; an invalid
// candidate is discarded with the prior commit left byte-identical.
// Either way the run report is persisted for inspection. Replacement uses
// write-new-then-rename-over-old so a crash mid-write never leaves a
// half-written document visible; concurrent readers of the committed set
// only ever see whole files.
package commit

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/note-engine/pkg/types"
)

// Committed document filenames under the output directory.
const (
	SummaryFile     = "summary.md"
	RawNotesFile    = "raw-notes.md"
	AttachmentsFile = "attachments.md"
	ReportFile      = "run-report.yaml"
)

// Finalizer owns the committed OutputSet on disk. Single writer; callers
// serialize runs externally.
type Finalizer struct {
	dir string
}

// New returns a Finalizer rooted at dir, creating it if needed.
func New(dir string) (*Finalizer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Finalizer{dir: dir}, nil
}

// Dir returns the output directory.
func (f *Finalizer) Dir() string {
	return f.dir
}

// Finalize decides the run's terminal state from the validation findings
// already recorded in report. Valid: the candidate replaces the committed
// set and the status becomes committed. Invalid: the committed set is
// untouched and the status becomes rejected, with reasons filled in.
// The run report is persisted in both cases.
func (f *Finalizer) Finalize(set types.OutputSet, report *types.RunReport) error {
	if !report.Validation.Valid {
		report.Status = types.StatusRejected
		report.Reasons = append(report.Reasons, rejectionReasons(report.Validation)...)
		if err := f.writeReport(report); err != nil {
			return fmt.Errorf("persisting rejection report: %w", err)
		}
		return nil
	}

	// Stage all three documents before renaming any, so a write failure
	// aborts with the previous commit fully intact.
	docs := []struct {
		name    string
		content string
	}{
		{SummaryFile, set.Summary},
		{RawNotesFile, set.RawNotes},
		{AttachmentsFile, set.Attachments},
	}

	tmps := make([]string, len(docs))
	for i, d := range docs {
		tmp, err := stage(f.dir, d.name, []byte(d.content))
		if err != nil {
			removeAll(tmps[:i])
			return fmt.Errorf("staging %s: %w", d.name, err)
		}
		tmps[i] = tmp
	}

	for i, d := range docs {
		if err := os.Rename(tmps[i], filepath.Join(f.dir, d.name)); err != nil {
			removeAll(tmps[i:])
			return fmt.Errorf("committing %s: %w", d.name, err)
		}
	}
	syncDir(f.dir)

	report.Status = types.StatusCommitted
	if err := f.writeReport(report); err != nil {
		return fmt.Errorf("persisting run report: %w", err)
	}
	return nil
}

// LoadReport reads the most recent run report, or nil when none exists.
func (f *Finalizer) LoadReport() (*types.RunReport, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, ReportFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var report types.RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing run report: %w", err)
	}
	return &report, nil
}

// LoadSet reads the committed OutputSet's documents. Missing files read
// as empty strings; the fingerprint comes from the last report.
func (f *Finalizer) LoadSet() (types.OutputSet, error) {
	var set types.OutputSet
	for name, dst := range map[string]*string{
		SummaryFile:     &set.Summary,
		RawNotesFile:    &set.RawNotes,
		AttachmentsFile: &set.Attachments,
	} {
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return types.OutputSet{}, fmt.Errorf("reading %s: %w", name, err)
		}
		*dst = string(data)
	}
	if report, err := f.LoadReport(); err == nil && report != nil {
		set.Fingerprint = report.Fingerprint
	}
	return set, nil
}

func (f *Finalizer) writeReport(report *types.RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	tmp, err := stage(f.dir, ReportFile, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(f.dir, ReportFile)); err != nil {
		os.Remove(tmp)
		return err
	}
	syncDir(f.dir)
	return nil
}

// stage writes content to a temp file in dir, fsynced, and returns its path.
func stage(dir, name string, content []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// syncDir best-effort fsyncs the directory so renames persist across a
// crash.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	d.Sync()
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}

func rejectionReasons(v types.ValidationReport) []string {
	var reasons []string
	if len(v.DanglingRefs) > 0 {
		reasons = append(reasons, fmt.Sprintf("%v: %d unresolved marker(s)", types.ErrDanglingReference, len(v.DanglingRefs)))
	}
	if len(v.OrphanedIDs) > 0 {
		reasons = append(reasons, fmt.Sprintf("%v: %d id(s) never rendered", types.ErrOrphanedContent, len(v.OrphanedIDs)))
	}
	if !v.ContentPreserved() {
		reasons = append(reasons, fmt.Sprintf("%v: fingerprint mismatch", types.ErrContentLoss))
	}
	return reasons
}
