// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest is the extraction boundary: it scans the input
// directory, dispatches per-format handlers, and produces the ordered
// SourceRecord sequence the pipeline consumes. Extraction is independent
// per record and runs on a worker pool; results are gathered back into
// encounter order before anything downstream sees them. A record that
// fails or times out is excluded and reported, never fatal to the run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/pdiddy/note-engine/pkg/types"
)

// defaultInclude selects the formats the built-in handlers understand.
var defaultInclude = []string{
	"**.md", "**.txt", "**.pdf",
	"**.jpg", "**.jpeg", "**.png", "**.gif", "**.heic",
}

// Handler extracts one input file into a normalized SourceRecord.
type Handler interface {
	// Name identifies the handler in stats and error messages.
	Name() string

	// Extract reads the file at path and returns its normalized record.
	Extract(ctx context.Context, path string) (types.SourceRecord, error)
}

// Registry dispatches files to handlers by extension.
type Registry struct {
	byExt map[string]Handler
}

// NewRegistry wires the built-in handlers: markdown/text, image metadata,
// and PDF text extraction.
func NewRegistry(cfg types.IngestConfig) *Registry {
	text := &textHandler{}
	image := &imageHandler{}
	pdf := newPDFHandler(cfg.UnidocLicenseKey)

	return &Registry{byExt: map[string]Handler{
		".md":   text,
		".txt":  text,
		".pdf":  pdf,
		".jpg":  image,
		".jpeg": image,
		".png":  image,
		".gif":  image,
		".heic": image,
	}}
}

// Register adds or replaces the handler for an extension (with leading
// dot).
func (r *Registry) Register(ext string, h Handler) {
	r.byExt[strings.ToLower(ext)] = h
}

// HandlerFor returns the handler for path, or nil when the file type is
// unsupported.
func (r *Registry) HandlerFor(path string) Handler {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// Result is the ordered outcome of one ingest run.
type Result struct {
	// Records holds the successfully extracted records in encounter order.
	Records []types.SourceRecord

	// Skipped lists files excluded from the run, with reasons.
	Skipped []types.RecordFailure

	// Stats breaks outcomes down per file extension.
	Stats map[string]types.ExtensionStats
}

// HasFailures reports whether any file was excluded.
func (r Result) HasFailures() bool {
	return len(r.Skipped) > 0
}

// Scan lists the input files selected by the include/exclude patterns,
// sorted lexically by relative path so encounter order is reproducible.
func Scan(inputDir string, cfg types.IngestConfig) ([]string, error) {
	include := cfg.Include
	if len(include) == 0 {
		include = defaultInclude
	}
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	exc, err := compileGlobs(cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchAny(inc, rel) && !matchAny(exc, rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", inputDir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Run extracts every selected file through the registry, printing
// per-file status to w. Workers run in parallel; output keeps the scan's
// encounter order.
func Run(ctx context.Context, inputDir string, reg *Registry, cfg types.IngestConfig, w io.Writer) (Result, error) {
	paths, err := Scan(inputDir, cfg)
	if err != nil {
		return Result{}, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	slots := make([]slot, len(paths))

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] = extractOne(ctx, filepath.Join(inputDir, paths[i]), reg, timeout)
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Gather back into encounter order.
	res := Result{Stats: make(map[string]types.ExtensionStats)}
	for i, s := range slots {
		ext := strings.ToLower(filepath.Ext(paths[i]))
		st := res.Stats[ext]
		st.Total++
		if s.failure != nil {
			if s.failure.Reason == "unsupported" {
				st.Skipped++
			} else {
				st.Failed++
			}
			res.Skipped = append(res.Skipped, *s.failure)
			fmt.Fprintf(w, "skipped %s (%s: %s)\n", paths[i], s.failure.Reason, s.failure.Detail)
		} else {
			st.OK++
			res.Records = append(res.Records, s.record)
			fmt.Fprintf(w, "extracted %s (%d attachment(s))\n", paths[i], len(s.record.Attachments))
		}
		res.Stats[ext] = st
	}

	fmt.Fprintf(w, "\ningested %d of %d file(s), %d skipped\n",
		len(res.Records), len(paths), len(res.Skipped))
	return res, nil
}

// slot is one gather position: either an extracted record or a failure.
type slot struct {
	record  types.SourceRecord
	failure *types.RecordFailure
}

// extractOne runs a single handler under the per-record timeout. A
// timed-out extraction is isolated: the worker moves on and the stale
// handler result, if it ever arrives, is dropped.
func extractOne(ctx context.Context, path string, reg *Registry, timeout time.Duration) (s slot) {
	h := reg.HandlerFor(path)
	if h == nil {
		s.failure = &types.RecordFailure{SourcePath: path, Reason: "unsupported", Detail: "no handler for file type"}
		return s
	}

	recCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		record types.SourceRecord
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		rec, err := h.Extract(recCtx, path)
		done <- outcome{rec, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			reason := "extraction"
			if errors.Is(out.err, context.DeadlineExceeded) {
				reason = "timeout"
			}
			s.failure = &types.RecordFailure{SourcePath: path, Reason: reason, Detail: out.err.Error()}
			return s
		}
		s.record = out.record
		return s
	case <-recCtx.Done():
		s.failure = &types.RecordFailure{SourcePath: path, Reason: "timeout", Detail: recCtx.Err().Error()}
		return s
	}
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}
