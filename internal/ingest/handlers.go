// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/note-engine/pkg/types"
)

// filenameDateRe matches a YYYYMMDD or YYYY-MM-DD filename prefix, the
// Bear export convention for dated notes.
var filenameDateRe = regexp.MustCompile(`^(\d{4})-?(\d{2})-?(\d{2})[-_ ]`)

// mdLinkRe matches markdown links and images; group 1 is the target.
var mdLinkRe = regexp.MustCompile(`!?\[[^\]]*\]\(\s*([^)\s]+)\s*\)`)

// tagRe matches Bear-style inline #tags.
var tagRe = regexp.MustCompile(`(?:^|\s)#([a-zA-Z][a-zA-Z0-9/_-]*)`)

// textHandler extracts markdown and plain-text notes: title from the
// first level-one heading (filename stem otherwise), date from the
// filename prefix, inline tags, and attachment references that resolve to
// files next to the note.
type textHandler struct{}

func (h *textHandler) Name() string { return "text" }

func (h *textHandler) Extract(_ context.Context, path string) (types.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.SourceRecord{}, fmt.Errorf("reading note: %w", err)
	}
	text := string(data)

	srcType := types.SourceText
	if strings.EqualFold(filepath.Ext(path), ".md") {
		srcType = types.SourceMarkdown
	}

	rec := types.SourceRecord{
		SourcePath: path,
		Type:       srcType,
		Title:      detectTitle(text, path),
		Text:       text,
		Date:       detectDate(path),
		Tags:       detectTags(text),
	}

	if srcType == types.SourceMarkdown {
		rec.Attachments = detectAttachments(text, filepath.Dir(path))
	}
	return rec, nil
}

// imageHandler ingests a standalone image as a note with no body text and
// the image itself as the single attachment. Content interpretation
// (descriptions, OCR) belongs to an external collaborator.
type imageHandler struct{}

func (h *imageHandler) Name() string { return "image" }

func (h *imageHandler) Extract(_ context.Context, path string) (types.SourceRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.SourceRecord{}, fmt.Errorf("stat image: %w", err)
	}

	base := filepath.Base(path)
	return types.SourceRecord{
		SourcePath: path,
		Type:       types.SourceImage,
		Title:      stemTitle(path),
		Date:       detectDate(path),
		Attachments: []types.AttachmentBlob{{
			Path:  base,
			Type:  types.AttachmentTypeForExt(filepath.Ext(path)),
			Title: base,
			Size:  info.Size(),
		}},
	}, nil
}

// detectTitle returns the first "# " heading, or the filename stem with
// any date prefix removed.
func detectTitle(text, path string) string {
	for _, line := range strings.Split(text, "\n") {
		if t, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return stemTitle(path)
}

// stemTitle is the filename stem with any date prefix removed.
func stemTitle(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if m := filenameDateRe.FindString(stem + "-"); m != "" && len(stem) > len(m) {
		stem = stem[len(m):]
	}
	return stem
}

// detectDate parses a YYYYMMDD or YYYY-MM-DD prefix off the filename.
func detectDate(path string) time.Time {
	base := filepath.Base(path)
	m := filenameDateRe.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("20060102", m[1]+m[2]+m[3])
	if err != nil {
		return time.Time{}
	}
	return t
}

// detectTags collects unique inline #tags in first-occurrence order.
func detectTags(text string) []string {
	var (
		tags []string
		seen = make(map[string]bool)
	)
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// detectAttachments resolves markdown link targets against the note's
// directory. Only targets that exist on disk and carry an attachment
// extension become blobs; web links and links to other notes do not.
func detectAttachments(text, noteDir string) []types.AttachmentBlob {
	var (
		blobs []types.AttachmentBlob
		seen  = make(map[string]bool)
	)
	for _, m := range mdLinkRe.FindAllStringSubmatch(text, -1) {
		target := m[1]
		if seen[target] || strings.Contains(target, "://") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(target))
		switch ext {
		case ".md", ".txt", "":
			continue
		}

		full := filepath.Join(noteDir, filepath.FromSlash(target))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}

		seen[target] = true
		blobs = append(blobs, types.AttachmentBlob{
			Path:  target,
			Type:  types.AttachmentTypeForExt(ext),
			Title: filepath.Base(target),
			Size:  info.Size(),
		})
	}
	return blobs
}
