// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package disassemble separates each SourceRecord into its Raw fragment,
// an optional Summary fragment, and attachment records, annotated with the
// identifiers assigned upstream. The stage produces values only; no file
// I/O happens here.
package disassemble

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/note-engine/internal/identify"
	"github.com/pdiddy/note-engine/pkg/types"
)

// attachmentTrailer prefixes the line appended to a fragment when the
// source text never mentions an attachment by name. The splitter and the
// validator both rely on every referenced attachment having an inline
// marker somewhere in the fragment.
const attachmentTrailer = "Attachments: "

// Result is the disassembly output for one record.
type Result struct {
	// Raw is the always-present verbatim fragment. Attachment references
	// in the source text are rewritten to canonical markers; nothing else
	// changes.
	Raw types.Fragment

	// Summary is the condensed fragment, nil when the record is below the
	// informativeness threshold.
	Summary *types.Fragment

	// Attachments holds one record per attachment blob, in discovery order.
	Attachments []types.AttachmentRecord
}

// Disassemble produces fragments and attachment records for one record
// and its assignment. The condenser is consulted only for records above
// the informativeness threshold; a condenser failure degrades to a
// leading excerpt rather than failing the record.
func Disassemble(ctx context.Context, rec types.SourceRecord, asg identify.Assignment, condenser Condenser, meter *Meter, cfg types.DisassembleConfig) (Result, error) {
	if len(asg.Attachments) != len(rec.Attachments) {
		return Result{}, fmt.Errorf("record %s: %d attachments, %d assigned ids", rec.SourcePath, len(rec.Attachments), len(asg.Attachments))
	}
	if cfg.MinSummaryTokens <= 0 {
		cfg.MinSummaryTokens = 70
	}
	if cfg.SummaryRatio <= 0 || cfg.SummaryRatio >= 1 {
		cfg.SummaryRatio = 0.35
	}

	text, referenced := rewriteAttachmentRefs(rec.Text, rec.Attachments, asg.Attachments)
	text = ensureTrailer(text, asg.Attachments, referenced)

	res := Result{
		Raw: types.Fragment{
			ID:             asg.Note,
			Kind:           types.KindRaw,
			Text:           text,
			AttachmentRefs: asg.Attachments,
		},
	}

	for i, blob := range rec.Attachments {
		res.Attachments = append(res.Attachments, types.AttachmentRecord{
			ID:         asg.Attachments[i],
			Type:       blob.Type,
			Title:      attachmentTitle(blob),
			Content:    attachmentContent(blob),
			OriginNote: asg.Note,
		})
	}

	srcTokens := meter.Count(rec.Text)
	if srcTokens < cfg.MinSummaryTokens {
		return res, nil
	}

	condensed, err := condenser.Condense(ctx, text, cfg.SummaryRatio)
	if err != nil || strings.TrimSpace(condensed) == "" {
		condensed = Excerpt(text, cfg.SummaryRatio, meter)
	}
	condensed = ensureTrailer(condensed, asg.Attachments, markerSet(condensed))

	res.Summary = &types.Fragment{
		ID:             asg.Note,
		Kind:           types.KindSummary,
		Text:           condensed,
		AttachmentRefs: asg.Attachments,
	}
	return res, nil
}

// DisassembleAll runs Disassemble over the full record sequence, keeping
// encounter order. Any error here is an internal invariant violation and
// aborts the run.
func DisassembleAll(ctx context.Context, records []types.SourceRecord, assignments []identify.Assignment, condenser Condenser, cfg types.DisassembleConfig) ([]Result, error) {
	if len(records) != len(assignments) {
		return nil, fmt.Errorf("%d records, %d assignments", len(records), len(assignments))
	}

	meter := NewMeter()
	out := make([]Result, 0, len(records))
	for i, rec := range records {
		res, err := Disassemble(ctx, rec, assignments[i], condenser, meter, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// rewriteAttachmentRefs replaces every in-text reference to one of the
// record's attachments with its canonical marker. Markdown links and
// images are matched on their target; bare filename mentions are matched
// afterwards. Returns the rewritten text and the set of attachment ids
// that had at least one in-text reference.
func rewriteAttachmentRefs(text string, blobs []types.AttachmentBlob, ids []types.AttachmentID) (string, map[types.AttachmentID]bool) {
	referenced := make(map[types.AttachmentID]bool)

	for i, blob := range blobs {
		marker := types.AttachmentMarker(ids[i])

		for _, target := range linkTargets(blob) {
			if target == "" {
				continue
			}
			re := regexp.MustCompile(`!?\[[^\]]*\]\(\s*` + regexp.QuoteMeta(target) + `\s*\)`)
			if re.MatchString(text) {
				text = re.ReplaceAllString(text, marker)
				referenced[ids[i]] = true
			}
		}

		// Bare filename mentions, e.g. "see photo.jpg". Guarded on both
		// sides so one attachment's name never matches inside a longer
		// one (photo.jpg inside myphoto.jpg).
		if base := filepath.Base(blob.Path); base != "" && base != "." {
			var hit bool
			text, hit = replaceBareMentions(text, base, marker)
			if hit {
				referenced[ids[i]] = true
			}
		}
	}

	return text, referenced
}

// replaceBareMentions rewrites standalone occurrences of name in text to
// marker. An occurrence flanked by a filename character belongs to a
// longer name or path and is left alone.
func replaceBareMentions(text, name, marker string) (string, bool) {
	var (
		b        strings.Builder
		replaced bool
	)
	for {
		i := strings.Index(text, name)
		if i < 0 {
			b.WriteString(text)
			return b.String(), replaced
		}
		end := i + len(name)
		standalone := (i == 0 || !isFilenameChar(text[i-1])) &&
			(end == len(text) || !isFilenameChar(text[end]))
		b.WriteString(text[:i])
		if standalone {
			b.WriteString(marker)
			replaced = true
		} else {
			b.WriteString(name)
		}
		text = text[end:]
	}
}

// isFilenameChar reports whether c can appear in a filename or path
// mention: letters, digits, dot, hyphen, underscore, separator.
func isFilenameChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '.', c == '-', c == '_', c == '/':
		return true
	}
	return false
}

// linkTargets lists the path spellings an in-text link to blob may use.
func linkTargets(blob types.AttachmentBlob) []string {
	targets := []string{blob.Path, "./" + blob.Path}
	if base := filepath.Base(blob.Path); base != "." {
		targets = append(targets, base)
	}
	if blob.Title != "" && blob.Title != blob.Path {
		targets = append(targets, blob.Title)
	}
	return targets
}

// ensureTrailer appends a trailer line carrying markers for attachments
// the text never references, so every referenced_attachment_ids entry has
// an inline marker in the fragment.
func ensureTrailer(text string, ids []types.AttachmentID, referenced map[types.AttachmentID]bool) string {
	var missing []string
	for _, id := range ids {
		if !referenced[id] {
			missing = append(missing, types.AttachmentMarker(id))
		}
	}
	if len(missing) == 0 {
		return text
	}
	text = strings.TrimRight(text, "\n")
	if text != "" {
		text += "\n\n"
	}
	return text + attachmentTrailer + strings.Join(missing, " ")
}

// markerSet collects the attachment ids already present as markers in text.
func markerSet(text string) map[types.AttachmentID]bool {
	set := make(map[types.AttachmentID]bool)
	for _, id := range types.ParseAttachmentMarkers(text) {
		set[id] = true
	}
	return set
}

// attachmentTitle picks a presentable title for the attachment record.
func attachmentTitle(blob types.AttachmentBlob) string {
	if blob.Title != "" {
		return blob.Title
	}
	if base := filepath.Base(blob.Path); base != "." && base != "" {
		return base
	}
	return "untitled"
}

// attachmentContent is the record's textual content: extracted text when
// the extractor produced any, else a reference line to the stored resource.
func attachmentContent(blob types.AttachmentBlob) string {
	if blob.Content != "" {
		return blob.Content
	}
	if blob.Path != "" {
		return "Resource: " + blob.Path
	}
	return fmt.Sprintf("Embedded %s resource (%d bytes)", blob.Type, blob.Size)
}
