// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate performs the integrity checks over a candidate
// OutputSet: reference closure and content preservation. Both checks work
// from the rendered documents, independently of the splitter's
// bookkeeping; the reference graph supplies only the set of assigned ids.
// Findings go into a structured report — disposition is the finalizer's
// call, never this package's.
package validate

import (
	"sort"

	"github.com/pdiddy/note-engine/internal/split"
	"github.com/pdiddy/note-engine/pkg/types"
)

// Run checks the candidate OutputSet against the run's reference graph.
// set.Fingerprint must hold the fingerprint computed over the fragment
// and attachment values before splitting.
func Run(set types.OutputSet, g *split.Graph) types.ValidationReport {
	report := types.ValidationReport{
		FingerprintWant: set.Fingerprint,
	}

	checkReferences(set, g, &report)
	report.FingerprintGot = reparsedFingerprint(set)

	report.Valid = len(report.DanglingRefs) == 0 &&
		len(report.OrphanedIDs) == 0 &&
		report.ContentPreserved()
	return report
}

// checkReferences parses every marker out of the three rendered documents
// and confirms it resolves to an assigned id, then confirms every
// assigned id has a rendered definition section somewhere.
func checkReferences(set types.OutputSet, g *split.Graph, report *types.ValidationReport) {
	dangling := make(map[string]bool)

	for _, doc := range []string{set.Summary, set.RawNotes, set.Attachments} {
		for _, id := range types.ParseNoteMarkers(doc) {
			if !g.HasNote(id) {
				dangling[string(id)] = true
			}
		}
		for _, id := range types.ParseAttachmentMarkers(doc) {
			if !g.HasAttachment(id) {
				dangling[string(id)] = true
			}
		}
	}

	// Definitions: a note's section lives in Raw Notes (and optionally
	// Summary); an attachment's section lives in Attachments.
	notesDefined := definedNotes(set.RawNotes)
	for _, s := range split.ParseSections(set.Summary) {
		if id, ok := s.NoteID(); ok {
			notesDefined[id] = true
		}
	}
	attsDefined := make(map[types.AttachmentID]bool)
	for _, s := range split.ParseSections(set.Attachments) {
		if id, ok := s.AttachmentID(); ok {
			attsDefined[id] = true
		}
	}

	var orphaned []string
	for _, id := range g.Notes() {
		if !notesDefined[id] {
			orphaned = append(orphaned, string(id))
		}
	}
	for _, id := range g.Attachments() {
		if !attsDefined[id] {
			orphaned = append(orphaned, string(id))
		}
	}

	report.DanglingRefs = sortedKeys(dangling)
	report.OrphanedIDs = orphaned
}

// reparsedFingerprint reconstructs fragments and attachment records from
// the rendered documents and fingerprints them. A mismatch with the
// pre-split fingerprint means content was lost or altered in rendering.
func reparsedFingerprint(set types.OutputSet) string {
	var (
		frags []types.Fragment
		atts  []types.AttachmentRecord
	)

	for _, s := range split.ParseSections(set.RawNotes) {
		if id, ok := s.NoteID(); ok {
			frags = append(frags, types.Fragment{ID: id, Kind: types.KindRaw, Text: s.Body})
		}
	}
	for _, s := range split.ParseSections(set.Summary) {
		if id, ok := s.NoteID(); ok {
			frags = append(frags, types.Fragment{ID: id, Kind: types.KindSummary, Text: s.Body})
		}
	}
	for _, s := range split.ParseSections(set.Attachments) {
		if id, ok := s.AttachmentID(); ok {
			atts = append(atts, types.AttachmentRecord{ID: id, Content: s.AttachmentContent()})
		}
	}

	return Fingerprint(frags, atts)
}

func definedNotes(doc string) map[types.NoteID]bool {
	defined := make(map[types.NoteID]bool)
	for _, s := range split.ParseSections(doc) {
		if id, ok := s.NoteID(); ok {
			defined[id] = true
		}
	}
	return defined
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
