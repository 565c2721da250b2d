// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package split aggregates disassembled fragments into the three rendered
// documents: Summary, Raw Notes, and Attachments. Emission order follows
// the originating records' encounter order end to end. Every marker the
// splitter emits must have a resolvable target in the same run; an
// unresolved reference here is a construction bug and aborts the run
// immediately rather than waiting for validation.
package split

import (
	"fmt"

	"github.com/pdiddy/note-engine/internal/disassemble"
	"github.com/pdiddy/note-engine/pkg/types"
)

// Documents holds the three rendered documents before fingerprinting.
type Documents struct {
	Summary     string
	RawNotes    string
	Attachments string
}

// Build constructs the reference graph and renders the three documents
// from the disassembly results. It fails with types.ErrDanglingReference
// when any recorded reference lacks a target in the run.
func Build(results []disassemble.Result) (Documents, *Graph, error) {
	g := newGraph()

	// First pass: register every node so edge checks see the full run.
	for _, res := range results {
		id := res.Raw.ID
		if g.HasNote(id) {
			return Documents{}, nil, fmt.Errorf("note %s assigned twice: %w", id, types.ErrDanglingReference)
		}
		g.noteOrder = append(g.noteOrder, id)
		g.noteRefs[id] = res.Raw.AttachmentRefs
		g.summaries[id] = res.Summary != nil

		for _, att := range res.Attachments {
			if g.HasAttachment(att.ID) {
				return Documents{}, nil, fmt.Errorf("attachment %s assigned twice: %w", att.ID, types.ErrDanglingReference)
			}
			g.attachOrder = append(g.attachOrder, att.ID)
			g.origin[att.ID] = att.OriginNote
		}
	}

	// Second pass: every edge must resolve before anything renders.
	for _, res := range results {
		for _, ref := range res.Raw.AttachmentRefs {
			if !g.HasAttachment(ref) {
				return Documents{}, nil, fmt.Errorf("note %s references unknown attachment %s: %w", res.Raw.ID, ref, types.ErrDanglingReference)
			}
		}
		for _, ref := range res.Raw.NoteRefs {
			if !g.HasNote(ref) {
				return Documents{}, nil, fmt.Errorf("note %s references unknown note %s: %w", res.Raw.ID, ref, types.ErrDanglingReference)
			}
		}
		if res.Summary != nil {
			for _, ref := range res.Summary.AttachmentRefs {
				if !g.HasAttachment(ref) {
					return Documents{}, nil, fmt.Errorf("summary %s references unknown attachment %s: %w", res.Summary.ID, ref, types.ErrDanglingReference)
				}
			}
		}
		for _, att := range res.Attachments {
			if !g.HasNote(att.OriginNote) {
				return Documents{}, nil, fmt.Errorf("attachment %s originates from unknown note %s: %w", att.ID, att.OriginNote, types.ErrDanglingReference)
			}
		}
	}

	docs := Documents{
		Summary:     renderSummary(results),
		RawNotes:    renderRawNotes(results),
		Attachments: renderAttachments(results),
	}
	return docs, g, nil
}

// Collect flattens the disassembly results into fragment and attachment
// slices in encounter order, the shape the fingerprint and the validator
// consume.
func Collect(results []disassemble.Result) ([]types.Fragment, []types.AttachmentRecord) {
	var (
		frags []types.Fragment
		atts  []types.AttachmentRecord
	)
	for _, res := range results {
		frags = append(frags, res.Raw)
		if res.Summary != nil {
			frags = append(frags, *res.Summary)
		}
		atts = append(atts, res.Attachments...)
	}
	return frags, atts
}
