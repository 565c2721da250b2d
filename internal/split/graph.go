// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import "github.com/pdiddy/note-engine/pkg/types"

// Graph is the run's cross-reference structure: fragments and attachments
// as nodes, markers as edges. The splitter builds it once from the
// disassembly results; the validator walks it instead of re-deriving
// relationships from bookkeeping.
type Graph struct {
	noteOrder   []types.NoteID
	attachOrder []types.AttachmentID

	summaries map[types.NoteID]bool
	origin    map[types.AttachmentID]types.NoteID
	noteRefs  map[types.NoteID][]types.AttachmentID
}

func newGraph() *Graph {
	return &Graph{
		summaries: make(map[types.NoteID]bool),
		origin:    make(map[types.AttachmentID]types.NoteID),
		noteRefs:  make(map[types.NoteID][]types.AttachmentID),
	}
}

// Notes returns the run's note ids in encounter order.
func (g *Graph) Notes() []types.NoteID {
	return g.noteOrder
}

// Attachments returns the run's attachment ids in encounter order.
func (g *Graph) Attachments() []types.AttachmentID {
	return g.attachOrder
}

// HasNote reports whether id was assigned in this run.
func (g *Graph) HasNote(id types.NoteID) bool {
	_, ok := g.noteRefs[id]
	return ok
}

// HasAttachment reports whether id was assigned in this run.
func (g *Graph) HasAttachment(id types.AttachmentID) bool {
	_, ok := g.origin[id]
	return ok
}

// HasSummary reports whether the note yielded a Summary fragment.
func (g *Graph) HasSummary(id types.NoteID) bool {
	return g.summaries[id]
}

// Origin returns the note an attachment was discovered in.
func (g *Graph) Origin(id types.AttachmentID) types.NoteID {
	return g.origin[id]
}

// AttachmentEdges returns the attachment ids a note's fragments reference.
func (g *Graph) AttachmentEdges(id types.NoteID) []types.AttachmentID {
	return g.noteRefs[id]
}
