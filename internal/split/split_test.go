// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/note-engine/internal/disassemble"
	"github.com/pdiddy/note-engine/pkg/types"
)

func summaryOf(id, text string, refs ...types.AttachmentID) *types.Fragment {
	return &types.Fragment{ID: types.MakeNoteID(id), Kind: types.KindSummary, Text: text, AttachmentRefs: refs}
}

func rawOf(id, text string, refs ...types.AttachmentID) types.Fragment {
	return types.Fragment{ID: types.MakeNoteID(id), Kind: types.KindRaw, Text: text, AttachmentRefs: refs}
}

func sampleResults() []disassemble.Result {
	photo := types.MakeAttachmentID(types.AttachJPG, "20240110-photo")
	return []disassemble.Result{
		{
			Raw:     rawOf("20240110-standup", "Standup notes. [ATTACH:JPG:20240110-photo]", photo),
			Summary: summaryOf("20240110-standup", "Standup summary. [ATTACH:JPG:20240110-photo]", photo),
			Attachments: []types.AttachmentRecord{{
				ID: photo, Type: types.AttachJPG, Title: "photo.jpg",
				Content:    "Resource: photo.jpg",
				OriginNote: types.MakeNoteID("20240110-standup"),
			}},
		},
		{
			Raw:     rawOf("20240111-planning", "Planning doc text."),
			Summary: summaryOf("20240111-planning", "Planning summary."),
		},
		{
			Raw: rawOf("scratch-aabbccdd", "quick scratch"),
		},
	}
}

func TestBuildRendersThreeDocuments(t *testing.T) {
	docs, g, err := Build(sampleResults())
	require.NoError(t, err)

	// Summary: two entries, the scratch note has none.
	assert.Equal(t, 2, strings.Count(docs.Summary, "\n## "))
	assert.Contains(t, docs.Summary, "## [NOTE:20240110-standup]")
	assert.NotContains(t, docs.Summary, "scratch-aabbccdd")

	// Raw Notes: all three entries.
	assert.Equal(t, 3, strings.Count(docs.RawNotes, "\n## "))
	assert.Contains(t, docs.RawNotes, "## [NOTE:scratch-aabbccdd]")

	// Attachments: one entry with a back-reference to its note.
	assert.Equal(t, 1, strings.Count(docs.Attachments, "\n## "))
	assert.Contains(t, docs.Attachments, "## [ATTACH:JPG:20240110-photo]")
	assert.Contains(t, docs.Attachments, "- note: [NOTE:20240110-standup]")

	assert.Len(t, g.Notes(), 3)
	assert.Len(t, g.Attachments(), 1)
	assert.True(t, g.HasSummary(types.MakeNoteID("20240110-standup")))
	assert.False(t, g.HasSummary(types.MakeNoteID("scratch-aabbccdd")))
}

func TestBuildPreservesEncounterOrder(t *testing.T) {
	docs, _, err := Build(sampleResults())
	require.NoError(t, err)

	standup := strings.Index(docs.RawNotes, "[NOTE:20240110-standup]")
	planning := strings.Index(docs.RawNotes, "[NOTE:20240111-planning]")
	scratch := strings.Index(docs.RawNotes, "[NOTE:scratch-aabbccdd]")
	assert.True(t, standup < planning && planning < scratch, "raw sections must keep encounter order")
}

func TestBuildDanglingAttachmentRefFails(t *testing.T) {
	results := sampleResults()
	results[1].Raw.AttachmentRefs = []types.AttachmentID{types.MakeAttachmentID(types.AttachPDF, "nowhere")}

	_, _, err := Build(results)
	require.ErrorIs(t, err, types.ErrDanglingReference)
}

func TestBuildDanglingOriginFails(t *testing.T) {
	results := sampleResults()
	results[0].Attachments[0].OriginNote = types.MakeNoteID("missing-note")

	_, _, err := Build(results)
	require.ErrorIs(t, err, types.ErrDanglingReference)
}

func TestBuildDuplicateNoteFails(t *testing.T) {
	results := sampleResults()
	results[2].Raw.ID = results[0].Raw.ID

	_, _, err := Build(results)
	require.ErrorIs(t, err, types.ErrDanglingReference)
}

func TestParseSectionsRoundTrip(t *testing.T) {
	docs, _, err := Build(sampleResults())
	require.NoError(t, err)

	raw := ParseSections(docs.RawNotes)
	require.Len(t, raw, 3)
	id, ok := raw[0].NoteID()
	require.True(t, ok)
	assert.Equal(t, types.MakeNoteID("20240110-standup"), id)
	assert.Equal(t, "Standup notes. [ATTACH:JPG:20240110-photo]", raw[0].Body)

	atts := ParseSections(docs.Attachments)
	require.Len(t, atts, 1)
	aid, ok := atts[0].AttachmentID()
	require.True(t, ok)
	assert.Equal(t, types.MakeAttachmentID(types.AttachJPG, "20240110-photo"), aid)
	assert.Equal(t, "Resource: photo.jpg", atts[0].AttachmentContent())
}

func TestParseSectionsIgnoresMarkerShapedBodyText(t *testing.T) {
	doc := "# Raw Notes\n\n## [NOTE:a-11112222]\n\nbody mentions [NOTE:b-33334444] inline\nand a heading-like line:\n ## [NOTE:c-55556666]\n"
	sections := ParseSections(doc)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Body, "[NOTE:b-33334444]")
}

func TestHeadingShapedBodyLinesRoundTrip(t *testing.T) {
	// A body line matching the heading shape at column 0 is escaped on
	// render so it cannot open a section, and restored verbatim on parse.
	body := "quoting a section heading:\n## [NOTE:20240111-planning]\nand an escaped one:\n\\## [NOTE:20240111-planning]\ndone"
	results := []disassemble.Result{
		{Raw: rawOf("20240110-standup", body)},
		{Raw: rawOf("20240111-planning", "Planning doc text.")},
	}

	docs, _, err := Build(results)
	require.NoError(t, err)
	assert.Contains(t, docs.RawNotes, "\\## [NOTE:20240111-planning]")
	assert.Contains(t, docs.RawNotes, "\\\\## [NOTE:20240111-planning]")

	sections := ParseSections(docs.RawNotes)
	require.Len(t, sections, 2)
	assert.Equal(t, body, sections[0].Body)
	assert.Equal(t, "Planning doc text.", sections[1].Body)
}

func TestCollect(t *testing.T) {
	frags, atts := Collect(sampleResults())
	assert.Len(t, frags, 5) // 3 raw + 2 summary
	assert.Len(t, atts, 1)
}
