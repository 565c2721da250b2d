// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/note-engine/internal/disassemble"
	"github.com/pdiddy/note-engine/internal/split"
	"github.com/pdiddy/note-engine/pkg/types"
)

func buildCandidate(t *testing.T) (types.OutputSet, *split.Graph, []types.Fragment, []types.AttachmentRecord) {
	t.Helper()

	photo := types.MakeAttachmentID(types.AttachJPG, "20240110-photo")
	standup := types.MakeNoteID("20240110-standup")
	results := []disassemble.Result{
		{
			Raw: types.Fragment{
				ID: standup, Kind: types.KindRaw,
				Text:           "Standup notes with [ATTACH:JPG:20240110-photo] inline.",
				AttachmentRefs: []types.AttachmentID{photo},
			},
			Summary: &types.Fragment{
				ID: standup, Kind: types.KindSummary,
				Text:           "Standup summary. [ATTACH:JPG:20240110-photo]",
				AttachmentRefs: []types.AttachmentID{photo},
			},
			Attachments: []types.AttachmentRecord{{
				ID: photo, Type: types.AttachJPG, Title: "photo.jpg",
				Content: "Resource: photo.jpg", OriginNote: standup,
			}},
		},
		{
			Raw: types.Fragment{
				ID: types.MakeNoteID("scratch-deadbeef"), Kind: types.KindRaw,
				Text: "quick scratch note",
			},
		},
	}

	docs, g, err := split.Build(results)
	require.NoError(t, err)

	frags, atts := split.Collect(results)
	set := types.OutputSet{
		Summary:     docs.Summary,
		RawNotes:    docs.RawNotes,
		Attachments: docs.Attachments,
		Fingerprint: Fingerprint(frags, atts),
	}
	return set, g, frags, atts
}

func TestRunValidCandidate(t *testing.T) {
	set, g, _, _ := buildCandidate(t)

	report := Run(set, g)
	assert.True(t, report.Valid)
	assert.Empty(t, report.DanglingRefs)
	assert.Empty(t, report.OrphanedIDs)
	assert.True(t, report.ContentPreserved())
}

func TestRunValidatesHeadingShapedBodyLine(t *testing.T) {
	// A note quoting another section's heading at column 0 must still
	// round-trip and commit; the escaped rendering keeps the re-parsed
	// fingerprint in agreement with the computed one.
	other := types.MakeNoteID("20240111-planning")
	results := []disassemble.Result{
		{Raw: types.Fragment{
			ID: types.MakeNoteID("20240110-standup"), Kind: types.KindRaw,
			Text: "from yesterday's doc:\n## [NOTE:20240111-planning]\nend quote",
		}},
		{Raw: types.Fragment{ID: other, Kind: types.KindRaw, Text: "Planning doc text."}},
	}

	docs, g, err := split.Build(results)
	require.NoError(t, err)
	frags, atts := split.Collect(results)
	set := types.OutputSet{
		Summary:     docs.Summary,
		RawNotes:    docs.RawNotes,
		Attachments: docs.Attachments,
		Fingerprint: Fingerprint(frags, atts),
	}

	report := Run(set, g)
	assert.True(t, report.Valid)
	assert.Empty(t, report.DanglingRefs)
	assert.Empty(t, report.OrphanedIDs)
	assert.True(t, report.ContentPreserved())
}

func TestRunDetectsDanglingMarker(t *testing.T) {
	set, g, _, _ := buildCandidate(t)
	set.RawNotes += "\nstray reference [ATTACH:PDF:never-assigned]\n"
	// Keep the fingerprint honest for this case: the check under test is
	// reference closure, so recompute over the tampered document.
	set.Fingerprint = reparsedFingerprint(set)

	report := Run(set, g)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"PDF:never-assigned"}, report.DanglingRefs)
}

func TestRunDetectsOrphanedContent(t *testing.T) {
	set, g, _, _ := buildCandidate(t)

	// Drop the attachment's rendered section: its id is now assigned but
	// never defined.
	i := strings.Index(set.Attachments, "\n## ")
	set.Attachments = set.Attachments[:i] + "\n"
	set.Fingerprint = reparsedFingerprint(set)

	report := Run(set, g)
	assert.False(t, report.Valid)
	assert.Contains(t, report.OrphanedIDs, "JPG:20240110-photo")
}

func TestRunDetectsContentLoss(t *testing.T) {
	set, g, _, _ := buildCandidate(t)
	set.RawNotes = strings.Replace(set.RawNotes, "quick scratch note", "quick scratch", 1)

	report := Run(set, g)
	assert.False(t, report.Valid)
	assert.False(t, report.ContentPreserved())
	assert.NotEqual(t, report.FingerprintWant, report.FingerprintGot)
}

func TestFingerprintOrderIndependent(t *testing.T) {
	_, _, frags, atts := buildCandidate(t)

	fp1 := Fingerprint(frags, atts)

	reversed := make([]types.Fragment, len(frags))
	for i, f := range frags {
		reversed[len(frags)-1-i] = f
	}
	fp2 := Fingerprint(reversed, atts)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintSensitiveToContent(t *testing.T) {
	_, _, frags, atts := buildCandidate(t)

	fp1 := Fingerprint(frags, atts)
	frags[0].Text += " tampered"
	fp2 := Fingerprint(frags, atts)
	assert.NotEqual(t, fp1, fp2)

	// Losing an item changes it too.
	fp3 := Fingerprint(frags[:len(frags)-1], atts)
	assert.NotEqual(t, fp2, fp3)
}

func TestFingerprintDuplicateDetected(t *testing.T) {
	_, _, frags, atts := buildCandidate(t)

	fp1 := Fingerprint(frags, atts)
	fp2 := Fingerprint(append(frags, frags[0]), atts)
	assert.NotEqual(t, fp1, fp2)
}
