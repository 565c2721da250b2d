// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package disassemble

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/note-engine/internal/identify"
	"github.com/pdiddy/note-engine/pkg/types"
)

// fixedCondenser returns a canned response or error.
type fixedCondenser struct {
	out string
	err error
}

func (f *fixedCondenser) Condense(context.Context, string, float64) (string, error) {
	return f.out, f.err
}

func testConfig() types.DisassembleConfig {
	return types.DisassembleConfig{
		MinSummaryTokens: 10,
		SummaryRatio:     0.35,
	}
}

func standupRecord() (types.SourceRecord, identify.Assignment) {
	rec := types.SourceRecord{
		SourcePath: "20240110-standup.txt",
		Title:      "Standup",
		Text:       "Discussed the rollout plan at length. Whiteboard shot in photo.jpg captures the dependency graph. Next steps assigned to everyone present.",
		Date:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Attachments: []types.AttachmentBlob{
			{Path: "photo.jpg", Type: types.AttachJPG, Title: "photo.jpg"},
		},
	}
	asg := identify.Assignment{
		Note:        types.MakeNoteID("20240110-standup"),
		Attachments: []types.AttachmentID{types.MakeAttachmentID(types.AttachJPG, "20240110-photo")},
	}
	return rec, asg
}

func TestDisassembleRewritesAttachmentReference(t *testing.T) {
	rec, asg := standupRecord()

	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{out: "Rollout plan discussed. [ATTACH:JPG:20240110-photo]"}, NewMeter(), testConfig())
	require.NoError(t, err)

	assert.Contains(t, res.Raw.Text, "[ATTACH:JPG:20240110-photo]")
	assert.NotContains(t, res.Raw.Text, "photo.jpg")
	assert.Equal(t, []types.AttachmentID{"JPG:20240110-photo"}, res.Raw.AttachmentRefs)

	require.Len(t, res.Attachments, 1)
	assert.Equal(t, types.AttachmentID("JPG:20240110-photo"), res.Attachments[0].ID)
	assert.Equal(t, asg.Note, res.Attachments[0].OriginNote)
}

func TestDisassembleMarkdownLinkRewrite(t *testing.T) {
	rec := types.SourceRecord{
		SourcePath: "note.md",
		Title:      "Design",
		Text:       "The mockups are in ![final mockups](assets/mockups.png) for review.",
		Attachments: []types.AttachmentBlob{
			{Path: "assets/mockups.png", Type: types.AttachPNG, Title: "mockups.png"},
		},
	}
	asg := identify.Assignment{
		Note:        types.MakeNoteID("design-abcd1234"),
		Attachments: []types.AttachmentID{types.MakeAttachmentID(types.AttachPNG, "mockups-11112222")},
	}

	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{err: errors.New("down")}, NewMeter(), testConfig())
	require.NoError(t, err)
	assert.Contains(t, res.Raw.Text, "[ATTACH:PNG:mockups-11112222]")
	assert.NotContains(t, res.Raw.Text, "![final mockups]")
}

func TestDisassembleSuffixFilenamesRewriteIndependently(t *testing.T) {
	// photo.jpg is a suffix of myphoto.jpg; its bare-mention rewrite must
	// not touch the longer name or the link around it.
	rec := types.SourceRecord{
		SourcePath: "gallery.md",
		Title:      "Gallery",
		Text:       "See photo.jpg and also ![a](myphoto.jpg) here.",
		Attachments: []types.AttachmentBlob{
			{Path: "photo.jpg", Type: types.AttachJPG, Title: "photo.jpg"},
			{Path: "myphoto.jpg", Type: types.AttachJPG, Title: "myphoto.jpg"},
		},
	}
	asg := identify.Assignment{
		Note: types.MakeNoteID("gallery-abcd1234"),
		Attachments: []types.AttachmentID{
			types.MakeAttachmentID(types.AttachJPG, "photo-11111111"),
			types.MakeAttachmentID(types.AttachJPG, "myphoto-22222222"),
		},
	}

	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{err: errors.New("down")}, NewMeter(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, "See [ATTACH:JPG:photo-11111111] and also [ATTACH:JPG:myphoto-22222222] here.", res.Raw.Text)
	assert.Equal(t, asg.Attachments, res.Raw.AttachmentRefs)
}

func TestReplaceBareMentions(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		replaced bool
	}{
		{"standalone mention", "see photo.jpg now", "see M now", true},
		{"inside longer filename", "see myphoto.jpg now", "see myphoto.jpg now", false},
		{"inside a path", "in img/photo.jpg there", "in img/photo.jpg there", false},
		{"repeated mentions", "photo.jpg photo.jpg", "M M", true},
		{"at text boundaries", "photo.jpg", "M", true},
		{"punctuation neighbors", "(photo.jpg), photo.jpg!", "(M), M!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, replaced := replaceBareMentions(tt.text, "photo.jpg", "M")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.replaced, replaced)
		})
	}
}

func TestDisassembleShortNoteSkipsSummary(t *testing.T) {
	rec := types.SourceRecord{SourcePath: "scratch.txt", Title: "Scratch", Text: "todo: milk"}
	asg := identify.Assignment{Note: types.MakeNoteID("scratch-ffff0000")}

	cfg := testConfig()
	cfg.MinSummaryTokens = 50

	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{out: "should not be used"}, NewMeter(), cfg)
	require.NoError(t, err)
	assert.Nil(t, res.Summary, "below-threshold note must not yield a Summary fragment")
	assert.Equal(t, types.KindRaw, res.Raw.Kind)
	assert.Equal(t, "todo: milk", res.Raw.Text)
}

func TestDisassembleCondenserFailureFallsBackToExcerpt(t *testing.T) {
	rec, asg := standupRecord()

	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{err: errors.New("api down")}, NewMeter(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Summary)

	// The excerpt keeps leading sentences of the rewritten text.
	assert.True(t, strings.HasPrefix(res.Raw.Text, strings.Split(res.Summary.Text, "\n")[0][:20]))
	assert.Equal(t, types.KindSummary, res.Summary.Kind)
}

func TestDisassembleSummaryKeepsAttachmentMarker(t *testing.T) {
	rec, asg := standupRecord()

	// Condenser drops the marker; the trailer must restore it.
	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{out: "Rollout plan discussed, next steps assigned."}, NewMeter(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Contains(t, res.Summary.Text, "[ATTACH:JPG:20240110-photo]")
}

func TestDisassembleUnmentionedAttachmentGetsTrailer(t *testing.T) {
	rec := types.SourceRecord{
		SourcePath: "meeting.md",
		Title:      "Meeting",
		Text:       "Decisions captured below.",
		Attachments: []types.AttachmentBlob{
			{Path: "deck.pdf", Type: types.AttachPDF, Title: "deck.pdf"},
		},
	}
	// The text never names deck.pdf... except it does via bare mention
	// matching, so use a path the text cannot contain.
	rec.Attachments[0].Path = "exports/quarterly-deck.pdf"
	rec.Attachments[0].Title = "quarterly-deck.pdf"

	asg := identify.Assignment{
		Note:        types.MakeNoteID("meeting-00aa11bb"),
		Attachments: []types.AttachmentID{types.MakeAttachmentID(types.AttachPDF, "quarterly-deck-deadbeef")},
	}

	res, err := Disassemble(context.Background(), rec, asg, &fixedCondenser{}, NewMeter(), testConfig())
	require.NoError(t, err)
	assert.Contains(t, res.Raw.Text, "Attachments: [ATTACH:PDF:quarterly-deck-deadbeef]")
}

func TestExcerptRespectsRatio(t *testing.T) {
	meter := NewMeter()
	text := strings.Repeat("This is a reasonably long sentence about nothing in particular. ", 20)

	out := Excerpt(text, 0.3, meter)
	assert.NotEmpty(t, out)
	assert.Less(t, meter.Count(out), meter.Count(text)/2, "excerpt should be well under half the source")
}

func TestExcerptKeepsAtLeastOneSentence(t *testing.T) {
	out := Excerpt("Only one sentence here.", 0.05, NewMeter())
	assert.Equal(t, "Only one sentence here.", out)
}
