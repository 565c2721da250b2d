// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"regexp"
)

// Marker grammar. Markers are plain text tokens embedded inline in the
// rendered Markdown documents:
//
//	[NOTE:ID]        cross-reference to a note
//	[ATTACH:TYPE:ID] cross-reference to an attachment
//
// where TYPE is an AttachmentType and ID is "YYYYMMDD-slug" or a UUID.
var (
	noteMarkerRe   = regexp.MustCompile(`\[NOTE:([A-Za-z0-9][A-Za-z0-9._-]*)\]`)
	attachMarkerRe = regexp.MustCompile(`\[ATTACH:([A-Z]+):([A-Za-z0-9][A-Za-z0-9._-]*)\]`)
)

// NoteMarker renders the inline cross-reference token for a note.
func NoteMarker(id NoteID) string {
	return fmt.Sprintf("[NOTE:%s]", id.Key())
}

// AttachmentMarker renders the inline cross-reference token for an attachment.
func AttachmentMarker(id AttachmentID) string {
	return fmt.Sprintf("[ATTACH:%s:%s]", id.Type(), id.Key())
}

// ParseNoteMarkers returns the NoteIDs referenced by [NOTE:...] tokens in
// text, in occurrence order, duplicates included.
func ParseNoteMarkers(text string) []NoteID {
	var ids []NoteID
	for _, m := range noteMarkerRe.FindAllStringSubmatch(text, -1) {
		ids = append(ids, MakeNoteID(m[1]))
	}
	return ids
}

// ParseAttachmentMarkers returns the AttachmentIDs referenced by
// [ATTACH:...] tokens in text, in occurrence order, duplicates included.
// Tokens with a TYPE outside the enumerated set are not markers and are
// ignored.
func ParseAttachmentMarkers(text string) []AttachmentID {
	var ids []AttachmentID
	for _, m := range attachMarkerRe.FindAllStringSubmatch(text, -1) {
		t := AttachmentType(m[1])
		if !ValidAttachmentType(t) {
			continue
		}
		ids = append(ids, MakeAttachmentID(t, m[2]))
	}
	return ids
}
