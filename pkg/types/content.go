// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// AttachmentType is the fixed enumeration of attachment kinds carried in
// attachment identifiers and [ATTACH:TYPE:ID] markers.
type AttachmentType string

const (
	AttachPDF  AttachmentType = "PDF"
	AttachJPG  AttachmentType = "JPG"
	AttachPNG  AttachmentType = "PNG"
	AttachGIF  AttachmentType = "GIF"
	AttachHEIC AttachmentType = "HEIC"
	AttachDOC  AttachmentType = "DOC"
	AttachXLS  AttachmentType = "XLS"
	AttachBIN  AttachmentType = "BIN"
)

// attachmentTypes is the set of valid AttachmentType values.
var attachmentTypes = map[AttachmentType]bool{
	AttachPDF: true, AttachJPG: true, AttachPNG: true, AttachGIF: true,
	AttachHEIC: true, AttachDOC: true, AttachXLS: true, AttachBIN: true,
}

// ValidAttachmentType reports whether t is one of the enumerated types.
func ValidAttachmentType(t AttachmentType) bool {
	return attachmentTypes[t]
}

// AttachmentTypeForExt maps a file extension (with or without leading dot,
// any case) to an AttachmentType. Unknown extensions map to AttachBIN.
func AttachmentTypeForExt(ext string) AttachmentType {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return AttachPDF
	case "jpg", "jpeg":
		return AttachJPG
	case "png":
		return AttachPNG
	case "gif":
		return AttachGIF
	case "heic", "heif":
		return AttachHEIC
	case "doc", "docx", "rtf", "pages":
		return AttachDOC
	case "xls", "xlsx", "csv", "numbers":
		return AttachXLS
	default:
		return AttachBIN
	}
}

// NoteID identifies one note: its Raw fragment, its Summary counterpart,
// and the attachments originating from it. Full form "NOTE:{key}" where
// key is "YYYYMMDD-slug" for dated notes or "slug-hash8" otherwise.
// Within a run a NoteID is never reused for a different logical unit.
type NoteID string

// Key returns the id portion after the "NOTE:" prefix.
func (id NoteID) Key() string {
	return strings.TrimPrefix(string(id), "NOTE:")
}

// MakeNoteID builds a NoteID from its key.
func MakeNoteID(key string) NoteID {
	return NoteID("NOTE:" + key)
}

// AttachmentID identifies one attachment. Full form "{TYPE}:{key}" where
// TYPE is an AttachmentType and key is "YYYYMMDD-slug" or a UUID.
type AttachmentID string

// Type returns the attachment type portion of the id, or AttachBIN when
// the id is malformed.
func (id AttachmentID) Type() AttachmentType {
	s := string(id)
	if i := strings.IndexByte(s, ':'); i > 0 {
		return AttachmentType(s[:i])
	}
	return AttachBIN
}

// Key returns the id portion after the type prefix.
func (id AttachmentID) Key() string {
	s := string(id)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// MakeAttachmentID builds an AttachmentID from a type and key.
func MakeAttachmentID(t AttachmentType, key string) AttachmentID {
	return AttachmentID(string(t) + ":" + key)
}

// FragmentKind distinguishes the two fragment variants a note yields.
type FragmentKind string

const (
	KindSummary FragmentKind = "summary"
	KindRaw     FragmentKind = "raw"
)

// Fragment is one unit of note content destined for the Summary or Raw
// Notes document. A SourceRecord yields exactly one Raw fragment and zero
// or one Summary fragment.
type Fragment struct {
	// ID ties the fragment to its note. Summary and Raw variants of the
	// same note share one NoteID.
	ID NoteID `json:"id" yaml:"id"`

	// Kind is the variant: summary or raw.
	Kind FragmentKind `json:"kind" yaml:"kind"`

	// Text is the fragment content with attachment references already
	// rewritten to canonical markers.
	Text string `json:"text" yaml:"text"`

	// AttachmentRefs lists the attachments this fragment references, in
	// first-occurrence order, without duplicates.
	AttachmentRefs []AttachmentID `json:"attachment_refs,omitempty" yaml:"attachment_refs,omitempty"`

	// NoteRefs lists other notes this fragment references, in
	// first-occurrence order, without duplicates.
	NoteRefs []NoteID `json:"note_refs,omitempty" yaml:"note_refs,omitempty"`
}

// AttachmentRecord is one attachment entry destined for the Attachments
// document. OriginNote always names an assigned NoteID from the same run.
type AttachmentRecord struct {
	// ID is the attachment's assigned identifier.
	ID AttachmentID `json:"id" yaml:"id"`

	// Type is the attachment type, matching ID.Type().
	Type AttachmentType `json:"type" yaml:"type"`

	// Title is the attachment's human-readable name.
	Title string `json:"title" yaml:"title"`

	// Content is the attachment's textual content or a reference line
	// pointing at the stored resource.
	Content string `json:"content" yaml:"content"`

	// OriginNote is the note the attachment was discovered in.
	OriginNote NoteID `json:"origin_note" yaml:"origin_note"`
}
