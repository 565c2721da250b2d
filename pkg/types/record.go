// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceType classifies an input file by the handler that extracted it.
type SourceType string

const (
	SourceMarkdown SourceType = "markdown"
	SourceText     SourceType = "text"
	SourcePDF      SourceType = "pdf"
	SourceImage    SourceType = "image"
)

// AttachmentBlob is one embedded or referenced binary resource discovered
// during extraction, before identifier assignment.
type AttachmentBlob struct {
	// Path is the resource path as it appears in the source (relative or
	// absolute). Used to match in-text references back to this blob.
	Path string `json:"path" yaml:"path"`

	// Type is the attachment type derived from the file extension.
	Type AttachmentType `json:"type" yaml:"type"`

	// Title is a human-readable name, usually the base filename.
	Title string `json:"title" yaml:"title"`

	// Content holds extracted textual content where the extractor produced
	// any (e.g. a caption or reference line); empty for opaque binaries.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Data is the raw resource bytes when the extractor read them. May be
	// nil for reference-only attachments; identifier derivation falls back
	// to Path and Title in that case.
	Data []byte `json:"-" yaml:"-"`

	// Size is the resource size in bytes, zero if unknown.
	Size int64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// SourceRecord is the normalized output of the extraction boundary for one
// input file. It is immutable once produced; every later phase consumes it
// by value.
type SourceRecord struct {
	// SourcePath is the input file the record was extracted from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Type identifies the handler that produced the record.
	Type SourceType `json:"type" yaml:"type"`

	// Title is the detected title: first heading, frontmatter title, or
	// filename stem.
	Title string `json:"title" yaml:"title"`

	// Text is the full extracted text, verbatim.
	Text string `json:"text" yaml:"text"`

	// Date is the detected note date. Zero when the source carries none.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// Tags are inline topic tags found in the source (e.g. Bear-style
	// "#tag" words).
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Attachments lists embedded or referenced resources in discovery order.
	Attachments []AttachmentBlob `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Empty reports whether the record carries nothing to identify: no title,
// no text, and no attachments. Empty records are invalid input.
func (r SourceRecord) Empty() bool {
	return r.Title == "" && r.Text == "" && len(r.Attachments) == 0
}
