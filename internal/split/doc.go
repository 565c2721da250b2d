// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/note-engine/internal/disassemble"
	"github.com/pdiddy/note-engine/pkg/types"
)

// Document format. Each document opens with a level-one title; every
// fragment or attachment gets a level-two section whose heading is the
// marker that defines its id:
//
//	# Raw Notes
//
//	## [NOTE:20240110-standup]
//
//	...verbatim text...
//
// Attachment sections carry a fixed three-line metadata list (type,
// title, back-reference to the originating note) before their content.
// Body lines that would collide with a heading carry a leading backslash.
const (
	summaryTitle     = "# Summary"
	rawNotesTitle    = "# Raw Notes"
	attachmentsTitle = "# Attachments"
)

// sectionHeadingRe matches a definition heading line. Anchored to the full
// line so marker-shaped tokens inside body text do not open sections.
var sectionHeadingRe = regexp.MustCompile(`^## (\[(?:NOTE|ATTACH):[^\]\s]+\])$`)

// headingShapedRe matches body lines that would collide with a section
// heading, including lines already carrying escape backslashes. Such
// lines gain one leading backslash on render and lose it on parse, so
// heading-shaped note content survives the round trip instead of
// corrupting the section structure.
var headingShapedRe = regexp.MustCompile(`^\\*## \[(?:NOTE|ATTACH):[^\]\s]+\]$`)

func renderSummary(results []disassemble.Result) string {
	var b strings.Builder
	b.WriteString(summaryTitle + "\n")
	for _, res := range results {
		if res.Summary == nil {
			continue
		}
		writeSection(&b, types.NoteMarker(res.Summary.ID), res.Summary.Text)
	}
	return b.String()
}

func renderRawNotes(results []disassemble.Result) string {
	var b strings.Builder
	b.WriteString(rawNotesTitle + "\n")
	for _, res := range results {
		writeSection(&b, types.NoteMarker(res.Raw.ID), res.Raw.Text)
	}
	return b.String()
}

func renderAttachments(results []disassemble.Result) string {
	var b strings.Builder
	b.WriteString(attachmentsTitle + "\n")
	for _, res := range results {
		for _, att := range res.Attachments {
			body := fmt.Sprintf("- type: %s\n- title: %s\n- note: %s\n\n%s",
				att.Type, att.Title, types.NoteMarker(att.OriginNote),
				strings.TrimSpace(att.Content))
			writeSection(&b, types.AttachmentMarker(att.ID), body)
		}
	}
	return b.String()
}

func writeSection(b *strings.Builder, marker, body string) {
	b.WriteString("\n## " + marker + "\n\n")
	b.WriteString(escapeBody(strings.TrimSpace(body)))
	b.WriteString("\n")
}

// escapeBody prefixes heading-shaped body lines with a backslash.
func escapeBody(body string) string {
	if !strings.Contains(body, "## [") {
		return body
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if headingShapedRe.MatchString(line) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

// unescapeBodyLine reverses escapeBody for one parsed line.
func unescapeBodyLine(line string) string {
	if strings.HasPrefix(line, `\`) && headingShapedRe.MatchString(line[1:]) {
		return line[1:]
	}
	return line
}

// Section is one parsed definition section of a rendered document.
type Section struct {
	// Marker is the heading token, e.g. "[NOTE:20240110-standup]".
	Marker string

	// Body is the section text between this heading and the next, with
	// surrounding blank lines trimmed.
	Body string
}

// NoteID returns the section's note id and true when the heading is a
// NOTE marker.
func (s Section) NoteID() (types.NoteID, bool) {
	ids := types.ParseNoteMarkers(s.Marker)
	if len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}

// AttachmentID returns the section's attachment id and true when the
// heading is an ATTACH marker.
func (s Section) AttachmentID() (types.AttachmentID, bool) {
	ids := types.ParseAttachmentMarkers(s.Marker)
	if len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}

// AttachmentContent strips the fixed metadata list off an attachment
// section body, returning the record content.
func (s Section) AttachmentContent() string {
	lines := strings.Split(s.Body, "\n")
	i := 0
	for i < len(lines) && isMetadataLine(lines[i]) {
		i++
	}
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

func isMetadataLine(line string) bool {
	return strings.HasPrefix(line, "- type: ") ||
		strings.HasPrefix(line, "- title: ") ||
		strings.HasPrefix(line, "- note: ")
}

// ParseSections splits a rendered document back into its definition
// sections, in document order. Content before the first heading (the
// document title) is discarded.
func ParseSections(doc string) []Section {
	var (
		out     []Section
		current *Section
		body    []string
	)

	flush := func() {
		if current != nil {
			current.Body = strings.Trim(strings.Join(body, "\n"), "\n")
			out = append(out, *current)
		}
		body = nil
	}

	for _, line := range strings.Split(doc, "\n") {
		if m := sectionHeadingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Section{Marker: m[1]}
			continue
		}
		if current != nil {
			body = append(body, unescapeBodyLine(line))
		}
	}
	flush()
	return out
}
