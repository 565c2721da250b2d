// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identify derives stable content identifiers for notes and
// attachments. Assignment is a pure function of the ordered input
// sequence: re-running on identical input yields identical ids, so
// reprocessing an unchanged corpus is idempotent end to end.
package identify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/note-engine/pkg/types"
)

// maxSlugLen caps derived slugs so filesystem-unfriendly titles stay
// manageable in ids and markers.
const maxSlugLen = 60

// attachmentNamespace seeds deterministic v5 UUIDs for attachments that
// carry no usable title. Fixed so ids survive reruns.
var attachmentNamespace = uuid.MustParse("8b9e3a52-1c3f-4f0e-9a37-5d2b64c90a11")

// Assignment pairs one SourceRecord with its assigned identifiers.
// Attachments is parallel to the record's Attachments slice.
type Assignment struct {
	Note        types.NoteID
	Attachments []types.AttachmentID
}

// Assign derives identifiers for every record and attachment in encounter
// order. A record with neither a derivable title nor content fails with
// types.ErrInvalidSourceRecord and no assignments are returned; partial
// assignment never propagates downstream.
func Assign(records []types.SourceRecord) ([]Assignment, error) {
	seen := make(map[string]bool)
	out := make([]Assignment, 0, len(records))

	for i, rec := range records {
		if rec.Empty() {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.SourcePath, types.ErrInvalidSourceRecord)
		}

		noteKey := noteKey(rec)
		noteKey = disambiguate(seen, "NOTE", noteKey)
		a := Assignment{Note: types.MakeNoteID(noteKey)}

		for _, blob := range rec.Attachments {
			key := attachmentKey(rec, blob)
			key = disambiguate(seen, string(blob.Type), key)
			a.Attachments = append(a.Attachments, types.MakeAttachmentID(blob.Type, key))
		}

		out = append(out, a)
	}

	return out, nil
}

// noteKey derives the id key for one record: "YYYYMMDD-slug" when a date
// is known, else "slug-hash8" with a content-derived suffix so undated
// notes keep stable ids across reruns on unchanged input. Dated ids
// deliberately carry no content hash: a dated note is keyed by when and
// what it is, so body edits keep the id and only a retitle changes it.
func noteKey(rec types.SourceRecord) string {
	slug := Slug(rec.Title)
	if slug == "" {
		slug = Slug(stem(rec.SourcePath))
	}
	if slug == "" {
		slug = "note"
	}

	if !rec.Date.IsZero() {
		return rec.Date.Format("20060102") + "-" + slug
	}
	return slug + "-" + hash8(rec.Text)
}

// attachmentKey derives the id key for one attachment blob. Titled blobs
// inherit the parent note's date prefix; untitled blobs get a
// deterministic content-derived UUID.
func attachmentKey(rec types.SourceRecord, blob types.AttachmentBlob) string {
	slug := Slug(stem(blob.Title))
	if slug == "" {
		slug = Slug(stem(blob.Path))
	}
	if slug == "" {
		seed := blob.Data
		if len(seed) == 0 {
			seed = []byte(rec.SourcePath + "\x00" + blob.Path)
		}
		return uuid.NewSHA1(attachmentNamespace, seed).String()
	}

	if !rec.Date.IsZero() {
		return rec.Date.Format("20060102") + "-" + slug
	}
	return slug + "-" + hash8(blob.Path+"\x00"+blob.Title)
}

// disambiguate reserves key within the run's id space, appending "-2",
// "-3", ... in encounter order when two units would derive the same id.
func disambiguate(seen map[string]bool, typ, key string) string {
	full := typ + ":" + key
	if !seen[full] {
		seen[full] = true
		return key
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", key, n)
		if !seen[typ+":"+candidate] {
			seen[typ+":"+candidate] = true
			return candidate
		}
	}
}

// Slug normalizes a title into a lowercase hyphenated id component.
// Non-alphanumeric runs collapse into single hyphens.
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// stem returns the base filename without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// hash8 returns the first 8 hex digits of the SHA-256 of s.
func hash8(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
