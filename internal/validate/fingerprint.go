// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pdiddy/note-engine/pkg/types"
)

// Fingerprint computes the order-independent content fingerprint over a
// set of fragments and attachment records: one SHA-256 per canonicalized
// item, digests sorted, and a final SHA-256 over the sorted sequence.
// Reordering items never changes the fingerprint; losing, duplicating, or
// altering any item always does.
func Fingerprint(fragments []types.Fragment, attachments []types.AttachmentRecord) string {
	digests := make([]string, 0, len(fragments)+len(attachments))
	for _, f := range fragments {
		digests = append(digests, itemDigest("frag", string(f.Kind), string(f.ID), f.Text))
	}
	for _, a := range attachments {
		digests = append(digests, itemDigest("att", "", string(a.ID), a.Content))
	}
	sort.Strings(digests)

	h := sha256.New()
	for _, d := range digests {
		h.Write([]byte(d))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// itemDigest hashes one item's canonical form. Text is whitespace-trimmed
// because rendering and re-parsing normalize surrounding blank lines;
// interior content is bit-exact.
func itemDigest(kind, variant, id, text string) string {
	h := sha256.New()
	for _, part := range []string{kind, variant, id, strings.TrimSpace(text)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
