// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error kinds shared across pipeline stages. Whole-run errors
// (ErrInvalidSourceRecord, ErrDanglingReference) abort before any write;
// validation findings (ErrOrphanedContent, ErrContentLoss) reject the
// candidate OutputSet and preserve the previous commit. Per-record
// extraction failures are not errors at this level; they travel as
// RecordFailure values in the run report.
var (
	// ErrInvalidSourceRecord: an input record carries neither a derivable
	// title nor any content. Bad input; the run aborts before output.
	ErrInvalidSourceRecord = errors.New("invalid source record")

	// ErrDanglingReference: the splitter emitted a marker with no
	// resolvable target. Internal invariant violation, never user-caused.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrOrphanedContent: an assigned identifier was never rendered as a
	// definition in any output document.
	ErrOrphanedContent = errors.New("orphaned content")

	// ErrContentLoss: the content fingerprint recomputed from the rendered
	// documents does not match the one computed before splitting.
	ErrContentLoss = errors.New("content loss")
)
