// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OutputSet is the atomic unit of commit: the three rendered documents
// plus the content fingerprint computed over their fragment and attachment
// content. A run either replaces the previously committed OutputSet
// entirely or is discarded; partial replacement never happens.
type OutputSet struct {
	// Summary is the rendered Summary document.
	Summary string `json:"-" yaml:"-"`

	// RawNotes is the rendered Raw Notes document.
	RawNotes string `json:"-" yaml:"-"`

	// Attachments is the rendered Attachments document.
	Attachments string `json:"-" yaml:"-"`

	// Fingerprint is the order-independent content fingerprint over all
	// fragments and attachment records in the set.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// RunStatus is the terminal disposition of one pipeline run.
type RunStatus string

const (
	// StatusCommitted: validation passed and the candidate OutputSet
	// atomically replaced the previous one.
	StatusCommitted RunStatus = "committed"

	// StatusRejected: the candidate was discarded and the previously
	// committed OutputSet is untouched.
	StatusRejected RunStatus = "rejected"
)

// RecordFailure describes one input file excluded from a run. Per-record
// failures never fail the run; they are collected and reported.
type RecordFailure struct {
	// SourcePath is the input file that failed.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Reason is a short failure category: "extraction", "timeout",
	// "unsupported".
	Reason string `json:"reason" yaml:"reason"`

	// Detail is the underlying error text.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ValidationReport is the structured outcome of the integrity checks over
// a candidate OutputSet. The validator returns findings; it never decides
// disposition itself.
type ValidationReport struct {
	// Valid is true when both checks passed.
	Valid bool `json:"valid" yaml:"valid"`

	// DanglingRefs lists marker ids found in a rendered document with no
	// corresponding assigned identifier.
	DanglingRefs []string `json:"dangling_refs,omitempty" yaml:"dangling_refs,omitempty"`

	// OrphanedIDs lists assigned identifiers with no rendered definition
	// section in any document.
	OrphanedIDs []string `json:"orphaned_ids,omitempty" yaml:"orphaned_ids,omitempty"`

	// FingerprintWant is the content fingerprint computed before splitting.
	FingerprintWant string `json:"fingerprint_want" yaml:"fingerprint_want"`

	// FingerprintGot is the fingerprint recomputed by re-parsing the
	// rendered documents. Differs from FingerprintWant on content loss.
	FingerprintGot string `json:"fingerprint_got" yaml:"fingerprint_got"`
}

// ContentPreserved reports whether the pre-split and re-parsed
// fingerprints agree.
func (r ValidationReport) ContentPreserved() bool {
	return r.FingerprintWant == r.FingerprintGot
}

// ExtensionStats counts ingest outcomes for one file extension.
type ExtensionStats struct {
	Total   int `json:"total" yaml:"total"`
	OK      int `json:"ok" yaml:"ok"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// RunReport is the machine-readable record of one pipeline run, persisted
// next to the committed documents. Consumers use it to decide whether to
// trust the latest commit.
type RunReport struct {
	// Status is the terminal disposition: committed or rejected.
	Status RunStatus `json:"status" yaml:"status"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Fingerprint is the candidate OutputSet's content fingerprint.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`

	// Notes is the number of notes in the candidate set.
	Notes int `json:"notes" yaml:"notes"`

	// Attachments is the number of attachment records in the candidate set.
	Attachments int `json:"attachments" yaml:"attachments"`

	// Skipped lists input files excluded from the run, with reasons.
	Skipped []RecordFailure `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Reasons lists whole-run failure reasons when Status is rejected.
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`

	// Validation is the integrity validator's structured findings.
	Validation ValidationReport `json:"validation" yaml:"validation"`

	// IngestStats breaks ingest outcomes down per file extension.
	IngestStats map[string]ExtensionStats `json:"ingest_stats,omitempty" yaml:"ingest_stats,omitempty"`
}
