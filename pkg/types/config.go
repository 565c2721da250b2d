// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IngestConfig holds settings for the ingest stage.
type IngestConfig struct {
	// Include lists glob patterns for input files, relative to the input
	// directory (e.g. "**/*.md"). Empty means the built-in defaults.
	Include []string `json:"include" yaml:"include"`

	// Exclude lists glob patterns removed from the include set.
	Exclude []string `json:"exclude" yaml:"exclude"`

	// Workers is the extraction worker pool size (default 4). Extraction
	// is independent per record; results are gathered back into encounter
	// order before disassembly.
	Workers int `json:"workers" yaml:"workers"`

	// Timeout bounds extraction of a single record. A timed-out record is
	// excluded from the run and reported, not fatal (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UnidocLicenseKey enables the PDF handler. Empty disables metered
	// licensing; PDF extraction then fails per-record.
	UnidocLicenseKey string `json:"unidoc_license_key,omitempty" yaml:"unidoc_license_key,omitempty"`
}

// CondenserBackend selects the summarization collaborator.
type CondenserBackend string

const (
	// CondenserExcerpt is the local heuristic: leading sentences up to the
	// target ratio. Always available.
	CondenserExcerpt CondenserBackend = "excerpt"

	// CondenserClaude condenses through the Claude Messages API, degrading
	// to the excerpt heuristic on failure.
	CondenserClaude CondenserBackend = "claude"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API
	// calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds a single API call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DisassembleConfig holds settings for the disassembly stage. The
// threshold and ratio are policy constants, deliberately configuration
// rather than code.
type DisassembleConfig struct {
	AIConfig `yaml:",inline"`

	// Backend selects the condenser: excerpt or claude.
	Backend CondenserBackend `json:"backend" yaml:"backend"`

	// MinSummaryTokens is the informativeness threshold: a note shorter
	// than this yields no Summary fragment (default 70).
	MinSummaryTokens int `json:"min_summary_tokens" yaml:"min_summary_tokens"`

	// SummaryRatio is the condense target as a fraction of the source
	// length (default 0.35).
	SummaryRatio float64 `json:"summary_ratio" yaml:"summary_ratio"`
}

// IndexConfig holds settings for the notes index, the read boundary the
// retrieval subsystem consumes.
type IndexConfig struct {
	// Dir is the directory holding the SQLite index (default
	// "<output_dir>/index").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	// InputDir is the directory scanned for input files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is the directory holding the committed OutputSet and the
	// run report.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	Ingest      IngestConfig      `json:"ingest" yaml:"ingest"`
	Disassemble DisassembleConfig `json:"disassemble" yaml:"disassemble"`
	Index       IndexConfig       `json:"index" yaml:"index"`
}
