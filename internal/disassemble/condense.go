// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package disassemble

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Condenser is the summarization boundary. Implementations are treated as
// pure and best-effort: an error or empty result makes the caller fall
// back to a leading excerpt, never abort the run.
type Condenser interface {
	// Condense returns text condensed toward ratio of its original length.
	Condense(ctx context.Context, text string, ratio float64) (string, error)
}

// Meter measures text length in tokens. It wraps the cl100k_base encoding
// and degrades to a rune-count estimate when the encoding is unavailable
// (e.g. no cached BPE data and no network).
type Meter struct {
	enc *tiktoken.Tiktoken
}

// NewMeter builds a Meter, swallowing encoding-load failures.
func NewMeter() *Meter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Meter{}
	}
	return &Meter{enc: enc}
}

// Count returns the token count of s. The fallback estimate assumes four
// runes per token, the usual English average.
func (m *Meter) Count(s string) int {
	if m == nil || m.enc == nil {
		return (utf8.RuneCountInString(s) + 3) / 4
	}
	return len(m.enc.Encode(s, nil, nil))
}

// ExcerptCondenser is the local condensation heuristic: keep leading
// sentences until the target ratio is reached. Always available, used
// directly as a backend and as the degradation path for remote backends.
type ExcerptCondenser struct {
	Meter *Meter
}

// Condense implements Condenser.
func (e *ExcerptCondenser) Condense(_ context.Context, text string, ratio float64) (string, error) {
	return Excerpt(text, ratio, e.Meter), nil
}

// Excerpt returns the leading sentences of text up to ratio of its token
// length. At least one sentence is always kept.
func Excerpt(text string, ratio float64, meter *Meter) string {
	budget := int(float64(meter.Count(text)) * ratio)
	if budget < 1 {
		budget = 1
	}

	var (
		b     strings.Builder
		spent int
	)
	for _, sentence := range splitSentences(text) {
		cost := meter.Count(sentence)
		if b.Len() > 0 && spent+cost > budget {
			break
		}
		b.WriteString(sentence)
		spent += cost
		if spent >= budget {
			break
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		out = strings.TrimSpace(text)
	}
	return out
}

// splitSentences cuts text after sentence-ending punctuation or blank
// lines. Crude, but the excerpt path only needs cut points that do not
// split words.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// Consume trailing quotes and whitespace with the sentence.
			j := i + 1
			for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')' || runes[j] == ' ') {
				j++
			}
			out = append(out, string(runes[start:j]))
			start = j
			i = j - 1
		case '\n':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				out = append(out, string(runes[start:i+2]))
				start = i + 2
				i++
			}
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}
