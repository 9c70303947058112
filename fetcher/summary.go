package fetcher

import (
	"context"
	"strings"
	"unicode/utf8"
)

type Summary struct {
	Text string
	// Truncated is set when the transcript was cut down to the
	// input budget before submission, so the caller can show a
	// shortened-summary indicator.
	Truncated bool
}

// SummaryFetcher generates a summary of a transcript in the requested
// output language.
type SummaryFetcher interface {
	Summarize(ctx context.Context, transcript, outputLanguage string) (Summary, error)
}

var sentenceEnds = []string{". ", "! ", "? ", "。", "！", "？", "\n"}

// TruncateTranscript cuts text down to at most budget bytes, breaking
// at the last sentence end when one falls in the second half of the
// allowance, else at the last space. Deterministic, the same input
// always produces the same submission.
func TruncateTranscript(text string, budget int) (string, bool) {
	if budget <= 0 || len(text) <= budget {
		return text, false
	}

	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]

	boundary := -1
	for _, end := range sentenceEnds {
		if idx := strings.LastIndex(head, end); idx >= 0 && idx+len(end) > boundary {
			boundary = idx + len(end)
		}
	}
	if boundary > budget/2 {
		return strings.TrimRight(head[:boundary], " \n"), true
	}

	if idx := strings.LastIndex(head, " "); idx > budget/2 {
		return head[:idx], true
	}

	return head, true
}
