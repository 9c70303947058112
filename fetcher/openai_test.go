package fetcher

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestTruncateTranscript(t *testing.T) {
	for _, tc := range []struct {
		name         string
		text         string
		budget       int
		exp          string
		expTruncated bool
	}{
		{
			name:   "fits",
			text:   "short transcript",
			budget: 100,
			exp:    "short transcript",
		},
		{
			name:   "exact fit",
			text:   "1234567890",
			budget: 10,
			exp:    "1234567890",
		},
		{
			name:   "no budget means no limit",
			text:   "anything goes",
			budget: 0,
			exp:    "anything goes",
		},
		{
			name:         "cuts at sentence end",
			text:         "First sentence. Second sentence. Third sentence that runs over the limit.",
			budget:       40,
			exp:          "First sentence. Second sentence.",
			expTruncated: true,
		},
		{
			name:         "cuts at space without sentence end",
			text:         "word1 word2 word3 word4 word5 word6 word7 word8",
			budget:       20,
			exp:          "word1 word2 word3",
			expTruncated: true,
		},
		{
			name:         "hard cut when nothing to break on",
			text:         strings.Repeat("x", 30),
			budget:       10,
			exp:          strings.Repeat("x", 10),
			expTruncated: true,
		},
		{
			name:         "multibyte safe",
			text:         strings.Repeat("あ", 10),
			budget:       10, // middle of the fourth rune
			exp:          strings.Repeat("あ", 3),
			expTruncated: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, truncated := TruncateTranscript(tc.text, tc.budget)
			assert.Equal(t, tc.exp, got)
			assert.Equal(t, tc.expTruncated, truncated)
		})
	}
}

func TestTruncateTranscriptDeterministic(t *testing.T) {
	text := strings.Repeat("Sentence one. Sentence two! Sentence three? ", 50)
	first, _ := TruncateTranscript(text, 500)
	second, _ := TruncateTranscript(text, 500)
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), 500)
}

func TestClassifyOpenAIError(t *testing.T) {
	for _, tc := range []struct {
		name          string
		err           error
		expTransient  bool
		expCredential bool
		expRejected   bool
	}{
		{
			name:          "unauthorized",
			err:           &openai.APIError{HTTPStatusCode: 401, Message: "invalid api key"},
			expTransient:  true,
			expCredential: true,
		},
		{
			name:        "bad request",
			err:         &openai.APIError{HTTPStatusCode: 400, Message: "too long"},
			expRejected: true,
		},
		{
			name:         "rate limited",
			err:          &openai.APIError{HTTPStatusCode: 429, Message: "slow down"},
			expTransient: true,
		},
		{
			name:         "server error",
			err:          &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"},
			expTransient: true,
		},
		{
			name:         "network failure",
			err:          &net.DNSError{Err: "no such host"},
			expTransient: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyOpenAIError(tc.err)
			var tErr *TransientError
			assert.Equal(t, tc.expTransient, errors.As(got, &tErr))
			assert.Equal(t, tc.expCredential, errors.Is(got, ErrBadCredential))
			var rErr *RejectedError
			assert.Equal(t, tc.expRejected, errors.As(got, &rErr))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&TransientError{Err: errors.New("boom")}))
	assert.False(t, IsTransient(&TransientError{Err: ErrBadCredential}))
	assert.False(t, IsTransient(ErrNoTranscript))
	assert.False(t, IsTransient(&RejectedError{Reason: "nope"}))
	assert.False(t, IsTransient(errors.New("plain")))
}
