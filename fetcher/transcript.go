package fetcher

import (
	"context"

	"ewintr.nl/ytsum/model"
)

type Transcript struct {
	Text     string
	Language string
}

// TranscriptFetcher retrieves the transcript of a video. preferred
// lists language codes in order of preference. A video without any
// usable track yields ErrNoTranscript, service trouble yields a
// *TransientError.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, id model.VideoID, preferred []string) (Transcript, error)
}
