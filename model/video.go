package model

import "time"

type VideoStatus string

const (
	StatusNew                   VideoStatus = "new"
	StatusTranscriptFetching    VideoStatus = "transcript_fetching"
	StatusTranscriptReady       VideoStatus = "transcript_ready"
	StatusTranscriptUnavailable VideoStatus = "transcript_unavailable"
	StatusSummaryGenerating     VideoStatus = "summary_generating"
	StatusSummaryReady          VideoStatus = "summary_ready"
	StatusSummaryFailed         VideoStatus = "summary_failed"
)

// Terminal reports whether no further automatic transition happens
// without new user action.
func (s VideoStatus) Terminal() bool {
	switch s {
	case StatusTranscriptUnavailable, StatusSummaryReady, StatusSummaryFailed:
		return true
	}
	return false
}

type VideoID string

// Video is the persisted unit of state for one tracked video. ID is the
// canonical YouTube token derived from URL and never changes.
type Video struct {
	ID                 VideoID
	URL                string
	Status             VideoStatus
	Title              string
	ThumbnailURL       string
	Transcript         string
	TranscriptLanguage string
	Summary            string
	SummaryLanguage    string
	SummaryTruncated   bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SetTranscript stores a fetched transcript. A summary generated
// against a transcript in another language is stale, so it is cleared
// instead of being left behind.
func (v *Video) SetTranscript(text, language string) {
	if v.Summary != "" && v.TranscriptLanguage != language {
		v.ClearSummary()
	}
	v.Transcript = text
	v.TranscriptLanguage = language
	v.Status = StatusTranscriptReady
}

func (v *Video) SetSummary(text, language string, truncated bool) {
	v.Summary = text
	v.SummaryLanguage = language
	v.SummaryTruncated = truncated
	v.Status = StatusSummaryReady
}

func (v *Video) ClearSummary() {
	v.Summary = ""
	v.SummaryLanguage = ""
	v.SummaryTruncated = false
}

func (v *Video) Copy() *Video {
	c := *v
	return &c
}
