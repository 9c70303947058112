package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/storage"
	"golang.org/x/sync/singleflight"
)

// ErrPrecondition signals a transition that is attempted out of
// order, like summarizing a video without a transcript. The record is
// left untouched.
var ErrPrecondition = errors.New("video is not in the required state")

type Config struct {
	Store       *storage.RecordStore
	Transcripts fetcher.TranscriptFetcher
	Summaries   fetcher.SummaryFetcher
	Metadata    fetcher.MetadataFetcher // optional
	Artifacts   *storage.ArtifactStore  // optional
	Index       storage.SummaryIndex    // optional

	PreferredLanguages []string
	OutputLanguage     string
	Retry              RetryPolicy
	CallTimeout        time.Duration
	Logger             *slog.Logger
}

// Pipeline drives a video record from creation to summarized state.
// All state changes go through the record store, external calls are
// coalesced per video so concurrent requests attach to the in-flight
// operation instead of duplicating it.
type Pipeline struct {
	store       *storage.RecordStore
	transcripts fetcher.TranscriptFetcher
	summaries   fetcher.SummaryFetcher
	metadata    fetcher.MetadataFetcher
	artifacts   *storage.ArtifactStore
	index       storage.SummaryIndex
	preferred   []string
	outputLang  string
	retry       RetryPolicy
	callTimeout time.Duration
	group       singleflight.Group
	events      chan Event
	logger      *slog.Logger
}

func New(cfg Config) *Pipeline {
	if len(cfg.PreferredLanguages) == 0 {
		cfg.PreferredLanguages = []string{"en"}
	}
	if cfg.OutputLanguage == "" {
		cfg.OutputLanguage = "en"
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy
	}

	return &Pipeline{
		store:       cfg.Store,
		transcripts: cfg.Transcripts,
		summaries:   cfg.Summaries,
		metadata:    cfg.Metadata,
		artifacts:   cfg.Artifacts,
		index:       cfg.Index,
		preferred:   cfg.PreferredLanguages,
		outputLang:  cfg.OutputLanguage,
		retry:       cfg.Retry,
		callTimeout: cfg.CallTimeout,
		events:      make(chan Event, 64),
		logger:      cfg.Logger,
	}
}

// Add tracks a new video by url and fills in display metadata when a
// metadata fetcher is available. Adding a known video returns the
// existing record.
func (p *Pipeline) Add(ctx context.Context, url string) (*model.Video, bool, error) {
	video, created, err := p.store.Add(url)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return video, false, nil
	}

	if p.metadata != nil {
		cctx, cancel := p.callCtx(ctx)
		md, err := p.metadata.FetchMetadata(cctx, video.ID)
		cancel()
		if err != nil {
			// metadata is display-only, the video stays usable
			p.logger.Warn("could not fetch metadata", slog.String("id", string(video.ID)), slog.String("error", err.Error()))
		} else {
			video, err = p.store.Update(video.ID, func(v *model.Video) {
				v.Title = md.Title
				if md.ThumbnailURL != "" {
					v.ThumbnailURL = md.ThumbnailURL
				}
			})
			if err != nil {
				return nil, false, err
			}
		}
	}

	p.logger.Info("video added", slog.String("id", string(video.ID)))
	p.publish(video.ID, video.Status, false, nil)

	return video, true, nil
}

func (p *Pipeline) Get(id model.VideoID) (*model.Video, error) {
	return p.store.Get(id)
}

func (p *Pipeline) List() []*model.Video {
	return p.store.List()
}

// Remove deletes the record, its summary artifact and its index
// entry. An operation still in flight for the video completes but its
// result is discarded.
func (p *Pipeline) Remove(ctx context.Context, id model.VideoID) (bool, error) {
	existed, err := p.store.Remove(id)
	if err != nil || !existed {
		return existed, err
	}

	if p.artifacts != nil {
		if err := p.artifacts.Remove(id); err != nil {
			p.logger.Warn("could not remove summary artifact", slog.String("id", string(id)), slog.String("error", err.Error()))
		}
	}
	if p.index != nil {
		if err := p.index.Delete(ctx, id); err != nil {
			p.logger.Warn("could not remove summary from index", slog.String("id", string(id)), slog.String("error", err.Error()))
		}
	}

	p.logger.Info("video removed", slog.String("id", string(id)))
	p.publish(id, "", true, nil)

	return true, nil
}

// Prepare fetches and caches the transcript for a video. A cached
// transcript is returned without contacting the service. Concurrent
// calls for the same video share one fetch.
func (p *Pipeline) Prepare(ctx context.Context, id model.VideoID) (*model.Video, error) {
	result, err, _ := p.group.Do("transcript:"+string(id), func() (any, error) {
		return p.prepare(ctx, id)
	})
	video, _ := result.(*model.Video)

	return video, err
}

func (p *Pipeline) prepare(ctx context.Context, id model.VideoID) (*model.Video, error) {
	video, err := p.store.Get(id)
	if err != nil {
		return nil, err
	}
	if video.Transcript != "" {
		return video, nil
	}
	if video.Status == model.StatusTranscriptUnavailable {
		return video, fetcher.ErrNoTranscript
	}

	lastGood := video.Status
	if video, err = p.store.Update(id, func(v *model.Video) {
		v.Status = model.StatusTranscriptFetching
	}); err != nil {
		return nil, err
	}
	p.publish(id, model.StatusTranscriptFetching, false, nil)

	transcript, err := retryTransient(ctx, p.retry, func() (fetcher.Transcript, error) {
		cctx, cancel := p.callCtx(ctx)
		defer cancel()
		return p.transcripts.Fetch(cctx, id, p.preferred)
	})
	if err != nil {
		if errors.Is(err, fetcher.ErrNoTranscript) {
			p.logger.Info("no transcript", slog.String("id", string(id)))
			return p.fail(id, model.StatusTranscriptUnavailable, err)
		}
		p.logger.Warn("could not fetch transcript", slog.String("id", string(id)), slog.String("error", err.Error()))
		return p.fail(id, lastGood, err)
	}

	video, err = p.store.Update(id, func(v *model.Video) {
		v.SetTranscript(transcript.Text, transcript.Language)
	})
	if err != nil {
		return p.discard(id, err)
	}

	p.logger.Info("transcript fetched", slog.String("id", string(id)), slog.String("language", transcript.Language))
	p.publish(id, video.Status, false, nil)

	return video, nil
}

// Generate produces and caches a summary for a video that has a
// transcript. A cached summary is returned as is unless force is set.
// Concurrent calls for the same video share one generation.
func (p *Pipeline) Generate(ctx context.Context, id model.VideoID, force bool) (*model.Video, error) {
	result, err, _ := p.group.Do("summary:"+string(id), func() (any, error) {
		return p.generate(ctx, id, force)
	})
	video, _ := result.(*model.Video)

	return video, err
}

func (p *Pipeline) generate(ctx context.Context, id model.VideoID, force bool) (*model.Video, error) {
	video, err := p.store.Get(id)
	if err != nil {
		return nil, err
	}
	if video.Transcript == "" {
		return video, fmt.Errorf("%w: no transcript to summarize", ErrPrecondition)
	}
	if video.Summary != "" && !force {
		return video, nil
	}

	lastGood := video.Status
	if video, err = p.store.Update(id, func(v *model.Video) {
		v.Status = model.StatusSummaryGenerating
	}); err != nil {
		return nil, err
	}
	p.publish(id, model.StatusSummaryGenerating, false, nil)

	transcript := video.Transcript
	summary, err := retryTransient(ctx, p.retry, func() (fetcher.Summary, error) {
		cctx, cancel := p.callCtx(ctx)
		defer cancel()
		return p.summaries.Summarize(cctx, transcript, p.outputLang)
	})
	if err != nil {
		var rejected *fetcher.RejectedError
		if errors.As(err, &rejected) {
			p.logger.Warn("summary rejected", slog.String("id", string(id)), slog.String("reason", rejected.Reason))
			return p.fail(id, model.StatusSummaryFailed, err)
		}
		p.logger.Warn("could not generate summary", slog.String("id", string(id)), slog.String("error", err.Error()))
		return p.fail(id, lastGood, err)
	}

	video, err = p.store.Update(id, func(v *model.Video) {
		v.SetSummary(summary.Text, p.outputLang, summary.Truncated)
	})
	if err != nil {
		return p.discard(id, err)
	}

	if p.artifacts != nil {
		if err := p.artifacts.Save(video); err != nil {
			p.logger.Warn("could not write summary artifact", slog.String("id", string(id)), slog.String("error", err.Error()))
		}
	}
	if p.index != nil {
		if err := p.index.Save(ctx, video); err != nil {
			p.logger.Warn("could not index summary", slog.String("id", string(id)), slog.String("error", err.Error()))
		}
	}

	p.logger.Info("summary generated", slog.String("id", string(id)), slog.Bool("truncated", summary.Truncated))
	p.publish(id, video.Status, false, nil)

	return video, nil
}

// fail records the outcome of a failed attempt and reports the
// original failure. Setting the status back to the state before the
// attempt keeps exhausted retries from corrupting the record.
func (p *Pipeline) fail(id model.VideoID, status model.VideoStatus, cause error) (*model.Video, error) {
	video, err := p.store.Update(id, func(v *model.Video) {
		v.Status = status
	})
	if err != nil {
		return p.discard(id, err)
	}
	p.publish(id, video.Status, false, cause)

	return video, cause
}

// discard handles a completion for a video that was removed while the
// operation was in flight. The result is dropped, nothing crashes.
func (p *Pipeline) discard(id model.VideoID, err error) (*model.Video, error) {
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Info("discarding result for removed video", slog.String("id", string(id)))
	}

	return nil, err
}

func (p *Pipeline) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout > 0 {
		return context.WithTimeout(ctx, p.callTimeout)
	}

	return context.WithCancel(ctx)
}
