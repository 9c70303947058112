package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ewintr.nl/ytsum/model"
)

// Adder is the part of the pipeline the watcher needs, adding videos
// is idempotent so re-reading an entry is harmless.
type Adder interface {
	Add(ctx context.Context, url string) (*model.Video, bool, error)
}

// Watcher polls the feed reader and tracks every unread video entry.
type Watcher struct {
	reader   Reader
	adder    Adder
	interval time.Duration
	logger   *slog.Logger
}

func NewWatcher(reader Reader, adder Adder, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		reader:   reader,
		adder:    adder,
		interval: interval,
		logger:   logger,
	}
}

func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("feed watcher started", slog.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("feed watcher stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	entries, err := w.reader.Unread()
	if err != nil {
		w.logger.Error("could not fetch unread entries", slog.String("error", err.Error()))
		return
	}

	for _, entry := range entries {
		_, created, err := w.adder.Add(ctx, entry.URL)
		switch {
		case errors.Is(err, model.ErrInvalidURL):
			// feeds can carry non-video entries, skip those for good
			w.logger.Info("skipping entry without video url", slog.Int64("entry", entry.ID), slog.String("url", entry.URL))
		case err != nil:
			// leave unread so the next poll tries again
			w.logger.Error("could not add video", slog.Int64("entry", entry.ID), slog.String("error", err.Error()))
			continue
		case created:
			w.logger.Info("added video from feed", slog.Int64("entry", entry.ID), slog.String("url", entry.URL))
		}

		if err := w.reader.MarkRead(entry.ID); err != nil {
			w.logger.Error("could not mark entry as read", slog.Int64("entry", entry.ID), slog.String("error", err.Error()))
		}
	}
}
