package storage

import (
	"context"
	"errors"

	"ewintr.nl/ytsum/model"
)

var ErrNotFound = errors.New("video not found")

// VideoRepository persists video records. Implementations only need to
// store and return them, consistency rules live in RecordStore.
type VideoRepository interface {
	Save(video *model.Video) error
	Delete(id model.VideoID) error
	FindAll() ([]*model.Video, error)
}

// SummaryIndex is a secondary index of generated summaries, never the
// source of truth. Failures are logged, not propagated.
type SummaryIndex interface {
	Save(ctx context.Context, video *model.Video) error
	Delete(ctx context.Context, id model.VideoID) error
}
