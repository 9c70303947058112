package fetcher

import (
	"context"

	"ewintr.nl/ytsum/model"
)

type Metadata struct {
	Title        string
	ThumbnailURL string
	Duration     string
	PublishedAt  string
}

// MetadataFetcher looks up display metadata for a video. Results are
// best-effort, a record without a title is still processable.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, id model.VideoID) (Metadata, error)
}
