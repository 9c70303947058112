package fetcher

import (
	"context"
	"fmt"

	"ewintr.nl/ytsum/model"
	"google.golang.org/api/youtube/v3"
)

type Youtube struct {
	client *youtube.Service
}

func NewYoutube(client *youtube.Service) *Youtube {
	return &Youtube{client: client}
}

func (y *Youtube) FetchMetadata(ctx context.Context, id model.VideoID) (Metadata, error) {
	call := y.client.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(string(id)).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return Metadata{}, &TransientError{Err: err}
	}
	if len(response.Items) == 0 {
		return Metadata{}, fmt.Errorf("video %s is not known to the youtube api", id)
	}

	item := response.Items[0]
	md := Metadata{}
	if item.Snippet != nil {
		md.Title = item.Snippet.Title
		md.PublishedAt = item.Snippet.PublishedAt
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Medium != nil {
			md.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
		}
	}
	if item.ContentDetails != nil {
		md.Duration = item.ContentDetails.Duration
	}

	return md, nil
}
