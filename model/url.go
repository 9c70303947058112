package model

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidURL = errors.New("url does not contain a youtube video id")

var (
	videoURLExp = regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^#\s]*&)?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`)
	videoIDExp  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ParseVideoID extracts the canonical video id from a YouTube URL.
// Watch, youtu.be, embed and shorts forms are recognized, as well as a
// bare id. The same video always yields the same id, which makes
// duplicate detection reliable.
func ParseVideoID(url string) (VideoID, error) {
	if m := videoURLExp.FindStringSubmatch(url); m != nil {
		return VideoID(m[1]), nil
	}
	if videoIDExp.MatchString(url) {
		return VideoID(url), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
}

func WatchURL(id VideoID) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}

func EmbedURL(id VideoID) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s", id)
}

// ThumbnailURL returns the static thumbnail for a video. Always
// resolvable without an API key.
func ThumbnailURL(id VideoID) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", id)
}
