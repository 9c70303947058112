package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ewintr.nl/ytsum/model"
)

// ArtifactStore writes each generated summary to its own markdown
// file, keyed by video id, so summaries can be exported or reused
// without going through the record collection.
type ArtifactStore struct {
	dir string
}

func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create summary dir: %w", err)
	}

	return &ArtifactStore{dir: dir}, nil
}

func (a *ArtifactStore) Path(id model.VideoID) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s.md", id))
}

func (a *ArtifactStore) Save(video *model.Video) error {
	title := video.Title
	if title == "" {
		title = string(video.ID)
	}
	content := fmt.Sprintf("# %s\n\n%s\n\n%s\n", title, model.WatchURL(video.ID), video.Summary)
	if err := os.WriteFile(a.Path(video.ID), []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write summary artifact: %w", err)
	}

	return nil
}

func (a *ArtifactStore) Remove(id model.VideoID) error {
	if err := os.Remove(a.Path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not remove summary artifact: %w", err)
	}

	return nil
}
