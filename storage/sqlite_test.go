package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytsum.db")
	repo, err := storage.NewSQLite(path)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	video := &model.Video{
		ID:                 "abc12345678",
		URL:                "https://youtu.be/abc12345678",
		Status:             model.StatusSummaryReady,
		Title:              "A Video",
		ThumbnailURL:       model.ThumbnailURL("abc12345678"),
		Transcript:         "hello world",
		TranscriptLanguage: "en",
		Summary:            "Summary: hello world",
		SummaryLanguage:    "en",
		SummaryTruncated:   true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, repo.Save(video))

	// saving again updates instead of duplicating
	video.Summary = "Summary: updated"
	require.NoError(t, repo.Save(video))

	found, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, found, 1)
	got := found[0]
	assert.Equal(t, video.ID, got.ID)
	assert.Equal(t, video.URL, got.URL)
	assert.Equal(t, video.Status, got.Status)
	assert.Equal(t, "Summary: updated", got.Summary)
	assert.True(t, got.SummaryTruncated)
	assert.True(t, got.CreatedAt.Equal(now))

	require.NoError(t, repo.Delete(video.ID))
	found, err = repo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSQLiteMigrateTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytsum.db")
	_, err := storage.NewSQLite(path)
	require.NoError(t, err)

	// reopening runs migrations against existing state
	_, err = storage.NewSQLite(path)
	require.NoError(t, err)
}
