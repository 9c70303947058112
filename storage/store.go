package storage

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ewintr.nl/ytsum/model"
)

// RecordStore is the single writer of video state. It keeps the full
// set of records in memory and flushes every mutation to the
// repository before reporting success, so readers never observe a
// half-written record and a crash never silently loses a completed
// fetch or summary.
type RecordStore struct {
	repo    VideoRepository
	records map[model.VideoID]*model.Video
	mu      sync.RWMutex
}

// NewRecordStore loads all persisted records once. Unreadable
// persisted state degrades to an empty store, durability is
// best-effort and must not take the application down.
func NewRecordStore(repo VideoRepository, logger *slog.Logger) *RecordStore {
	records := map[model.VideoID]*model.Video{}
	all, err := repo.FindAll()
	if err != nil {
		logger.Warn("could not load persisted videos, starting empty", slog.String("error", err.Error()))
		all = nil
	}
	for _, video := range all {
		records[video.ID] = video
	}

	return &RecordStore{
		repo:    repo,
		records: records,
	}
}

// Add derives the video id from url and creates a new record for it.
// Adding a url for a video that is already tracked returns the
// existing record unchanged.
func (s *RecordStore) Add(url string) (*model.Video, bool, error) {
	id, err := model.ParseVideoID(url)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[id]; ok {
		return existing.Copy(), false, nil
	}

	now := time.Now()
	video := &model.Video{
		ID:           id,
		URL:          url,
		Status:       model.StatusNew,
		ThumbnailURL: model.ThumbnailURL(id),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(video); err != nil {
		return nil, false, fmt.Errorf("could not persist video: %w", err)
	}
	s.records[id] = video

	return video.Copy(), true, nil
}

func (s *RecordStore) Get(id model.VideoID) (*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	return video.Copy(), nil
}

// Update applies mutate to the record atomically and persists the
// result before it becomes visible. It is the only path by which
// pipeline state changes reach readers. Updating a removed id returns
// ErrNotFound so late completions of in-flight work are discarded.
func (s *RecordStore) Update(id model.VideoID, mutate func(video *model.Video)) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := current.Copy()
	mutate(updated)
	updated.ID = current.ID // immutable
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now()

	if err := s.repo.Save(updated); err != nil {
		return nil, fmt.Errorf("could not persist video: %w", err)
	}
	s.records[id] = updated

	return updated.Copy(), nil
}

func (s *RecordStore) Remove(id model.VideoID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	if err := s.repo.Delete(id); err != nil {
		return false, fmt.Errorf("could not delete video: %w", err)
	}
	delete(s.records, id)

	return true, nil
}

// List returns all records ordered by creation time, oldest first.
func (s *RecordStore) List() []*model.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]*model.Video, 0, len(s.records))
	for _, video := range s.records {
		videos = append(videos, video.Copy())
	}
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].ID < videos[j].ID
		}
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})

	return videos
}
