package storage

import (
	"sync"

	"ewintr.nl/ytsum/model"
)

// Memory is a VideoRepository that does not survive restarts. Used in
// tests and for throwaway runs.
type Memory struct {
	videos map[model.VideoID]*model.Video
	mu     sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		videos: map[model.VideoID]*model.Video{},
	}
}

func (m *Memory) Save(video *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[video.ID] = video.Copy()

	return nil
}

func (m *Memory) Delete(id model.VideoID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.videos, id)

	return nil
}

func (m *Memory) FindAll() ([]*model.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	videos := make([]*model.Video, 0, len(m.videos))
	for _, video := range m.videos {
		videos = append(videos, video.Copy())
	}

	return videos, nil
}
