package pipeline

import (
	"time"

	"ewintr.nl/ytsum/model"
	"github.com/google/uuid"
)

// Event notifies the UI layer of a record change. Delivery is
// best-effort, a slow consumer loses events but never blocks the
// pipeline.
type Event struct {
	ID      uuid.UUID
	VideoID model.VideoID
	Status  model.VideoStatus
	Removed bool
	Error   string
	Time    time.Time
}

func (p *Pipeline) Events() <-chan Event {
	return p.events
}

func (p *Pipeline) publish(id model.VideoID, status model.VideoStatus, removed bool, err error) {
	event := Event{
		ID:      uuid.New(),
		VideoID: id,
		Status:  status,
		Removed: removed,
		Time:    time.Now(),
	}
	if err != nil {
		event.Error = err.Error()
	}

	select {
	case p.events <- event:
	default:
	}
}
