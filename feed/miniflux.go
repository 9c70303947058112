package feed

import (
	"miniflux.app/client"
)

// Entry is one unread item in the feed reader, usually a video
// published on a subscribed channel.
type Entry struct {
	ID  int64
	URL string
}

type Reader interface {
	Unread() ([]Entry, error)
	MarkRead(entryID int64) error
}

type MinifluxInfo struct {
	Endpoint string
	ApiKey   string
}

type Miniflux struct {
	client *client.Client
}

func NewMiniflux(mflInfo MinifluxInfo) *Miniflux {
	return &Miniflux{
		client: client.New(mflInfo.Endpoint, mflInfo.ApiKey),
	}
}

func (m *Miniflux) Unread() ([]Entry, error) {
	result, err := m.client.Entries(&client.Filter{Status: "unread"})
	if err != nil {
		return []Entry{}, err
	}

	entries := []Entry{}
	for _, entry := range result.Entries {
		entries = append(entries, Entry{
			ID:  entry.ID,
			URL: entry.URL,
		})
	}

	return entries, nil
}

func (m *Miniflux) MarkRead(entryID int64) error {
	return m.client.UpdateEntries([]int64{entryID}, "read")
}
