package storage

import (
	"context"
	"net/http"

	"ewintr.nl/ytsum/model"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"
)

const summaryClass = "VideoSummary"

// Weaviate indexes generated summaries for semantic search. It is a
// SummaryIndex, the record store stays the source of truth.
type Weaviate struct {
	client *weaviate.Client
}

func NewWeaviate(host, weaviateApiKey, openaiApiKey string) (*Weaviate, error) {
	config := weaviate.Config{
		Scheme:     "https",
		Host:       host,
		AuthConfig: auth.ApiKey{Value: weaviateApiKey},
		Headers: map[string]string{
			"X-OpenAI-Api-Key": openaiApiKey,
		},
	}

	c, err := weaviate.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Weaviate{client: c}, nil
}

func (w *Weaviate) ResetSchema() error {

	// delete old
	if err := w.client.Schema().ClassDeleter().WithClassName(summaryClass).Do(context.Background()); err != nil {
		// a 400 means the class does not exist yet, which is fine here
		if status, ok := err.(*fault.WeaviateClientError); !ok || status.StatusCode != http.StatusBadRequest {
			return err
		}
	}

	// create new
	classObj := &models.Class{
		Class:      summaryClass,
		Vectorizer: "text2vec-openai",
		ModuleConfig: map[string]any{
			"text2vec-openai": map[string]any{
				"model":        "ada",
				"modelVersion": "002",
				"type":         "text",
			},
		},
	}

	return w.client.Schema().ClassCreator().WithClass(classObj).Do(context.Background())
}

func (w *Weaviate) Save(ctx context.Context, video *model.Video) error {
	oID := objectID(video.ID)
	properties := map[string]any{
		"videoId":  string(video.ID),
		"title":    video.Title,
		"summary":  video.Summary,
		"language": video.SummaryLanguage,
	}

	exists, err := w.client.Data().
		Checker().
		WithID(oID).
		WithClassName(summaryClass).
		Do(ctx)
	if err != nil {
		return err
	}

	if exists {
		return w.client.Data().
			Updater().
			WithID(oID).
			WithClassName(summaryClass).
			WithProperties(properties).
			Do(ctx)
	}

	_, err = w.client.Data().
		Creator().
		WithClassName(summaryClass).
		WithID(oID).
		WithProperties(properties).
		Do(ctx)

	return err
}

func (w *Weaviate) Delete(ctx context.Context, id model.VideoID) error {
	err := w.client.Data().
		Deleter().
		WithClassName(summaryClass).
		WithID(objectID(id)).
		Do(ctx)
	if status, ok := err.(*fault.WeaviateClientError); ok && status.StatusCode == http.StatusNotFound {
		return nil
	}

	return err
}

// objectID maps a video id onto the uuid weaviate requires for object
// identifiers. Deterministic, so repeated saves hit the same object.
func objectID(id model.VideoID) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(model.WatchURL(id))).String()
}
