package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/pipeline"
	"ewintr.nl/ytsum/storage"
)

type VideoAPI struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

func NewVideoAPI(p *pipeline.Pipeline, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		pipeline: p,
		logger:   logger,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID, tail := ShiftPath(r.URL.Path)
	action, _ := ShiftPath(tail)

	switch {
	case r.Method == http.MethodGet && videoID == "":
		v.List(w, r)
	case r.Method == http.MethodPost && videoID == "":
		v.Add(w, r)
	case r.Method == http.MethodGet && action == "":
		v.Get(w, r, model.VideoID(videoID))
	case r.Method == http.MethodDelete && action == "":
		v.Remove(w, r, model.VideoID(videoID))
	case r.Method == http.MethodPost && action == "transcript":
		v.Prepare(w, r, model.VideoID(videoID))
	case r.Method == http.MethodPost && action == "summary":
		v.Generate(w, r, model.VideoID(videoID))
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the video api", r.Method, videoID))
	}
}

func (v *VideoAPI) List(w http.ResponseWriter, r *http.Request) {
	videos := v.pipeline.List()

	resp := make([]respVideo, 0, len(videos))
	for _, video := range videos {
		resp = append(resp, newRespVideo(video))
	}
	v.returnJSON(w, http.StatusOK, resp)
}

func (v *VideoAPI) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "could not decode request body", err)
		return
	}

	video, created, err := v.pipeline.Add(r.Context(), req.URL)
	if err != nil {
		v.returnErr(w, "could not add video", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	v.returnJSON(w, status, newRespVideo(video))
}

func (v *VideoAPI) Get(w http.ResponseWriter, _ *http.Request, id model.VideoID) {
	video, err := v.pipeline.Get(id)
	if err != nil {
		v.returnErr(w, "could not get video", err)
		return
	}
	v.returnJSON(w, http.StatusOK, newRespVideo(video))
}

func (v *VideoAPI) Remove(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	existed, err := v.pipeline.Remove(r.Context(), id)
	if err != nil {
		v.returnErr(w, "could not remove video", err)
		return
	}
	if !existed {
		Error(w, http.StatusNotFound, "could not remove video", storage.ErrNotFound)
		return
	}
	Message(w, http.StatusOK, "video removed")
}

func (v *VideoAPI) Prepare(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	video, err := v.pipeline.Prepare(r.Context(), id)
	if err != nil {
		v.returnErr(w, "could not fetch transcript", err)
		return
	}
	v.returnJSON(w, http.StatusOK, newRespVideo(video))
}

func (v *VideoAPI) Generate(w http.ResponseWriter, r *http.Request, id model.VideoID) {
	force := r.URL.Query().Get("force") == "1"
	video, err := v.pipeline.Generate(r.Context(), id, force)
	if err != nil {
		v.returnErr(w, "could not generate summary", err)
		return
	}
	v.returnJSON(w, http.StatusOK, newRespVideo(video))
}

type respVideo struct {
	ID                 string    `json:"id"`
	URL                string    `json:"url"`
	Status             string    `json:"status"`
	Title              string    `json:"title,omitempty"`
	ThumbnailURL       string    `json:"thumbnail_url,omitempty"`
	Transcript         string    `json:"transcript,omitempty"`
	TranscriptLanguage string    `json:"transcript_language,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	SummaryLanguage    string    `json:"summary_language,omitempty"`
	SummaryTruncated   bool      `json:"summary_truncated,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func newRespVideo(video *model.Video) respVideo {
	return respVideo{
		ID:                 string(video.ID),
		URL:                video.URL,
		Status:             string(video.Status),
		Title:              video.Title,
		ThumbnailURL:       video.ThumbnailURL,
		Transcript:         video.Transcript,
		TranscriptLanguage: video.TranscriptLanguage,
		Summary:            video.Summary,
		SummaryLanguage:    video.SummaryLanguage,
		SummaryTruncated:   video.SummaryTruncated,
		CreatedAt:          video.CreatedAt,
		UpdatedAt:          video.UpdatedAt,
	}
}

func (v *VideoAPI) returnJSON(w http.ResponseWriter, status int, body any) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		v.logger.Error("could not marshal response", slog.String("error", err.Error()))
		Error(w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}
	w.WriteHeader(status)
	fmt.Fprint(w, string(jsonBody))
}

// returnErr maps the error taxonomy of the pipeline onto http status
// codes. Credential trouble keeps its distinct error text so a UI can
// prompt for reconfiguration instead of suggesting a retry.
func (v *VideoAPI) returnErr(w http.ResponseWriter, message string, err error) {
	var rejected *fetcher.RejectedError
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, model.ErrInvalidURL):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrPrecondition):
		status = http.StatusPreconditionFailed
	case errors.Is(err, fetcher.ErrNoTranscript), errors.As(err, &rejected):
		status = http.StatusConflict
	}
	v.logger.Error(message, slog.String("error", err.Error()))
	Error(w, status, message, err)
}
