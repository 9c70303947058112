package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ewintr.nl/ytsum/fetcher"
	"ewintr.nl/ytsum/handler"
	"ewintr.nl/ytsum/model"
	"ewintr.nl/ytsum/pipeline"
	"ewintr.nl/ytsum/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscripts struct {
	fn func() (fetcher.Transcript, error)
}

func (f *fakeTranscripts) Fetch(_ context.Context, _ model.VideoID, _ []string) (fetcher.Transcript, error) {
	return f.fn()
}

type fakeSummaries struct {
	fn func() (fetcher.Summary, error)
}

func (f *fakeSummaries) Summarize(_ context.Context, _, _ string) (fetcher.Summary, error) {
	return f.fn()
}

func newTestServer(t *testing.T, transcripts fetcher.TranscriptFetcher, summaries fetcher.SummaryFetcher) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(pipeline.Config{
		Store:       storage.NewRecordStore(storage.NewMemory(), logger),
		Transcripts: transcripts,
		Summaries:   summaries,
		Retry:       pipeline.RetryPolicy{MaxRetries: 1, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1},
		Logger:      logger,
	})
	srv := httptest.NewServer(handler.NewServer(p, logger))
	t.Cleanup(srv.Close)

	return srv
}

func okServer(t *testing.T) *httptest.Server {
	t.Helper()

	return newTestServer(t,
		&fakeTranscripts{fn: func() (fetcher.Transcript, error) {
			return fetcher.Transcript{Text: "hello world", Language: "en"}, nil
		}},
		&fakeSummaries{fn: func() (fetcher.Summary, error) {
			return fetcher.Summary{Text: "Summary: hello world"}, nil
		}})
}

func doRequest(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(resBody, &parsed))
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	return res.StatusCode, parsed
}

func TestIndex(t *testing.T) {
	srv := okServer(t)

	status, body := doRequest(t, http.MethodGet, srv.URL, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ytsum index", body["message"])
}

func TestAddVideo(t *testing.T) {
	srv := okServer(t)

	status, body := doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "abc12345678", body["id"])
	assert.Equal(t, string(model.StatusNew), body["status"])

	// a known video comes back with 200, in any url form
	status, body = doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://www.youtube.com/watch?v=abc12345678"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "abc12345678", body["id"])

	status, body = doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://example.com/nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/video", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetVideo(t *testing.T) {
	srv := okServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)

	status, body := doRequest(t, http.MethodGet, srv.URL+"/video/abc12345678", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "abc12345678", body["id"])
	assert.Equal(t, "https://youtu.be/abc12345678", body["url"])

	status, _ = doRequest(t, http.MethodGet, srv.URL+"/video/unknown1234", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListVideos(t *testing.T) {
	srv := okServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/def12345678"}`)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/video", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var videos []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&videos))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, videos, 2)
	assert.Equal(t, "abc12345678", videos[0]["id"])
	assert.Equal(t, "def12345678", videos[1]["id"])
}

func TestRemoveVideo(t *testing.T) {
	srv := okServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)

	status, body := doRequest(t, http.MethodDelete, srv.URL+"/video/abc12345678", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "video removed", body["message"])

	status, _ = doRequest(t, http.MethodGet, srv.URL+"/video/abc12345678", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, http.MethodDelete, srv.URL+"/video/abc12345678", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFetchTranscript(t *testing.T) {
	srv := okServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)

	status, body := doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/transcript", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(model.StatusTranscriptReady), body["status"])
	assert.Equal(t, "hello world", body["transcript"])

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/video/unknown1234/transcript", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFetchTranscriptUnavailable(t *testing.T) {
	srv := newTestServer(t,
		&fakeTranscripts{fn: func() (fetcher.Transcript, error) {
			return fetcher.Transcript{}, fetcher.ErrNoTranscript
		}},
		&fakeSummaries{fn: func() (fetcher.Summary, error) {
			return fetcher.Summary{Text: "unused"}, nil
		}})
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)

	status, body := doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/transcript", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, body["error"])

	// the terminal state is visible on the record afterwards
	status, body = doRequest(t, http.MethodGet, srv.URL+"/video/abc12345678", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(model.StatusTranscriptUnavailable), body["status"])
}

func TestGenerateSummary(t *testing.T) {
	srv := okServer(t)
	doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)

	// summarizing before the transcript exists is refused
	status, _ := doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/summary", "")
	assert.Equal(t, http.StatusPreconditionFailed, status)

	doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/transcript", "")
	status, body := doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/summary", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(model.StatusSummaryReady), body["status"])
	assert.Equal(t, "Summary: hello world", body["summary"])

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/summary?force=1", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestGenerateSummaryUpstreamTrouble(t *testing.T) {
	for _, tc := range []struct {
		name      string
		err       error
		expStatus int
	}{
		{
			name:      "rejected",
			err:       &fetcher.RejectedError{Reason: "input too long"},
			expStatus: http.StatusConflict,
		},
		{
			name:      "transient",
			err:       &fetcher.TransientError{Err: io.ErrUnexpectedEOF},
			expStatus: http.StatusBadGateway,
		},
		{
			name:      "bad credential",
			err:       &fetcher.TransientError{Err: fetcher.ErrBadCredential},
			expStatus: http.StatusBadGateway,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t,
				&fakeTranscripts{fn: func() (fetcher.Transcript, error) {
					return fetcher.Transcript{Text: "hello world", Language: "en"}, nil
				}},
				&fakeSummaries{fn: func() (fetcher.Summary, error) {
					return fetcher.Summary{}, tc.err
				}})
			doRequest(t, http.MethodPost, srv.URL+"/video", `{"url":"https://youtu.be/abc12345678"}`)
			doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/transcript", "")

			status, body := doRequest(t, http.MethodPost, srv.URL+"/video/abc12345678/summary", "")
			assert.Equal(t, tc.expStatus, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := okServer(t)

	status, _ := doRequest(t, http.MethodGet, srv.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, http.MethodPut, srv.URL+"/video/abc12345678", "")
	assert.Equal(t, http.StatusNotFound, status)
}
