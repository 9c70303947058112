package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ewintr.nl/ytsum/model"
)

// Transcripts come from the InnerTube player endpoint: the ANDROID
// client variant returns the caption track list without an API key,
// and each track points at a timedtext XML document.
const (
	innertubePlayerURL = "https://www.youtube.com/youtubei/v1/player?prettyPrint=false"
	androidVersion     = "19.09.37"
	androidUserAgent   = "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip"
	maxTimedTextSize   = 512 * 1024
)

type InnerTube struct {
	client *http.Client
}

func NewInnerTube(timeout time.Duration) *InnerTube {
	return &InnerTube{
		client: &http.Client{Timeout: timeout},
	}
}

func (it *InnerTube) Fetch(ctx context.Context, id model.VideoID, preferred []string) (Transcript, error) {
	player, err := it.fetchPlayer(ctx, id)
	if err != nil {
		return Transcript{}, err
	}

	if player.Captions == nil {
		if ps := player.PlayabilityStatus; ps != nil && ps.Status != "OK" {
			return Transcript{}, fmt.Errorf("%w: %s", ErrNoTranscript, ps.Reason)
		}
		return Transcript{}, ErrNoTranscript
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return Transcript{}, ErrNoTranscript
	}

	track := pickTrack(tracks, preferred)
	text, err := it.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return Transcript{}, err
	}
	if text == "" {
		return Transcript{}, fmt.Errorf("%w: empty track", ErrNoTranscript)
	}

	return Transcript{Text: text, Language: track.LanguageCode}, nil
}

func (it *InnerTube) fetchPlayer(ctx context.Context, id model.VideoID) (*playerResponse, error) {
	reqBody, err := json.Marshal(innertubeRequest{
		VideoID: string(id),
		Context: innertubeContext{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, innertubePlayerURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidVersion)

	resp, err := it.client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TransientError{Err: fmt.Errorf("player endpoint returned %s", resp.Status)}
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("could not decode player response: %w", err)}
	}

	return &player, nil
}

func (it *InnerTube) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	req.Header.Set("User-Agent", androidUserAgent)

	resp, err := it.client.Do(req)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &TransientError{Err: fmt.Errorf("timedtext returned %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextSize))
	if err != nil {
		return "", &TransientError{Err: err}
	}

	text, err := flattenTimedText(body)
	if err != nil {
		return "", &TransientError{Err: err}
	}

	return text, nil
}

// pickTrack selects the caption track to use: a manual track in a
// preferred language wins over an auto-generated one, any preferred
// language wins over the rest, and a manual track breaks the final
// tie.
func pickTrack(tracks []captionTrack, preferred []string) captionTrack {
	for _, lang := range preferred {
		for _, track := range tracks {
			if track.LanguageCode == lang && !track.AutoGenerated() {
				return track
			}
		}
		for _, track := range tracks {
			if track.LanguageCode == lang {
				return track
			}
		}
	}
	for _, track := range tracks {
		if !track.AutoGenerated() {
			return track
		}
	}

	return tracks[0]
}

// flattenTimedText joins all caption lines of a timedtext XML document
// into a single text.
func flattenTimedText(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("could not parse timedtext: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := strings.TrimSpace(strings.ReplaceAll(line.Text, "\n", " "))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

type innertubeRequest struct {
	VideoID        string           `json:"videoId"`
	Context        innertubeContext `json:"context"`
	RacyCheckOk    bool             `json:"racyCheckOk"`
	ContentCheckOk bool             `json:"contentCheckOk"`
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion"`
	Hl                string `json:"hl"`
	Gl                string `json:"gl"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (t captionTrack) AutoGenerated() bool {
	return t.Kind == "asr"
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}
