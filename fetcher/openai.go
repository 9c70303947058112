package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

const summarizePrompt = `You are a helpful assistant. The user gives you the transcript of a YouTube video. Summarize what the video is about in the %q language.
Start with one or two sentences naming the subject, then list the main points as three to five bullet points, and close with one or two sentences of conclusion.
Do not add introductory sentences like "This text is about" or "Summary of...".`

type OpenAI struct {
	client      *openai.Client
	model       string
	inputBudget int
}

// NewOpenAI creates a summarizer that submits at most inputBudget
// bytes of transcript per request.
func NewOpenAI(apiKey, model string, inputBudget int) *OpenAI {
	if model == "" {
		model = openai.GPT4
	}

	return &OpenAI{
		client:      openai.NewClient(apiKey),
		model:       model,
		inputBudget: inputBudget,
	}
}

func (o *OpenAI) Summarize(ctx context.Context, transcript, outputLanguage string) (Summary, error) {
	input, truncated := TruncateTranscript(transcript, o.inputBudget)

	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: fmt.Sprintf(summarizePrompt, outputLanguage),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: input,
				},
			},
		})
	if err != nil {
		return Summary{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Summary{}, &TransientError{Err: errors.New("response contains no choices")}
	}

	return Summary{
		Text:      resp.Choices[len(resp.Choices)-1].Message.Content,
		Truncated: truncated,
	}, nil
}

// classifyOpenAIError maps service failures onto the boundary
// taxonomy: auth problems are credential errors, client-side refusals
// are terminal rejections, everything else may be retried.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &TransientError{Err: fmt.Errorf("%w: %s", ErrBadCredential, apiErr.Message)}
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
			return &RejectedError{Reason: apiErr.Message}
		default:
			return &TransientError{Err: err}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &TransientError{Err: fmt.Errorf("%w: %s", ErrBadCredential, reqErr.Error())}
		}
	}

	return &TransientError{Err: err}
}
