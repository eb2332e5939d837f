// Package llm wraps the language-model and speech-to-text provider used for
// transcript summaries and audio cleanup.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/shared"
)

const (
	summaryMaxTokens   = 200
	summaryTemperature = 0.3
	cleanupMaxTokens   = 500
	cleanupTemperature = 0.1
)

// Client defines the provider calls used by the summarizer and the audio
// pipeline.
type Client interface {
	// Summarize returns a short clinical digest of transcript.
	Summarize(ctx context.Context, transcript string) (string, error)
	// Clean rewrites transcribed text using medicalContext as reference.
	Clean(ctx context.Context, text, medicalContext string) (string, error)
	// Transcribe converts an audio recording to text.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// OpenAIClient implements Client on the OpenAI API.
type OpenAIClient struct {
	client          *openai.Client
	summaryModel    string
	cleanupModel    string
	transcribeModel string
}

// NewOpenAIClient builds a client from cfg. A missing API key is not an error
// here; every call reports it as unavailable instead.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	c := &OpenAIClient{
		summaryModel:    cfg.SummaryModel,
		cleanupModel:    cfg.CleanupModel,
		transcribeModel: cfg.TranscribeModel,
	}
	if cfg.APIKey == "" {
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Configured reports whether an API key was supplied.
func (c *OpenAIClient) Configured() bool {
	return c.client != nil
}

// Summarize implements Client.
func (c *OpenAIClient) Summarize(ctx context.Context, transcript string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: summaryPrompt(transcript)},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
}

// Clean implements Client.
func (c *OpenAIClient) Clean(ctx context.Context, text, medicalContext string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.cleanupModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: cleanupSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: cleanupPrompt(text, medicalContext)},
		},
		MaxTokens:   cleanupMaxTokens,
		Temperature: cleanupTemperature,
	})
}

// Transcribe implements Client. The recording is uploaded as webm.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if !c.Configured() {
		return "", errMissingKey()
	}
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: "audio-" + uuid.NewString() + ".webm",
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", providerError("transcription", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if !c.Configured() {
		return "", errMissingKey()
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", providerError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", shared.Upstream("OpenAI API error: empty completion", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func errMissingKey() error {
	return shared.Unavailable("Server missing OPENAI_API_KEY")
}

// providerError maps go-openai failures onto the upstream kind, keeping the
// provider status for diagnosis.
func providerError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return shared.Upstream(fmt.Sprintf("OpenAI API error: %s returned %d: %s", op, apiErr.HTTPStatusCode, apiErr.Message), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return shared.Upstream(fmt.Sprintf("OpenAI API error: %s returned %d", op, reqErr.HTTPStatusCode), err)
	}
	return shared.Upstream(fmt.Sprintf("OpenAI API error: %s failed", op), err)
}
