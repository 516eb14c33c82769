package core

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	completionModel       = "llama3-70b-8192"
	completionTemperature = 0.4
	completionMaxTokens   = 1500
)

// Completer produces a completion for a single free-text message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// CompletionService is a stateless passthrough to Groq's OpenAI-compatible
// chat-completions API. Every prompt is prefixed with a fixed, configured
// pretext.
type CompletionService struct {
	client  *openai.Client
	pretext string
}

func NewCompletionService(apiKey, baseURL, pretext string) *CompletionService {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &CompletionService{
		client:  openai.NewClientWithConfig(clientConfig),
		pretext: pretext,
	}
}

func (s *CompletionService) Complete(ctx context.Context, message string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       completionModel,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: s.pretext + message,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("groq completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
