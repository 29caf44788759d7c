// Package ai provides the chat-completion client used for variant
// composition.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"heartpet-recommender/internal/config"
)

// ChatClient wraps the OpenAI chat completion API.
type ChatClient struct {
	client *openai.Client
	config *config.OpenAIConfig
}

// NewChatClient creates a chat client from the OpenAI configuration.
func NewChatClient(cfg *config.OpenAIConfig) *ChatClient {
	return &ChatClient{
		client: openai.NewClient(cfg.APIKey),
		config: cfg,
	}
}

// Complete sends a system and user prompt and returns the assistant's
// reply text.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.RequestTimeout)*time.Second)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(timeoutCtx, openai.ChatCompletionRequest{
		Model:       c.config.ChatModel,
		Temperature: float32(c.config.Temperature),
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
