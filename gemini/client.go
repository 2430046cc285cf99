package gemini

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Gemini exposes an OpenAI-compatible surface; the completion client rides
// on it so every tenant key works with the same request shape
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

const defaultModel = "gemini-2.5-flash"

// Client is the text-completion client. Tenants carry their own API keys,
// so a per-key OpenAI client is built on each call.
type Client struct {
	baseURL string
	model   string
}

// NewClient creates a new completion client
func NewClient(model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: geminiBaseURL,
		model:   model,
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint
func NewClientWithBaseURL(baseURL, model string) *Client {
	c := NewClient(model)
	c.baseURL = baseURL
	return c
}

// Generate sends a single-prompt completion request and returns the text
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = c.baseURL

	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}
