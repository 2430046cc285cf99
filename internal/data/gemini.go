package data

import (
	"context"

	"github.com/axionhq/axion-router/gemini"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// geminiRepo adapts the completion client to the completion repository
type geminiRepo struct {
	client *gemini.Client
}

// NewGeminiRepo creates a completion repository backed by Gemini
func NewGeminiRepo(client *gemini.Client) repo.CompletionRepo {
	return &geminiRepo{client: client}
}

// Generate produces a reply for the prompt using the company's API key
func (r *geminiRepo) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	return r.client.Generate(ctx, apiKey, prompt)
}
