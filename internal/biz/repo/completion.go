package repo

import "context"

// CompletionRepo is the text-completion provider interface
type CompletionRepo interface {
	// Generate returns completion text for a prompt; may return empty
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}
