package models

import "context"

// Agent is the text-generation surface the fusion engine consumes.
// Providers are constructed once and swapped freely; callers never see
// anything provider-specific beyond the model identifier recorded on
// the summaries a generation produced.
type Agent interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelID() string
}

// TokenCounter estimates how many tokens a text occupies in a model's
// context window. The chunk splitter takes one of these so the estimate
// can be swapped for a model-specific tokenizer.
type TokenCounter interface {
	CountTokens(text string) int
}
