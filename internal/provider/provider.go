// Package provider transforms assembled prompt data into provider-specific
// wire requests and parses responses back into a common shape.
package provider

import (
	"context"
	"fmt"

	"github.com/kayz/zonal/internal/config"
	"github.com/kayz/zonal/internal/prompt"
)

// Response is the provider-independent result of one completion call.
// Infrastructure failures are folded into Success/ErrorMessage; callers never
// see transport errors directly.
type Response struct {
	Success          bool
	Content          string
	ErrorMessage     string
	TokensUsed       int
	InputTokens      int
	CacheWriteTokens int
	CacheReadTokens  int
}

// Provider sends an assembled prompt and returns the model's reply.
type Provider interface {
	Name() string
	Complete(ctx context.Context, data *prompt.PromptData) Response
}

// New builds the configured provider.
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAI(cfg), nil
	case "anthropic":
		return newAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func failure(err error) Response {
	return Response{Success: false, ErrorMessage: err.Error()}
}
