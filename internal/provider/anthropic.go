package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/kayz/zonal/internal/config"
	"github.com/kayz/zonal/internal/prompt"
	"github.com/kayz/zonal/internal/session"
)

// anthropicProvider targets the Anthropic messages API. Each context level
// becomes its own system block with a cache breakpoint after it, so a change
// in app state only invalidates the cache from Level 3 on.
type anthropicProvider struct {
	client *anthropic.Client
	cfg    config.AIConfig
}

func newAnthropic(cfg config.AIConfig) *anthropicProvider {
	opts := []anthropic.ClientOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicProvider{client: anthropic.NewClient(cfg.APIKey, opts...), cfg: cfg}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Complete(ctx context.Context, data *prompt.PromptData) Response {
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(p.cfg.Model),
		MultiSystem: systemParts(data),
		Messages:    anthropicMessages(data.Messages),
		MaxTokens:   p.cfg.MaxTokens,
	}
	if p.cfg.Temperature > 0 {
		t := p.cfg.Temperature
		req.Temperature = &t
	}

	resp, err := p.client.CreateMessages(ctx, req)
	if err != nil {
		return failure(fmt.Errorf("anthropic completion: %w", err))
	}

	return Response{
		Success:          true,
		Content:          resp.GetFirstContentText(),
		TokensUsed:       resp.Usage.InputTokens + resp.Usage.OutputTokens,
		InputTokens:      resp.Usage.InputTokens,
		CacheWriteTokens: resp.Usage.CacheCreationInputTokens,
		CacheReadTokens:  resp.Usage.CacheReadInputTokens,
	}
}

// systemParts maps levels to system blocks with ephemeral cache breakpoints
// between them.
func systemParts(data *prompt.PromptData) []anthropic.MessageSystemPart {
	cache := &anthropic.MessageCacheControl{Type: anthropic.CacheControlTypeEphemeral}

	var parts []anthropic.MessageSystemPart
	for _, level := range []struct {
		title, content string
	}{
		{"System documentation", data.Level1},
		{"User context", data.Level2},
		{"App state", data.Level3},
	} {
		if strings.TrimSpace(level.content) == "" {
			continue
		}
		parts = append(parts, anthropic.MessageSystemPart{
			Type:         "text",
			Text:         "# " + level.title + "\n\n" + level.content,
			CacheControl: cache,
		})
	}
	return parts
}

// anthropicMessages maps the filtered transcript to the wire format. The API
// requires strict user/assistant alternation to start with a user message;
// system notices become user-role context.
func anthropicMessages(messages []session.Message) []anthropic.Message {
	var out []anthropic.Message
	for _, msg := range messages {
		switch msg.Sender {
		case session.SenderAI:
			out = append(out, anthropic.NewAssistantTextMessage(msg.Content))
		case session.SenderSystem:
			out = append(out, anthropic.NewUserTextMessage("[system] "+msg.Content))
		default:
			out = append(out, anthropic.NewUserTextMessage(msg.Content))
		}
	}
	return out
}
