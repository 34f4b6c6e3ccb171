package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/kayz/zonal/internal/config"
	"github.com/kayz/zonal/internal/prompt"
	"github.com/kayz/zonal/internal/session"
)

// openAIProvider targets the OpenAI chat completions API (and compatible
// endpoints via base_url). The three context levels are concatenated into the
// system message; OpenAI applies prompt caching to stable prefixes
// automatically, so level order is what keeps the cache warm.
type openAIProvider struct {
	client *openai.Client
	cfg    config.AIConfig
}

func newOpenAI(cfg config.AIConfig) *openAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIProvider{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Complete(ctx context.Context, data *prompt.PromptData) Response {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemContent(data)},
	}
	for _, msg := range data.Messages {
		messages = append(messages, openAIMessage(msg))
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return failure(fmt.Errorf("openai completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return failure(fmt.Errorf("openai completion: empty choices"))
	}

	out := Response{
		Success:     true,
		Content:     resp.Choices[0].Message.Content,
		TokensUsed:  resp.Usage.TotalTokens,
		InputTokens: resp.Usage.PromptTokens,
	}
	if resp.Usage.PromptTokensDetails != nil {
		out.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}
	return out
}

// systemContent joins the levels with headers; empty levels are skipped.
func systemContent(data *prompt.PromptData) string {
	var parts []string
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
		parts = append(parts, "# "+level.title+"\n\n"+level.content)
	}
	return strings.Join(parts, "\n\n")
}

func openAIMessage(msg session.Message) openai.ChatCompletionMessage {
	switch msg.Sender {
	case session.SenderAI:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
	case session.SenderSystem:
		// Command results and other system notices re-enter the conversation
		// as user-role context; a second system message would reset caching.
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "[system] " + msg.Content}
	default:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content}
	}
}
