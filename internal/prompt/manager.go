// Package prompt assembles provider-ready prompts from layered context
// levels and the session transcript.
package prompt

import (
	"context"
	"fmt"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/config"
	"github.com/kayz/zonal/internal/dedup"
	"github.com/kayz/zonal/internal/execute"
	"github.com/kayz/zonal/internal/logger"
	"github.com/kayz/zonal/internal/schema"
	"github.com/kayz/zonal/internal/session"
	"github.com/kayz/zonal/internal/tooltype"
)

// PromptData is an assembled prompt ready for a provider-specific
// transformation. Level3 may be empty when the app-state level is disabled.
type PromptData struct {
	SessionID       string
	SessionType     string
	Level1          string
	Level2          string
	Level3          string
	Messages        []session.Message
	EstimatedTokens int
}

// Manager orchestrates one prompt build: load session, build levels in
// order, load and filter the transcript, assemble. One Manager per process,
// stateless apart from its collaborators; callers serialize builds per
// session since two concurrent builds would race on the transcript.
type Manager struct {
	sessions *session.Store
	bus      command.Coordinator
	schemas  schema.Registry
	tools    tooltype.Registry
	cfg      config.PromptConfig
	pipeline levelPipeline
}

// NewManager wires a Manager from its collaborators. parent may be nil; it
// enables the zone-subsumes-tool deduplication rule.
func NewManager(sessions *session.Store, bus command.Coordinator, schemas schema.Registry,
	tools tooltype.Registry, cfg config.PromptConfig, parent dedup.ParentResolver) *Manager {
	return &Manager{
		sessions: sessions,
		bus:      bus,
		schemas:  schemas,
		tools:    tools,
		cfg:      cfg,
		pipeline: levelPipeline{
			dedup:    &dedup.Deduplicator{Parent: parent},
			proc:     command.NewProcessor(),
			executor: execute.New(bus),
		},
	}
}

// promptExcludedSystemTypes are infrastructure noise suppressed from the
// AI-visible transcript while remaining in storage for history display.
var promptExcludedSystemTypes = map[string]bool{
	session.SystemNetworkError:   true,
	session.SystemSessionTimeout: true,
	session.SystemInterrupted:    true,
}

// BuildPrompt executes the build sequence for one session. Session load
// failure is fatal to the attempt; no partial prompt is produced. Everything
// after that degrades: a failed level is logged and left empty.
func (m *Manager) BuildPrompt(ctx context.Context, sessionID string) (*PromptData, error) {
	sess, err := m.sessions.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	data := &PromptData{SessionID: sess.ID, SessionType: sess.Type}

	data.Level1 = buildDocumentation(sess.Type, m.cfg.MaxChunkDegree, m.schemas, m.tools)
	data.Level2 = m.pipeline.run(ctx, userContextQueries(ctx, m.bus), LevelUserContext)
	if m.cfg.IncludeAppState == nil || *m.cfg.IncludeAppState {
		data.Level3 = m.pipeline.run(ctx, appStateQueries(), LevelAppState)
	}

	messages, err := m.sessions.Messages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load messages for session %s: %w", sessionID, err)
	}
	data.Messages = filterMessages(messages, m.cfg.MaxHistory)

	data.EstimatedTokens = estimateTokens(data)
	logger.Debug("prompt build for session %s: ~%d tokens, %d messages",
		sess.ID, data.EstimatedTokens, len(data.Messages))
	return data, nil
}

// filterMessages drops messages the AI must not see: excluded system types
// and UI-only messages. The full transcript stays in storage for audit.
func filterMessages(messages []session.Message, maxHistory int) []session.Message {
	out := make([]session.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.ExcludeFromPrompt {
			continue
		}
		if msg.Sender == session.SenderSystem && promptExcludedSystemTypes[msg.SystemType] {
			continue
		}
		out = append(out, msg)
	}
	if maxHistory > 0 && len(out) > maxHistory {
		out = out[len(out)-maxHistory:]
	}
	return out
}

// estimateTokens approximates token usage as characters divided by four.
// Advisory only; budget enforcement needs a real tokenizer.
func estimateTokens(data *PromptData) int {
	chars := len(data.Level1) + len(data.Level2) + len(data.Level3)
	for _, msg := range data.Messages {
		chars += len(msg.Content)
	}
	return chars / 4
}
