// Package orchestrator runs complete session turns: prompt build, provider
// call, AI command validation and execution, transcript updates.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/execute"
	"github.com/kayz/zonal/internal/logger"
	"github.com/kayz/zonal/internal/prompt"
	"github.com/kayz/zonal/internal/provider"
	"github.com/kayz/zonal/internal/session"
	"github.com/kayz/zonal/internal/validate"
)

// automationCompleteMarker is the explicit completion signal AUTOMATION
// sessions must emit; they have no user to end the conversation.
const automationCompleteMarker = "AUTOMATION_COMPLETE"

// TurnResult is the outcome of one session turn.
type TurnResult struct {
	Reply    string
	Results  []execute.CommandResult
	Usage    provider.Response
	Complete bool
}

// Orchestrator owns one session turn end to end. Callers serialize turns per
// session; the transcript is append-only and two concurrent turns would race.
type Orchestrator struct {
	sessions  *session.Store
	manager   *prompt.Manager
	provider  provider.Provider
	validator *validate.Validator
	executor  *execute.Executor
}

// New wires an Orchestrator from its collaborators.
func New(sessions *session.Store, manager *prompt.Manager, prov provider.Provider,
	validator *validate.Validator, executor *execute.Executor) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		manager:   manager,
		provider:  prov,
		validator: validator,
		executor:  executor,
	}
}

// Turn runs one turn. userInput may be empty for automation ticks. The
// returned error covers session-load and storage failures only; provider and
// command failures surface through the transcript and TurnResult.
func (o *Orchestrator) Turn(ctx context.Context, sessionID, userInput string) (*TurnResult, error) {
	if userInput != "" {
		err := o.sessions.AppendMessage(&session.Message{
			SessionID: sessionID,
			Sender:    session.SenderUser,
			Content:   userInput,
		})
		if err != nil {
			return nil, fmt.Errorf("append user message: %w", err)
		}
	}

	data, err := o.manager.BuildPrompt(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := o.provider.Complete(ctx, data)
	if !resp.Success {
		logger.Error("provider call failed for session %s: %s", sessionID, resp.ErrorMessage)
		// Detail stays in logs; the transcript records a generic notice that
		// never reaches the next prompt.
		err := o.sessions.AppendMessage(&session.Message{
			SessionID:  sessionID,
			Sender:     session.SenderSystem,
			SystemType: session.SystemNetworkError,
			Content:    "The AI service could not be reached.",
		})
		if err != nil {
			return nil, fmt.Errorf("append failure notice: %w", err)
		}
		return &TurnResult{Usage: resp}, nil
	}

	if err := o.sessions.AppendMessage(&session.Message{
		SessionID: sessionID,
		Sender:    session.SenderAI,
		Content:   resp.Content,
	}); err != nil {
		return nil, fmt.Errorf("append AI message: %w", err)
	}

	results := o.applyCommands(ctx, resp.Content)
	if len(results) > 0 {
		summaries := make([]string, 0, len(results))
		for _, r := range results {
			summaries = append(summaries, r.SystemMessage)
		}
		err := o.sessions.AppendMessage(&session.Message{
			SessionID:      sessionID,
			Sender:         session.SenderSystem,
			SystemType:     session.SystemCommandResults,
			Content:        strings.Join(summaries, "\n"),
			CommandResults: results,
		})
		if err != nil {
			return nil, fmt.Errorf("append command results: %w", err)
		}
	}

	result := &TurnResult{
		Reply:   stripCommandBlocks(resp.Content),
		Results: results,
		Usage:   resp,
	}

	if strings.Contains(resp.Content, automationCompleteMarker) {
		result.Complete = true
		err := o.sessions.AppendMessage(&session.Message{
			SessionID:         sessionID,
			Sender:            session.SenderSystem,
			SystemType:        session.SystemAutomationComplete,
			Content:           "Automation run completed.",
			ExcludeFromPrompt: true,
		})
		if err != nil {
			return nil, fmt.Errorf("append completion notice: %w", err)
		}
	}

	return result, nil
}

// applyCommands validates and executes AI-issued commands in order with
// cascade semantics: the first validation or dispatch failure halts the
// remainder, and its reason feeds back into the transcript so the model can
// self-correct.
func (o *Orchestrator) applyCommands(ctx context.Context, content string) []execute.CommandResult {
	cmds, parseErrs := parseCommands(content)

	var results []execute.CommandResult
	for _, err := range parseErrs {
		results = append(results, execute.CommandResult{
			SystemMessage: fmt.Sprintf("Command rejected: %v", err),
		})
	}

	for i, cmd := range cmds {
		if res := o.validator.Validate(ctx, cmd); !res.Valid {
			results = append(results, execute.CommandResult{
				SystemMessage: fmt.Sprintf("Validation failed for %s: %s", cmd.Name(), res.Err),
			})
			if remaining := len(cmds) - i - 1; remaining > 0 {
				results = append(results, execute.CommandResult{
					SystemMessage: fmt.Sprintf("%d subsequent command(s) skipped", remaining),
				})
			}
			return results
		}

		execResults, err := o.executor.ExecuteCascade(ctx, []command.ExecutableCommand{cmd})
		results = append(results, execResults...)
		if err != nil {
			results = append(results, execute.CommandResult{
				SystemMessage: fmt.Sprintf("Command %s failed: %v", cmd.Name(), err),
			})
			if remaining := len(cmds) - i - 1; remaining > 0 {
				results = append(results, execute.CommandResult{
					SystemMessage: fmt.Sprintf("%d subsequent command(s) skipped", remaining),
				})
			}
			return results
		}
	}
	return results
}
