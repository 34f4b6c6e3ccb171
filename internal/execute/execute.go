// Package execute runs resolved commands through the command bus and formats
// their results for inclusion in a prompt or a session transcript.
package execute

import (
	"context"
	"fmt"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/logger"
)

// CommandResult is the formatted outcome of one executed command. DataTitle
// and FormattedData are empty for mutating operations, which have nothing to
// present beyond a confirmation message.
type CommandResult struct {
	DataTitle     string `json:"data_title"`
	FormattedData string `json:"formatted_data"`
	SystemMessage string `json:"system_message"`
}

// Executor dispatches commands sequentially through the Coordinator. Commands
// in one batch run in a fixed order; nothing here is concurrent. The executor
// never panics past its own boundary.
type Executor struct {
	bus command.Coordinator
}

// New creates an Executor over the given command bus.
func New(bus command.Coordinator) *Executor {
	return &Executor{bus: bus}
}

// Execute runs every command, collecting results. Failures are logged and
// skipped so partial context is still produced; this is the production policy
// for prompt context building. The level tag only feeds logging.
func (e *Executor) Execute(ctx context.Context, cmds []command.ExecutableCommand, level string) []CommandResult {
	results := make([]CommandResult, 0, len(cmds))
	for _, cmd := range cmds {
		if ctx.Err() != nil {
			logger.Warn("execute %s: cancelled, %d of %d commands done", level, len(results), len(cmds))
			return results
		}
		res, err := e.runOne(ctx, cmd)
		if err != nil {
			logger.Warn("execute %s: %s failed: %v", level, cmd.Name(), err)
			continue
		}
		results = append(results, res)
	}
	return results
}

// ExecuteCascade runs commands until the first failure, which aborts the
// remainder. Used when applying AI-issued mutation batches, where later
// commands may depend on earlier ones having happened.
func (e *Executor) ExecuteCascade(ctx context.Context, cmds []command.ExecutableCommand) ([]CommandResult, error) {
	results := make([]CommandResult, 0, len(cmds))
	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("cancelled after %d of %d commands", i, len(cmds))
		}
		res, err := e.runOne(ctx, cmd)
		if err != nil {
			return results, fmt.Errorf("command %d (%s): %w", i, cmd.Name(), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// runOne dispatches a single command and formats its result. A panic from
// formatting or the bus is treated as a dispatch failure.
func (e *Executor) runOne(ctx context.Context, cmd command.ExecutableCommand) (result CommandResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = CommandResult{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res := e.bus.ProcessUserAction(ctx, cmd.Name(), cmd.Params)
	if !res.Success {
		return CommandResult{}, fmt.Errorf("dispatch failed: %s", res.Err)
	}

	if command.IsAction(cmd.Operation) {
		// Empty data is expected for actions; there is nothing to present.
		return CommandResult{
			SystemMessage: systemMessage(cmd, res.Data),
		}, nil
	}

	if len(res.Data) == 0 {
		logger.Debug("query %s returned no data", cmd.Name())
		return CommandResult{
			SystemMessage: systemMessage(cmd, res.Data),
		}, nil
	}

	return CommandResult{
		DataTitle:     dataTitle(cmd, res.Data),
		FormattedData: formatData(res.Data),
		SystemMessage: systemMessage(cmd, res.Data),
	}, nil
}
