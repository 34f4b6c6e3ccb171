package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kayz/zonal/internal/command"
)

const (
	commandFence = "```command"
	closeFence   = "```"
)

// wireCommand is the JSON shape the model emits inside command fences.
type wireCommand struct {
	Resource  string         `json:"resource"`
	Operation string         `json:"operation"`
	Params    map[string]any `json:"params"`
}

// parseCommands extracts AI-issued commands from a model reply. Each fenced
// command block holds one object or an array of objects. Malformed blocks are
// reported as errors, not dropped silently, so the model can correct itself.
func parseCommands(content string) ([]command.ExecutableCommand, []error) {
	var cmds []command.ExecutableCommand
	var errs []error

	rest := content
	for {
		start := strings.Index(rest, commandFence)
		if start < 0 {
			break
		}
		rest = rest[start+len(commandFence):]
		end := strings.Index(rest, closeFence)
		if end < 0 {
			errs = append(errs, fmt.Errorf("unterminated command block"))
			break
		}
		block := strings.TrimSpace(rest[:end])
		rest = rest[end+len(closeFence):]

		parsed, err := parseBlock(block)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cmds = append(cmds, parsed...)
	}
	return cmds, errs
}

func parseBlock(block string) ([]command.ExecutableCommand, error) {
	if block == "" {
		return nil, fmt.Errorf("empty command block")
	}

	var wires []wireCommand
	if strings.HasPrefix(block, "[") {
		if err := json.Unmarshal([]byte(block), &wires); err != nil {
			return nil, fmt.Errorf("invalid command array: %w", err)
		}
	} else {
		var w wireCommand
		if err := json.Unmarshal([]byte(block), &w); err != nil {
			return nil, fmt.Errorf("invalid command object: %w", err)
		}
		wires = []wireCommand{w}
	}

	cmds := make([]command.ExecutableCommand, 0, len(wires))
	for _, w := range wires {
		if w.Resource == "" || w.Operation == "" {
			return nil, fmt.Errorf("command missing resource or operation")
		}
		params := w.Params
		if params == nil {
			params = map[string]any{}
		}
		cmds = append(cmds, command.ExecutableCommand{
			Resource:  w.Resource,
			Operation: w.Operation,
			Params:    params,
		})
	}
	return cmds, nil
}

// stripCommandBlocks returns the reply text with command fences removed, for
// user display.
func stripCommandBlocks(content string) string {
	var b strings.Builder
	rest := content
	for {
		start := strings.Index(rest, commandFence)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		rest = rest[start+len(commandFence):]
		end := strings.Index(rest, closeFence)
		if end < 0 {
			break
		}
		rest = rest[end+len(closeFence):]
	}
	return strings.TrimSpace(b.String())
}
