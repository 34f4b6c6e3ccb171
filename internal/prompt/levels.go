package prompt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/dedup"
	"github.com/kayz/zonal/internal/execute"
	"github.com/kayz/zonal/internal/logger"
	"github.com/kayz/zonal/internal/schema"
	"github.com/kayz/zonal/internal/session"
	"github.com/kayz/zonal/internal/tooltype"
)

// Level names, ordered from most stable (documentation) to least (live app
// state). The ordering aligns with provider prompt-caching boundaries: a
// level only invalidates the cache for levels after it.
const (
	LevelDocumentation = "level1_documentation"
	LevelUserContext   = "level2_user_context"
	LevelAppState      = "level3_app_state"
)

// levelPipeline runs generated queries through dedup, resolution and
// execution, shared by the dynamic levels.
type levelPipeline struct {
	dedup    *dedup.Deduplicator
	proc     *command.Processor
	executor *execute.Executor
}

func (p *levelPipeline) run(ctx context.Context, queries []command.DataQuery, level string) string {
	queries = p.dedup.Deduplicate(queries)
	cmds, errs := p.proc.Process(queries)
	for _, err := range errs {
		logger.Warn("prompt %s: %v", level, err)
	}
	results := p.executor.Execute(ctx, cmds, level)
	return renderResults(results)
}

func renderResults(results []execute.CommandResult) string {
	var blocks []string
	for _, r := range results {
		if r.FormattedData == "" {
			continue
		}
		var b strings.Builder
		if r.DataTitle != "" {
			b.WriteString("## ")
			b.WriteString(r.DataTitle)
			b.WriteString("\n")
		}
		b.WriteString(r.FormattedData)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// buildDocumentation assembles Level 1 from the chunk library: degree
// selection, session-type-conditional guidance, then placeholder resolution
// against the live registries.
func buildDocumentation(sessionType string, maxDegree int, schemas schema.Registry, tools tooltype.Registry) string {
	chunks := selectChunks(documentationChunks, maxDegree)
	if sessionType == session.TypeAutomation {
		chunks = append(chunks, automationCompletionChunk)
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(resolvePlaceholders(c.Text, schemas, tools))
	}
	return b.String()
}

// userContextQueries enumerates tool instances and emits an all-data query
// for every instance whose config flags always_send. This is how a tool
// signals that its data should be visible to the AI regardless of
// conversation topic.
func userContextQueries(ctx context.Context, bus command.Coordinator) []command.DataQuery {
	res := bus.ProcessUserAction(ctx, "tools.list", map[string]any{})
	if !res.Success {
		logger.Warn("prompt: tools.list failed: %s", res.Err)
		return nil
	}

	tools, _ := res.Data["tools"].([]any)
	var queries []command.DataQuery
	for _, raw := range tools {
		tool, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := tool["id"].(string)
		configJSON, _ := tool["config_json"].(string)
		if id == "" || configJSON == "" {
			continue
		}

		var config map[string]any
		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			logger.Warn("prompt: tool %s has malformed config: %v", id, err)
			continue
		}
		if send, _ := config["always_send"].(bool); !send {
			continue
		}

		queries = append(queries, command.DataQuery{
			ID:     "always_send_" + id,
			Type:   command.QueryToolData,
			Params: map[string]any{"tool_instance_id": id},
		})
	}
	return queries
}

// appStateQueries gives the AI structural awareness of the app's
// configuration independent of conversation content.
func appStateQueries() []command.DataQuery {
	return []command.DataQuery{
		{ID: "app_zones", Type: command.QueryZoneList, Params: map[string]any{}},
		{ID: "app_tools", Type: command.QueryToolList, Params: map[string]any{}},
	}
}
