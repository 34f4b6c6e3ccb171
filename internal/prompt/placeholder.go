package prompt

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/kayz/zonal/internal/logger"
	"github.com/kayz/zonal/internal/schema"
	"github.com/kayz/zonal/internal/tooltype"
)

const (
	schemaToken        = "{{SCHEMA:"
	systemSchemasToken = "{{SYSTEM_SCHEMA_IDS}}"
	executionsToken    = "{{EXECUTION_TOOLTYPES}}"
)

// resolvePlaceholders substitutes dynamic registry content into chunk text.
// {{SCHEMA:<id>}} expands to the named schema pretty-printed in a fenced code
// block, so static documentation can reference live schema content without
// duplicating it. Unresolvable tokens are replaced with a marker and logged,
// never left to confuse the model.
func resolvePlaceholders(text string, schemas schema.Registry, tools tooltype.Registry) string {
	text = strings.ReplaceAll(text, systemSchemasToken, systemSchemaIDs(schemas))
	text = strings.ReplaceAll(text, executionsToken, executionToolTypes(tools))

	var b strings.Builder
	for {
		idx := strings.Index(text, schemaToken)
		if idx < 0 {
			b.WriteString(text)
			break
		}
		end := strings.Index(text[idx:], "}}")
		if end < 0 {
			b.WriteString(text)
			break
		}
		end += idx
		id := text[idx+len(schemaToken) : end]

		b.WriteString(text[:idx])
		b.WriteString(schemaBlock(id, schemas))
		text = text[end+2:]
	}
	return b.String()
}

func schemaBlock(id string, schemas schema.Registry) string {
	var sch *schema.Schema
	if schemas != nil {
		sch = schemas.GetSchema(id)
	}
	if sch == nil {
		logger.Warn("prompt: schema placeholder '%s' not found", id)
		return "(schema " + id + " unavailable)"
	}

	pretty := sch.Content
	var obj map[string]any
	if err := json.Unmarshal([]byte(sch.Content), &obj); err == nil {
		if enc, err := json.MarshalIndent(obj, "", "  "); err == nil {
			pretty = string(enc)
		}
	}
	return "\n```json\n" + pretty + "\n```\n"
}

// systemSchemaIDs lists registered schema ids following the system naming
// convention.
func systemSchemaIDs(schemas schema.Registry) string {
	if schemas == nil {
		return "(none)"
	}
	var ids []string
	for _, id := range schemas.AllSchemaIDs() {
		if strings.HasPrefix(id, schema.SystemPrefix) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}

// executionToolTypes lists tool types that support scheduled executions.
func executionToolTypes(tools tooltype.Registry) string {
	if tools == nil {
		return "(none)"
	}
	var names []string
	for name, t := range tools.All() {
		if t.SupportsExecutions() {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "(none)"
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
