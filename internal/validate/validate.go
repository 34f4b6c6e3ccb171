// Package validate gates AI-issued mutating commands before they reach the
// command bus. Each (resource, operation) pair maps to one schema-validation
// path; commands with no matching rule pass trivially.
package validate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/schema"
	"github.com/kayz/zonal/internal/tooltype"
)

// Validator routes an about-to-be-executed command to the correct schema
// validation strategy. It is read-only with respect to its registries and
// never lets a panic or parse error escape as anything but a result.
type Validator struct {
	schemas schema.Registry
	tools   tooltype.Registry
	check   schema.Validator
}

// New creates a Validator over the given registries and schema checker.
func New(schemas schema.Registry, tools tooltype.Registry, check schema.Validator) *Validator {
	return &Validator{schemas: schemas, tools: tools, check: check}
}

// Validate dispatches cmd to its validation path. Unknown resource/operation
// pairs are trivially valid.
func (v *Validator) Validate(ctx context.Context, cmd command.ExecutableCommand) (res schema.ValidationResult) {
	if err := ctx.Err(); err != nil {
		return schema.Error("cancelled")
	}
	defer func() {
		if r := recover(); r != nil {
			res = schema.Error(fmt.Sprintf("validation failed: %v", r))
		}
	}()

	switch cmd.Resource {
	case "tools":
		switch cmd.Operation {
		case "create", "update":
			return v.validateToolConfig(cmd.Params)
		}
	case "tool_data":
		switch cmd.Operation {
		case "create":
			return v.validateToolData(cmd.Params, false)
		case "update":
			return v.validateToolData(cmd.Params, true)
		case "batch_create":
			return v.validateBatchToolData(cmd.Params, false)
		case "batch_update":
			return v.validateBatchToolData(cmd.Params, true)
		}
	case "zones":
		switch cmd.Operation {
		case "create", "update":
			return v.validateZoneConfig(cmd.Params)
		}
	}
	return schema.Success()
}

// validateToolConfig checks a tool instance configuration against the schema
// its tool type declares. The schema id lives inside the config JSON itself.
func (v *Validator) validateToolConfig(params map[string]any) schema.ValidationResult {
	toolType, ok := params["tool_type"].(string)
	if !ok || toolType == "" {
		return schema.Error("missing required field 'tool_type'")
	}
	configJSON, ok := params["config_json"].(string)
	if !ok || configJSON == "" {
		return schema.Error("missing required field 'config_json'")
	}

	var config map[string]any
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return schema.Error(fmt.Sprintf("invalid config_json: %v", err))
	}
	schemaID, ok := config["schema_id"].(string)
	if !ok || schemaID == "" {
		return schema.Error("missing required field 'schema_id' in config")
	}

	tt := v.tools.Get(toolType)
	if tt == nil {
		return schema.Error(fmt.Sprintf("tooltype '%s' not found", toolType))
	}
	sch := tt.Schema(schemaID)
	if sch == nil {
		return schema.Error(fmt.Sprintf("schema '%s' not found for tooltype '%s'", schemaID, toolType))
	}

	return v.check.Validate(sch.Content, config, false)
}

// dataMap accepts the data payload either as a generic key-value map or as a
// JSON-encoded object string.
func dataMap(raw any) (map[string]any, error) {
	switch d := raw.(type) {
	case map[string]any:
		return d, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(d), &m); err != nil {
			return nil, fmt.Errorf("invalid data JSON: %w", err)
		}
		return m, nil
	case nil:
		return nil, fmt.Errorf("missing required field 'data'")
	default:
		return nil, fmt.Errorf("data must be an object or JSON string")
	}
}

func (v *Validator) validateToolData(params map[string]any, partial bool) schema.ValidationResult {
	toolType, ok := params["tooltype"].(string)
	if !ok || toolType == "" {
		return schema.Error("missing required field 'tooltype'")
	}
	schemaID, ok := params["schema_id"].(string)
	if !ok || schemaID == "" {
		return schema.Error("missing required field 'schema_id'")
	}

	data, err := dataMap(params["data"])
	if err != nil {
		return schema.Error(err.Error())
	}

	tt := v.tools.Get(toolType)
	if tt == nil {
		return schema.Error(fmt.Sprintf("tooltype '%s' not found", toolType))
	}
	sch := tt.Schema(schemaID)
	if sch == nil {
		return schema.Error(fmt.Sprintf("schema '%s' not found for tooltype '%s'", schemaID, toolType))
	}

	// Addressing fields (tool_instance_id, name, timestamp) are the
	// coordinator's concern; only the data payload is schema-checked.
	return v.check.Validate(sch.Content, data, partial)
}

// validateBatchToolData validates every entry of a batch, failing fast: the
// first invalid entry aborts the remainder and its index prefixes the error.
// The schema id is read from the first entry; batches are assumed homogeneous.
func (v *Validator) validateBatchToolData(params map[string]any, partial bool) schema.ValidationResult {
	entriesRaw, ok := params["entries"].([]any)
	if !ok || len(entriesRaw) == 0 {
		return schema.Error("missing required field 'entries'")
	}

	first, ok := entriesRaw[0].(map[string]any)
	if !ok {
		return schema.Error("Item 0: entry must be an object")
	}
	schemaID, ok := first["schema_id"].(string)
	if !ok || schemaID == "" {
		if schemaID, ok = params["schema_id"].(string); !ok || schemaID == "" {
			return schema.Error("missing required field 'schema_id'")
		}
	}

	toolType, ok := params["tooltype"].(string)
	if !ok || toolType == "" {
		return schema.Error("missing required field 'tooltype'")
	}
	tt := v.tools.Get(toolType)
	if tt == nil {
		return schema.Error(fmt.Sprintf("tooltype '%s' not found", toolType))
	}
	sch := tt.Schema(schemaID)
	if sch == nil {
		return schema.Error(fmt.Sprintf("schema '%s' not found for tooltype '%s'", schemaID, toolType))
	}

	for i, raw := range entriesRaw {
		entry, ok := raw.(map[string]any)
		if !ok {
			return schema.Error(fmt.Sprintf("Item %d: entry must be an object", i))
		}
		data, err := dataMap(entry["data"])
		if err != nil {
			return schema.Error(fmt.Sprintf("Item %d: %v", i, err))
		}
		if res := v.check.Validate(sch.Content, data, partial); !res.Valid {
			return schema.Error(fmt.Sprintf("Item %d: %s", i, res.Err))
		}
	}
	return schema.Success()
}

// validateZoneConfig validates zone params against the zone-config schema.
// zone_id is addressing information, not configuration, and is stripped
// before validation.
func (v *Validator) validateZoneConfig(params map[string]any) schema.ValidationResult {
	sch := v.schemas.GetSchema(schema.ZoneConfigSchemaID)
	if sch == nil {
		return schema.Error("zone_config schema not found")
	}

	config := make(map[string]any, len(params))
	for k, val := range params {
		if k == "zone_id" {
			continue
		}
		config[k] = val
	}
	return v.check.Validate(sch.Content, config, false)
}
