package tooltype

import "github.com/kayz/zonal/internal/schema"

// Built-in tool types shipped with the app. Real deployments add more through
// the plugin registry; these cover the common tracking cases and give seed
// data something to instantiate.

const metricConfigContent = `{
  "type": "object",
  "properties": {
    "schema_id": {"type": "string", "minLength": 1},
    "unit": {"type": "string", "maxLength": 20},
    "goal": {"type": "number"},
    "always_send": {"type": "boolean", "description": "Include this instance's data in every prompt"}
  },
  "required": ["schema_id"],
  "additionalProperties": true
}`

const metricDataContent = `{
  "type": "object",
  "properties": {
    "value": {"type": "number", "minimum": 0, "maximum": 100000},
    "note": {"type": "string", "maxLength": 280},
    "recorded_by": {"type": "string", "systemManaged": true}
  },
  "required": ["value"],
  "additionalProperties": false
}`

const journalConfigContent = `{
  "type": "object",
  "properties": {
    "schema_id": {"type": "string", "minLength": 1},
    "always_send": {"type": "boolean"}
  },
  "required": ["schema_id"],
  "additionalProperties": true
}`

const journalDataContent = `{
  "type": "object",
  "properties": {
    "text": {"type": "string", "minLength": 1, "maxLength": 5000},
    "mood": {"type": "string", "enum": ["great", "good", "neutral", "low", "bad"]}
  },
  "required": ["text"],
  "additionalProperties": false
}`

// MetricTracker tracks numeric data points over time and supports scheduled
// automation executions (e.g. weekly summaries).
func MetricTracker() *Definition {
	return &Definition{
		TypeName:   "metric_tracker",
		TypeDesc:   "Tracks a numeric metric over time (weight, sleep hours, steps)",
		Executions: true,
		Schemas: []*schema.Schema{
			{ID: "metric_config", DisplayName: "Metric tracker configuration", Category: "config", Content: metricConfigContent},
			{ID: "metric_data", DisplayName: "Metric data point", Category: "data", Content: metricDataContent},
		},
	}
}

// Journal stores free-text entries with an optional mood tag.
func Journal() *Definition {
	return &Definition{
		TypeName:   "journal",
		TypeDesc:   "Free-text journal entries with an optional mood tag",
		Executions: false,
		Schemas: []*schema.Schema{
			{ID: "journal_config", DisplayName: "Journal configuration", Category: "config", Content: journalConfigContent},
			{ID: "journal_data", DisplayName: "Journal entry", Category: "data", Content: journalDataContent},
		},
	}
}

// RegisterBuiltins registers the built-in tool types.
func RegisterBuiltins(reg *MapRegistry) {
	reg.Register(MetricTracker())
	reg.Register(Journal())
}
