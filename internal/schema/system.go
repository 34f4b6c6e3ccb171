package schema

// System schema ids follow the "system_" naming convention; the prompt layer
// lists them by filtering AllSchemaIDs on this prefix.
const (
	SystemPrefix       = "system_"
	ZoneConfigSchemaID = "system_zone_config"
)

const zoneConfigContent = `{
  "type": "object",
  "properties": {
    "name": {
      "type": "string",
      "description": "Zone display name",
      "minLength": 1,
      "maxLength": 60
    },
    "description": {
      "type": "string",
      "description": "What this zone tracks",
      "maxLength": 500
    },
    "color": {
      "type": "string",
      "description": "Accent color",
      "enum": ["red", "orange", "yellow", "green", "blue", "purple", "gray"]
    },
    "archived": {
      "type": "boolean",
      "description": "Hidden from the active zone list"
    },
    "created_by": {
      "type": "string",
      "systemManaged": true
    }
  },
  "required": ["name"],
  "additionalProperties": false
}`

// RegisterSystemSchemas seeds the registry with the schemas owned by the
// system itself (as opposed to tool-type schemas).
func RegisterSystemSchemas(reg *StaticRegistry) {
	reg.Register(&Schema{
		ID:          ZoneConfigSchemaID,
		DisplayName: "Zone configuration",
		Description: "Configuration for a zone grouping tool instances",
		Category:    "system",
		Content:     zoneConfigContent,
	})
	reg.RegisterFieldName("name", "name")
	reg.RegisterFieldName("config_json", "configuration")
	reg.RegisterFieldName("schema_id", "schema id")
}
