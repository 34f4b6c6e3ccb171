package execute

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kayz/zonal/internal/command"
)

// metadataKeys are moved to the front of serialized result objects so the
// model sees identifying and summary information first in long JSON blobs.
var metadataKeys = []string{"id", "name", "count", "tool_instance_name", "tooltype", "zone_id", "zone_name"}

// formatData serializes result data with metadata keys first and the
// remaining keys in sorted order after them.
func formatData(data map[string]any) string {
	var b strings.Builder
	b.WriteByte('{')

	written := make(map[string]bool, len(data))
	first := true
	writeKey := func(key string) {
		val, ok := data[key]
		if !ok || written[key] {
			return
		}
		enc, err := json.Marshal(val)
		if err != nil {
			enc = []byte(fmt.Sprintf("%q", fmt.Sprintf("%v", val)))
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&b, "%q:%s", key, enc)
		written[key] = true
	}

	for _, key := range metadataKeys {
		writeKey(key)
	}

	rest := make([]string, 0, len(data))
	for key := range data {
		if !written[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		writeKey(key)
	}

	b.WriteByte('}')
	return b.String()
}

// dataTitle builds a descriptive header for query results from the result
// payload plus the filter parameters that shaped it.
func dataTitle(cmd command.ExecutableCommand, data map[string]any) string {
	var title string
	switch cmd.Resource {
	case "zones":
		switch cmd.Operation {
		case "list":
			title = fmt.Sprintf("Zones (%s)", countOf(data))
		default:
			title = "Zone configuration"
			if name := stringOf(data, "name"); name != "" {
				title += ": " + name
			}
		}
	case "tools":
		switch cmd.Operation {
		case "list":
			title = fmt.Sprintf("Tool instances (%s)", countOf(data))
		default:
			title = "Tool configuration"
			if name := stringOf(data, "name"); name != "" {
				title += ": " + name
			}
		}
	case "tool_data":
		title = "Tool data"
		if name := stringOf(data, "tool_instance_name"); name != "" {
			title = fmt.Sprintf("Data from tool '%s'", name)
		}
		if cmd.Operation == "get_sample" {
			title += " (sample)"
		}
	default:
		title = cmd.Resource
	}

	if suffix := filterSuffix(cmd.Params); suffix != "" {
		title += " " + suffix
	}
	return title
}

// filterSuffix summarizes the time range and record limit filters applied to
// a query, when present.
func filterSuffix(params map[string]any) string {
	var parts []string
	start, hasStart := params["start_time"].(string)
	end, hasEnd := params["end_time"].(string)
	if hasStart && hasEnd {
		parts = append(parts, fmt.Sprintf("%s to %s", start, end))
	}
	if limit, ok := numberOf(params, "limit"); ok {
		parts = append(parts, fmt.Sprintf("limit %d", limit))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// systemMessage builds a short natural-language summary of what happened,
// keyed by (resource, operation), with a generic fallback.
func systemMessage(cmd command.ExecutableCommand, data map[string]any) string {
	name := stringOf(data, "name")
	if name == "" {
		name = stringOf(cmd.Params, "name")
	}

	switch cmd.Resource {
	case "zones":
		switch cmd.Operation {
		case "create":
			return fmt.Sprintf("Created zone '%s'", name)
		case "update":
			return fmt.Sprintf("Updated zone '%s'", nameOrID(name, cmd.Params, "zone_id"))
		case "delete":
			return fmt.Sprintf("Deleted zone '%s'", nameOrID(name, cmd.Params, "zone_id"))
		case "list":
			return fmt.Sprintf("Listed %s zones", countOf(data))
		case "get_config":
			return fmt.Sprintf("Read configuration of zone '%s'", nameOrID(name, cmd.Params, "zone_id"))
		}
	case "tools":
		switch cmd.Operation {
		case "create":
			return fmt.Sprintf("Created tool instance '%s'", name)
		case "update":
			return fmt.Sprintf("Updated tool instance '%s'", nameOrID(name, cmd.Params, "tool_instance_id"))
		case "delete":
			return fmt.Sprintf("Deleted tool instance '%s'", nameOrID(name, cmd.Params, "tool_instance_id"))
		case "list":
			return fmt.Sprintf("Listed %s tool instances", countOf(data))
		case "get_config":
			return fmt.Sprintf("Read configuration of tool '%s'", nameOrID(name, cmd.Params, "tool_instance_id"))
		}
	case "tool_data":
		tool := stringOf(data, "tool_instance_name")
		if tool == "" {
			tool = stringOf(cmd.Params, "tool_instance_id")
		}
		switch cmd.Operation {
		case "create":
			return fmt.Sprintf("1 data point from tool '%s' added", tool)
		case "batch_create":
			return fmt.Sprintf("%s data points from tool '%s' added", countOf(data), tool)
		case "update":
			return fmt.Sprintf("Updated a data point from tool '%s'", tool)
		case "batch_update":
			return fmt.Sprintf("%s data points from tool '%s' updated", countOf(data), tool)
		case "delete":
			return fmt.Sprintf("Deleted a data point from tool '%s'", tool)
		case "get_data", "get_sample":
			return fmt.Sprintf("Fetched %s data points from tool '%s'", countOf(data), tool)
		}
	}

	return fmt.Sprintf("Executed %s", cmd.Name())
}

func nameOrID(name string, params map[string]any, idKey string) string {
	if name != "" {
		return name
	}
	return stringOf(params, idKey)
}

func stringOf(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func countOf(data map[string]any) string {
	if n, ok := numberOf(data, "count"); ok {
		return fmt.Sprintf("%d", n)
	}
	return "0"
}

func numberOf(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch n := m[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
