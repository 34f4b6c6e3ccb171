// Package coordinator implements the command bus backing all app-state reads
// and writes: zones, tool instances and their data points. The orchestration
// core only talks to it through command.Coordinator.
package coordinator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/logger"
)

// Coordinator dispatches "resource.operation" commands against the Store.
type Coordinator struct {
	store *Store
}

// New creates a Coordinator over the given store.
func New(store *Store) *Coordinator {
	return &Coordinator{store: store}
}

// ProcessUserAction implements command.Coordinator. It never panics; unknown
// commands and storage errors come back as failed results.
func (c *Coordinator) ProcessUserAction(ctx context.Context, cmd string, params map[string]any) (res command.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("coordinator: %s panicked: %v", cmd, r)
			res = command.Fail(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return command.Fail("cancelled")
	}

	resource, operation := command.Split(cmd)
	switch resource {
	case "zones":
		return c.zones(operation, params)
	case "tools":
		return c.tools(operation, params)
	case "tool_data":
		return c.toolData(operation, params)
	default:
		return command.Fail(fmt.Sprintf("unknown resource '%s'", resource))
	}
}

func (c *Coordinator) zones(operation string, params map[string]any) command.Result {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	switch operation {
	case "create":
		id := uuid.NewString()
		name, _ := params["name"].(string)
		if name == "" {
			return command.Fail("zone name is required")
		}
		_, err := c.store.db.Exec(`
			INSERT INTO zones (id, name, description, color, archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, name, str(params, "description"), str(params, "color"), boolInt(params, "archived"), now, now)
		if err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id, "name": name})

	case "update":
		id := str(params, "zone_id")
		if id == "" {
			return command.Fail("zone_id is required")
		}
		existing, err := c.zoneRow(id)
		if err != nil {
			return command.Fail(fmt.Sprintf("zone '%s' not found", id))
		}
		name := existing["name"].(string)
		if v, ok := params["name"].(string); ok {
			name = v
		}
		desc := orString(params, "description", existing)
		color := orString(params, "color", existing)
		_, err = c.store.db.Exec(`
			UPDATE zones SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?
		`, name, desc, color, now, id)
		if err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id, "name": name})

	case "delete":
		id := str(params, "zone_id")
		if id == "" {
			return command.Fail("zone_id is required")
		}
		if _, err := c.store.db.Exec(`DELETE FROM zones WHERE id = ?`, id); err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id})

	case "get_config":
		id := str(params, "zone_id")
		row, err := c.zoneRow(id)
		if err != nil {
			return command.Fail(fmt.Sprintf("zone '%s' not found", id))
		}
		return command.OK(row)

	case "list":
		rows, err := c.store.db.Query(`
			SELECT id, name, description, color, archived FROM zones ORDER BY created_at ASC
		`)
		if err != nil {
			return command.Fail(err.Error())
		}
		defer rows.Close()
		var zones []map[string]any
		for rows.Next() {
			var id, name string
			var desc, color sql.NullString
			var archived int
			if err := rows.Scan(&id, &name, &desc, &color, &archived); err != nil {
				return command.Fail(err.Error())
			}
			zones = append(zones, map[string]any{
				"id": id, "name": name, "description": desc.String,
				"color": color.String, "archived": archived != 0,
			})
		}
		return command.OK(map[string]any{"count": len(zones), "zones": zones})

	default:
		return command.Fail(fmt.Sprintf("unknown operation 'zones.%s'", operation))
	}
}

func (c *Coordinator) zoneRow(id string) (map[string]any, error) {
	row := c.store.db.QueryRow(`SELECT id, name, description, color, archived FROM zones WHERE id = ?`, id)
	var zid, name string
	var desc, color sql.NullString
	var archived int
	if err := row.Scan(&zid, &name, &desc, &color, &archived); err != nil {
		return nil, err
	}
	return map[string]any{
		"id": zid, "name": name, "description": desc.String,
		"color": color.String, "archived": archived != 0,
	}, nil
}

func (c *Coordinator) tools(operation string, params map[string]any) command.Result {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	switch operation {
	case "create":
		name := str(params, "name")
		toolType := str(params, "tool_type")
		configJSON := str(params, "config_json")
		if name == "" || toolType == "" || configJSON == "" {
			return command.Fail("name, tool_type and config_json are required")
		}
		id := uuid.NewString()
		_, err := c.store.db.Exec(`
			INSERT INTO tool_instances (id, zone_id, name, tool_type, config_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, str(params, "zone_id"), name, toolType, configJSON, now, now)
		if err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id, "name": name, "tooltype": toolType})

	case "update":
		id := str(params, "tool_instance_id")
		if id == "" {
			return command.Fail("tool_instance_id is required")
		}
		existing, err := c.toolRow(id)
		if err != nil {
			return command.Fail(fmt.Sprintf("tool instance '%s' not found", id))
		}
		name := existing["name"].(string)
		if v, ok := params["name"].(string); ok {
			name = v
		}
		configJSON := existing["config_json"].(string)
		if v, ok := params["config_json"].(string); ok {
			configJSON = v
		}
		_, err = c.store.db.Exec(`
			UPDATE tool_instances SET name = ?, config_json = ?, updated_at = ? WHERE id = ?
		`, name, configJSON, now, id)
		if err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id, "name": name})

	case "delete":
		id := str(params, "tool_instance_id")
		if id == "" {
			return command.Fail("tool_instance_id is required")
		}
		if _, err := c.store.db.Exec(`DELETE FROM tool_instances WHERE id = ?`, id); err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id})

	case "get_config":
		id := str(params, "tool_instance_id")
		row, err := c.toolRow(id)
		if err != nil {
			return command.Fail(fmt.Sprintf("tool instance '%s' not found", id))
		}
		return command.OK(row)

	case "list":
		rows, err := c.store.db.Query(`
			SELECT id, zone_id, name, tool_type, config_json FROM tool_instances ORDER BY created_at ASC
		`)
		if err != nil {
			return command.Fail(err.Error())
		}
		defer rows.Close()
		var tools []map[string]any
		for rows.Next() {
			var id, name, toolType, configJSON string
			var zoneID sql.NullString
			if err := rows.Scan(&id, &zoneID, &name, &toolType, &configJSON); err != nil {
				return command.Fail(err.Error())
			}
			tools = append(tools, map[string]any{
				"id": id, "zone_id": zoneID.String, "name": name,
				"tooltype": toolType, "config_json": configJSON,
			})
		}
		return command.OK(map[string]any{"count": len(tools), "tools": tools})

	default:
		return command.Fail(fmt.Sprintf("unknown operation 'tools.%s'", operation))
	}
}

func (c *Coordinator) toolRow(id string) (map[string]any, error) {
	row := c.store.db.QueryRow(`SELECT id, zone_id, name, tool_type, config_json FROM tool_instances WHERE id = ?`, id)
	var tid, name, toolType, configJSON string
	var zoneID sql.NullString
	if err := row.Scan(&tid, &zoneID, &name, &toolType, &configJSON); err != nil {
		return nil, err
	}
	return map[string]any{
		"id": tid, "zone_id": zoneID.String, "name": name,
		"tooltype": toolType, "config_json": configJSON,
	}, nil
}

func (c *Coordinator) toolData(operation string, params map[string]any) command.Result {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	switch operation {
	case "create":
		return c.insertDataPoint(params, params)

	case "batch_create":
		entries, ok := params["entries"].([]any)
		if !ok || len(entries) == 0 {
			return command.Fail("entries is required")
		}
		toolName := c.toolName(str(params, "tool_instance_id"))
		for i, raw := range entries {
			entry, ok := raw.(map[string]any)
			if !ok {
				return command.Fail(fmt.Sprintf("entry %d must be an object", i))
			}
			if res := c.insertDataPoint(params, entry); !res.Success {
				return command.Fail(fmt.Sprintf("entry %d: %s", i, res.Err))
			}
		}
		return command.OK(map[string]any{"count": len(entries), "tool_instance_name": toolName})

	case "update":
		return c.updateDataPoint(params)

	case "batch_update":
		entries, ok := params["entries"].([]any)
		if !ok || len(entries) == 0 {
			return command.Fail("entries is required")
		}
		for i, raw := range entries {
			entry, ok := raw.(map[string]any)
			if !ok {
				return command.Fail(fmt.Sprintf("entry %d must be an object", i))
			}
			if sub := c.updateDataPoint(entry); !sub.Success {
				return command.Fail(fmt.Sprintf("entry %d: %s", i, sub.Err))
			}
		}
		return command.OK(map[string]any{"count": len(entries)})

	case "delete":
		id := str(params, "data_id")
		if id == "" {
			return command.Fail("data_id is required")
		}
		if _, err := c.store.db.Exec(`DELETE FROM tool_data WHERE id = ?`, id); err != nil {
			return command.Fail(err.Error())
		}
		return command.OK(map[string]any{"id": id})

	case "get_data", "get_sample":
		return c.queryData(operation, params)

	default:
		return command.Fail(fmt.Sprintf("unknown operation 'tool_data.%s'", operation))
	}
}

// updateDataPoint rewrites the payload of one data point. Callers hold the
// store lock.
func (c *Coordinator) updateDataPoint(params map[string]any) command.Result {
	id := str(params, "data_id")
	if id == "" {
		return command.Fail("data_id is required")
	}
	data, err := encodeData(params["data"])
	if err != nil {
		return command.Fail(err.Error())
	}
	res, err := c.store.db.Exec(`UPDATE tool_data SET data_json = ? WHERE id = ?`, data, id)
	if err != nil {
		return command.Fail(err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return command.Fail(fmt.Sprintf("data point '%s' not found", id))
	}
	return command.OK(map[string]any{"id": id})
}

// insertDataPoint writes one data point. Base addressing fields come from
// params; per-entry fields (name, timestamp, data) from entry.
func (c *Coordinator) insertDataPoint(params, entry map[string]any) command.Result {
	toolID := str(params, "tool_instance_id")
	if toolID == "" {
		return command.Fail("tool_instance_id is required")
	}
	data, err := encodeData(entry["data"])
	if err != nil {
		return command.Fail(err.Error())
	}

	now := time.Now().Format(time.RFC3339)
	recordedAt := str(entry, "timestamp")
	if recordedAt == "" {
		recordedAt = now
	}

	id := uuid.NewString()
	_, err = c.store.db.Exec(`
		INSERT INTO tool_data (id, tool_instance_id, name, data_json, recorded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, toolID, str(entry, "name"), data, recordedAt, now)
	if err != nil {
		return command.Fail(err.Error())
	}
	return command.OK(map[string]any{"id": id, "tool_instance_name": c.toolName(toolID)})
}

func (c *Coordinator) queryData(operation string, params map[string]any) command.Result {
	toolID := str(params, "tool_instance_id")
	if toolID == "" {
		return command.Fail("tool_instance_id is required")
	}

	limit := 0
	if n, ok := params["limit"].(float64); ok {
		limit = int(n)
	} else if n, ok := params["limit"].(int); ok {
		limit = n
	}
	if operation == "get_sample" && limit <= 0 {
		limit = 5
	}

	query := `SELECT id, name, data_json, recorded_at FROM tool_data WHERE tool_instance_id = ?`
	args := []any{toolID}
	if start := str(params, "start_time"); start != "" {
		query += ` AND recorded_at >= ?`
		args = append(args, start)
	}
	if end := str(params, "end_time"); end != "" {
		query += ` AND recorded_at < ?`
		args = append(args, end)
	}
	query += ` ORDER BY recorded_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.store.db.Query(query, args...)
	if err != nil {
		return command.Fail(err.Error())
	}
	defer rows.Close()

	field := str(params, "field")
	var points []map[string]any
	for rows.Next() {
		var id, dataJSON, recordedAt string
		var name sql.NullString
		if err := rows.Scan(&id, &name, &dataJSON, &recordedAt); err != nil {
			return command.Fail(err.Error())
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
			logger.Warn("coordinator: malformed data point %s: %v", id, err)
			continue
		}
		if field != "" {
			data = map[string]any{field: data[field]}
		}
		points = append(points, map[string]any{
			"id": id, "name": name.String, "recorded_at": recordedAt, "data": data,
		})
	}

	// reverse to chronological order
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return command.OK(map[string]any{
		"count":              len(points),
		"tool_instance_name": c.toolName(toolID),
		"points":             points,
	})
}

func (c *Coordinator) toolName(id string) string {
	if id == "" {
		return ""
	}
	var name string
	_ = c.store.db.QueryRow(`SELECT name FROM tool_instances WHERE id = ?`, id).Scan(&name)
	return name
}

// ZoneOf resolves the zone containing a tool instance, for query
// deduplication.
func (c *Coordinator) ZoneOf(toolInstanceID string) (string, bool) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	var zoneID sql.NullString
	err := c.store.db.QueryRow(`SELECT zone_id FROM tool_instances WHERE id = ?`, toolInstanceID).Scan(&zoneID)
	if err != nil || !zoneID.Valid || zoneID.String == "" {
		return "", false
	}
	return zoneID.String, true
}

func encodeData(raw any) (string, error) {
	switch d := raw.(type) {
	case map[string]any:
		enc, err := json.Marshal(d)
		if err != nil {
			return "", fmt.Errorf("invalid data: %w", err)
		}
		return string(enc), nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(d), &m); err != nil {
			return "", fmt.Errorf("invalid data JSON: %w", err)
		}
		return d, nil
	default:
		return "", fmt.Errorf("data is required")
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolInt(m map[string]any, key string) int {
	if b, _ := m[key].(bool); b {
		return 1
	}
	return 0
}

func orString(params map[string]any, key string, existing map[string]any) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	s, _ := existing[key].(string)
	return s
}
