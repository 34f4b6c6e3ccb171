package validate

import (
	"context"
	"strings"
	"testing"

	"github.com/kayz/zonal/internal/command"
	"github.com/kayz/zonal/internal/schema"
	"github.com/kayz/zonal/internal/tooltype"
)

// spyValidator wraps the real schema validator, recording every call.
type spyValidator struct {
	inner    schema.Validator
	calls    int
	lastData map[string]any
	partials []bool
}

func (s *spyValidator) Validate(schemaJSON string, data map[string]any, partial bool) schema.ValidationResult {
	s.calls++
	s.lastData = data
	s.partials = append(s.partials, partial)
	return s.inner.Validate(schemaJSON, data, partial)
}

func newTestValidator(t *testing.T) (*Validator, *spyValidator) {
	t.Helper()
	schemas := schema.NewStaticRegistry()
	schema.RegisterSystemSchemas(schemas)
	tools := tooltype.NewMapRegistry()
	tooltype.RegisterBuiltins(tools)

	spy := &spyValidator{inner: &schema.JSONValidator{}}
	return New(schemas, tools, spy), spy
}

func TestUnknownCommandsPassTrivially(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx := context.Background()

	for _, cmd := range []command.ExecutableCommand{
		{Resource: "zones", Operation: "list"},
		{Resource: "tool_data", Operation: "get_data"},
		{Resource: "sessions", Operation: "create"},
		{Resource: "tools", Operation: "delete"},
	} {
		if res := v.Validate(ctx, cmd); !res.Valid {
			t.Errorf("%s should pass trivially, got %q", cmd.Name(), res.Err)
		}
	}
	if spy.calls != 0 {
		t.Fatalf("no schema validation expected, got %d calls", spy.calls)
	}
}

func TestToolConfigValidation(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params map[string]any
		ok     bool
		errSub string
	}{
		{
			"valid config",
			map[string]any{"tool_type": "metric_tracker", "config_json": `{"schema_id": "metric_config", "unit": "kg"}`},
			true, "",
		},
		{
			"missing config_json",
			map[string]any{"tool_type": "metric_tracker"},
			false, "config_json",
		},
		{
			"missing tool_type",
			map[string]any{"config_json": `{"schema_id": "metric_config"}`},
			false, "tool_type",
		},
		{
			"malformed config_json",
			map[string]any{"tool_type": "metric_tracker", "config_json": `{broken`},
			false, "config_json",
		},
		{
			"missing schema_id in config",
			map[string]any{"tool_type": "metric_tracker", "config_json": `{"unit": "kg"}`},
			false, "schema_id",
		},
		{
			"unknown tooltype",
			map[string]any{"tool_type": "nope", "config_json": `{"schema_id": "metric_config"}`},
			false, "tooltype 'nope' not found",
		},
		{
			"unknown schema",
			map[string]any{"tool_type": "metric_tracker", "config_json": `{"schema_id": "nope"}`},
			false, "schema 'nope' not found",
		},
	}
	for _, tc := range cases {
		res := v.Validate(ctx, command.ExecutableCommand{Resource: "tools", Operation: "create", Params: tc.params})
		if res.Valid != tc.ok {
			t.Errorf("%s: valid=%v (err %q), want %v", tc.name, res.Valid, res.Err, tc.ok)
			continue
		}
		if !tc.ok && !strings.Contains(res.Err, tc.errSub) {
			t.Errorf("%s: error %q should mention %q", tc.name, res.Err, tc.errSub)
		}
	}
}

func TestToolDataCreateVsUpdateMode(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx := context.Background()

	// metric_data requires "value"; a data map without it must fail on create
	// but pass on update (partial mode).
	params := map[string]any{
		"tooltype":  "metric_tracker",
		"schema_id": "metric_data",
		"data":      map[string]any{"note": "skipped weigh-in"},
	}

	res := v.Validate(ctx, command.ExecutableCommand{Resource: "tool_data", Operation: "create", Params: params})
	if res.Valid {
		t.Fatal("create must require the 'value' field")
	}

	res = v.Validate(ctx, command.ExecutableCommand{Resource: "tool_data", Operation: "update", Params: params})
	if !res.Valid {
		t.Fatalf("update must accept partial data, got %q", res.Err)
	}

	if len(spy.partials) != 2 || spy.partials[0] != false || spy.partials[1] != true {
		t.Fatalf("expected full then partial validation, got %v", spy.partials)
	}
}

func TestToolDataValidatesPayloadOnly(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx := context.Background()

	res := v.Validate(ctx, command.ExecutableCommand{
		Resource:  "tool_data",
		Operation: "create",
		Params: map[string]any{
			"tool_instance_id": "t1",
			"tooltype":         "metric_tracker",
			"schema_id":        "metric_data",
			"name":             "morning",
			"timestamp":        "2026-08-20T08:00:00Z",
			"data":             map[string]any{"value": 72.5},
		},
	})
	if !res.Valid {
		t.Fatalf("got %q", res.Err)
	}
	// addressing fields must not reach the schema checker; metric_data has
	// additionalProperties:false and would reject them
	if len(spy.lastData) != 1 || spy.lastData["value"] != 72.5 {
		t.Fatalf("checker received %v, want the data payload only", spy.lastData)
	}
}

func TestToolDataAcceptsJSONStringPayload(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	res := v.Validate(ctx, command.ExecutableCommand{
		Resource:  "tool_data",
		Operation: "create",
		Params: map[string]any{
			"tooltype":  "metric_tracker",
			"schema_id": "metric_data",
			"data":      `{"value": 72.5}`,
		},
	})
	if !res.Valid {
		t.Fatalf("JSON string payload should validate, got %q", res.Err)
	}
}

func TestBatchFailFast(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx := context.Background()

	// Entry 1 (0-indexed) has an out-of-range value; entry 2 must never be
	// evaluated.
	params := map[string]any{
		"tooltype": "metric_tracker",
		"entries": []any{
			map[string]any{"schema_id": "metric_data", "data": map[string]any{"value": 70.0}},
			map[string]any{"data": map[string]any{"value": 999999.0}},
			map[string]any{"data": map[string]any{"value": 71.0}},
		},
	}

	res := v.Validate(ctx, command.ExecutableCommand{Resource: "tool_data", Operation: "batch_create", Params: params})
	if res.Valid {
		t.Fatal("expected batch to fail")
	}
	if !strings.HasPrefix(res.Err, "Item 1: ") {
		t.Fatalf("error must be prefixed with the failing index, got %q", res.Err)
	}
	if spy.calls != 2 {
		t.Fatalf("entries after the failure must not be validated: %d calls, want 2", spy.calls)
	}
}

func TestBatchUpdateUsesPartialMode(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx := context.Background()

	params := map[string]any{
		"tooltype": "metric_tracker",
		"entries": []any{
			map[string]any{"schema_id": "metric_data", "data": map[string]any{"note": "corrected"}},
		},
	}

	res := v.Validate(ctx, command.ExecutableCommand{Resource: "tool_data", Operation: "batch_update", Params: params})
	if !res.Valid {
		t.Fatalf("batch_update must be partial, got %q", res.Err)
	}
	res = v.Validate(ctx, command.ExecutableCommand{Resource: "tool_data", Operation: "batch_create", Params: params})
	if res.Valid {
		t.Fatal("batch_create must be full mode")
	}
	if len(spy.partials) != 2 || !spy.partials[0] || spy.partials[1] {
		t.Fatalf("expected partial then full, got %v", spy.partials)
	}
}

func TestBatchRequiresEntries(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	res := v.Validate(ctx, command.ExecutableCommand{
		Resource:  "tool_data",
		Operation: "batch_create",
		Params:    map[string]any{"tooltype": "metric_tracker"},
	})
	if res.Valid || !strings.Contains(res.Err, "entries") {
		t.Fatalf("expected entries error, got valid=%v %q", res.Valid, res.Err)
	}
}

func TestZoneValidationStripsZoneID(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx := context.Background()

	res := v.Validate(ctx, command.ExecutableCommand{
		Resource:  "zones",
		Operation: "create",
		Params: map[string]any{
			"zone_id":     "z1",
			"name":        "Health",
			"description": "Physical health tracking",
		},
	})
	if !res.Valid {
		t.Fatalf("expected success, got %q", res.Err)
	}
	if _, ok := spy.lastData["zone_id"]; ok {
		t.Fatal("zone_id is addressing information and must not reach schema validation")
	}
	if spy.lastData["name"] != "Health" {
		t.Fatal("config fields must reach schema validation")
	}
}

func TestZoneNameLength(t *testing.T) {
	v, _ := newTestValidator(t)
	ctx := context.Background()

	res := v.Validate(ctx, command.ExecutableCommand{
		Resource:  "zones",
		Operation: "create",
		Params:    map[string]any{"name": strings.Repeat("x", 61)},
	})
	if res.Valid {
		t.Fatal("zone names above 60 characters must fail")
	}
}

func TestValidateCancelled(t *testing.T) {
	v, spy := newTestValidator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := v.Validate(ctx, command.ExecutableCommand{Resource: "zones", Operation: "create", Params: map[string]any{"name": "x"}})
	if res.Valid {
		t.Fatal("cancelled context must fail validation")
	}
	if spy.calls != 0 {
		t.Fatal("no schema validation after cancellation")
	}
}
