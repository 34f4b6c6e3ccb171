package dedup

import (
	"reflect"
	"testing"

	"github.com/kayz/zonal/internal/command"
)

func dataQuery(id, toolID, start, end string) command.DataQuery {
	params := map[string]any{"tool_instance_id": toolID}
	if start != "" {
		params["start_time"] = start
		params["end_time"] = end
	}
	return command.DataQuery{ID: id, Type: command.QueryToolData, Params: params}
}

func ids(queries []command.DataQuery) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		out = append(out, q.ID)
	}
	return out
}

func TestRemoveIdenticalKeepsFirst(t *testing.T) {
	d := &Deduplicator{}
	in := []command.DataQuery{
		dataQuery("a", "t1", "", ""),
		dataQuery("b", "t2", "", ""),
		dataQuery("c", "t1", "", ""), // same identity as a (id is not part of identity)
	}
	// Give a and c identical params so only the id differs.
	out := d.Deduplicate(in)
	if !reflect.DeepEqual(ids(out), []string{"a", "b"}) {
		t.Fatalf("got %v", ids(out))
	}
}

func TestIdentityIncludesRelativeFlag(t *testing.T) {
	d := &Deduplicator{}
	a := command.DataQuery{ID: "a", Type: command.QueryToolData, Params: map[string]any{"tool_instance_id": "t1"}, Relative: true}
	b := command.DataQuery{ID: "b", Type: command.QueryToolData, Params: map[string]any{"tool_instance_id": "t1"}, Relative: false}
	// b is not identical to a, but a (unbounded) subsumes b via inclusion.
	out := d.Deduplicate([]command.DataQuery{a, b})
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("got %v", ids(out))
	}
}

func TestRangeContainmentRemoves(t *testing.T) {
	d := &Deduplicator{}
	broad := dataQuery("broad", "t1", "2026-08-01T00:00:00Z", "2026-08-31T00:00:00Z")
	narrow := dataQuery("narrow", "t1", "2026-08-10T00:00:00Z", "2026-08-20T00:00:00Z")

	out := d.Deduplicate([]command.DataQuery{broad, narrow})
	if !reflect.DeepEqual(ids(out), []string{"broad"}) {
		t.Fatalf("contained range must be removed, got %v", ids(out))
	}
}

func TestOverlapWithoutContainmentKept(t *testing.T) {
	d := &Deduplicator{}
	a := dataQuery("a", "t1", "2026-08-01T00:00:00Z", "2026-08-15T00:00:00Z")
	b := dataQuery("b", "t1", "2026-08-10T00:00:00Z", "2026-08-25T00:00:00Z")

	out := d.Deduplicate([]command.DataQuery{a, b})
	if !reflect.DeepEqual(ids(out), []string{"a", "b"}) {
		t.Fatalf("mere overlap is not containment, got %v", ids(out))
	}
}

func TestDifferentEntitiesNotSubsumed(t *testing.T) {
	d := &Deduplicator{}
	a := dataQuery("a", "t1", "2026-08-01T00:00:00Z", "2026-08-31T00:00:00Z")
	b := dataQuery("b", "t2", "2026-08-10T00:00:00Z", "2026-08-20T00:00:00Z")

	out := d.Deduplicate([]command.DataQuery{a, b})
	if len(out) != 2 {
		t.Fatalf("different entities must both survive, got %v", ids(out))
	}
}

func TestUnboundedQuerySubsumesRanged(t *testing.T) {
	d := &Deduplicator{}
	full := dataQuery("full", "t1", "", "")
	ranged := dataQuery("ranged", "t1", "2026-08-01T00:00:00Z", "2026-08-31T00:00:00Z")

	out := d.Deduplicate([]command.DataQuery{full, ranged})
	if !reflect.DeepEqual(ids(out), []string{"full"}) {
		t.Fatalf("got %v", ids(out))
	}

	// The other way around, the ranged query does not cover the full one.
	out = d.Deduplicate([]command.DataQuery{ranged, full})
	if !reflect.DeepEqual(ids(out), []string{"ranged", "full"}) {
		t.Fatalf("got %v", ids(out))
	}
}

func TestFullDataSubsumesSample(t *testing.T) {
	d := &Deduplicator{}
	full := dataQuery("full", "t1", "", "")
	sample := command.DataQuery{ID: "sample", Type: command.QueryToolSample, Params: map[string]any{"tool_instance_id": "t1"}}

	out := d.Deduplicate([]command.DataQuery{full, sample})
	if !reflect.DeepEqual(ids(out), []string{"full"}) {
		t.Fatalf("got %v", ids(out))
	}
}

func TestNarrowedDataQueryDoesNotSubsumeSample(t *testing.T) {
	d := &Deduplicator{}
	sample := command.DataQuery{ID: "sample", Type: command.QueryToolSample,
		Params: map[string]any{"tool_instance_id": "t1"}}

	// a field projection misses fields the sample would return
	fielded := command.DataQuery{ID: "fielded", Type: command.QueryToolData,
		Params: map[string]any{"tool_instance_id": "t1", "field": "value"}}
	out := d.Deduplicate([]command.DataQuery{fielded, sample})
	if !reflect.DeepEqual(ids(out), []string{"fielded", "sample"}) {
		t.Fatalf("got %v", ids(out))
	}

	// a time-bounded query misses points outside its window
	ranged := dataQuery("ranged", "t1", "2026-08-01T00:00:00Z", "2026-08-08T00:00:00Z")
	out = d.Deduplicate([]command.DataQuery{ranged, sample})
	if !reflect.DeepEqual(ids(out), []string{"ranged", "sample"}) {
		t.Fatalf("got %v", ids(out))
	}
}

func TestFieldQueryDoesNotSubsumeFull(t *testing.T) {
	d := &Deduplicator{}
	field := command.DataQuery{ID: "field", Type: command.QueryToolData,
		Params: map[string]any{"tool_instance_id": "t1", "field": "value"}}
	full := dataQuery("full", "t1", "", "")

	out := d.Deduplicate([]command.DataQuery{field, full})
	if !reflect.DeepEqual(ids(out), []string{"field", "full"}) {
		t.Fatalf("got %v", ids(out))
	}

	// An unfielded query covers a fielded one.
	out = d.Deduplicate([]command.DataQuery{full, field})
	if !reflect.DeepEqual(ids(out), []string{"full"}) {
		t.Fatalf("got %v", ids(out))
	}
}

func TestZoneConfigSubsumesToolConfig(t *testing.T) {
	parents := map[string]string{"t1": "z1"}
	d := &Deduplicator{Parent: func(toolID string) (string, bool) {
		z, ok := parents[toolID]
		return z, ok
	}}

	zone := command.DataQuery{ID: "zone", Type: command.QueryZoneConfig, Params: map[string]any{"zone_id": "z1"}}
	tool := command.DataQuery{ID: "tool", Type: command.QueryToolConfig, Params: map[string]any{"tool_instance_id": "t1"}}
	other := command.DataQuery{ID: "other", Type: command.QueryToolConfig, Params: map[string]any{"tool_instance_id": "t9"}}

	out := d.Deduplicate([]command.DataQuery{zone, tool, other})
	if !reflect.DeepEqual(ids(out), []string{"zone", "other"}) {
		t.Fatalf("got %v", ids(out))
	}
}

func TestZoneRuleDegradesWithoutResolver(t *testing.T) {
	d := &Deduplicator{} // no resolver: rule degrades to "no inclusion"
	zone := command.DataQuery{ID: "zone", Type: command.QueryZoneConfig, Params: map[string]any{"zone_id": "z1"}}
	tool := command.DataQuery{ID: "tool", Type: command.QueryToolConfig, Params: map[string]any{"tool_instance_id": "t1"}}

	out := d.Deduplicate([]command.DataQuery{zone, tool})
	if len(out) != 2 {
		t.Fatalf("without a resolver nothing may be guessed, got %v", ids(out))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	d := &Deduplicator{}
	in := []command.DataQuery{
		dataQuery("a", "t1", "", ""),
		dataQuery("b", "t1", "2026-08-01T00:00:00Z", "2026-08-02T00:00:00Z"),
		dataQuery("c", "t2", "", ""),
		dataQuery("d", "t2", "", ""),
	}
	once := d.Deduplicate(in)
	twice := d.Deduplicate(once)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Fatalf("dedup must be idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestOrderPreserved(t *testing.T) {
	d := &Deduplicator{}
	in := []command.DataQuery{
		dataQuery("a", "t3", "", ""),
		dataQuery("b", "t1", "", ""),
		dataQuery("c", "t2", "", ""),
	}
	out := d.Deduplicate(in)
	if !reflect.DeepEqual(ids(out), []string{"a", "b", "c"}) {
		t.Fatalf("surviving order must match input, got %v", ids(out))
	}
}
