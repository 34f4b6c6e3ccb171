// Package dedup removes redundant data queries from an ordered list before
// execution. Context reused across prompt levels should never be fetched or
// sent twice; a broader query already covering a narrower one makes the
// narrower one dead weight against the prompt-caching budget.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kayz/zonal/internal/command"
)

// ParentResolver resolves the zone containing a tool instance. When the
// relationship cannot be resolved the zone/tool inclusion rule degrades to
// "no inclusion" rather than guessing.
type ParentResolver func(toolInstanceID string) (zoneID string, ok bool)

// Deduplicator removes exact-duplicate and subsumed queries from an ordered
// list, preserving first-seen order. Deduplicate is pure and idempotent.
type Deduplicator struct {
	// Parent is optional; nil disables the zone-subsumes-tool rule.
	Parent ParentResolver
}

// Deduplicate returns the input with duplicates and subsumed queries removed.
// Surviving queries keep their original relative order.
func (d *Deduplicator) Deduplicate(queries []command.DataQuery) []command.DataQuery {
	unique := removeIdentical(queries)

	kept := make([]command.DataQuery, 0, len(unique))
	for _, candidate := range unique {
		subsumed := false
		for _, k := range kept {
			if d.subsumes(k, candidate) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// removeIdentical keeps only the first occurrence of each identity hash.
func removeIdentical(queries []command.DataQuery) []command.DataQuery {
	seen := make(map[string]bool, len(queries))
	out := make([]command.DataQuery, 0, len(queries))
	for _, q := range queries {
		h := identity(q)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, q)
	}
	return out
}

// identity computes a canonical hash over type, sorted params and the
// relative flag. sha256 keeps collision probability negligible for the list
// sizes involved.
func identity(q command.DataQuery) string {
	keys := make([]string, 0, len(q.Params))
	for k := range q.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(q.Type))
	for _, k := range keys {
		v, _ := json.Marshal(q.Params[k])
		fmt.Fprintf(h, "|%s=%s", k, v)
	}
	fmt.Fprintf(h, "|relative=%t", q.Relative)
	return hex.EncodeToString(h.Sum(nil))
}

// subsumes reports whether query a makes query b redundant.
func (d *Deduplicator) subsumes(a, b command.DataQuery) bool {
	// A zone config query covers the config of tools contained in that zone,
	// when the parent relationship is resolvable.
	if d.Parent != nil && a.Type == command.QueryZoneConfig && b.Type == command.QueryToolConfig {
		zoneID, _ := paramString(a.Params, "zone_id")
		toolID, _ := paramString(b.Params, "tool_instance_id")
		if zoneID != "" && toolID != "" {
			if parent, ok := d.Parent(toolID); ok && parent == zoneID {
				return true
			}
		}
	}

	// A full data query covers a sample query on the same entity. Only a
	// genuinely full query qualifies: one narrowed by a field projection or a
	// time range does not carry what an unbounded sample would return.
	if a.Type == command.QueryToolData && b.Type == command.QueryToolSample && sameEntity(a, b) {
		if _, fielded := paramString(a.Params, "field"); !fielded {
			if _, _, bounded, ok := queryRange(a); ok && !bounded {
				return true
			}
		}
	}

	// An unfielded data query covers a single-field query on the same entity.
	if a.Type == b.Type && a.Type == command.QueryToolData && sameEntity(a, b) {
		aField, aHas := paramString(a.Params, "field")
		bField, bHas := paramString(b.Params, "field")
		if aHas && (!bHas || aField != bField) {
			// a is itself narrowed to one field; it can only cover b via the
			// range rule below when fields match.
			return false
		}
		if rangeContains(a, b) {
			return true
		}
	}

	return false
}

// sameEntity reports whether both queries target the same tool instance.
func sameEntity(a, b command.DataQuery) bool {
	aID, aOK := paramString(a.Params, "tool_instance_id")
	bID, bOK := paramString(b.Params, "tool_instance_id")
	return aOK && bOK && aID == bID
}

// rangeContains reports whether a's time range fully contains b's. A query
// without a range is unbounded and contains everything; mere overlap is not
// containment. Relative (unresolved symbolic) ranges only match when equal,
// which phase one already collapses, so they never contain here.
func rangeContains(a, b command.DataQuery) bool {
	aStart, aEnd, aBounded, aOK := queryRange(a)
	if !aOK {
		return false
	}
	bStart, bEnd, bBounded, bOK := queryRange(b)
	if !bOK {
		return false
	}
	if !aBounded {
		return true
	}
	if !bBounded {
		return false
	}
	return !aStart.After(bStart) && !aEnd.Before(bEnd)
}

// queryRange extracts an absolute time range. bounded=false means the query
// has no range at all. ok=false means the range is present but not
// comparable (symbolic or malformed).
func queryRange(q command.DataQuery) (start, end time.Time, bounded, ok bool) {
	startStr, hasStart := paramString(q.Params, "start_time")
	endStr, hasEnd := paramString(q.Params, "end_time")
	if _, symbolic := paramString(q.Params, "time_range"); symbolic {
		return time.Time{}, time.Time{}, true, false
	}
	if !hasStart && !hasEnd {
		return time.Time{}, time.Time{}, false, true
	}
	if !hasStart || !hasEnd {
		return time.Time{}, time.Time{}, true, false
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, true, false
	}
	end, err = time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, true, false
	}
	return start, end, true, true
}

func paramString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
