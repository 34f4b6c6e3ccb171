package command

import (
	"fmt"
	"time"
)

// DataQuery is a requested piece of context before resolution into an
// ExecutableCommand. Relative queries carry symbolic time references
// ("current_week") resolved at execution time, not at construction time, so a
// query definition can be cached across invocations of a scheduled session.
type DataQuery struct {
	ID       string
	Type     string
	Params   map[string]any
	Relative bool
}

// Query types understood by the processor. The type doubles as the
// "resource.operation" dispatched to the Coordinator.
const (
	QueryZoneConfig   = "zones.get_config"
	QueryZoneList     = "zones.list"
	QueryToolConfig   = "tools.get_config"
	QueryToolList     = "tools.list"
	QueryToolData     = "tool_data.get_data"
	QueryToolSample   = "tool_data.get_sample"
)

// Symbolic time range names accepted in relative query params.
const (
	RangeToday        = "today"
	RangeYesterday    = "yesterday"
	RangeCurrentWeek  = "current_week"
	RangeLastWeek     = "last_week"
	RangeCurrentMonth = "current_month"
	RangeLastMonth    = "last_month"
)

// Processor converts DataQuery objects into ExecutableCommands, resolving
// relative time parameters against a clock.
type Processor struct {
	now func() time.Time
}

// NewProcessor creates a Processor using the real clock.
func NewProcessor() *Processor {
	return &Processor{now: time.Now}
}

// NewProcessorAt creates a Processor with a fixed clock, for tests and for
// deterministic automation replays.
func NewProcessorAt(now func() time.Time) *Processor {
	return &Processor{now: now}
}

// Process resolves a list of queries into executable commands. Queries with
// unresolvable relative params fail individually; the rest still resolve.
func (p *Processor) Process(queries []DataQuery) ([]ExecutableCommand, []error) {
	cmds := make([]ExecutableCommand, 0, len(queries))
	var errs []error
	for _, q := range queries {
		cmd, err := p.resolve(q)
		if err != nil {
			errs = append(errs, fmt.Errorf("query %s: %w", q.ID, err))
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds, errs
}

func (p *Processor) resolve(q DataQuery) (ExecutableCommand, error) {
	resource, operation := Split(q.Type)
	if operation == "" {
		return ExecutableCommand{}, fmt.Errorf("malformed query type %q", q.Type)
	}

	params := make(map[string]any, len(q.Params))
	for k, v := range q.Params {
		params[k] = v
	}

	if q.Relative {
		if sym, ok := params["time_range"].(string); ok {
			start, end, err := p.resolveRange(sym)
			if err != nil {
				return ExecutableCommand{}, err
			}
			delete(params, "time_range")
			params["start_time"] = start.Format(time.RFC3339)
			params["end_time"] = end.Format(time.RFC3339)
		}
	}

	return ExecutableCommand{Resource: resource, Operation: operation, Params: params}, nil
}

func (p *Processor) resolveRange(sym string) (time.Time, time.Time, error) {
	now := p.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch sym {
	case RangeToday:
		return day, day.AddDate(0, 0, 1), nil
	case RangeYesterday:
		return day.AddDate(0, 0, -1), day, nil
	case RangeCurrentWeek:
		start := startOfWeek(day)
		return start, start.AddDate(0, 0, 7), nil
	case RangeLastWeek:
		start := startOfWeek(day).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 7), nil
	case RangeCurrentMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), nil
	case RangeLastMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return start, start.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown time range %q", sym)
	}
}

// startOfWeek returns the Monday of the week containing day.
func startOfWeek(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	return day.AddDate(0, 0, -(wd - 1))
}
