package command

import (
	"context"
	"strings"
)

// ExecutableCommand is a fully resolved (resource, operation, params) unit of
// work ready for dispatch through the Coordinator. Immutable once built.
type ExecutableCommand struct {
	Resource  string
	Operation string
	Params    map[string]any
}

// Name returns the wire form "resource.operation".
func (c ExecutableCommand) Name() string {
	return c.Resource + "." + c.Operation
}

// Result is the outcome of one Coordinator dispatch.
type Result struct {
	Success bool
	Data    map[string]any
	Err     string
}

// OK builds a successful result.
func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed result.
func Fail(err string) Result {
	return Result{Success: false, Err: err}
}

// Coordinator is the command bus. It is the sole channel for all state reads
// and writes; the orchestration core never touches persistence directly.
type Coordinator interface {
	ProcessUserAction(ctx context.Context, command string, params map[string]any) Result
}

// actionOperations are the mutating operations. Everything else is a query.
var actionOperations = map[string]bool{
	"create":       true,
	"update":       true,
	"delete":       true,
	"batch_create": true,
	"batch_update": true,
}

// IsAction reports whether the operation mutates state.
func IsAction(operation string) bool {
	return actionOperations[strings.ToLower(operation)]
}

// Split parses a "resource.operation" name. The operation is everything after
// the first dot, so operations like "batch_create" survive intact.
func Split(name string) (resource, operation string) {
	idx := strings.Index(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
