package tooltype

import (
	"sync"

	"github.com/kayz/zonal/internal/schema"
)

// ToolType is a plugin describing one kind of tool instance: what its
// configuration and data entries look like and whether it supports scheduled
// executions.
type ToolType interface {
	Name() string
	Description() string
	Schema(id string) *schema.Schema
	SupportsExecutions() bool
}

// Registry resolves tool types by name.
type Registry interface {
	Get(name string) ToolType
	All() map[string]ToolType
}

// Definition declares a tool type from seed data: a config schema plus a data
// schema, both owned by the type.
type Definition struct {
	TypeName    string
	TypeDesc    string
	Executions  bool
	Schemas     []*schema.Schema
}

// Name implements ToolType.
func (d *Definition) Name() string { return d.TypeName }

// Description implements ToolType.
func (d *Definition) Description() string { return d.TypeDesc }

// SupportsExecutions implements ToolType.
func (d *Definition) SupportsExecutions() bool { return d.Executions }

// Schema implements ToolType.
func (d *Definition) Schema(id string) *schema.Schema {
	for _, s := range d.Schemas {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// MapRegistry is an in-memory Registry.
type MapRegistry struct {
	mu    sync.RWMutex
	types map[string]ToolType
}

// NewMapRegistry creates an empty registry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{types: make(map[string]ToolType)}
}

// Register adds a tool type.
func (r *MapRegistry) Register(t ToolType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name()] = t
}

// Get returns the tool type with the given name, or nil.
func (r *MapRegistry) Get(name string) ToolType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[name]
}

// All returns a copy of the registered tool types keyed by name.
func (r *MapRegistry) All() map[string]ToolType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ToolType, len(r.types))
	for name, t := range r.types {
		out[name] = t
	}
	return out
}
