package schema

import (
	"sort"
	"sync"
)

// Schema is a structured definition owned by a tool type or the system. The
// Content field holds the JSON schema document; the core only interprets it
// through the Validator.
type Schema struct {
	ID          string
	DisplayName string
	Description string
	Category    string
	Content     string
}

// ValidationResult is the terminal outcome of any validation path. It never
// carries an exception past the validation boundary.
type ValidationResult struct {
	Valid bool
	Err   string
}

// Success returns a passing result.
func Success() ValidationResult {
	return ValidationResult{Valid: true}
}

// Error returns a failing result with the given message.
func Error(msg string) ValidationResult {
	return ValidationResult{Valid: false, Err: msg}
}

// Registry provides read access to schemas and human-readable field labels.
type Registry interface {
	GetSchema(id string) *Schema
	AllSchemaIDs() []string
	FormFieldName(field string) string
}

// StaticRegistry is an in-memory Registry seeded at startup.
type StaticRegistry struct {
	mu         sync.RWMutex
	schemas    map[string]*Schema
	fieldNames map[string]string
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		schemas:    make(map[string]*Schema),
		fieldNames: make(map[string]string),
	}
}

// Register adds or replaces a schema.
func (r *StaticRegistry) Register(s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.ID] = s
}

// RegisterFieldName maps a raw field name to a human-readable label used in
// validation error messages.
func (r *StaticRegistry) RegisterFieldName(field, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fieldNames[field] = label
}

// GetSchema returns the schema with the given id, or nil.
func (r *StaticRegistry) GetSchema(id string) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[id]
}

// AllSchemaIDs returns all registered schema ids, sorted.
func (r *StaticRegistry) AllSchemaIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FormFieldName returns the human-readable label for a field, falling back to
// the raw name.
func (r *StaticRegistry) FormFieldName(field string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if label, ok := r.fieldNames[field]; ok {
		return label
	}
	return field
}
