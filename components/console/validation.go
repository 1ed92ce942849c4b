package console

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// InputValidator rejects invalid action input before any request is made.
type InputValidator interface {
	ValidatePayload(p Payload) error
}

var payloadSchemas = map[ActionKind]map[string]any{
	ActionAllow: {
		"type":     "object",
		"required": []string{"target"},
		"properties": map[string]any{
			"target": map[string]any{
				"type":    "string",
				"pattern": `^@?[A-Za-z0-9_]{1,64}$`,
			},
		},
	},
	ActionRevoke: userIDSchema(),
	ActionRemove: userIDSchema(),
	ActionUpdateAccess: {
		"type":     "object",
		"required": []string{"userId", "endDate"},
		"properties": map[string]any{
			"userId":  map[string]any{"type": "string", "pattern": `\S`},
			"endDate": map[string]any{"type": "string", "format": "date"},
		},
	},
	ActionInvite: {
		"type":     "object",
		"required": []string{"days"},
		"properties": map[string]any{
			"days": map[string]any{"type": "integer", "minimum": 1},
			"name": map[string]any{"type": "string"},
		},
	},
}

func userIDSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"userId"},
		"properties": map[string]any{
			"userId": map[string]any{"type": "string", "pattern": `\S`},
		},
	}
}

// SchemaValidator validates payloads against per-kind JSON schemas.
type SchemaValidator struct {
	mu       sync.RWMutex
	compiled map[ActionKind]*jsonschema.Schema
}

// NewSchemaValidator builds a validator backed by jsonschema v5.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		compiled: make(map[ActionKind]*jsonschema.Schema),
	}
}

// ValidatePayload returns a *ValidationError describing the first failing
// field, or nil.
func (v *SchemaValidator) ValidatePayload(p Payload) error {
	if p == nil {
		return &ValidationError{Message: "payload is required"}
	}
	schema, err := v.schemaFor(p.Kind())
	if err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("console: marshal %s payload: %w", p.Kind(), err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("console: normalize %s payload: %w", p.Kind(), err)
	}
	if err := schema.Validate(doc); err != nil {
		return toValidationError(err)
	}
	if update, ok := p.(UpdateAccessPayload); ok {
		if _, err := time.Parse(DateLayout, update.EndDate); err != nil {
			return &ValidationError{Field: "endDate", Message: "must be a calendar date (YYYY-MM-DD)"}
		}
	}
	return nil
}

func (v *SchemaValidator) schemaFor(kind ActionKind) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[kind]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	def, ok := payloadSchemas[kind]
	if !ok {
		return nil, fmt.Errorf("console: no schema for action %q", kind)
	}
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("console: marshal schema %s: %w", kind, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	name := string(kind) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("console: load schema %s: %w", kind, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("console: compile schema %s: %w", kind, err)
	}
	v.mu.Lock()
	v.compiled[kind] = compiled
	v.mu.Unlock()
	return compiled, nil
}

func toValidationError(err error) error {
	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return &ValidationError{Message: err.Error()}
	}
	leaf := schemaErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		field = missingProperty(leaf.Message)
	}
	return &ValidationError{Field: field, Message: leaf.Message}
}

// missingProperty extracts the property name from a "missing properties: 'x'"
// message, which is reported against the parent object.
func missingProperty(message string) string {
	start := strings.Index(message, "'")
	if start < 0 {
		return ""
	}
	end := strings.Index(message[start+1:], "'")
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}
