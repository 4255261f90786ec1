// Package tools implements the Tool Registry: the central catalog of
// tools and the single entry point for tool execution, including the
// policy gate that runs before parameter validation.
package tools

import (
	"context"
	"encoding/json"

	"github.com/mplewis/agentkernel/pkg/models"
)

// ParamSpec describes a single tool parameter's shape for both
// documentation and schema-based validation.
type ParamSpec struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Tool is a named, schema-declared action agents can invoke. Execute
// must never panic and should return a populated error only for
// infrastructure failures; business failures belong in the returned
// ToolResult.
type Tool interface {
	Name() string
	Description() string
	ParametersSchema() map[string]ParamSpec
	Validate(params map[string]any) error
	Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error)
}

// jsonSchema renders a ParamSpec map into a JSON Schema object,
// compiled and checked by santhosh-tekuri/jsonschema ahead of each
// tool's own hand-written Validate hook.
func jsonSchema(specs map[string]ParamSpec) map[string]any {
	props := map[string]any{}
	var required []string
	for name, spec := range specs {
		props[name] = map[string]any{
			"type": spec.Type,
		}
		if spec.Required {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
