package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mplewis/agentkernel/internal/observability"
	"github.com/mplewis/agentkernel/internal/policy"
	"github.com/mplewis/agentkernel/pkg/models"
)

// PolicyChecker is the subset of policy.Engine the registry depends on,
// narrowed to an interface so tests can substitute a stub.
type PolicyChecker interface {
	Check(toolName string, params map[string]any) policy.Decision
}

// Registry is the kernel's central tool catalog and execution gateway.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	schema map[string]*jsonschema.Schema
	policy PolicyChecker
	log    *observability.Logger
}

// New constructs a Registry. engine may be nil, in which case no
// policy gate is applied (every call reaches validation directly).
func New(engine PolicyChecker, log *observability.Logger) *Registry {
	if log == nil {
		log = observability.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		schema: make(map[string]*jsonschema.Schema),
		policy: engine,
		log:    log,
	}
}

// Register adds a tool to the catalog. Duplicate names are rejected.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t

	compiler := jsonschema.NewCompiler()
	resourceName := t.Name() + ".json"
	if err := compiler.AddResource(resourceName, strings.NewReader(string(mustMarshal(jsonSchema(t.ParametersSchema()))))); err == nil {
		if compiled, err := compiler.Compile(resourceName); err == nil {
			r.schema[t.Name()] = compiled
		}
	}
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// ListNames returns every registered tool name, sorted for determinism.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the four-step dispatch pipeline: lookup,
// policy check, parameter validation, execution — in that order. The
// policy check running before validation is load-bearing: a blocked
// dangerous call is rejected even when its parameters are malformed.
func (r *Registry) Execute(ctx context.Context, invocation *models.ToolInvocationRequest) *models.ToolResult {
	r.mu.RLock()
	t, ok := r.tools[invocation.Tool]
	schema := r.schema[invocation.Tool]
	r.mu.RUnlock()

	if !ok {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool not found: %s (available: %s)", invocation.Tool, strings.Join(r.ListNames(), ", ")),
		}
	}

	if r.policy != nil {
		decision := r.policy.Check(invocation.Tool, invocation.Parameters)
		r.log.LogPolicyDecision(invocation.Tool, decision.Allowed, decision.Reason)
		if !decision.Allowed {
			return &models.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("policy violation: %s", decision.Reason),
				Metadata: map[string]any{
					"blocked_by_policy": true,
					"rule_reason":       decision.Reason,
				},
			}
		}
	}

	if schema != nil {
		if err := schema.Validate(toInterfaceMap(invocation.Parameters)); err != nil {
			return &models.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("schema validation failed: %v", err),
			}
		}
	}

	if err := t.Validate(invocation.Parameters); err != nil {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("invalid parameters: %v", err),
		}
	}

	result, err := executeSafely(ctx, t, invocation.Parameters)
	if err != nil {
		return &models.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool execution failed: %v", err),
		}
	}
	return result
}

// executeSafely invokes the tool's execution hook, converting a panic
// into an error result rather than letting a misbehaving tool crash
// uncaught exception at this boundary.
func executeSafely(ctx context.Context, t Tool, params map[string]any) (result *models.ToolResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return t.Execute(ctx, params)
}

func toInterfaceMap(m map[string]any) any {
	// jsonschema validates against decoded JSON values; round-tripping
	// through encoding/json normalizes numeric types the same way a
	// wire-deserialized invocation would arrive.
	raw, err := json.Marshal(m)
	if err != nil {
		return m
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return m
	}
	return decoded
}

// DescribeForModel produces a prompt fragment listing every registered
// tool with its schema and a canonical JSON example of the invocation
// syntax a model should emit.
func (r *Registry) DescribeForModel() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, name := range r.sortedNamesLocked() {
		t := r.tools[name]
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
		fmt.Fprintf(&b, "  Parameters: %v\n", t.ParametersSchema())
	}
	b.WriteString("\nTo use a tool, respond with JSON:\n")
	b.WriteString(`{"tool": "tool_name", "parameters": {...}}`)
	b.WriteString("\n")
	return b.String()
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseInvocation parses a model-emitted snippet of the canonical form
// {"tool": "<name>", "parameters": {...}}.
func ParseInvocation(raw []byte) (*models.ToolInvocationRequest, error) {
	var req models.ToolInvocationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("parse tool invocation: %w", err)
	}
	if req.Tool == "" {
		return nil, fmt.Errorf("parse tool invocation: missing \"tool\" field")
	}
	return &req, nil
}
