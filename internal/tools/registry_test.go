package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mplewis/agentkernel/internal/policy"
	"github.com/mplewis/agentkernel/pkg/models"
)

type echoTool struct {
	validateErr error
	execErr     error
}

func (e *echoTool) Name() string        { return "echo" }
func (e *echoTool) Description() string { return "echoes the message parameter" }
func (e *echoTool) ParametersSchema() map[string]ParamSpec {
	return map[string]ParamSpec{"message": {Type: "string", Required: true}}
}
func (e *echoTool) Validate(params map[string]any) error {
	if e.validateErr != nil {
		return e.validateErr
	}
	if _, ok := params["message"]; !ok {
		return assertMissing("message")
	}
	return nil
}
func (e *echoTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	if e.execErr != nil {
		return nil, e.execErr
	}
	return &models.ToolResult{Success: true, Output: params["message"]}, nil
}

func assertMissing(name string) error {
	return &missingParamError{name: name}
}

type missingParamError struct{ name string }

func (e *missingParamError) Error() string { return "missing required parameter: " + e.name }

type stubPolicy struct {
	allowed bool
	reason  string
}

func (s stubPolicy) Check(toolName string, params map[string]any) policy.Decision {
	return policy.Decision{Allowed: s.allowed, Reason: s.reason}
}

func TestExecuteUnknownToolReturnsNotFound(t *testing.T) {
	r := New(nil, nil)
	result := r.Execute(context.Background(), &models.ToolInvocationRequest{Tool: "missing"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestExecuteHappyPath(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Register(&echoTool{}))

	result := r.Execute(context.Background(), &models.ToolInvocationRequest{
		Tool:       "echo",
		Parameters: map[string]any{"message": "hi"},
	})
	require.True(t, result.Success)
	assert.Equal(t, "hi", result.Output)
}

func TestPolicyBlockRunsBeforeValidation(t *testing.T) {
	// The echo tool's own validation would reject a missing "message",
	// but a policy block must short-circuit first regardless.
	r := New(stubPolicy{allowed: false, reason: "blocked for test"}, nil)
	require.NoError(t, r.Register(&echoTool{}))

	result := r.Execute(context.Background(), &models.ToolInvocationRequest{
		Tool:       "echo",
		Parameters: map[string]any{}, // malformed: missing required "message"
	})
	require.False(t, result.Success)
	require.NotNil(t, result.Metadata)
	blocked, _ := result.Metadata["blocked_by_policy"].(bool)
	assert.True(t, blocked)
}

func TestValidationFailureSurfacesWhenPolicyAllows(t *testing.T) {
	r := New(stubPolicy{allowed: true}, nil)
	require.NoError(t, r.Register(&echoTool{}))

	result := r.Execute(context.Background(), &models.ToolInvocationRequest{
		Tool:       "echo",
		Parameters: map[string]any{},
	})
	require.False(t, result.Success)
	assert.False(t, result.BlockedByPolicy())
}

func TestExecutionPanicIsConvertedToErrorResult(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Register(&panicTool{}))

	result := r.Execute(context.Background(), &models.ToolInvocationRequest{
		Tool:       "panics",
		Parameters: map[string]any{},
	})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "tool execution failed")
}

type panicTool struct{}

func (p *panicTool) Name() string                                 { return "panics" }
func (p *panicTool) Description() string                          { return "" }
func (p *panicTool) ParametersSchema() map[string]ParamSpec       { return nil }
func (p *panicTool) Validate(params map[string]any) error         { return nil }
func (p *panicTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	panic("boom")
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Register(&echoTool{}))
	err := r.Register(&echoTool{})
	assert.Error(t, err)
}

func TestDescribeForModelIncludesCanonicalExample(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Register(&echoTool{}))
	desc := r.DescribeForModel()
	assert.Contains(t, desc, "echo")
	assert.Contains(t, desc, `{"tool": "tool_name", "parameters": {...}}`)
}
