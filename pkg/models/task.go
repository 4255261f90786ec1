// Package models holds the wire types shared across kernel components:
// tasks, agent responses, tool invocations/results, and identity manifests.
package models

import "github.com/google/uuid"

// Task is a unit of work submitted for dispatch to a named agent.
//
// Priority is reserved: the scheduler accepts it but never reorders on
// it (see design notes on the reserved priority field).
type Task struct {
	ID       string         `json:"id"`
	AgentID  string         `json:"agent_id"`
	Payload  map[string]any `json:"payload"`
	Priority int            `json:"priority"`
}

// NewTask builds a Task with a freshly generated random id.
func NewTask(agentID string, payload map[string]any) *Task {
	return &Task{
		ID:      uuid.NewString(),
		AgentID: agentID,
		Payload: payload,
	}
}

// EnsureID assigns a random id in place if the task was constructed
// without one (e.g. via a bare struct literal).
func (t *Task) EnsureID() {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
}

// ToolInvocationRequest is a request to execute a tool, carried either
// embedded in an AgentResponse or parsed from a model-emitted snippet of
// the canonical form {"tool": "<name>", "parameters": {...}}.
type ToolInvocationRequest struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// AgentResponse is the typed result of an agent's processing hook.
type AgentResponse struct {
	Success   bool                   `json:"success"`
	Output    any                    `json:"output,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ToolCall  *ToolInvocationRequest `json:"tool_call,omitempty"`
	AgentID   string                 `json:"agent_id"`
	TaskID    string                 `json:"task_id"`
}

// ToDict returns a canonical map representation suitable for ledger
// storage; the kernel records this map (plus any tool result) when a
// task completes.
func (r *AgentResponse) ToDict() map[string]any {
	out := map[string]any{
		"success":  r.Success,
		"agent_id": r.AgentID,
		"task_id":  r.TaskID,
	}
	if r.Output != nil {
		out["output"] = r.Output
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.ToolCall != nil {
		out["tool_call"] = map[string]any{
			"tool":       r.ToolCall.Tool,
			"parameters": r.ToolCall.Parameters,
		}
	}
	return out
}

// ToolResult is the outcome of a tool invocation.
type ToolResult struct {
	Success  bool           `json:"success"`
	Output   any            `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BlockedByPolicy reports whether this result was produced by a policy
// rejection (metadata["blocked_by_policy"] == true).
func (r *ToolResult) BlockedByPolicy() bool {
	if r.Metadata == nil {
		return false
	}
	v, ok := r.Metadata["blocked_by_policy"].(bool)
	return ok && v
}
