package kernel

import (
	"fmt"
	"strings"
)

// ErrAgentNotActive indicates a delegation target exists in the
// registry but its manifest status is not "active" on a running
// kernel.
type ErrAgentNotActive struct {
	AgentID string
}

func (e *ErrAgentNotActive) Error() string {
	return fmt.Sprintf("agent %q is not active", e.AgentID)
}

// UnknownAgentError is raised by Submit when the target agent id is
// not registered. Its message enumerates the currently available
// agents, to make the failure actionable for a caller.
type UnknownAgentError struct {
	Requested string
	Available []string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("agent %q is not registered (available agents: %s)",
		e.Requested, strings.Join(e.Available, ", "))
}

// AgentNotFoundError is raised by Tick when the agent registry no
// longer contains the task's target agent at dispatch time (e.g. it
// was registered at submit time but has since vanished).
type AgentNotFoundError struct {
	AgentID string
	TaskID  string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found in registry for task %q; register the agent before submitting tasks",
		e.AgentID, e.TaskID)
}
