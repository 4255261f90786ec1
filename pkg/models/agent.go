package models

import "context"

// Agent is a named, registered entity whose processing hook transforms
// a Task into an AgentResponse. Kind identifies the agent's runtime
// class for manifest class-tag mapping (Go has no introspectable class
// name the way a dynamic language does, so implementations declare it
// explicitly).
type Agent interface {
	AgentID() string
	Kind() string
	Capabilities() []string
	Process(ctx context.Context, task *Task) (*AgentResponse, error)
}
