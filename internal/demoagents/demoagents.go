// Package demoagents provides a minimal orchestrator/executor agent
// pair used by cmd/kernelctl to demonstrate a full boot/submit/tick
// cycle without wiring an actual LLM provider.
package demoagents

import (
	"context"
	"fmt"

	"github.com/mplewis/agentkernel/pkg/models"
)

// plannerAgent is a cognitive-orchestration agent: given a task, it
// always delegates to the executor rather than doing the work itself.
type plannerAgent struct{}

func (plannerAgent) AgentID() string        { return "planner" }
func (plannerAgent) Kind() string           { return "simple_llm_agent" }
func (plannerAgent) Capabilities() []string { return []string{"plan", "delegate"} }

func (plannerAgent) Process(ctx context.Context, task *models.Task) (*models.AgentResponse, error) {
	userMessage, _ := task.Payload["user_message"].(string)
	return &models.AgentResponse{
		Success: true,
		AgentID: "planner",
		TaskID:  task.ID,
		Output:  fmt.Sprintf("delegating: %s", userMessage),
		ToolCall: &models.ToolInvocationRequest{
			Tool: "delegate_task",
			Parameters: map[string]any{
				"agent_id": "executor",
				"payload":  map[string]any{"user_message": userMessage},
			},
		},
	}, nil
}

// executorAgent is a workflow-execution agent: it processes whatever
// payload it is handed and reports back without further delegation.
type executorAgent struct{}

func (executorAgent) AgentID() string        { return "executor" }
func (executorAgent) Kind() string           { return "specialist_agent" }
func (executorAgent) Capabilities() []string { return []string{"execute"} }

func (executorAgent) Process(ctx context.Context, task *models.Task) (*models.AgentResponse, error) {
	userMessage, _ := task.Payload["user_message"].(string)
	return &models.AgentResponse{
		Success: true,
		AgentID: "executor",
		TaskID:  task.ID,
		Output:  fmt.Sprintf("executed: %s", userMessage),
	}, nil
}

// All returns the demo agent set in registration order.
func All() []models.Agent {
	return []models.Agent{plannerAgent{}, executorAgent{}}
}

// IDs returns the demo agent set's ids, in the same order as All.
func IDs() []string {
	ids := make([]string, 0, len(All()))
	for _, a := range All() {
		ids = append(ids, a.AgentID())
	}
	return ids
}
