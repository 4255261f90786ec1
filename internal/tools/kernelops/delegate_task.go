package kernelops

import (
	"context"
	"fmt"
	"strings"

	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/pkg/models"
)

// TaskSubmitter is the narrow view of the kernel that DelegateTaskTool
// depends on. Kernel.Submit is the single source of truth for
// delegation validation (target-agent existence and active status);
// this tool deliberately does not duplicate that check.
type TaskSubmitter interface {
	Submit(task *models.Task) (string, error)
}

// DelegateTaskTool constructs a new Task and submits it through the
// kernel, letting agents orchestrate each other through the same
// mechanism external callers use.
//
// It is constructed without a kernel reference and wired up afterward
// via SetKernel. This breaks the cyclic dependency: the kernel owns the
// agent registry, agents own their tool sets, and this tool needs to
// call back into the kernel that has not finished booting yet.
type DelegateTaskTool struct {
	kernel TaskSubmitter
}

// NewDelegateTaskTool returns an unbound tool; call SetKernel before
// first use.
func NewDelegateTaskTool() *DelegateTaskTool {
	return &DelegateTaskTool{}
}

// SetKernel injects the kernel reference after boot.
func (t *DelegateTaskTool) SetKernel(kernel TaskSubmitter) {
	t.kernel = kernel
}

func (t *DelegateTaskTool) Name() string { return "delegate_task" }
func (t *DelegateTaskTool) Description() string {
	return "Delegate a unit of work to another registered agent by constructing and submitting a new task."
}

func (t *DelegateTaskTool) ParametersSchema() map[string]tools.ParamSpec {
	return map[string]tools.ParamSpec{
		"agent_id": {Type: "string", Required: true, Description: "The id of the target agent to delegate to."},
		"payload":  {Type: "object", Required: true, Description: "Agent-specific payload for the delegated task."},
	}
}

func (t *DelegateTaskTool) Validate(params map[string]any) error {
	agentID, ok := params["agent_id"].(string)
	if !ok || strings.TrimSpace(agentID) == "" {
		return fmt.Errorf("agent_id must be a non-empty string")
	}
	if _, ok := params["payload"].(map[string]any); !ok {
		return fmt.Errorf("payload must be an object")
	}
	return nil
}

func (t *DelegateTaskTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	if t.kernel == nil {
		return &models.ToolResult{Success: false, Error: "delegate_task: kernel reference not yet bound"}, nil
	}
	agentID := params["agent_id"].(string)
	payload, _ := params["payload"].(map[string]any)

	task := models.NewTask(agentID, payload)
	taskID, err := t.kernel.Submit(task)
	if err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("failed to delegate task: %v", err)}, nil
	}

	return &models.ToolResult{Success: true, Output: map[string]any{
		"task_id":  taskID,
		"agent_id": agentID,
		"status":   "delegated",
	}}, nil
}
