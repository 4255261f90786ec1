// Package kernelops implements the two bundled tools that let agents
// orchestrate each other through the kernel: inspect_result (read a
// prior task's outcome) and delegate_task (submit a new task). Both
// intentionally carry a simpler, flatter parameter contract than a
// mission-specific delegation scheme would.
package kernelops

import (
	"context"
	"fmt"
	"strings"

	"github.com/mplewis/agentkernel/internal/ledger"
	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/pkg/models"
)

// ResultInspector is the narrow view of the kernel's ledger that
// InspectResultTool depends on.
type ResultInspector interface {
	GetTaskResult(taskID string) (*ledger.Record, bool)
}

// InspectResultTool queries a prior task's outcome from the ledger.
// Unlike delegate_task it only reads, so it takes its kernel reference
// at construction rather than via late binding.
type InspectResultTool struct {
	kernel ResultInspector
}

// NewInspectResultTool builds the tool against kernel.
func NewInspectResultTool(kernel ResultInspector) *InspectResultTool {
	return &InspectResultTool{kernel: kernel}
}

func (t *InspectResultTool) Name() string { return "inspect_result" }
func (t *InspectResultTool) Description() string {
	return "Query the result of a task from the kernel ledger. Use this after delegating a task to check whether it has completed."
}

func (t *InspectResultTool) ParametersSchema() map[string]tools.ParamSpec {
	return map[string]tools.ParamSpec{
		"task_id":      {Type: "string", Required: true, Description: "The task id returned from kernel.Submit()."},
		"include_input": {Type: "boolean", Required: false, Description: "If true, include the original task input payload."},
	}
}

func (t *InspectResultTool) Validate(params map[string]any) error {
	taskID, ok := params["task_id"].(string)
	if !ok || strings.TrimSpace(taskID) == "" {
		return fmt.Errorf("task_id must be a non-empty string")
	}
	if v, ok := params["include_input"]; ok {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("include_input must be a boolean")
		}
	}
	return nil
}

func (t *InspectResultTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	taskID := params["task_id"].(string)
	includeInput, _ := params["include_input"].(bool)

	record, found := t.kernel.GetTaskResult(taskID)
	if !found {
		return &models.ToolResult{Success: true, Output: map[string]any{
			"task_id": taskID,
			"status":  "NOT_FOUND",
			"error":   fmt.Sprintf("no task record found for task_id=%s", taskID),
		}}, nil
	}

	output := map[string]any{
		"task_id":   taskID,
		"status":    record.Status,
		"timestamp": record.Timestamp,
	}
	switch record.Status {
	case ledger.StatusCompleted:
		output["output"] = record.OutputResult
	case ledger.StatusFailed:
		output["error"] = record.ErrorMessage
	case ledger.StatusStarted:
		output["message"] = "task is still executing"
	}
	if includeInput {
		output["input_payload"] = record.InputPayload
	}

	return &models.ToolResult{Success: true, Output: output}, nil
}
