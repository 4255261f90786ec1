package kernel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mplewis/agentkernel/internal/identity"
	"github.com/mplewis/agentkernel/internal/ledger"
	"github.com/mplewis/agentkernel/internal/observability"
	"github.com/mplewis/agentkernel/internal/policy"
	"github.com/mplewis/agentkernel/internal/queue"
	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/internal/tools/fsafe"
	"github.com/mplewis/agentkernel/internal/tools/kernelops"
	"github.com/mplewis/agentkernel/pkg/models"
)

// scriptedAgent returns a fixed AgentResponse every time it processes
// a task, for deterministic scenario tests.
type scriptedAgent struct {
	id       string
	kind     string
	caps     []string
	respond  func(task *models.Task) (*models.AgentResponse, error)
}

func (a *scriptedAgent) AgentID() string        { return a.id }
func (a *scriptedAgent) Kind() string           { return a.kind }
func (a *scriptedAgent) Capabilities() []string { return a.caps }
func (a *scriptedAgent) Process(ctx context.Context, task *models.Task) (*models.AgentResponse, error) {
	return a.respond(task)
}

func newTestKernel(t *testing.T, policyConfigPath, workspaceRoot string) (*Kernel, *tools.Registry) {
	t.Helper()
	l, err := ledger.Open(":memory:", observability.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	var policyEngine tools.PolicyChecker
	if policyConfigPath != "" {
		eng, err := policy.New(policyConfigPath, workspaceRoot)
		require.NoError(t, err)
		policyEngine = eng
	}

	toolReg := tools.New(policyEngine, observability.NewNop())
	require.NoError(t, toolReg.Register(fsafe.NewWriteFileTool(workspaceRoot)))
	require.NoError(t, toolReg.Register(fsafe.NewReadFileTool(workspaceRoot)))

	idReg := identity.NewRegistry()
	q := queue.New()
	k := New(q, l, idReg, toolReg, observability.NewNop(), Config{IssuingOrg: "test-org", WorkspaceRoot: workspaceRoot})
	return k, toolReg
}

func writePolicyConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "policy.yaml")
	content := `
safety_rules:
  - id: protect_git
    condition: path_contains
    pattern: ".git"
    action: block
    message: "Touching .git is forbidden."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// S1 — happy path write.
func TestScenarioS1HappyPathWrite(t *testing.T) {
	dir := t.TempDir()
	policyPath := writePolicyConfig(t, dir)
	k, _ := newTestKernel(t, policyPath, dir)

	agent := &scriptedAgent{id: "writer", kind: "specialist_agent", respond: func(task *models.Task) (*models.AgentResponse, error) {
		return &models.AgentResponse{
			Success: true,
			AgentID: "writer",
			TaskID:  task.ID,
			ToolCall: &models.ToolInvocationRequest{
				Tool:       "write_file",
				Parameters: map[string]any{"path": "docs/notes.md", "content": "hello", "create_dirs": true},
			},
		}, nil
	}}
	require.NoError(t, k.RegisterAgent(agent))
	require.NoError(t, k.Boot(context.Background()))

	taskID, err := k.Submit(&models.Task{AgentID: "writer", Payload: map[string]any{}})
	require.NoError(t, err)

	ok, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	content, err := os.ReadFile(filepath.Join(dir, "docs", "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	rec, found := k.GetTaskResult(taskID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusCompleted, rec.Status)
}

// S2 — shielded write.
func TestScenarioS2ShieldedWrite(t *testing.T) {
	dir := t.TempDir()
	policyPath := writePolicyConfig(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("original"), 0o644))

	k, _ := newTestKernel(t, policyPath, dir)
	agent := &scriptedAgent{id: "writer", kind: "specialist_agent", respond: func(task *models.Task) (*models.AgentResponse, error) {
		return &models.AgentResponse{
			Success: true,
			AgentID: "writer",
			TaskID:  task.ID,
			ToolCall: &models.ToolInvocationRequest{
				Tool:       "write_file",
				Parameters: map[string]any{"path": ".git/config", "content": "x"},
			},
		}, nil
	}}
	require.NoError(t, k.RegisterAgent(agent))
	require.NoError(t, k.Boot(context.Background()))

	taskID, err := k.Submit(&models.Task{AgentID: "writer", Payload: map[string]any{}})
	require.NoError(t, err)

	ok, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "the agent itself did not crash")

	content, err := os.ReadFile(filepath.Join(dir, ".git", "config"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(content), ".git/config must be unchanged on disk")

	rec, found := k.GetTaskResult(taskID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusCompleted, rec.Status)

	out, ok := rec.OutputResult.(map[string]any)
	require.True(t, ok)
	toolResult, ok := out["tool_result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, toolResult["success"])
	metadata, _ := toolResult["metadata"].(map[string]any)
	require.NotNil(t, metadata)
	assert.Equal(t, true, metadata["blocked_by_policy"])
	assert.Contains(t, toolResult["error"], ".git")
}

// S3 / S4 — delegation then inspect round-trip.
func TestScenarioS3S4DelegationAndInspect(t *testing.T) {
	dir := t.TempDir()
	k, toolReg := newTestKernel(t, "", dir)

	delegateTool := kernelops.NewDelegateTaskTool()
	require.NoError(t, toolReg.Register(delegateTool))
	inspectTool := kernelops.NewInspectResultTool(k)
	require.NoError(t, toolReg.Register(inspectTool))

	planner := &scriptedAgent{id: "planner", kind: "specialist_agent", respond: func(task *models.Task) (*models.AgentResponse, error) {
		return &models.AgentResponse{Success: true, AgentID: "planner", TaskID: task.ID, Output: "the plan: ship it"}, nil
	}}
	orchestrator := &scriptedAgent{id: "orchestrator", kind: "simple_llm_agent", respond: func(task *models.Task) (*models.AgentResponse, error) {
		return &models.AgentResponse{
			Success: true,
			AgentID: "orchestrator",
			TaskID:  task.ID,
			ToolCall: &models.ToolInvocationRequest{
				Tool:       "delegate_task",
				Parameters: map[string]any{"agent_id": "planner", "payload": map[string]any{"user_message": "plan"}},
			},
		}, nil
	}}
	require.NoError(t, k.RegisterAgent(planner))
	require.NoError(t, k.RegisterAgent(orchestrator))
	require.NoError(t, k.Boot(context.Background()))
	delegateTool.SetKernel(k)

	_, err := k.Submit(&models.Task{AgentID: "orchestrator", Payload: map[string]any{}})
	require.NoError(t, err)

	ok1, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok2)

	stats := k.ledger.GetStatistics()
	assert.Equal(t, 2, stats.Total)

	history := k.ledger.GetHistory(ledger.HistoryFilter{AgentID: "planner", Limit: 1})
	require.Len(t, history, 1)
	assert.Equal(t, ledger.StatusCompleted, history[0].Status)
	plannerTaskID := history[0].TaskID

	result := toolReg.Execute(context.Background(), &models.ToolInvocationRequest{
		Tool:       "inspect_result",
		Parameters: map[string]any{"task_id": plannerTaskID},
	})
	require.True(t, result.Success)
	out := result.Output.(map[string]any)
	assert.Equal(t, "completed", out["status"])
}

// S5 — Phoenix fallback, exercised directly against the ledger package
// in internal/ledger; here we confirm the kernel continues to function
// end to end against a Phoenix-degraded ledger.
func TestScenarioS5PhoenixFallbackKernelStillFunctions(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked.db")
	require.NoError(t, os.Mkdir(blocked, 0o755))

	l, err := ledger.Open(blocked, observability.NewNop())
	require.NoError(t, err)
	require.True(t, l.Phoenix())
	defer l.Close()

	idReg := identity.NewRegistry()
	toolReg := tools.New(nil, observability.NewNop())
	q := queue.New()
	k := New(q, l, idReg, toolReg, observability.NewNop(), Config{IssuingOrg: "org"})

	agent := &scriptedAgent{id: "a", kind: "specialist_agent", respond: func(task *models.Task) (*models.AgentResponse, error) {
		return &models.AgentResponse{Success: true, AgentID: "a", TaskID: task.ID, Output: "done"}, nil
	}}
	require.NoError(t, k.RegisterAgent(agent))
	require.NoError(t, k.Boot(context.Background()))

	taskID, err := k.Submit(&models.Task{AgentID: "a", Payload: map[string]any{}})
	require.NoError(t, err)
	ok, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	rec, found := k.GetTaskResult(taskID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusCompleted, rec.Status)
}

// S6 — unknown agent submission.
func TestScenarioS6UnknownAgentSubmission(t *testing.T) {
	k, _ := newTestKernel(t, "", t.TempDir())
	a := &scriptedAgent{id: "a", kind: "specialist_agent"}
	b := &scriptedAgent{id: "b", kind: "specialist_agent"}
	require.NoError(t, k.RegisterAgent(a))
	require.NoError(t, k.RegisterAgent(b))
	require.NoError(t, k.Boot(context.Background()))

	sizeBefore := k.queue.Size()
	_, err := k.Submit(&models.Task{AgentID: "c", Payload: map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, sizeBefore, k.queue.Size())
}

func TestTickOnStoppedKernelReturnsFalse(t *testing.T) {
	k, _ := newTestKernel(t, "", t.TempDir())
	ok, err := k.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTaskResultOnNonexistentIDReturnsFalseNotError(t *testing.T) {
	k, _ := newTestKernel(t, "", t.TempDir())
	_, found := k.GetTaskResult("does-not-exist")
	assert.False(t, found)
}

func TestTickOnAgentVanishedAfterSubmitRecordsFailureAndReturnsError(t *testing.T) {
	k, _ := newTestKernel(t, "", t.TempDir())
	agent := &scriptedAgent{id: "ghost", kind: "specialist_agent"}
	require.NoError(t, k.RegisterAgent(agent))
	require.NoError(t, k.Boot(context.Background()))

	taskID, err := k.Submit(&models.Task{AgentID: "ghost", Payload: map[string]any{}})
	require.NoError(t, err)

	// Simulate the agent vanishing between submit and tick by rebuilding
	// the identity registry without it — the kernel's own lookups
	// reflect this directly since RegisterAgent has no Unregister, so we
	// instead drive this path by constructing a fresh kernel sharing the
	// same queue/ledger but an empty identity registry.
	emptyIdentity := identity.NewRegistry()
	ghostKernel := New(k.queue, k.ledger, emptyIdentity, k.tools, observability.NewNop(), Config{})
	ghostKernel.status = StatusRunning

	ok, err := ghostKernel.Tick(context.Background())
	assert.False(t, ok)
	require.Error(t, err)
	var notFound *AgentNotFoundError
	assert.ErrorAs(t, err, &notFound)

	rec, found := ghostKernel.GetTaskResult(taskID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusFailed, rec.Status)
}
