// Package kernel implements the Kernel Core: lifecycle, the scheduling
// step, dispatch, ledger recording, and delegation validation. Uses the
// two-state machine (STOPPED/RUNNING) the system diagram is
// authoritative for, deliberately simpler than a four-state design.
package kernel

import (
	"context"
	"fmt"

	"github.com/mplewis/agentkernel/internal/identity"
	"github.com/mplewis/agentkernel/internal/ledger"
	"github.com/mplewis/agentkernel/internal/observability"
	"github.com/mplewis/agentkernel/internal/queue"
	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/internal/workspace"
	"github.com/mplewis/agentkernel/pkg/models"
)

// Status is one of the kernel's two lifecycle states.
type Status string

const (
	StatusStopped Status = "STOPPED"
	StatusRunning Status = "RUNNING"
)

// Config controls kernel construction.
type Config struct {
	IssuingOrg    string
	WorkspaceRoot string
}

// Kernel owns every other component and exposes the public API:
// boot/shutdown lifecycle, submit/tick dispatch, and read accessors
// over the ledger and identity registry.
type Kernel struct {
	status Status

	queue    *queue.Queue
	ledger   *ledger.Ledger
	identity *identity.Registry
	tools    *tools.Registry
	log      *observability.Logger

	cfg Config

	inbox        []workspace.InboxMessage
	backlog      []string
	gitStatus    string
}

// New wires a Kernel from its already-constructed component
// dependencies. Callers build the Queue/Ledger/Tool Registry/Identity
// Registry first (leaf components) and pass them in here.
func New(q *queue.Queue, l *ledger.Ledger, idReg *identity.Registry, toolReg *tools.Registry, log *observability.Logger, cfg Config) *Kernel {
	if log == nil {
		log = observability.NewNop()
	}
	return &Kernel{
		status:   StatusStopped,
		queue:    q,
		ledger:   l,
		identity: idReg,
		tools:    toolReg,
		log:      log,
		cfg:      cfg,
	}
}

// Status reports the kernel's current lifecycle state.
func (k *Kernel) Status() Status {
	return k.status
}

// RegisterAgent adds agent to the identity registry. Agents may be
// registered before or after Boot; manifests are generated only
// during Boot (or a subsequent re-boot).
func (k *Kernel) RegisterAgent(agent models.Agent) error {
	return k.identity.RegisterAgent(agent)
}

// Boot transitions STOPPED -> RUNNING, generates and stores a manifest
// for every registered agent, and scans the optional workspace side
// channels. A single agent's manifest-generation failure is logged and
// skipped rather than aborting boot; double-boot is allowed and
// regenerates every manifest.
func (k *Kernel) Boot(ctx context.Context) error {
	k.status = StatusRunning

	auditTrail := "in-memory"
	if k.ledger != nil {
		auditTrail = k.ledger.Path()
	}

	for _, agent := range k.identity.Agents() {
		manifest := identity.Generate(agent, identity.GeneratorConfig{
			IssuingOrg: k.cfg.IssuingOrg,
			AuditTrail: auditTrail,
		})
		fingerprint, err := identity.Fingerprint(manifest)
		if err != nil {
			k.log.Base().Warn("manifest fingerprint failed", "agent_id", agent.AgentID(), "error", err)
			continue
		}
		k.identity.StoreManifest(agent.AgentID(), manifest)
		k.log.LogManifestIssued(agent.AgentID(), fingerprint)
	}

	if k.cfg.WorkspaceRoot != "" {
		k.inbox = workspace.ScanInbox(k.cfg.WorkspaceRoot)
		k.backlog = workspace.ScanBacklog(k.cfg.WorkspaceRoot)
	}
	k.gitStatus = workspace.ReadGitStatus()

	return nil
}

// Shutdown transitions RUNNING -> STOPPED. Queued tasks are retained;
// a subsequent Boot can resume processing them.
func (k *Kernel) Shutdown() error {
	k.status = StatusStopped
	return nil
}

// GetInboxMessages returns the messages scanned at the last Boot.
func (k *Kernel) GetInboxMessages() []workspace.InboxMessage {
	return k.inbox
}

// GetBacklog returns the outstanding agenda entries scanned at the
// last Boot.
func (k *Kernel) GetBacklog() []string {
	return k.backlog
}

// GetGitStatus returns the git-sync status read at the last Boot.
func (k *Kernel) GetGitStatus() string {
	return k.gitStatus
}

// validateDelegation enforces the shared delegation-validation rule:
// the agent must be registered, and — if the kernel is running — its
// manifest must exist with status "active".
func (k *Kernel) validateDelegation(agentID string) error {
	if _, ok := k.identity.LookupAgent(agentID); !ok {
		return &UnknownAgentError{Requested: agentID, Available: k.identity.AgentIDs()}
	}
	if k.status == StatusRunning {
		manifest, ok := k.identity.LookupManifest(agentID)
		if !ok || manifest.Agent.Status != "active" {
			return &ErrAgentNotActive{AgentID: agentID}
		}
	}
	return nil
}

// Submit validates the target agent and enqueues task, returning its
// id. It rejects with a descriptive error naming the available agents
// when the target agent is unknown.
func (k *Kernel) Submit(task *models.Task) (string, error) {
	if err := k.validateDelegation(task.AgentID); err != nil {
		return "", err
	}
	return k.queue.Submit(task)
}

// Tick advances the loop by one step. It returns (false, nil) when the
// kernel is not running or the queue is empty — no task was dispatched.
// Any dispatch-time error (agent vanished, agent's processing hook
// raised) is always preceded by the corresponding ledger write, and is
// then returned to the caller for inspection.
func (k *Kernel) Tick(ctx context.Context) (bool, error) {
	if k.status != StatusRunning {
		k.log.LogTickSkipped("kernel is not running")
		return false, nil
	}

	task, ok := k.queue.Next()
	if !ok {
		return false, nil
	}

	k.ledger.RecordStart(task)
	k.log.LogTaskStart(task.ID, task.AgentID)

	agent, ok := k.identity.LookupAgent(task.AgentID)
	if !ok {
		agentErr := &AgentNotFoundError{AgentID: task.AgentID, TaskID: task.ID}
		k.ledger.RecordFailure(task, agentErr.Error())
		k.log.LogTaskTerminal(task.ID, task.AgentID, ledger.StatusFailed, agentErr)
		return false, agentErr
	}

	response, err := agent.Process(ctx, task)
	if err != nil {
		errMsg := fmt.Sprintf("%T: %v", err, err)
		k.ledger.RecordFailure(task, errMsg)
		k.log.LogTaskTerminal(task.ID, task.AgentID, ledger.StatusFailed, err)
		return false, err
	}

	output := response.ToDict()
	if response.ToolCall != nil && k.tools != nil {
		result := k.tools.Execute(ctx, response.ToolCall)
		output["tool_result"] = result
	}

	k.ledger.RecordCompletion(task, output)
	k.log.LogTaskTerminal(task.ID, task.AgentID, ledger.StatusCompleted, nil)
	return true, nil
}

// GetTaskResult returns the full ledger record for taskID, or
// (nil, false) if none exists.
func (k *Kernel) GetTaskResult(taskID string) (*ledger.Record, bool) {
	return k.ledger.GetTask(taskID)
}

// GetTaskOutput returns only the output_result field of taskID's
// record, or (nil, false) if no record exists.
func (k *Kernel) GetTaskOutput(taskID string) (any, bool) {
	rec, ok := k.ledger.GetTask(taskID)
	if !ok {
		return nil, false
	}
	return rec.OutputResult, true
}

// GetAgentManifest returns the manifest stored for agentID, if any.
func (k *Kernel) GetAgentManifest(agentID string) (*models.Manifest, bool) {
	return k.identity.LookupManifest(agentID)
}

// FindAgentsByCapability returns the manifests of every agent whose
// declared capability list contains cap.
func (k *Kernel) FindAgentsByCapability(cap string) []*models.Manifest {
	return k.identity.FindByCapability(cap)
}
