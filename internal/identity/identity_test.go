package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mplewis/agentkernel/pkg/models"
)

type stubAgent struct {
	id   string
	kind string
	caps []string
}

func (a *stubAgent) AgentID() string       { return a.id }
func (a *stubAgent) Kind() string          { return a.kind }
func (a *stubAgent) Capabilities() []string { return a.caps }
func (a *stubAgent) Process(ctx context.Context, task *models.Task) (*models.AgentResponse, error) {
	return &models.AgentResponse{Success: true, AgentID: a.id, TaskID: task.ID}, nil
}

func TestGenerateAlwaysIncludesGenericProcessOperation(t *testing.T) {
	agent := &stubAgent{id: "specialist-planning", kind: "specialist_agent", caps: []string{"plan"}}
	m := Generate(agent, GeneratorConfig{IssuingOrg: "test-org", AuditTrail: "/tmp/ledger.db"})

	var names []string
	for _, op := range m.Capabilities.Operations {
		names = append(names, op.Name)
	}
	assert.Contains(t, names, "process")
	assert.Contains(t, names, "plan")
	assert.Equal(t, "Specialist Planning", m.Agent.Name)
	assert.Equal(t, models.ClassTaskExecutor, m.Agent.Class)
}

func TestGenerateDefaultsUnknownKindToOrchestrationOperator(t *testing.T) {
	agent := &stubAgent{id: "mystery", kind: "unknown_kind"}
	m := Generate(agent, GeneratorConfig{})
	assert.Equal(t, models.ClassOrchestrationOperator, m.Agent.Class)
}

func TestFingerprintDeterministicForIdenticalManifests(t *testing.T) {
	agent := &stubAgent{id: "a", kind: "simple_llm_agent", caps: []string{"chat"}}
	m1 := Generate(agent, GeneratorConfig{IssuingOrg: "org", AuditTrail: "/db"})
	m1.Agent.IssuedDate = "2026-01-01T00:00:00Z"
	m2 := *m1

	fp1, err := Fingerprint(m1)
	require.NoError(t, err)
	fp2, err := Fingerprint(&m2)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, fp1)
}

func TestRegisterAgentRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterAgent(&stubAgent{id: "a"}))
	err := r.RegisterAgent(&stubAgent{id: "a"})
	assert.Error(t, err)
}

func TestFindByCapabilityMatchesRawAgentCapabilities(t *testing.T) {
	r := NewRegistry()
	planner := &stubAgent{id: "planner", kind: "specialist_agent", caps: []string{"plan"}}
	require.NoError(t, r.RegisterAgent(planner))
	m := Generate(planner, GeneratorConfig{})
	r.StoreManifest("planner", m)

	found := r.FindByCapability("plan")
	require.Len(t, found, 1)
	assert.Equal(t, "planner", found[0].Agent.ID)

	assert.Empty(t, r.FindByCapability("process"),
		"process is synthesized into every manifest but is not a declared agent capability here")
}
