// Package identity implements the Agent Registry and manifest
// generation: holding agents by id, and at boot producing a parallel
// registry of deterministic identity manifests.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mplewis/agentkernel/pkg/models"
)

// classTagByKind maps an agent's declared Kind() to the manifest's
// closed-set class tag, defaulting to orchestration_operator for
// unrecognized kinds.
var classTagByKind = map[string]string{
	"simple_llm_agent": models.ClassOrchestrationOperator,
	"specialist_agent": models.ClassTaskExecutor,
}

// specializationByKind maps an agent's declared Kind() to its
// specialization label, defaulting to "general".
var specializationByKind = map[string]string{
	"simple_llm_agent": "cognitive_orchestration",
	"specialist_agent": "workflow_execution",
}

func classTagFor(kind string) string {
	if tag, ok := classTagByKind[kind]; ok {
		return tag
	}
	return models.ClassOrchestrationOperator
}

func specializationFor(kind string) string {
	if spec, ok := specializationByKind[kind]; ok {
		return spec
	}
	return "general"
}

// humanizeID turns a kebab-case agent id into a Title Case display
// name, e.g. "specialist-planning" -> "Specialist Planning".
func humanizeID(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// GeneratorConfig carries the fields shared across every manifest a
// generator issues.
type GeneratorConfig struct {
	IssuingOrg string
	AuditTrail string // the kernel's actual configured ledger path
}

// Generate builds a Manifest for agent, always including a generic
// "process" operation even if the agent does not declare it itself.
func Generate(agent models.Agent, cfg GeneratorConfig) *models.Manifest {
	issuingOrg := cfg.IssuingOrg
	if issuingOrg == "" {
		issuingOrg = "agent-kernel"
	}
	classTag := classTagFor(agent.Kind())
	specialization := specializationFor(agent.Kind())

	operations := make([]models.Operation, 0, len(agent.Capabilities())+1)
	hasProcess := false
	for _, cap := range agent.Capabilities() {
		operations = append(operations, models.Operation{
			Name:        cap,
			Description: fmt.Sprintf("Agent capability: %s", cap),
			InputSchema: map[string]any{"type": "object"},
			OutputSchema: map[string]any{"type": "object"},
		})
		if cap == "process" {
			hasProcess = true
		}
	}
	if !hasProcess {
		operations = append(operations, models.Operation{
			Name:        "process",
			Description: "Generic task-processing entry point.",
			InputSchema: map[string]any{"type": "object"},
			OutputSchema: map[string]any{"type": "object"},
		})
	}

	manifest := &models.Manifest{
		ProtocolVersion: models.ManifestProtocolVersion,
		Agent: models.AgentSection{
			ID:             agent.AgentID(),
			Name:           humanizeID(agent.AgentID()),
			Version:        "1.0.0",
			Class:          classTag,
			Specialization: specialization,
			Status:         "active",
			IssuedBy:       issuingOrg,
			IssuedDate:     time.Now().UTC().Format(time.RFC3339),
		},
		Credentials: models.CredentialsSection{
			Mandate: []models.Mandate{
				{Capability: "*", Scope: []string{"*"}},
			},
			Constraints: []models.Constraint{
				{Forbidden: "bypass_tests", Reason: "test-first discipline is mandatory"},
				{Forbidden: "access_production_without_approval", Reason: "safety-first principle"},
			},
			PrimeDirective: "Trust the ledger over claims; verify state before reporting success.",
		},
		Capabilities: models.CapabilitiesSection{
			Interfaces: []models.Interface{
				{Type: "in_process", Protocol: "go", Endpoint: fmt.Sprintf("agentkernel/agents.%s", agent.Kind())},
			},
			Operations: operations,
		},
		Governance: models.GovernanceSection{
			Principal:    fmt.Sprintf("%s-core-team", issuingOrg),
			Contact:      fmt.Sprintf("governance@%s", issuingOrg),
			AuditTrail:   cfg.AuditTrail,
			Transparency: "public",
		},
	}
	return manifest
}

// Fingerprint computes a deterministic sha256:<hex> fingerprint over a
// canonical (sorted-key, minimal-whitespace) JSON serialization of the
// manifest. encoding/json already sorts map keys and emits no extra
// whitespace for map-based values, so round-tripping the struct through
// a generic map achieves full canonicalization with no custom serializer.
func Fingerprint(m *models.Manifest) (string, error) {
	asStruct, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(asStruct, &asMap); err != nil {
		return "", fmt.Errorf("canonicalize manifest: %w", err)
	}
	canonical, err := json.Marshal(asMap)
	if err != nil {
		return "", fmt.Errorf("marshal canonical manifest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
