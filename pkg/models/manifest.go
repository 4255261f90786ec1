package models

// Closed set of class tags a manifest's agent section may carry.
const (
	ClassOrchestrationOperator = "orchestration_operator"
	ClassTaskExecutor          = "task_executor"
)

// ManifestProtocolVersion is the protocol version string stamped into
// every generated manifest.
const ManifestProtocolVersion = "1.0.0"

// AgentSection is the "agent" block of a Manifest.
type AgentSection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	Class          string `json:"class"`
	Specialization string `json:"specialization"`
	Status         string `json:"status"`
	IssuedBy       string `json:"issued_by"`
	IssuedDate     string `json:"issued_date"`
}

// Mandate is a single capability/scope grant in the credentials section.
type Mandate struct {
	Capability string   `json:"capability"`
	Scope      []string `json:"scope"`
}

// Constraint is a forbidden action with its governing reason.
type Constraint struct {
	Forbidden string `json:"forbidden"`
	Reason    string `json:"reason"`
}

// CredentialsSection is the "credentials" block of a Manifest.
type CredentialsSection struct {
	Mandate        []Mandate    `json:"mandate"`
	Constraints    []Constraint `json:"constraints"`
	PrimeDirective string       `json:"prime_directive"`
}

// Operation describes one capability the agent exposes, always
// including a generic "process" entry even when the agent does not
// declare it explicitly.
type Operation struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"input_schema"`
	OutputSchema map[string]any `json:"output_schema"`
	Idempotent   bool           `json:"idempotent"`
	Versioned    bool           `json:"versioned"`
}

// Interface describes an external-facing interface the agent exposes.
type Interface struct {
	Type     string `json:"type"`
	Protocol string `json:"protocol"`
	Endpoint string `json:"endpoint"`
}

// CapabilitiesSection is the "capabilities" block of a Manifest.
type CapabilitiesSection struct {
	Interfaces []Interface `json:"interfaces"`
	Operations []Operation `json:"operations"`
}

// GovernanceSection is the "governance" block of a Manifest.
type GovernanceSection struct {
	Principal    string `json:"principal"`
	Contact      string `json:"contact"`
	AuditTrail   string `json:"audit_trail"`
	Transparency string `json:"transparency"`
}

// Manifest is the machine-readable identity declaration generated for
// an agent at kernel boot.
type Manifest struct {
	ProtocolVersion string              `json:"protocol_version"`
	Agent           AgentSection        `json:"agent"`
	Credentials     CredentialsSection  `json:"credentials"`
	Capabilities    CapabilitiesSection `json:"capabilities"`
	Governance      GovernanceSection   `json:"governance"`
}
