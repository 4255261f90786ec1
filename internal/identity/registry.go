package identity

import (
	"fmt"
	"sync"

	"github.com/mplewis/agentkernel/pkg/models"
)

// Registry holds agents by id and, in parallel, the identity manifests
// issued for them at boot.
type Registry struct {
	mu        sync.RWMutex
	agents    map[string]models.Agent
	manifests map[string]*models.Manifest
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		agents:    make(map[string]models.Agent),
		manifests: make(map[string]*models.Manifest),
	}
}

// RegisterAgent adds agent to the registry. Duplicate ids are rejected;
// an agent is registered exactly once per kernel lifetime.
func (r *Registry) RegisterAgent(agent models.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[agent.AgentID()]; exists {
		return fmt.Errorf("agent %q already registered", agent.AgentID())
	}
	r.agents[agent.AgentID()] = agent
	return nil
}

// LookupAgent returns a registered agent by id.
func (r *Registry) LookupAgent(id string) (models.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	return a, ok
}

// AgentIDs returns every registered agent id.
func (r *Registry) AgentIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	return ids
}

// Agents returns every registered agent, for boot-time manifest
// generation.
func (r *Registry) Agents() []models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}

// StoreManifest records the manifest issued for an agent id,
// overwriting any previously issued manifest for that id.
func (r *Registry) StoreManifest(agentID string, manifest *models.Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[agentID] = manifest
}

// LookupManifest returns the manifest issued for agentID, if any.
func (r *Registry) LookupManifest(agentID string) (*models.Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[agentID]
	return m, ok
}

// FindByCapability returns the manifests of every agent whose
// capability list contains cap.
func (r *Registry) FindByCapability(cap string) []*models.Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Manifest
	for _, agent := range r.agents {
		for _, c := range agent.Capabilities() {
			if c == cap {
				if m, ok := r.manifests[agent.AgentID()]; ok {
					out = append(out, m)
				}
				break
			}
		}
	}
	return out
}
