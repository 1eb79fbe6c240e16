package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/router"
)

// Agent is the participant contract shared with the router.
type Agent = router.Agent

/*
Manager is an in-memory agent registry keyed by agent id.  Lookups that
call into agents (ListInfo, FindByCapability, HealthCheckAll) clone the
references first, so the lock is never held across an agent call.
*/
type Manager struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

func NewManager() *Manager {
	return &Manager{agents: make(map[string]Agent)}
}

// Register adds an agent under id.  Duplicate ids are rejected.
func (manager *Manager) Register(id string, agent Agent) error {
	if id == "" {
		return fmt.Errorf("agent id must not be empty")
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	if _, exists := manager.agents[id]; exists {
		return fmt.Errorf("agent %q is already registered", id)
	}

	manager.agents[id] = agent
	return nil
}

func (manager *Manager) Get(id string) (Agent, bool) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	agent, ok := manager.agents[id]
	return agent, ok
}

// Remove drops an agent, reporting whether it was registered.
func (manager *Manager) Remove(id string) bool {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	_, ok := manager.agents[id]
	delete(manager.agents, id)
	return ok
}

// ListIDs returns the registered ids in sorted order.
func (manager *Manager) ListIDs() []string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	ids := make([]string, 0, len(manager.agents))
	for id := range manager.agents {
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids
}

// snapshot clones the registry so callers can fan out without the lock.
func (manager *Manager) snapshot() map[string]Agent {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	agents := make(map[string]Agent, len(manager.agents))
	for id, agent := range manager.agents {
		agents[id] = agent
	}
	return agents
}

// ListInfo fetches every member's card.  Agents that fail to answer are
// skipped with a log line.
func (manager *Manager) ListInfo(ctx context.Context) []a2a.AgentCard {
	agents := manager.snapshot()

	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cards := make([]a2a.AgentCard, 0, len(agents))
	for _, id := range ids {
		card, err := agents[id].Info(ctx)
		if err != nil {
			log.Warn("agent info unavailable", "agentID", id, "error", err)
			continue
		}
		cards = append(cards, card)
	}

	return cards
}

// FindByCapability returns the ids of agents advertising the capability
// in either their capability or skill list.
func (manager *Manager) FindByCapability(ctx context.Context, capability string) []string {
	agents := manager.snapshot()

	var ids []string
	for id, agent := range agents {
		card, err := agent.Info(ctx)
		if err != nil {
			continue
		}

		if card.SupportsSkill(capability) || containsString(card.Capabilities, capability) {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids
}

// HealthCheckAll probes every member, keyed by id.
func (manager *Manager) HealthCheckAll(ctx context.Context) map[string]bool {
	agents := manager.snapshot()

	health := make(map[string]bool, len(agents))
	for id, agent := range agents {
		health[id] = agent.HealthCheck(ctx)
	}

	return health
}

func (manager *Manager) Count() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.agents)
}

func (manager *Manager) Clear() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.agents = make(map[string]Agent)
}

func containsString(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
