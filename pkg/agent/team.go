package agent

import (
	"context"
	"fmt"

	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/router"
)

/*
Team is an Agent made of other Agents.  Inbound messages are driven
through the routing loop until an agent addresses the user; the reply
of that final hop is the team's reply.
*/
type Team struct {
	id             string
	name           string
	defaultAgentID string
	maxHops        int
	manager        *Manager
}

func NewTeam(id, name, defaultAgentID string) *Team {
	return &Team{
		id:             id,
		name:           name,
		defaultAgentID: defaultAgentID,
		maxHops:        router.DefaultMaxHops,
		manager:        NewManager(),
	}
}

// SetMaxHops adjusts the routing budget for one flow.
func (team *Team) SetMaxHops(maxHops int) {
	team.maxHops = maxHops
}

// Manager exposes the member registry.
func (team *Team) Manager() *Manager {
	return team.manager
}

/*
Add registers a member.  Nesting a team inside itself, directly or
through intermediate teams, is rejected.
*/
func (team *Team) Add(id string, member Agent) error {
	if nested, ok := member.(*Team); ok {
		if nested == team || nested.contains(team) {
			return fmt.Errorf("adding team %q to %q would create a membership cycle", id, team.id)
		}
	}

	return team.manager.Register(id, member)
}

// contains walks nested teams looking for target.
func (team *Team) contains(target *Team) bool {
	for _, id := range team.manager.ListIDs() {
		member, ok := team.manager.Get(id)
		if !ok {
			continue
		}

		nested, isTeam := member.(*Team)
		if !isTeam {
			continue
		}

		if nested == target || nested.contains(target) {
			return true
		}
	}

	return false
}

/*
Info aggregates the member skills under the team's own card.
*/
func (team *Team) Info(ctx context.Context) (a2a.AgentCard, error) {
	skillSet := map[string]struct{}{}
	for _, card := range team.manager.ListInfo(ctx) {
		for _, skill := range card.Skills {
			skillSet[skill] = struct{}{}
		}
	}

	skills := make([]string, 0, len(skillSet))
	for skill := range skillSet {
		skills = append(skills, skill)
	}

	card := a2a.BuildAgentCard(
		a2a.AgentID(team.id),
		"",
		a2a.AgentProfile{
			Name:   team.name,
			Skills: skills,
			Metadata: map[string]any{
				"type":                 "team",
				"router_default_agent": team.defaultAgentID,
				"member_count":         team.manager.Count(),
			},
		},
		a2a.DefaultTransportCapabilities(),
	)

	return card, nil
}

/*
Process routes the message through the members until one addresses the
user, then returns the final reply.
*/
func (team *Team) Process(ctx context.Context, message *a2a.Message) (*a2a.Message, error) {
	flow := router.New(team.manager, team.defaultAgentID, team.maxHops)
	sender := router.RecipientUser

	for {
		result, err := flow.Hop(ctx, sender, message)
		if err != nil {
			return nil, err
		}

		if result.Recipient == router.RecipientUser {
			return result.Message, nil
		}

		sender = result.TargetID
		message = result.Message
	}
}

// HealthCheck reports true while at least one member is healthy.
func (team *Team) HealthCheck(ctx context.Context) bool {
	for _, healthy := range team.manager.HealthCheckAll(ctx) {
		if healthy {
			return true
		}
	}
	return false
}
