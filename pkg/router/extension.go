package router

import (
	"github.com/woidev/ranch/pkg/a2a"
)

/*
ExtensionURI identifies the client routing extension.  Agents that list
it among their skills receive a RoutingRequest with each message and may
answer with a RoutingDecision.
*/
const ExtensionURI = "https://ranch.woi.dev/extensions/client-routing/v1"

// Reserved recipient values understood by the router.
const (
	RecipientUser   = "user"
	RecipientSender = "sender"
)

/*
AgentCardSummary is the per-peer entry of a RoutingRequest: just enough
of the card for a routing-aware agent to pick a recipient.
*/
type AgentCardSummary struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description,omitempty"`
	Capabilities          []string `json:"capabilities,omitempty"`
	SupportsClientRouting bool     `json:"supportsClientRouting"`
}

// NewAgentCardSummary condenses a full card into its routing view.
func NewAgentCardSummary(card a2a.AgentCard) AgentCardSummary {
	summary := AgentCardSummary{
		ID:                    card.ID,
		Name:                  card.Name,
		Capabilities:          card.Capabilities,
		SupportsClientRouting: card.SupportsSkill(ExtensionURI),
	}

	if card.Description != nil {
		summary.Description = *card.Description
	}

	return summary
}

/*
RoutingRequest is the router-to-agent half of the extension payload.
*/
type RoutingRequest struct {
	Sender     string             `json:"sender"`
	AgentCards []AgentCardSummary `json:"agentCards"`
}

/*
RoutingDecision is the agent-to-router half: where the message goes
next.  Recipient is an agent id, "user", or "sender".  Handoffs narrows
the peer list offered on the next hop.
*/
type RoutingDecision struct {
	Recipient string   `json:"recipient"`
	Reason    string   `json:"reason,omitempty"`
	Handoffs  []string `json:"handoffs,omitempty"`
}

// SetRoutingRequest injects the routing payload into a message.
func SetRoutingRequest(msg *a2a.Message, request RoutingRequest) error {
	return msg.SetExtension(ExtensionURI, request)
}

// GetRoutingDecision extracts a decision, reporting whether one exists.
func GetRoutingDecision(msg *a2a.Message) (RoutingDecision, bool, error) {
	var decision RoutingDecision

	present, err := msg.GetExtension(ExtensionURI, &decision)
	if err != nil || !present {
		return RoutingDecision{}, false, err
	}

	// A routing request stored under the same key is not a decision.
	if decision.Recipient == "" {
		return RoutingDecision{}, false, nil
	}

	return decision, true, nil
}

// SetRoutingDecision stores a decision on a reply, for agents that route.
func SetRoutingDecision(msg *a2a.Message, decision RoutingDecision) error {
	return msg.SetExtension(ExtensionURI, decision)
}
