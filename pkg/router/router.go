package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/woidev/ranch/pkg/a2a"
)

// DefaultMaxHops bounds a single routed flow.
const DefaultMaxHops = 10

// ErrMaxHopsExceeded is returned when a flow keeps bouncing between
// agents without reaching the user.
var ErrMaxHopsExceeded = errors.New("maximum routing hops exceeded")

/*
Agent is what the router needs from a participant: its card, a message
processor and a liveness probe.
*/
type Agent interface {
	Info(ctx context.Context) (a2a.AgentCard, error)
	Process(ctx context.Context, message *a2a.Message) (*a2a.Message, error)
	HealthCheck(ctx context.Context) bool
}

/*
Registry resolves agent ids and lists the peer cards offered to
routing-aware agents.
*/
type Registry interface {
	Get(id string) (Agent, bool)
	ListInfo(ctx context.Context) []a2a.AgentCard
}

/*
Result is the outcome of one hop: which agent processed the message,
where it goes next, and the reply that replaces the current message.
*/
type Result struct {
	TargetID  string
	Recipient string
	Message   *a2a.Message
}

/*
Router advances a message through a team one hop at a time.  State is
confined to a single flow; create a new Router per Process call.
*/
type Router struct {
	registry        Registry
	defaultAgentID  string
	maxHops         int
	hopCount        int
	senderStack     []string
	pendingHandoffs []string
}

func New(registry Registry, defaultAgentID string, maxHops int) *Router {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	return &Router{
		registry:       registry,
		defaultAgentID: defaultAgentID,
		maxHops:        maxHops,
	}
}

/*
Hop performs one routing step: resolve the recipient named by the
incoming message, call that agent, and report where the reply goes.
The caller loops until Recipient is RecipientUser.
*/
func (router *Router) Hop(ctx context.Context, sender string, message *a2a.Message) (Result, error) {
	if router.hopCount >= router.maxHops {
		return Result{}, fmt.Errorf("%w: %d hops", ErrMaxHopsExceeded, router.hopCount)
	}

	router.hopCount++
	router.senderStack = append(router.senderStack, sender)

	targetID, done, err := router.resolveTarget(message)
	if err != nil {
		return Result{}, err
	}

	if done {
		router.senderStack = router.senderStack[:len(router.senderStack)-1]
		return Result{Recipient: RecipientUser, Message: message}, nil
	}

	target, ok := router.registry.Get(targetID)
	if !ok {
		return Result{}, fmt.Errorf("no agent registered as %q", targetID)
	}

	supportsRouting, err := router.prepare(ctx, target, sender, message)
	if err != nil {
		return Result{}, err
	}

	reply, err := target.Process(ctx, message)
	if err != nil {
		return Result{}, fmt.Errorf("agent %s failed: %w", targetID, err)
	}

	recipient := router.decide(reply, supportsRouting)

	log.Debug(
		"routing hop",
		"hop", router.hopCount,
		"sender", sender,
		"target", targetID,
		"next", recipient,
	)

	return Result{TargetID: targetID, Recipient: recipient, Message: reply}, nil
}

// resolveTarget maps the incoming message's recipient to an agent id.
// done is true when the message is addressed to the user.
func (router *Router) resolveTarget(message *a2a.Message) (string, bool, error) {
	decision, present, err := GetRoutingDecision(message)
	if err != nil {
		return "", false, fmt.Errorf("malformed routing decision: %w", err)
	}

	if !present {
		return router.defaultAgentID, false, nil
	}

	switch decision.Recipient {
	case RecipientUser:
		return "", true, nil
	case RecipientSender:
		// The frame just below the current one holds whoever sent the
		// message to the deciding agent.
		if len(router.senderStack) >= 2 {
			if above := router.senderStack[len(router.senderStack)-2]; above != RecipientUser {
				return above, false, nil
			}
			return "", true, nil
		}
		return router.defaultAgentID, false, nil
	default:
		return decision.Recipient, false, nil
	}
}

// prepare injects the routing payload when the target speaks the
// extension.  Reports whether it does.
func (router *Router) prepare(ctx context.Context, target Agent, sender string, message *a2a.Message) (bool, error) {
	card, err := target.Info(ctx)
	if err != nil {
		return false, fmt.Errorf("agent info failed: %w", err)
	}

	if !card.SupportsSkill(ExtensionURI) {
		message.ClearExtension(ExtensionURI)
		return false, nil
	}

	cards := router.peerCards(ctx, card.ID)
	router.pendingHandoffs = nil

	if err := SetRoutingRequest(message, RoutingRequest{
		Sender:     sender,
		AgentCards: cards,
	}); err != nil {
		return true, err
	}

	return true, nil
}

// peerCards lists every other member, narrowed to pendingHandoffs when
// the previous hop named some.
func (router *Router) peerCards(ctx context.Context, targetID string) []AgentCardSummary {
	allowed := map[string]struct{}{}
	for _, id := range router.pendingHandoffs {
		allowed[id] = struct{}{}
	}

	var cards []AgentCardSummary
	for _, card := range router.registry.ListInfo(ctx) {
		if card.ID == targetID {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[card.ID]; !ok {
				continue
			}
		}
		cards = append(cards, NewAgentCardSummary(card))
	}

	return cards
}

// decide extracts the reply's routing decision and applies the
// basic-agent rule.
func (router *Router) decide(reply *a2a.Message, supportsRouting bool) string {
	decision, present, err := GetRoutingDecision(reply)
	if err != nil {
		log.Warn("ignoring malformed routing decision", "error", err)
		present = false
	}

	if !present {
		// Agents without the extension cannot address anyone; their
		// replies go back to the user.
		if !supportsRouting {
			return RecipientUser
		}
		return router.defaultAgentID
	}

	if len(decision.Handoffs) > 0 {
		router.pendingHandoffs = append([]string(nil), decision.Handoffs...)
	}

	return decision.Recipient
}

// HopCount reports how many hops the flow has taken.
func (router *Router) HopCount() int {
	return router.hopCount
}
