package a2a

import (
	"fmt"
	"net/url"
	"strings"
)

/*
AgentID identifies an agent within a registry or a routing flow.  Plain
names are fine; anything that looks like a URL must actually be one.
*/
type AgentID string

func NewAgentID(raw string) (AgentID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("agent id must not be empty")
	}

	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			return "", fmt.Errorf("agent id %q looks like a URL but does not parse as one", raw)
		}
	}

	return AgentID(raw), nil
}

func (id AgentID) String() string {
	return string(id)
}
