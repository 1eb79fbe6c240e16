package a2a

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

type AgentAuthentication struct {
	// Schemes is a list of supported authentication schemes
	Schemes []string `json:"schemes"`
	// Credentials for authentication. Can be a string (e.g., token) or null if not required initially
	Credentials *string `json:"credentials,omitempty"`
}

// RateLimits advertises the request budget an agent grants its callers.
type RateLimits struct {
	RequestsPerMinute int `json:"requestsPerMinute,omitempty"`
	Burst             int `json:"burst,omitempty"`
}

/*
AgentCard is the published metadata for an agent: the merge of the
agent-authored profile and the transport's capabilities.
*/
type AgentCard struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    *string              `json:"description,omitempty"`
	Version        *string              `json:"version,omitempty"`
	URL            string               `json:"url"`
	Protocols      []string             `json:"protocols"`
	Capabilities   []string             `json:"capabilities"`
	Skills         []string             `json:"skills"`
	Authentication *AgentAuthentication `json:"authentication,omitempty"`
	RateLimits     *RateLimits          `json:"rateLimits,omitempty"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
}

/*
SupportsSkill reports whether the card lists the given skill (extension
URIs ride in the skill list).
*/
func (card *AgentCard) SupportsSkill(skill string) bool {
	for _, s := range card.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

/*
AgentProfile holds the agent-authored descriptive fields.  The handler
combines it with TransportCapabilities to produce the published card.
*/
type AgentProfile struct {
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Version     *string        `json:"version,omitempty"`
	Skills      []string       `json:"skills,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

/*
TransportCapabilities describes what the hosting transport can do on the
agent's behalf.
*/
type TransportCapabilities struct {
	Streaming         bool
	PushNotifications bool
	AuthSchemes       []string
	RateLimits        *RateLimits
	ProtocolVersion   string
}

func DefaultTransportCapabilities() TransportCapabilities {
	return TransportCapabilities{
		Streaming:         true,
		PushNotifications: true,
		ProtocolVersion:   "a2a/1.0",
	}
}

/*
BuildAgentCard merges a profile with the transport's capabilities into the
card served by agent/card and /.well-known/agent-card.
*/
func BuildAgentCard(id AgentID, url string, profile AgentProfile, transport TransportCapabilities) AgentCard {
	capabilities := []string{}
	if transport.Streaming {
		capabilities = append(capabilities, "streaming")
	}
	if transport.PushNotifications {
		capabilities = append(capabilities, "push-notifications")
	}

	protocol := transport.ProtocolVersion
	if protocol == "" {
		protocol = "a2a/1.0"
	}

	card := AgentCard{
		ID:           id.String(),
		Name:         profile.Name,
		Description:  profile.Description,
		Version:      profile.Version,
		URL:          url,
		Protocols:    []string{protocol},
		Capabilities: capabilities,
		Skills:       append([]string{}, profile.Skills...),
		RateLimits:   transport.RateLimits,
		Metadata:     profile.Metadata,
	}

	if len(transport.AuthSchemes) > 0 {
		card.Authentication = &AgentAuthentication{Schemes: transport.AuthSchemes}
	}

	return card
}

/*
NewAgentProfileFromConfig reads an agent profile from the loaded viper
configuration, keyed like agent.<key>.name.
*/
func NewAgentProfileFromConfig(key string) AgentProfile {
	v := viper.GetViper()

	description := v.GetString(fmt.Sprintf("agent.%s.description", key))
	version := v.GetString(fmt.Sprintf("agent.%s.version", key))

	profile := AgentProfile{
		Name:   v.GetString(fmt.Sprintf("agent.%s.name", key)),
		Skills: v.GetStringSlice(fmt.Sprintf("agent.%s.skills", key)),
	}

	if description != "" {
		profile.Description = &description
	}
	if version != "" {
		profile.Version = &version
	}

	return profile
}

func (card *AgentCard) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	bullet := "│ "

	sb.WriteString(headerStyle.Render("Agent Card") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(card.ID) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Name: ") + valueStyle.Render(card.Name) + "\n")
	if card.Description != nil {
		sb.WriteString(bullet + labelStyle.Render("Description: ") + valueStyle.Render(*card.Description) + "\n")
	}
	sb.WriteString(bullet + labelStyle.Render("URL: ") + valueStyle.Render(card.URL) + "\n")
	if card.Version != nil {
		sb.WriteString(bullet + labelStyle.Render("Version: ") + valueStyle.Render(*card.Version) + "\n")
	}

	sb.WriteString("\n" + sectionStyle.Render("Capabilities") + "\n")
	sb.WriteString(bullet + valueStyle.Render(strings.Join(card.Capabilities, ", ")) + "\n")

	if len(card.Skills) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Skills") + "\n")
		for _, skill := range card.Skills {
			sb.WriteString(bullet + valueStyle.Render(skill) + "\n")
		}
	}

	if card.Authentication != nil {
		sb.WriteString("\n" + sectionStyle.Render("Authentication") + "\n")
		sb.WriteString(bullet + labelStyle.Render("Schemes: ") + valueStyle.Render(strings.Join(card.Authentication.Schemes, ", ")) + "\n")
	}

	if card.RateLimits != nil {
		sb.WriteString("\n" + sectionStyle.Render("Rate Limits") + "\n")
		sb.WriteString(bullet + labelStyle.Render("Requests/min: ") + valueStyle.Render(fmt.Sprintf("%d", card.RateLimits.RequestsPerMinute)) + "\n")
	}

	return sb.String()
}
