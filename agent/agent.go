// Package agent carries the pieces every supportmesh agent process shares:
// message helpers for the task protocol and capability card construction.
package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"

	"github.com/supportmesh/supportmesh/routing"
)

// MessageText concatenates the text parts of a task message.
func MessageText(msg protocol.Message) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		if textPart, ok := part.(protocol.TextPart); ok {
			b.WriteString(textPart.Text)
		}
	}
	return b.String()
}

// TextMessage builds an agent-role message holding one text part.
func TextMessage(text string) protocol.Message {
	return protocol.NewMessage(protocol.MessageRoleAgent, []protocol.Part{
		protocol.NewTextPart(text),
	})
}

// JSONMessage builds an agent-role message whose single text part is the
// JSON encoding of v.
func JSONMessage(v any) (protocol.Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("encoding message payload: %w", err)
	}
	return TextMessage(string(raw)), nil
}

// Card builds the capability manifest an agent publishes. Skill IDs are the
// intent tags the agent handles, so the card doubles as its routing
// advertisement.
func Card(name, description, url string, tags []routing.Tag, examples map[routing.Tag][]string) server.AgentCard {
	skills := make([]server.AgentSkill, 0, len(tags))
	for _, tag := range tags {
		skills = append(skills, server.AgentSkill{
			ID:       string(tag),
			Name:     skillName(tag),
			Examples: examples[tag],
		})
	}
	return server.AgentCard{
		Name:        name,
		Description: &description,
		URL:         url,
		Version:     "1.0.0",
		Capabilities: server.AgentCapabilities{
			Streaming:              false,
			PushNotifications:      false,
			StateTransitionHistory: true,
		},
		Skills: skills,
	}
}

func skillName(tag routing.Tag) string {
	words := strings.Split(string(tag), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
