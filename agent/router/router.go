// Package router implements the orchestrator: it classifies incoming
// queries, fans sub-tasks out to the specialists over the task protocol and
// composes their results into one response.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	a2aclient "trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"

	"github.com/supportmesh/supportmesh/agent"
	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/routing"
)

// taskSender is the slice of the task-protocol client the router drives.
type taskSender interface {
	SendTasks(ctx context.Context, params protocol.SendTaskParams) (*protocol.Task, error)
	GetTasks(ctx context.Context, params protocol.TaskQueryParams) (*protocol.Task, error)
}

// Options configures a Router.
type Options struct {
	// URL is the router's own advertised endpoint.
	URL string
	// Specialists are the base URLs of the specialist agents to route to.
	Specialists []string
	// SubTaskDeadline bounds each sub-task from dispatch to terminal state.
	SubTaskDeadline time.Duration
	// PollInterval is the delay between task status polls.
	PollInterval time.Duration
}

// Router owns the intent→endpoint table and the sub-task lifecycle.
type Router struct {
	url      string
	senders  map[routing.Tag]taskSender
	names    map[routing.Tag]string
	deadline time.Duration
	poll     time.Duration
}

// New discovers the configured specialists through their capability
// manifests and builds the routing table from the intent tags their skills
// advertise. Construction fails if any routable intent is left uncovered.
func New(ctx context.Context, opts Options) (*Router, error) {
	r := &Router{
		url:      opts.URL,
		senders:  make(map[routing.Tag]taskSender),
		names:    make(map[routing.Tag]string),
		deadline: opts.SubTaskDeadline,
		poll:     opts.PollInterval,
	}
	if r.deadline <= 0 {
		r.deadline = 30 * time.Second
	}
	if r.poll <= 0 {
		r.poll = 500 * time.Millisecond
	}

	for _, base := range opts.Specialists {
		card, err := fetchAgentCard(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("fetching agent card from %s: %w", base, err)
		}
		sender, err := a2aclient.NewA2AClient(base)
		if err != nil {
			return nil, fmt.Errorf("creating task client for %s: %w", base, err)
		}
		for _, skill := range card.Skills {
			tag := routing.Tag(skill.ID)
			r.senders[tag] = sender
			r.names[tag] = card.Name
		}
		log.Infof("registered specialist %q at %s with %d skills", card.Name, base, len(card.Skills))
	}

	for _, tag := range routableTags() {
		if _, ok := r.senders[tag]; !ok {
			return nil, fmt.Errorf("no specialist advertises intent %q", tag)
		}
	}
	return r, nil
}

func routableTags() []routing.Tag {
	tags := make([]routing.Tag, 0, len(routing.DataIntents)+len(routing.SupportIntents))
	tags = append(tags, routing.DataIntents...)
	tags = append(tags, routing.SupportIntents...)
	return tags
}

// Card returns the router's own capability manifest: the union of every
// intent it can route.
func (r *Router) Card() server.AgentCard {
	return agent.Card(
		"Customer Service Router",
		"Coordinates customer service requests across specialist agents.",
		r.url,
		routableTags(),
		map[routing.Tag][]string{
			routing.DataLookup: {"Show me the ticket history for customer ID 2."},
			routing.Billing:    {"I have a question about my invoice."},
			routing.Escalation: {"I've been charged twice, please refund immediately!"},
		},
	)
}

// fetchAgentCard loads a specialist's capability manifest from the
// well-known location.
func fetchAgentCard(ctx context.Context, base string) (*server.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/.well-known/agent.json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent card request returned %s", resp.Status)
	}
	var card server.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decoding agent card: %w", err)
	}
	return &card, nil
}
