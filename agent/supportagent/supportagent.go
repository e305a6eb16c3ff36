// Package supportagent implements the support specialist. Every handler is
// deterministic and produces a canned structured response; the agent never
// touches the store or the tool bridge.
package supportagent

import (
	"context"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/supportmesh/supportmesh/agent"
	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/routing"
	"github.com/supportmesh/supportmesh/tool"
)

// Processor handles support sub-tasks. It implements
// taskmanager.TaskProcessor.
type Processor struct{}

// New builds a Processor.
func New() *Processor {
	return &Processor{}
}

// Card returns the capability manifest for this specialist.
func Card(url string) server.AgentCard {
	return agent.Card(
		"Support Agent",
		"Handles billing questions, cancellations, upgrades and urgent escalations.",
		url,
		routing.SupportIntents,
		map[routing.Tag][]string{
			routing.Billing:        {"I have a question about my invoice."},
			routing.Cancellation:   {"I want to cancel my subscription."},
			routing.Upgrade:        {"Can I upgrade to the premium plan?"},
			routing.Escalation:     {"I've been charged twice, please refund immediately!"},
			routing.GeneralSupport: {"Hello, I need some help."},
		},
	)
}

// urgentKeywords escalate a billing issue even when it was not classified as
// an escalation outright.
var urgentKeywords = []string{"charged twice", "double charge", "refund", "unauthorized", "fraud"}

type reply struct {
	Intent     routing.Tag `json:"intent"`
	Response   string      `json:"response"`
	Urgent     bool        `json:"urgent,omitempty"`
	Priority   string      `json:"priority,omitempty"`
	NextSteps  []string    `json:"next_steps,omitempty"`
	Resolution string      `json:"estimated_resolution,omitempty"`
}

// respond maps one resolved sub-intent to its canned reply.
func respond(env routing.Envelope) (reply, *tool.Error) {
	q := strings.ToLower(env.Query)

	switch env.Intent {
	case routing.Escalation:
		return reply{
			Intent:   routing.Escalation,
			Response: "Your issue has been escalated to a senior support specialist.",
			Urgent:   true,
			Priority: "urgent",
			NextSteps: []string{
				"A senior specialist has been paged.",
				"You will be contacted within 30 minutes.",
				"Reference your ticket number in any follow-up.",
			},
			Resolution: "30 minutes",
		}, nil

	case routing.Billing:
		urgent := false
		for _, kw := range urgentKeywords {
			if strings.Contains(q, kw) {
				urgent = true
				break
			}
		}
		r := reply{
			Intent:   routing.Billing,
			Response: "I can help with your billing question.",
			Urgent:   urgent,
			NextSteps: []string{
				"Review your latest invoice in the billing portal.",
				"Disputed charges are investigated within 2 business days.",
				"A corrected invoice is issued automatically if we find an error.",
			},
			Resolution: "2 business days",
		}
		if urgent {
			r.Priority = "high"
			r.Resolution = "1 business day"
		}
		return r, nil

	case routing.Cancellation:
		return reply{
			Intent:   routing.Cancellation,
			Response: "I'm sorry to hear you want to cancel. Before you go, here is what we can offer.",
			NextSteps: []string{
				"We can offer 20% off for the next 3 months.",
				"You can pause your subscription for up to 60 days instead.",
				"To proceed, confirm the cancellation and your service stays active until the end of the billing period.",
			},
		}, nil

	case routing.Upgrade:
		return reply{
			Intent:   routing.Upgrade,
			Response: "Great choice! Here are the available upgrade options.",
			NextSteps: []string{
				"Pro plan: $29/month with priority support.",
				"Premium plan: $59/month with a dedicated account manager.",
				"Upgrade this month and the first month is 50% off.",
			},
		}, nil

	case routing.GeneralSupport:
		return reply{
			Intent:   routing.GeneralSupport,
			Response: "Thanks for reaching out. I can help with billing, cancellations, upgrades and urgent issues.",
			NextSteps: []string{
				"Describe your issue and I will route it to the right place.",
				"Include your customer ID for account-specific questions.",
			},
		}, nil

	default:
		return reply{}, tool.Errorf(tool.CodeValidation, "intent %q is not handled by the support agent", env.Intent)
	}
}

// Process implements the TaskProcessor interface to handle task processing.
func (p *Processor) Process(
	ctx context.Context,
	taskID string,
	initialMsg protocol.Message,
	handle taskmanager.TaskHandle,
) error {
	if err := handle.UpdateStatus(protocol.TaskStateWorking, nil); err != nil {
		return fmt.Errorf("failed to update task status to working: %w", err)
	}

	env, err := routing.DecodeEnvelope(agent.MessageText(initialMsg))
	if err != nil {
		msg, mErr := agent.JSONMessage(map[string]any{"error": tool.AsError(err)})
		if mErr != nil {
			return mErr
		}
		return handle.UpdateStatus(protocol.TaskStateFailed, &msg)
	}

	log.Debugf("support agent task %s: intent=%s", taskID, env.Intent)

	r, terr := respond(env)
	if terr != nil {
		msg, mErr := agent.JSONMessage(map[string]any{"intent": env.Intent, "error": terr})
		if mErr != nil {
			return mErr
		}
		return handle.UpdateStatus(protocol.TaskStateFailed, &msg)
	}

	msg, err := agent.JSONMessage(r)
	if err != nil {
		return err
	}
	if err := handle.UpdateStatus(protocol.TaskStateCompleted, &msg); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}
