// Package dataagent implements the customer-data specialist. It owns every
// intent that reads or writes customer records, resolving each sub-task into
// an ordered sequence of tool calls through the bridge.
package dataagent

import (
	"context"
	"encoding/json"
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

// ToolCaller is the slice of the bridge this agent needs.
type ToolCaller interface {
	Call(ctx context.Context, name string, args map[string]any) tool.Result
}

// Processor handles customer-data sub-tasks. It implements
// taskmanager.TaskProcessor.
type Processor struct {
	tools ToolCaller
}

// New builds a Processor over a tool caller.
func New(tools ToolCaller) *Processor {
	return &Processor{tools: tools}
}

// Card returns the capability manifest for this specialist.
func Card(url string) server.AgentCard {
	return agent.Card(
		"Customer Data Agent",
		"Looks up, updates and reports on customer records and support tickets.",
		url,
		routing.DataIntents,
		map[routing.Tag][]string{
			routing.DataLookup:   {"Show me the ticket history for customer ID 2.", "Who is customer 5?"},
			routing.DataUpdate:   {"Update my email to new@example.com for customer 3."},
			routing.DataReport:   {"Which active customers have open tickets?"},
			routing.TicketCreate: {"Create a ticket for customer 4: dashboard is down."},
		},
	)
}

// step is one planned tool invocation.
type step struct {
	tool string
	args map[string]any
}

// stepResult pairs an executed tool with its payload.
type stepResult struct {
	Tool    string          `json:"tool"`
	Payload json.RawMessage `json:"payload"`
}

// response is the payload of a completed sub-task.
type response struct {
	Intent  routing.Tag  `json:"intent"`
	Results []stepResult `json:"results"`
}

// failure is the payload of a failed sub-task. CompletedSteps reports the
// effects already applied before the failing step, so a partial write is
// never silently hidden.
type failure struct {
	Intent         routing.Tag  `json:"intent"`
	FailedTool     string       `json:"failed_tool,omitempty"`
	Error          *tool.Error  `json:"error"`
	CompletedSteps []stepResult `json:"completed_steps,omitempty"`
}

// plan maps a resolved sub-intent to its tool calls in fixed order.
func plan(env routing.Envelope) ([]step, *tool.Error) {
	q := strings.ToLower(env.Query)

	switch env.Intent {
	case routing.DataLookup:
		if env.CustomerID == nil {
			return []step{{tool: "list_customers", args: map[string]any{}}}, nil
		}
		if strings.Contains(q, "history") || strings.Contains(q, "ticket") {
			return []step{{tool: "get_customer_history", args: map[string]any{"customer_id": *env.CustomerID}}}, nil
		}
		return []step{{tool: "get_customer", args: map[string]any{"customer_id": *env.CustomerID}}}, nil

	case routing.DataUpdate:
		if env.CustomerID == nil {
			return nil, tool.Errorf(tool.CodeValidation, "update requires a customer id")
		}
		fields := map[string]any{"customer_id": *env.CustomerID}
		if env.Email != "" {
			fields["email"] = env.Email
		}
		if env.Phone != "" {
			fields["phone"] = env.Phone
		}
		if len(fields) == 1 {
			return nil, tool.Errorf(tool.CodeValidation, "update requires at least one new value")
		}
		// Read back after the write so the reply carries the stored row.
		return []step{
			{tool: "update_customer", args: fields},
			{tool: "get_customer", args: map[string]any{"customer_id": *env.CustomerID}},
		}, nil

	case routing.TicketCreate:
		if env.CustomerID == nil {
			return nil, tool.Errorf(tool.CodeValidation, "ticket creation requires a customer id")
		}
		args := map[string]any{"customer_id": *env.CustomerID, "issue": env.Query}
		if env.Priority != "" {
			args["priority"] = env.Priority
		}
		return []step{{tool: "create_ticket", args: args}}, nil

	case routing.DataReport:
		switch {
		case strings.Contains(q, "active") && strings.Contains(q, "open"):
			return []step{{tool: "get_active_customers_with_open_tickets", args: map[string]any{}}}, nil
		case strings.Contains(q, "priority"):
			priority := env.Priority
			if priority == "" {
				priority = "high"
			}
			return []step{{tool: "get_tickets_by_priority", args: map[string]any{"priority": priority}}}, nil
		default:
			return []step{{tool: "list_customers", args: map[string]any{}}}, nil
		}

	default:
		return nil, tool.Errorf(tool.CodeValidation, "intent %q is not handled by the data agent", env.Intent)
	}
}

// run executes the plan for one envelope and reports either a response or a
// failure payload.
func (p *Processor) run(ctx context.Context, env routing.Envelope) (any, bool) {
	steps, terr := plan(env)
	if terr != nil {
		return failure{Intent: env.Intent, Error: terr}, false
	}

	var completed []stepResult
	for _, st := range steps {
		res := p.tools.Call(ctx, st.tool, st.args)
		if !res.OK {
			log.Warnf("tool %s failed for intent %s: %v", st.tool, env.Intent, res.Err)
			return failure{
				Intent:         env.Intent,
				FailedTool:     st.tool,
				Error:          res.Err,
				CompletedSteps: completed,
			}, false
		}
		completed = append(completed, stepResult{Tool: st.tool, Payload: res.Payload})
	}
	return response{Intent: env.Intent, Results: completed}, true
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
		msg, mErr := agent.JSONMessage(failure{Error: tool.AsError(err)})
		if mErr != nil {
			return mErr
		}
		return handle.UpdateStatus(protocol.TaskStateFailed, &msg)
	}

	log.Debugf("data agent task %s: intent=%s", taskID, env.Intent)

	payload, ok := p.run(ctx, env)
	msg, err := agent.JSONMessage(payload)
	if err != nil {
		return err
	}
	state := protocol.TaskStateCompleted
	if !ok {
		state = protocol.TaskStateFailed
	}
	if err := handle.UpdateStatus(state, &msg); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}
