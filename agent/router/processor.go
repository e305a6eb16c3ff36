package router

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/supportmesh/supportmesh/agent"
	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/tool"
)

// Processor serves the router over the task protocol, so clients talk to the
// orchestrator exactly the way the orchestrator talks to specialists.
type Processor struct {
	router *Router
}

// NewProcessor wraps a Router as a taskmanager.TaskProcessor.
func NewProcessor(r *Router) *Processor {
	return &Processor{router: r}
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

	query := agent.MessageText(initialMsg)
	outcome, err := p.router.Handle(ctx, query)
	if err != nil {
		msg, mErr := agent.JSONMessage(map[string]any{"error": tool.AsError(err)})
		if mErr != nil {
			return mErr
		}
		return handle.UpdateStatus(protocol.TaskStateFailed, &msg)
	}

	// Attach each specialist's reply as its own artifact so callers can
	// consume the structured payloads without parsing the composed text.
	for i, res := range outcome.Results {
		if res.Detail == "" {
			continue
		}
		name := string(res.Tag)
		artifact := protocol.Artifact{
			Name: &name,
			Parts: []protocol.Part{
				protocol.NewTextPart(res.Detail),
			},
			Index: i,
		}
		if err := handle.AddArtifact(artifact); err != nil {
			log.Warnf("failed to add artifact for %s: %v", res.Tag, err)
		}
	}

	state := protocol.TaskStateCompleted
	if outcome.Failed {
		state = protocol.TaskStateFailed
	}
	msg := agent.TextMessage(outcome.Text)
	if err := handle.UpdateStatus(state, &msg); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	log.Infof("task %s finished: intent=%s state=%s", taskID, outcome.Intent, state)
	return nil
}
