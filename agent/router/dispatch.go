package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/supportmesh/supportmesh/agent"
	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/routing"
	"github.com/supportmesh/supportmesh/tool"
)

// Status is the router-local lifecycle of one sub-task. It extends the wire
// task states with timed_out, which exists only in the router's bookkeeping:
// an abandoned remote task keeps running fire-and-forget.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusWorking   Status = "working"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// SubResult is the terminal record of one dispatched sub-task.
type SubResult struct {
	Tag    routing.Tag
	Status Status
	// Detail carries the specialist's reply payload, when one arrived.
	Detail string
	// Err is set for every non-completed status.
	Err *tool.Error
}

// Outcome is the aggregate of one routed request.
type Outcome struct {
	Intent routing.Tag
	// Failed reports whether any sub-task ended non-completed. Completed
	// sibling results are still present.
	Failed bool
	// Results are in decision order regardless of completion order.
	Results []SubResult
	// Text is the composed response, one labeled section per sub-task.
	Text string
}

// Handle classifies a query, dispatches every decision entry concurrently
// and joins the results. Unroutable queries fail before any dispatch.
func (r *Router) Handle(ctx context.Context, query string) (*Outcome, error) {
	dec, err := routing.Decide(query)
	if err != nil {
		return nil, err
	}

	log.Infof("routing query: intent=%s entries=%d", dec.Intent, len(dec.Entries))

	results := make([]SubResult, len(dec.Entries))
	var wg sync.WaitGroup
	for i, entry := range dec.Entries {
		wg.Add(1)
		go func(slot int, e routing.Entry) {
			defer wg.Done()
			results[slot] = r.dispatch(ctx, e)
		}(i, entry)
	}
	wg.Wait()

	out := &Outcome{Intent: dec.Intent, Results: results}
	for _, res := range results {
		if res.Status != StatusCompleted {
			out.Failed = true
		}
	}
	out.Text = compose(results)
	return out, nil
}

// dispatch runs one sub-task to a terminal status under its own deadline.
func (r *Router) dispatch(ctx context.Context, entry routing.Entry) SubResult {
	sender, ok := r.senders[entry.Tag]
	if !ok {
		return SubResult{
			Tag:    entry.Tag,
			Status: StatusFailed,
			Err:    tool.Errorf(tool.CodeUnreachable, "no specialist advertises intent %q", entry.Tag),
		}
	}

	subCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	taskID := fmt.Sprintf("sub-%s-%s", entry.Tag, uuid.NewString())
	msg := protocol.NewMessage(protocol.MessageRoleUser, []protocol.Part{
		protocol.NewTextPart(entry.Envelope.Encode()),
	})

	task, err := sender.SendTasks(subCtx, protocol.SendTaskParams{
		ID:      taskID,
		Message: msg,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return r.timedOut(entry.Tag, taskID)
		}
		return SubResult{
			Tag:    entry.Tag,
			Status: StatusFailed,
			Err:    tool.Errorf(tool.CodeUnreachable, "dispatching to %s: %v", r.names[entry.Tag], err),
		}
	}

	for !isTerminal(task.Status.State) {
		select {
		case <-subCtx.Done():
			return r.timedOut(entry.Tag, taskID)
		case <-time.After(r.poll):
		}

		task, err = sender.GetTasks(subCtx, protocol.TaskQueryParams{ID: taskID})
		if err != nil {
			if subCtx.Err() != nil {
				return r.timedOut(entry.Tag, taskID)
			}
			return SubResult{
				Tag:    entry.Tag,
				Status: StatusFailed,
				Err:    tool.Errorf(tool.CodeUnreachable, "polling task %s: %v", taskID, err),
			}
		}
	}

	detail := ""
	if task.Status.Message != nil {
		detail = agent.MessageText(*task.Status.Message)
	}

	if task.Status.State == protocol.TaskStateCompleted {
		return SubResult{Tag: entry.Tag, Status: StatusCompleted, Detail: detail}
	}
	return SubResult{
		Tag:    entry.Tag,
		Status: StatusFailed,
		Detail: detail,
		Err:    failureError(detail),
	}
}

// timedOut records deadline expiry. The remote task is not cancelled; it is
// abandoned and its late result, if any, discarded.
func (r *Router) timedOut(tag routing.Tag, taskID string) SubResult {
	log.Warnf("sub-task %s timed out after %s; abandoning remote task", taskID, r.deadline)
	return SubResult{
		Tag:    tag,
		Status: StatusTimedOut,
		Err:    tool.Errorf(tool.CodeUnreachable, "specialist did not answer within %s", r.deadline),
	}
}

func isTerminal(state protocol.TaskState) bool {
	switch state {
	case protocol.TaskStateCompleted, protocol.TaskStateFailed, protocol.TaskStateCanceled:
		return true
	}
	return false
}

// failureError recovers the typed error from a failure payload, falling back
// to an internal error wrapping the raw text.
func failureError(detail string) *tool.Error {
	var payload struct {
		Err *tool.Error `json:"error"`
	}
	if err := json.Unmarshal([]byte(detail), &payload); err == nil && payload.Err != nil {
		return payload.Err
	}
	if detail == "" {
		detail = "specialist reported failure without detail"
	}
	return tool.Errorf(tool.CodeInternal, "%s", detail)
}

// compose renders the final response text: one section per sub-task, in
// decision order, labeled by intent tag.
func compose(results []SubResult) string {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s\n", res.Tag, res.Status)
		if res.Err != nil {
			fmt.Fprintf(&b, "error: %s\n", res.Err.Error())
		}
		if res.Detail != "" {
			b.WriteString(res.Detail)
			b.WriteString("\n")
		}
	}
	return b.String()
}
