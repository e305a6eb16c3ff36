package dataagent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportmesh/supportmesh/routing"
	"github.com/supportmesh/supportmesh/tool"
)

// fakeCaller records calls and replays scripted results per tool name.
type fakeCaller struct {
	calls   []string
	results map[string]tool.Result
}

func (f *fakeCaller) Call(_ context.Context, name string, _ map[string]any) tool.Result {
	f.calls = append(f.calls, name)
	if res, ok := f.results[name]; ok {
		return res
	}
	return tool.Succeed(map[string]any{"tool": name})
}

func intPtr(v int64) *int64 { return &v }

func TestPlanPerIntent(t *testing.T) {
	tests := []struct {
		name      string
		env       routing.Envelope
		wantTools []string
	}{
		{
			name:      "lookup with id and history wording",
			env:       routing.Envelope{Intent: routing.DataLookup, Query: "show my ticket history", CustomerID: intPtr(2)},
			wantTools: []string{"get_customer_history"},
		},
		{
			name:      "lookup with id only",
			env:       routing.Envelope{Intent: routing.DataLookup, Query: "who is customer 5", CustomerID: intPtr(5)},
			wantTools: []string{"get_customer"},
		},
		{
			name:      "lookup without id lists customers",
			env:       routing.Envelope{Intent: routing.DataLookup, Query: "look up our customers"},
			wantTools: []string{"list_customers"},
		},
		{
			name:      "update writes then reads back",
			env:       routing.Envelope{Intent: routing.DataUpdate, Query: "update my email", CustomerID: intPtr(3), Email: "a@b.com"},
			wantTools: []string{"update_customer", "get_customer"},
		},
		{
			name:      "phone update writes then reads back",
			env:       routing.Envelope{Intent: routing.DataUpdate, Query: "change my phone", CustomerID: intPtr(3), Phone: "555-123-4567"},
			wantTools: []string{"update_customer", "get_customer"},
		},
		{
			name:      "ticket create",
			env:       routing.Envelope{Intent: routing.TicketCreate, Query: "create a ticket", CustomerID: intPtr(4), Priority: "high"},
			wantTools: []string{"create_ticket"},
		},
		{
			name:      "report on active open tickets",
			env:       routing.Envelope{Intent: routing.DataReport, Query: "which active customers have open tickets"},
			wantTools: []string{"get_active_customers_with_open_tickets"},
		},
		{
			name:      "report by priority",
			env:       routing.Envelope{Intent: routing.DataReport, Query: "show high priority tickets", Priority: "high"},
			wantTools: []string{"get_tickets_by_priority"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, terr := plan(tt.env)
			require.Nil(t, terr)
			var got []string
			for _, st := range steps {
				got = append(got, st.tool)
			}
			assert.Equal(t, tt.wantTools, got)
		})
	}
}

func TestPlanPhoneUpdateArgs(t *testing.T) {
	env := routing.Envelope{Intent: routing.DataUpdate, Query: "change my phone", CustomerID: intPtr(3), Phone: "555-123-4567"}
	steps, terr := plan(env)

	require.Nil(t, terr)
	require.Len(t, steps, 2)
	assert.Equal(t, "update_customer", steps[0].tool)
	assert.Equal(t, "555-123-4567", steps[0].args["phone"])
}

func TestPlanValidation(t *testing.T) {
	tests := []routing.Envelope{
		{Intent: routing.DataUpdate, Query: "update my email"},                          // no id
		{Intent: routing.DataUpdate, Query: "update something", CustomerID: intPtr(1)},  // nothing to set
		{Intent: routing.TicketCreate, Query: "create a ticket"},                        // no id
		{Intent: routing.Billing, Query: "billing question", CustomerID: intPtr(1)},     // wrong specialist
	}

	for _, env := range tests {
		_, terr := plan(env)
		require.NotNil(t, terr, "%+v", env)
		assert.Equal(t, tool.CodeValidation, terr.Code)
	}
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	fc := &fakeCaller{results: map[string]tool.Result{}}
	p := New(fc)

	env := routing.Envelope{Intent: routing.DataUpdate, Query: "update my email", CustomerID: intPtr(3), Email: "a@b.com"}
	payload, ok := p.run(context.Background(), env)

	require.True(t, ok)
	assert.Equal(t, []string{"update_customer", "get_customer"}, fc.calls)

	resp, isResp := payload.(response)
	require.True(t, isResp)
	assert.Equal(t, routing.DataUpdate, resp.Intent)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "update_customer", resp.Results[0].Tool)
}

func TestRunReportsPartialFailure(t *testing.T) {
	fc := &fakeCaller{results: map[string]tool.Result{
		"get_customer": tool.Fail(tool.Errorf(tool.CodeNotFound, "customer 3 not found")),
	}}
	p := New(fc)

	env := routing.Envelope{Intent: routing.DataUpdate, Query: "update my email", CustomerID: intPtr(3), Email: "a@b.com"}
	payload, ok := p.run(context.Background(), env)

	require.False(t, ok)
	fail, isFail := payload.(failure)
	require.True(t, isFail)
	assert.Equal(t, "get_customer", fail.FailedTool)
	assert.Equal(t, tool.CodeNotFound, fail.Error.Code)
	// The already-applied update is still reported.
	require.Len(t, fail.CompletedSteps, 1)
	assert.Equal(t, "update_customer", fail.CompletedSteps[0].Tool)
}

func TestFailurePayloadEncodes(t *testing.T) {
	fail := failure{
		Intent:     routing.TicketCreate,
		FailedTool: "create_ticket",
		Error:      tool.Errorf(tool.CodeNotFound, "customer 9 not found"),
	}
	raw, err := json.Marshal(fail)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"not_found"`)
}

func TestCardAdvertisesDataIntents(t *testing.T) {
	card := Card("http://localhost:8001")
	require.Len(t, card.Skills, len(routing.DataIntents))
	for i, tag := range routing.DataIntents {
		assert.Equal(t, string(tag), card.Skills[i].ID)
	}
}
