package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportmesh/supportmesh/store"
	"github.com/supportmesh/supportmesh/tool"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(context.Background()))
	return New(st)
}

func TestListReturnsCatalogInOrder(t *testing.T) {
	r := newTestRegistry(t)

	var names []string
	for _, s := range r.List() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"get_customer",
		"list_customers",
		"update_customer",
		"create_ticket",
		"get_customer_history",
		"get_tickets_by_priority",
		"get_active_customers_with_open_tickets",
	}, names)
}

func TestCallUnknownTool(t *testing.T) {
	r := newTestRegistry(t)

	res := r.Call(context.Background(), "frobnicate", map[string]any{})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)
}

func TestGetCustomer(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "get_customer", map[string]any{"customer_id": float64(1)})
	require.True(t, res.OK, "%v", res.Err)

	var payload struct {
		Customer store.Customer `json:"customer"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, "John Doe", payload.Customer.Name)

	res = r.Call(ctx, "get_customer", map[string]any{"customer_id": float64(999)})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeNotFound, res.Err.Code)

	res = r.Call(ctx, "get_customer", map[string]any{})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)
}

func TestListCustomersLimitAndFilter(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	var payload struct {
		Customers []store.Customer `json:"customers"`
		Count     int              `json:"count"`
	}

	res := r.Call(ctx, "list_customers", map[string]any{})
	require.True(t, res.OK)
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, 7, payload.Count)

	res = r.Call(ctx, "list_customers", map[string]any{"status": "inactive"})
	require.True(t, res.OK)
	require.NoError(t, res.Decode(&payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "Bob Johnson", payload.Customers[0].Name)

	res = r.Call(ctx, "list_customers", map[string]any{"limit": float64(2)})
	require.True(t, res.OK)
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, 2, payload.Count)

	res = r.Call(ctx, "list_customers", map[string]any{"status": "vip"})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)
}

func TestUpdateCustomerReadAfterWrite(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "update_customer", map[string]any{
		"customer_id": float64(2),
		"email":       "jane@updated.example.com",
	})
	require.True(t, res.OK, "%v", res.Err)

	var payload struct {
		Customer      store.Customer `json:"customer"`
		UpdatedFields []string       `json:"updated_fields"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, "jane@updated.example.com", payload.Customer.Email)
	assert.Equal(t, []string{"email"}, payload.UpdatedFields)

	// A subsequent read observes the write.
	res = r.Call(ctx, "get_customer", map[string]any{"customer_id": float64(2)})
	require.True(t, res.OK)
	var after struct {
		Customer store.Customer `json:"customer"`
	}
	require.NoError(t, res.Decode(&after))
	assert.Equal(t, "jane@updated.example.com", after.Customer.Email)
}

func TestUpdateCustomerValidation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "update_customer", map[string]any{"customer_id": float64(1)})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)

	res = r.Call(ctx, "update_customer", map[string]any{"customer_id": float64(1), "status": "banned"})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)

	res = r.Call(ctx, "update_customer", map[string]any{"customer_id": float64(999), "email": "x@y.com"})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeNotFound, res.Err.Code)
}

func TestCreateTicket(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "create_ticket", map[string]any{
		"customer_id": float64(3),
		"issue":       "Export job hangs",
	})
	require.True(t, res.OK, "%v", res.Err)

	var payload struct {
		Ticket       store.Ticket `json:"ticket"`
		CustomerName string       `json:"customer_name"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, "medium", payload.Ticket.Priority)
	assert.Equal(t, store.TicketOpen, payload.Ticket.Status)
	assert.Equal(t, "Bob Johnson", payload.CustomerName)

	res = r.Call(ctx, "create_ticket", map[string]any{
		"customer_id": float64(999),
		"issue":       "ghost",
	})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeNotFound, res.Err.Code)

	res = r.Call(ctx, "create_ticket", map[string]any{
		"customer_id": float64(1),
		"issue":       "bad priority",
		"priority":    "catastrophic",
	})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)
}

func TestGetCustomerHistoryStatistics(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "get_customer_history", map[string]any{"customer_id": float64(1)})
	require.True(t, res.OK)

	var payload struct {
		Tickets    []store.Ticket `json:"tickets"`
		Statistics map[string]int `json:"statistics"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Len(t, payload.Tickets, 2)
	assert.Equal(t, 2, payload.Statistics["total"])
	assert.Equal(t, 1, payload.Statistics[store.TicketOpen])
	assert.Equal(t, 1, payload.Statistics[store.TicketInProgress])
}

func TestGetTicketsByPriority(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "get_tickets_by_priority", map[string]any{"priority": "high", "status": "open"})
	require.True(t, res.OK)

	var payload struct {
		Tickets []store.TicketWithCustomer `json:"tickets"`
		Count   int                        `json:"count"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, 2, payload.Count)

	res = r.Call(ctx, "get_tickets_by_priority", map[string]any{"priority": "severe"})
	require.False(t, res.OK)
	assert.Equal(t, tool.CodeValidation, res.Err.Code)
}

func TestActiveCustomersWithOpenTicketsReport(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res := r.Call(ctx, "get_active_customers_with_open_tickets", map[string]any{})
	require.True(t, res.OK)

	var payload struct {
		Customers      []store.CustomerOpenTickets `json:"customers"`
		TotalCustomers int                         `json:"total_customers"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, 4, payload.TotalCustomers)
	for _, entry := range payload.Customers {
		assert.Equal(t, store.CustomerActive, entry.Customer.Status)
		assert.NotEmpty(t, entry.OpenTickets)
	}
}

func TestToolOptionsCoverEveryParam(t *testing.T) {
	r := newTestRegistry(t)

	for _, s := range r.List() {
		opts := toolOptions(s)
		// One description option plus one option per parameter.
		assert.Len(t, opts, 1+len(s.Params), s.Name)
	}
}
