// Package registry implements the tool registry and executor: the seven
// customer-service tools bound to the store, exposed over the tool-access
// protocol.
package registry

import (
	"context"
	"errors"

	"github.com/supportmesh/supportmesh/log"
	"github.com/supportmesh/supportmesh/store"
	"github.com/supportmesh/supportmesh/tool"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// Handler executes one validated tool call and returns its payload value.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	schema  tool.Schema
	handler Handler
}

// Registry holds the tool catalog and dispatches calls against the store.
type Registry struct {
	store   *store.Store
	entries []entry
	byName  map[string]entry
}

// New builds the registry with the full catalog registered.
func New(st *store.Store) *Registry {
	r := &Registry{store: st, byName: make(map[string]entry)}
	r.registerAll()
	return r
}

func (r *Registry) register(schema tool.Schema, h Handler) {
	e := entry{schema: schema, handler: h}
	r.entries = append(r.entries, e)
	r.byName[schema.Name] = e
}

// List returns the catalog schemas in registration order.
func (r *Registry) List() []tool.Schema {
	out := make([]tool.Schema, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.schema)
	}
	return out
}

// Call validates args against the named tool's schema and executes it.
// Every failure is mapped onto the error taxonomy; Call never panics on bad
// input.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) tool.Result {
	e, ok := r.byName[name]
	if !ok {
		return tool.Fail(tool.Errorf(tool.CodeValidation, "unknown tool %q", name))
	}
	if err := e.schema.Validate(args); err != nil {
		return tool.Fail(err)
	}

	payload, err := e.handler(ctx, args)
	if err != nil {
		log.Debugf("tool %s failed: %v", name, err)
		return tool.Fail(mapStoreErr(err))
	}
	return tool.Succeed(payload)
}

// mapStoreErr folds store errors into the taxonomy.
func mapStoreErr(err error) error {
	var te *tool.Error
	if errors.As(err, &te) {
		return te
	}
	if errors.Is(err, store.ErrNotFound) {
		return tool.Errorf(tool.CodeNotFound, "%v", err)
	}
	return tool.Errorf(tool.CodeInternal, "%v", err)
}

func (r *Registry) registerAll() {
	r.register(tool.Schema{
		Name:        "get_customer",
		Description: "Get customer information by ID.",
		Params: []tool.Param{
			{Name: "customer_id", Type: tool.TypeInteger, Required: true, Description: "Customer ID"},
		},
	}, r.getCustomer)

	r.register(tool.Schema{
		Name:        "list_customers",
		Description: "List customers, optionally filtered by status.",
		Params: []tool.Param{
			{Name: "status", Type: tool.TypeString, Description: "Filter: active, inactive or suspended"},
			{Name: "limit", Type: tool.TypeInteger, Description: "Maximum rows to return (default 10, cap 100)"},
		},
	}, r.listCustomers)

	r.register(tool.Schema{
		Name:        "update_customer",
		Description: "Update customer fields. At least one field is required.",
		Params: []tool.Param{
			{Name: "customer_id", Type: tool.TypeInteger, Required: true, Description: "Customer ID"},
			{Name: "name", Type: tool.TypeString, Description: "New name"},
			{Name: "email", Type: tool.TypeString, Description: "New email address"},
			{Name: "phone", Type: tool.TypeString, Description: "New phone number"},
			{Name: "status", Type: tool.TypeString, Description: "New status: active, inactive or suspended"},
		},
	}, r.updateCustomer)

	r.register(tool.Schema{
		Name:        "create_ticket",
		Description: "Create a support ticket for an existing customer.",
		Params: []tool.Param{
			{Name: "customer_id", Type: tool.TypeInteger, Required: true, Description: "Customer ID"},
			{Name: "issue", Type: tool.TypeString, Required: true, Description: "Issue description"},
			{Name: "priority", Type: tool.TypeString, Description: "low, medium, high or urgent (default medium)"},
		},
	}, r.createTicket)

	r.register(tool.Schema{
		Name:        "get_customer_history",
		Description: "Get a customer with their full ticket history, newest first.",
		Params: []tool.Param{
			{Name: "customer_id", Type: tool.TypeInteger, Required: true, Description: "Customer ID"},
		},
	}, r.getCustomerHistory)

	r.register(tool.Schema{
		Name:        "get_tickets_by_priority",
		Description: "List tickets of one priority with customer names.",
		Params: []tool.Param{
			{Name: "priority", Type: tool.TypeString, Required: true, Description: "low, medium, high or urgent"},
			{Name: "status", Type: tool.TypeString, Description: "Optional status filter: open, in_progress or resolved"},
		},
	}, r.getTicketsByPriority)

	r.register(tool.Schema{
		Name:        "get_active_customers_with_open_tickets",
		Description: "Report active customers that currently hold open tickets.",
		Params:      []tool.Param{},
	}, r.getActiveCustomersWithOpenTickets)
}

func (r *Registry) getCustomer(ctx context.Context, args map[string]any) (any, error) {
	id, _ := tool.IntArg(args, "customer_id")
	c, err := r.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"customer": c}, nil
}

func (r *Registry) listCustomers(ctx context.Context, args map[string]any) (any, error) {
	status, _ := tool.StringArg(args, "status")
	if status != "" && !store.ValidCustomerStatus(status) {
		return nil, tool.Errorf(tool.CodeValidation, "unknown customer status %q", status)
	}

	limit := int64(defaultListLimit)
	if v, ok := tool.IntArg(args, "limit"); ok {
		if v <= 0 {
			return nil, tool.Errorf(tool.CodeValidation, "limit must be positive")
		}
		limit = v
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	customers, err := r.store.ListCustomers(ctx, status, int(limit))
	if err != nil {
		return nil, err
	}
	return map[string]any{"customers": customers, "count": len(customers)}, nil
}

func (r *Registry) updateCustomer(ctx context.Context, args map[string]any) (any, error) {
	id, _ := tool.IntArg(args, "customer_id")

	fields := map[string]string{}
	for _, col := range []string{"name", "email", "phone", "status"} {
		if v, ok := tool.StringArg(args, col); ok {
			fields[col] = v
		}
	}
	if len(fields) == 0 {
		return nil, tool.Errorf(tool.CodeValidation, "update_customer requires at least one field to change")
	}
	if st, ok := fields["status"]; ok && !store.ValidCustomerStatus(st) {
		return nil, tool.Errorf(tool.CodeValidation, "unknown customer status %q", st)
	}

	updated, err := r.store.UpdateCustomer(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(fields))
	for _, col := range []string{"name", "email", "phone", "status"} {
		if _, ok := fields[col]; ok {
			changed = append(changed, col)
		}
	}
	return map[string]any{"customer": updated, "updated_fields": changed}, nil
}

func (r *Registry) createTicket(ctx context.Context, args map[string]any) (any, error) {
	id, _ := tool.IntArg(args, "customer_id")
	issue, _ := tool.StringArg(args, "issue")
	if issue == "" {
		return nil, tool.Errorf(tool.CodeValidation, "issue must not be empty")
	}

	priority, ok := tool.StringArg(args, "priority")
	if !ok || priority == "" {
		priority = "medium"
	}
	if !store.ValidPriority(priority) {
		return nil, tool.Errorf(tool.CodeValidation, "unknown priority %q", priority)
	}

	customer, err := r.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket, err := r.store.CreateTicket(ctx, id, issue, priority)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ticket": ticket, "customer_name": customer.Name}, nil
}

func (r *Registry) getCustomerHistory(ctx context.Context, args map[string]any) (any, error) {
	id, _ := tool.IntArg(args, "customer_id")
	customer, tickets, err := r.store.CustomerHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{"total": len(tickets)}
	for _, t := range tickets {
		stats[t.Status]++
	}
	return map[string]any{
		"customer":   customer,
		"tickets":    tickets,
		"statistics": stats,
	}, nil
}

func (r *Registry) getTicketsByPriority(ctx context.Context, args map[string]any) (any, error) {
	priority, _ := tool.StringArg(args, "priority")
	if !store.ValidPriority(priority) {
		return nil, tool.Errorf(tool.CodeValidation, "unknown priority %q", priority)
	}
	status, _ := tool.StringArg(args, "status")
	if status != "" && status != store.TicketOpen && status != store.TicketInProgress && status != store.TicketResolved {
		return nil, tool.Errorf(tool.CodeValidation, "unknown ticket status %q", status)
	}

	tickets, err := r.store.TicketsByPriority(ctx, priority, status)
	if err != nil {
		return nil, err
	}
	return map[string]any{"priority": priority, "tickets": tickets, "count": len(tickets)}, nil
}

func (r *Registry) getActiveCustomersWithOpenTickets(ctx context.Context, args map[string]any) (any, error) {
	out, err := r.store.ActiveCustomersWithOpenTickets(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, entry := range out {
		total += len(entry.OpenTickets)
	}
	return map[string]any{
		"customers":       out,
		"total_customers": len(out),
		"total_tickets":   total,
	}, nil
}
