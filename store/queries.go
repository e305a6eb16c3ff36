package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Customer statuses.
const (
	CustomerActive    = "active"
	CustomerInactive  = "inactive"
	CustomerSuspended = "suspended"
)

// Ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
)

// Ticket priorities, lowest to highest.
var Priorities = []string{"low", "medium", "high", "urgent"}

// ValidPriority reports whether p is a known ticket priority.
func ValidPriority(p string) bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// ValidCustomerStatus reports whether s is a known customer status.
func ValidCustomerStatus(s string) bool {
	return s == CustomerActive || s == CustomerInactive || s == CustomerSuspended
}

// Customer is one row of the customers table.
type Customer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Ticket is one row of the tickets table.
type Ticket struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Issue      string `json:"issue"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// TicketWithCustomer joins a ticket with its customer's name.
type TicketWithCustomer struct {
	Ticket
	CustomerName string `json:"customer_name"`
}

// CustomerOpenTickets pairs an active customer with their open tickets.
type CustomerOpenTickets struct {
	Customer    Customer `json:"customer"`
	OpenTickets []Ticket `json:"open_tickets"`
}

const customerCols = "id, name, email, phone, status, created_at, updated_at"

func scanCustomer(row interface{ Scan(...any) error }) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning customer: %w", err)
	}
	return &c, nil
}

// GetCustomer fetches one customer by id.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	row := s.sql.QueryRowContext(ctx,
		"SELECT "+customerCols+" FROM customers WHERE id = ?", id)
	return scanCustomer(row)
}

// ListCustomers returns customers ordered by id, optionally filtered by
// status, capped at limit rows.
func (s *Store) ListCustomers(ctx context.Context, status string, limit int) ([]Customer, error) {
	query := "SELECT " + customerCols + " FROM customers"
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY id LIMIT ?"
	args = append(args, limit)

	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// updatableColumns are the customer fields a partial update may touch.
var updatableColumns = map[string]bool{
	"name":   true,
	"email":  true,
	"phone":  true,
	"status": true,
}

// UpdateCustomer applies a partial update to one customer and returns the
// updated row. Unknown field names are rejected; the customer must exist.
// Concurrent updates to the same customer are serialized.
func (s *Store) UpdateCustomer(ctx context.Context, id int64, fields map[string]string) (*Customer, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for _, col := range []string{"name", "email", "phone", "status"} {
		if v, ok := fields[col]; ok {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
	}
	for col := range fields {
		if !updatableColumns[col] {
			return nil, fmt.Errorf("unknown field %q", col)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)

	unlock := s.lockCustomer(id)
	defer unlock()

	res, err := s.sql.ExecContext(ctx,
		"UPDATE customers SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("updating customer %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating customer %d: %w", id, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetCustomer(ctx, id)
}

// CreateTicket inserts a ticket for an existing customer and returns the new
// row. A missing customer is reported as ErrNotFound before any write.
func (s *Store) CreateTicket(ctx context.Context, customerID int64, issue, priority string) (*Ticket, error) {
	unlock := s.lockCustomer(customerID)
	defer unlock()

	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	createdAt := now()
	res, err := s.sql.ExecContext(ctx,
		"INSERT INTO tickets (customer_id, issue, priority, status, created_at) VALUES (?, ?, ?, ?, ?)",
		customerID, issue, priority, TicketOpen, createdAt)
	if err != nil {
		return nil, fmt.Errorf("creating ticket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating ticket: %w", err)
	}

	return &Ticket{
		ID:         id,
		CustomerID: customerID,
		Issue:      issue,
		Priority:   priority,
		Status:     TicketOpen,
		CreatedAt:  createdAt,
	}, nil
}

const ticketCols = "id, customer_id, issue, priority, status, created_at"

func scanTicket(row interface{ Scan(...any) error }) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Priority, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}
	return &t, nil
}

// CustomerHistory returns a customer together with all their tickets,
// newest first.
func (s *Store) CustomerHistory(ctx context.Context, customerID int64) (*Customer, []Ticket, error) {
	c, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.sql.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE customer_id = ? ORDER BY created_at DESC, id DESC",
		customerID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading ticket history: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, nil, err
		}
		tickets = append(tickets, *t)
	}
	return c, tickets, rows.Err()
}

// TicketsByPriority returns tickets of one priority joined with customer
// names, optionally filtered by ticket status, newest first.
func (s *Store) TicketsByPriority(ctx context.Context, priority, status string) ([]TicketWithCustomer, error) {
	query := `
		SELECT t.id, t.customer_id, t.issue, t.priority, t.status, t.created_at, c.name
		FROM tickets t JOIN customers c ON c.id = t.customer_id
		WHERE t.priority = ?`
	args := []any{priority}
	if status != "" {
		query += " AND t.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"

	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tickets by priority: %w", err)
	}
	defer rows.Close()

	var out []TicketWithCustomer
	for rows.Next() {
		var t TicketWithCustomer
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Priority, &t.Status, &t.CreatedAt, &t.CustomerName); err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ActiveCustomersWithOpenTickets returns every active customer holding at
// least one open ticket, each paired with those open tickets.
func (s *Store) ActiveCustomersWithOpenTickets(ctx context.Context) ([]CustomerOpenTickets, error) {
	rows, err := s.sql.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.name, c.email, c.phone, c.status, c.created_at, c.updated_at
		FROM customers c JOIN tickets t ON t.customer_id = c.id
		WHERE c.status = ? AND t.status = ?
		ORDER BY c.id`, CustomerActive, TicketOpen)
	if err != nil {
		return nil, fmt.Errorf("listing active customers: %w", err)
	}
	defer rows.Close()

	var out []CustomerOpenTickets
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, CustomerOpenTickets{Customer: *c})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tickets, err := s.openTickets(ctx, out[i].Customer.ID)
		if err != nil {
			return nil, err
		}
		out[i].OpenTickets = tickets
	}
	return out, nil
}

func (s *Store) openTickets(ctx context.Context, customerID int64) ([]Ticket, error) {
	rows, err := s.sql.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE customer_id = ? AND status = ? ORDER BY created_at DESC, id DESC",
		customerID, TicketOpen)
	if err != nil {
		return nil, fmt.Errorf("loading open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
