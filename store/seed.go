package store

import (
	"context"
	"fmt"

	"github.com/supportmesh/supportmesh/log"
)

type seedCustomer struct {
	name, email, phone, status string
}

type seedTicket struct {
	customerID int64
	issue      string
	status     string
	priority   string
}

var seedCustomers = []seedCustomer{
	{"John Doe", "john.doe@example.com", "+1-555-0101", CustomerActive},
	{"Jane Smith", "jane.smith@example.com", "+1-555-0102", CustomerActive},
	{"Bob Johnson", "bob.johnson@example.com", "+1-555-0103", CustomerInactive},
	{"Alice Williams", "alice.w@techcorp.com", "+1-555-0104", CustomerActive},
	{"Charlie Brown", "charlie.brown@email.com", "+1-555-0105", CustomerActive},
	{"Diana Prince", "diana.prince@company.org", "+1-555-0106", CustomerActive},
	{"Edward Norton", "e.norton@business.net", "+1-555-0107", CustomerActive},
}

var seedTickets = []seedTicket{
	{1, "Cannot login to account", TicketOpen, "high"},
	{1, "Password reset not working", TicketInProgress, "medium"},
	{2, "Billing question about invoice", TicketResolved, "low"},
	{4, "Database connection timeout", TicketInProgress, "high"},
	{5, "Feature request: dark mode", TicketOpen, "low"},
	{6, "Dashboard loading slowly", TicketOpen, "medium"},
	{7, "Payment processing failing", TicketOpen, "high"},
}

// Seed inserts the demo dataset into an empty database. A database that
// already holds customers is left untouched.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		return fmt.Errorf("counting customers: %w", err)
	}
	if count > 0 {
		log.Debug("database already seeded")
		return nil
	}

	tx, err := s.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}

	ts := now()
	for _, c := range seedCustomers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO customers (name, email, phone, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			c.name, c.email, c.phone, c.status, ts, ts); err != nil {
			tx.Rollback()
			return fmt.Errorf("seeding customer %s: %w", c.name, err)
		}
	}
	for _, t := range seedTickets {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tickets (customer_id, issue, priority, status, created_at) VALUES (?, ?, ?, ?, ?)",
			t.customerID, t.issue, t.priority, t.status, ts); err != nil {
			tx.Rollback()
			return fmt.Errorf("seeding ticket for customer %d: %w", t.customerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	log.Infof("seeded %d customers and %d tickets", len(seedCustomers), len(seedTickets))
	return nil
}
