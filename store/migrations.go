package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create customers and tickets",
		SQL: `
			CREATE TABLE customers (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name        TEXT NOT NULL,
				email       TEXT NOT NULL,
				phone       TEXT NOT NULL DEFAULT '',
				status      TEXT NOT NULL DEFAULT 'active',
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			);

			CREATE TABLE tickets (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				customer_id  INTEGER NOT NULL REFERENCES customers(id),
				issue        TEXT NOT NULL,
				priority     TEXT NOT NULL DEFAULT 'medium',
				status       TEXT NOT NULL DEFAULT 'open',
				created_at   TEXT NOT NULL
			);

			CREATE INDEX idx_tickets_customer ON tickets(customer_id);
			CREATE INDEX idx_tickets_priority ON tickets(priority, status);
		`,
	},
}
