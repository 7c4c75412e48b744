package postgres

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		categories JSONB NOT NULL DEFAULT '{"needs":{},"wants":{},"bills":{}}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		balance NUMERIC NOT NULL DEFAULT 0,
		type VARCHAR(50) NOT NULL DEFAULT '',
		target NUMERIC NOT NULL DEFAULT 0,
		budget_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallets_budget_id ON wallets(budget_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		kind VARCHAR(20) NOT NULL,
		amount NUMERIC NOT NULL,
		date VARCHAR(50) NOT NULL DEFAULT '',
		label VARCHAR(100) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		wallet_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions(wallet_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_kind ON transactions(kind);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Setup creates the schema without starting the service; used by -migrate.
func (s *Store) Setup() error {
	return ensureSchema(s.db)
}

// SeedDemoData inserts a small demo budget with two wallets and a handful of
// transactions for presentations. Idempotent: skipped when any wallet exists.
// Wallet balances are consistent with the seeded transactions.
func (s *Store) SeedDemoData() error {
	var cnt int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM wallets`).Scan(&cnt); err != nil {
		return fmt.Errorf("checking wallets count: %w", err)
	}
	if cnt > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const demoBudget = `
	INSERT INTO budgets (id, name, categories) VALUES
	('demo-budget', 'Monthly Plan',
	 '{"needs":{"Groceries":400,"Rent":1500},"wants":{"Entertainment":200},"bills":{"Utilities":180}}'::jsonb)
	`
	if _, err := tx.Exec(demoBudget); err != nil {
		return fmt.Errorf("seeding demo budget: %w", err)
	}

	const demoWallets = `
	INSERT INTO wallets (id, name, balance, type, target, budget_id) VALUES
	('demo-checking', 'Checking', 2893.83, 'Spending', 0, 'demo-budget'),
	('demo-savings', 'Savings', 5600.00, 'Savings', 10000, 'demo-budget')
	`
	if _, err := tx.Exec(demoWallets); err != nil {
		return fmt.Errorf("seeding demo wallets: %w", err)
	}

	const demoTx = `
	INSERT INTO transactions (id, kind, amount, date, label, description, wallet_id) VALUES
	('demo-tx-1', 'income',  3200.00, '2025-08-01', 'Salary',        'Monthly payroll',        'demo-checking'),
	('demo-tx-2', 'expense', 120.45,  '2025-08-03', 'Utilities',     'Electricity',            'demo-checking'),
	('demo-tx-3', 'expense', 96.72,   '2025-08-05', 'Groceries',     'Whole Foods',            'demo-checking'),
	('demo-tx-4', 'expense', 89.00,   '2025-08-12', 'Entertainment', 'Concert tickets',        'demo-checking'),
	('demo-tx-5', 'income',  600.00,  '2025-08-15', 'Freelance',     'Dashboard charts gig',   'demo-savings'),
	('demo-tx-6', 'expense', 1000.00, '2025-08-20', 'Transfer',      'Moved to brokerage',     'demo-savings')
	`
	if _, err := tx.Exec(demoTx); err != nil {
		return fmt.Errorf("seeding demo transactions: %w", err)
	}

	return tx.Commit()
}
