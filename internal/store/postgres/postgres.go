// Package postgres implements ledger.Store on PostgreSQL through the pgx
// stdlib adapter. All multi-step balance reconciliation runs inside a single
// database transaction.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"myfinance-backend/internal/ledger"
)

// querier covers *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a PostgreSQL-backed ledger.Store.
type Store struct {
	db *sql.DB
	q  querier
}

// Open connects to PostgreSQL, retrying until the database is ready, and
// ensures the schema exists. It returns an error once retries are exhausted
// so the process can fail fast instead of serving with a dead store.
func Open(databaseURL string) (*Store, error) {
	config, err := pgx.ParseConfig(normalizeURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	var db *sql.DB
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db = stdlib.OpenDB(*config)
		if err := db.Ping(); err != nil {
			db.Close()
			if i < maxRetries-1 {
				log.Printf("Database not ready, retrying in %v... (attempt %d/%d) Error: %v", retryDelay, i+1, maxRetries, err)
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, ledger.ErrStorageUnavailable)
		}
		log.Println("Database connection established")
		break
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, q: db}, nil
}

// normalizeURL rewrites postgresql:// to postgres:// and defaults sslmode.
func normalizeURL(databaseURL string) string {
	if len(databaseURL) > 11 && databaseURL[:11] == "postgresql:" {
		databaseURL = "postgres" + databaseURL[10:]
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL = databaseURL + separator + "sslmode=disable"
	}
	return databaseURL
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports store reachability for the health endpoint.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) WithinTx(ctx context.Context, fn func(ledger.Store) error) error {
	if s.db == nil {
		// Already inside a transaction.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin tx", err)
	}
	if err := fn(&Store{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

// wrapErr tags connectivity failures with ErrStorageUnavailable so callers
// can tell them apart from not-found and validation conditions.
func wrapErr(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w", op, ledger.ErrStorageUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

func (s *Store) InsertWallet(ctx context.Context, w *ledger.Wallet) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO wallets (id, name, balance, type, target, budget_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.Name, w.Balance, w.Type, w.Target, w.BudgetID, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return wrapErr("insert wallet", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, id string) (*ledger.Wallet, error) {
	var w ledger.Wallet
	err := s.q.QueryRowContext(ctx, `
		SELECT id, name, balance, type, target, budget_id, created_at, updated_at
		FROM wallets WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Balance, &w.Type, &w.Target, &w.BudgetID, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrWalletNotFound
	}
	if err != nil {
		return nil, wrapErr("get wallet", err)
	}
	return &w, nil
}

func (s *Store) ListWallets(ctx context.Context) ([]ledger.Wallet, error) {
	return s.queryWallets(ctx, `
		SELECT id, name, balance, type, target, budget_id, created_at, updated_at
		FROM wallets ORDER BY created_at
	`)
}

func (s *Store) ListWalletsByBudget(ctx context.Context, budgetID string) ([]ledger.Wallet, error) {
	return s.queryWallets(ctx, `
		SELECT id, name, balance, type, target, budget_id, created_at, updated_at
		FROM wallets WHERE budget_id = $1 ORDER BY created_at
	`, budgetID)
}

func (s *Store) queryWallets(ctx context.Context, query string, args ...any) ([]ledger.Wallet, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list wallets", err)
	}
	defer rows.Close()

	// ensure empty array ([]) instead of null when no rows
	wallets := make([]ledger.Wallet, 0)
	for rows.Next() {
		var w ledger.Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.Balance, &w.Type, &w.Target, &w.BudgetID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, wrapErr("scan wallet", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (s *Store) UpdateWallet(ctx context.Context, id string, p ledger.WalletPatch, now time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE wallets SET
			name       = COALESCE($2, name),
			balance    = COALESCE($3, balance),
			type       = COALESCE($4, type),
			target     = COALESCE($5, target),
			budget_id  = COALESCE($6, budget_id),
			updated_at = $7
		WHERE id = $1
	`, id, stringArg(p.Name), decimalArg(p.Balance), stringArg(p.Type), decimalArg(p.Target), stringArg(p.BudgetID), now)
	if err != nil {
		return wrapErr("update wallet", err)
	}
	return affected(res, ledger.ErrWalletNotFound)
}

func (s *Store) DeleteWallet(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete wallet", err)
	}
	return affected(res, ledger.ErrWalletNotFound)
}

func (s *Store) AddToBalance(ctx context.Context, id string, delta decimal.Decimal, now time.Time) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = $3 WHERE id = $1
	`, id, delta, now)
	if err != nil {
		return wrapErr("apply balance delta", err)
	}
	return affected(res, ledger.ErrWalletNotFound)
}

func (s *Store) InsertTransaction(ctx context.Context, t *ledger.Transaction) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, amount, date, label, description, wallet_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, string(t.Kind), t.Amount, t.Date, t.Label, t.Description, t.WalletID)
	if err != nil {
		return wrapErr("insert transaction", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, kind ledger.Kind, id string) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var k string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, kind, amount, date, label, description, wallet_id
		FROM transactions WHERE id = $1 AND kind = $2
	`, id, string(kind)).Scan(&t.ID, &k, &t.Amount, &t.Date, &t.Label, &t.Description, &t.WalletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kind.ErrNotFound()
	}
	if err != nil {
		return nil, wrapErr("get transaction", err)
	}
	t.Kind = ledger.Kind(k)
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, kind, amount, date, label, description, wallet_id
		FROM transactions WHERE kind = $1 ORDER BY seq
	`, string(kind))
	if err != nil {
		return nil, wrapErr("list transactions", err)
	}
	defer rows.Close()

	// ensure empty array ([]) instead of null when no rows
	txs := make([]ledger.Transaction, 0)
	for rows.Next() {
		var t ledger.Transaction
		var k string
		if err := rows.Scan(&t.ID, &k, &t.Amount, &t.Date, &t.Label, &t.Description, &t.WalletID); err != nil {
			return nil, wrapErr("scan transaction", err)
		}
		t.Kind = ledger.Kind(k)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) UpdateTransaction(ctx context.Context, t *ledger.Transaction) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE transactions
		SET amount = $3, date = $4, label = $5, description = $6, wallet_id = $7
		WHERE id = $1 AND kind = $2
	`, t.ID, string(t.Kind), t.Amount, t.Date, t.Label, t.Description, t.WalletID)
	if err != nil {
		return wrapErr("update transaction", err)
	}
	return affected(res, t.Kind.ErrNotFound())
}

func (s *Store) DeleteTransaction(ctx context.Context, kind ledger.Kind, id string) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var k string
	err := s.q.QueryRowContext(ctx, `
		DELETE FROM transactions WHERE id = $1 AND kind = $2
		RETURNING id, kind, amount, date, label, description, wallet_id
	`, id, string(kind)).Scan(&t.ID, &k, &t.Amount, &t.Date, &t.Label, &t.Description, &t.WalletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kind.ErrNotFound()
	}
	if err != nil {
		return nil, wrapErr("delete transaction", err)
	}
	t.Kind = ledger.Kind(k)
	return &t, nil
}

func (s *Store) DeleteTransactionsByWallet(ctx context.Context, walletID string) (int64, int64, error) {
	incomes, err := s.deleteByWalletAndKind(ctx, walletID, ledger.KindIncome)
	if err != nil {
		return 0, 0, err
	}
	expenses, err := s.deleteByWalletAndKind(ctx, walletID, ledger.KindExpense)
	if err != nil {
		return 0, 0, err
	}
	return incomes, expenses, nil
}

func (s *Store) deleteByWalletAndKind(ctx context.Context, walletID string, kind ledger.Kind) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM transactions WHERE wallet_id = $1 AND kind = $2
	`, walletID, string(kind))
	if err != nil {
		return 0, wrapErr("delete transactions by wallet", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) InsertBudget(ctx context.Context, b *ledger.Budget) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO budgets (id, name, categories, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID, b.Name, b.Categories, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return wrapErr("insert budget", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (*ledger.Budget, error) {
	var b ledger.Budget
	err := s.q.QueryRowContext(ctx, `
		SELECT id, name, categories, created_at, updated_at FROM budgets WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Categories, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrBudgetNotFound
	}
	if err != nil {
		return nil, wrapErr("get budget", err)
	}
	return &b, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]ledger.Budget, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, categories, created_at, updated_at FROM budgets ORDER BY created_at
	`)
	if err != nil {
		return nil, wrapErr("list budgets", err)
	}
	defer rows.Close()

	// ensure empty array ([]) instead of null when no rows
	budgets := make([]ledger.Budget, 0)
	for rows.Next() {
		var b ledger.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.Categories, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, wrapErr("scan budget", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, id string, p ledger.BudgetPatch, now time.Time) error {
	var categories any
	if p.Categories != nil {
		categories = *p.Categories
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE budgets SET
			name       = COALESCE($2, name),
			categories = COALESCE($3, categories),
			updated_at = $4
		WHERE id = $1
	`, id, stringArg(p.Name), categories, now)
	if err != nil {
		return wrapErr("update budget", err)
	}
	return affected(res, ledger.ErrBudgetNotFound)
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete budget", err)
	}
	return affected(res, ledger.ErrBudgetNotFound)
}

func affected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ ledger.Store = (*Store)(nil)
