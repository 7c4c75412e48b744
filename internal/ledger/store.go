package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary of the ledger. Implementations return the
// sentinel errors from errors.go for missing records and wrap connectivity
// failures in ErrStorageUnavailable.
type Store interface {
	// WithinTx runs fn against a transactional view of the store. If fn
	// returns an error nothing fn did is persisted. Nested calls reuse the
	// enclosing transaction.
	WithinTx(ctx context.Context, fn func(Store) error) error

	InsertWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, id string) (*Wallet, error)
	ListWallets(ctx context.Context) ([]Wallet, error)
	ListWalletsByBudget(ctx context.Context, budgetID string) ([]Wallet, error)
	UpdateWallet(ctx context.Context, id string, p WalletPatch, now time.Time) error
	DeleteWallet(ctx context.Context, id string) error
	// AddToBalance applies a signed delta to the wallet's balance and
	// refreshes its updated_at.
	AddToBalance(ctx context.Context, id string, delta decimal.Decimal, now time.Time) error

	InsertTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, kind Kind, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, kind Kind) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, t *Transaction) error
	// DeleteTransaction removes the record and returns it, so callers can
	// reverse its balance contribution.
	DeleteTransaction(ctx context.Context, kind Kind, id string) (*Transaction, error)
	// DeleteTransactionsByWallet removes every transaction referencing the
	// wallet and reports per-kind counts.
	DeleteTransactionsByWallet(ctx context.Context, walletID string) (incomes, expenses int64, err error)

	InsertBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, id string) (*Budget, error)
	ListBudgets(ctx context.Context) ([]Budget, error)
	UpdateBudget(ctx context.Context, id string, p BudgetPatch, now time.Time) error
	DeleteBudget(ctx context.Context, id string) error
}
