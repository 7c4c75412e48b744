package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service is the single authority over wallets, transactions and budgets.
// Every balance mutation goes through it, and every multi-step mutation runs
// inside one store transaction.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds a Service on top of the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// CreateWallet persists a new wallet with the caller-supplied starting
// balance. A non-empty BudgetID must reference an existing budget.
func (s *Service) CreateWallet(ctx context.Context, spec NewWallet) (*Wallet, error) {
	if spec.BudgetID != "" {
		if _, err := s.store.GetBudget(ctx, spec.BudgetID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	w := &Wallet{
		ID:        uuid.NewString(),
		Name:      spec.Name,
		Balance:   spec.Balance,
		Type:      spec.Type,
		Target:    spec.Target,
		BudgetID:  spec.BudgetID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertWallet(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWallet returns a wallet by id.
func (s *Service) GetWallet(ctx context.Context, id string) (*Wallet, error) {
	return s.store.GetWallet(ctx, id)
}

// ListWallets returns all wallets.
func (s *Service) ListWallets(ctx context.Context) ([]Wallet, error) {
	return s.store.ListWallets(ctx)
}

// UpdateWallet merges patch fields into the stored wallet. It does not
// recompute balance: a patched balance is taken as-is.
func (s *Service) UpdateWallet(ctx context.Context, id string, p WalletPatch) error {
	return s.store.UpdateWallet(ctx, id, p, s.now())
}

// DeleteWallet removes the wallet and every transaction referencing it,
// reporting per-kind counts of the removed transactions.
func (s *Service) DeleteWallet(ctx context.Context, id string) (WalletDeleteResult, error) {
	var res WalletDeleteResult
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := st.DeleteWallet(ctx, id); err != nil {
			return err
		}
		incomes, expenses, err := st.DeleteTransactionsByWallet(ctx, id)
		if err != nil {
			return err
		}
		res = WalletDeleteResult{IncomesDeleted: incomes, ExpensesDeleted: expenses}
		return nil
	})
	return res, err
}
