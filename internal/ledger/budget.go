package ledger

import (
	"context"

	"github.com/google/uuid"
)

// CreateBudget persists a new budget. Absent category buckets are stored as
// empty maps so reads always carry needs/wants/bills.
func (s *Service) CreateBudget(ctx context.Context, spec NewBudget) (*Budget, error) {
	now := s.now()
	b := &Budget{
		ID:         uuid.NewString(),
		Name:       spec.Name,
		Categories: spec.Categories.Normalize(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBudget returns a budget by id.
func (s *Service) GetBudget(ctx context.Context, id string) (*Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Categories = b.Categories.Normalize()
	return b, nil
}

// ListBudgets returns all budgets.
func (s *Service) ListBudgets(ctx context.Context) ([]Budget, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].Categories = budgets[i].Categories.Normalize()
	}
	return budgets, nil
}

// UpdateBudget merges patch fields into the stored budget. It never cascades.
func (s *Service) UpdateBudget(ctx context.Context, id string, p BudgetPatch) error {
	if p.Categories != nil {
		normalized := p.Categories.Normalize()
		p.Categories = &normalized
	}
	return s.store.UpdateBudget(ctx, id, p, s.now())
}

// DeleteBudget removes the budget and cascades: every wallet whose budget_id
// matches is deleted together with its transactions. Children are deleted
// before the call returns so no orphaned transactions survive a completed
// delete; the whole fan-out runs in one store transaction.
func (s *Service) DeleteBudget(ctx context.Context, id string) (BudgetDeleteResult, error) {
	var res BudgetDeleteResult
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := st.DeleteBudget(ctx, id); err != nil {
			return err
		}
		wallets, err := st.ListWalletsByBudget(ctx, id)
		if err != nil {
			return err
		}
		for _, w := range wallets {
			incomes, expenses, err := st.DeleteTransactionsByWallet(ctx, w.ID)
			if err != nil {
				return err
			}
			if err := st.DeleteWallet(ctx, w.ID); err != nil {
				return err
			}
			res.WalletsDeleted++
			res.IncomesDeleted += incomes
			res.ExpensesDeleted += expenses
		}
		return nil
	})
	if err != nil {
		return BudgetDeleteResult{}, err
	}
	return res, nil
}
