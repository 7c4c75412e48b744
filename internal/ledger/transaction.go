package ledger

import (
	"context"

	"github.com/google/uuid"
)

// CreateTransaction validates the referenced wallet, persists the record and
// applies its signed amount to the wallet balance, all in one transaction.
// Nothing is persisted when the wallet does not exist.
func (s *Service) CreateTransaction(ctx context.Context, kind Kind, spec NewTransaction) (*Transaction, error) {
	if spec.WalletID == "" {
		return nil, ErrWalletIDRequired
	}
	if !spec.Amount.IsPositive() {
		return nil, ErrAmountMustBePositive
	}
	t := &Transaction{
		ID:          uuid.NewString(),
		Kind:        kind,
		Amount:      spec.Amount,
		Date:        spec.Date,
		Label:       spec.Label,
		Description: spec.Description,
		WalletID:    spec.WalletID,
	}
	err := s.store.WithinTx(ctx, func(st Store) error {
		if _, err := st.GetWallet(ctx, t.WalletID); err != nil {
			return err
		}
		if err := st.InsertTransaction(ctx, t); err != nil {
			return err
		}
		return st.AddToBalance(ctx, t.WalletID, kind.Sign().Mul(t.Amount), s.now())
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns all transactions of the given kind.
func (s *Service) ListTransactions(ctx context.Context, kind Kind) ([]Transaction, error) {
	return s.store.ListTransactions(ctx, kind)
}

// UpdateTransaction merges the patch into the stored record and reconciles
// wallet balances against the old amount and wallet:
//
//   - wallet changed: reverse the full old contribution on the old wallet and
//     apply the full new contribution on the new wallet;
//   - only amount changed: apply the signed net delta to the one wallet;
//   - neither changed: no balance mutation.
//
// The reconciliation and the overwrite run in one store transaction, so a
// missing wallet rolls everything back.
func (s *Service) UpdateTransaction(ctx context.Context, kind Kind, id string, p TransactionPatch) error {
	return s.store.WithinTx(ctx, func(st Store) error {
		old, err := st.GetTransaction(ctx, kind, id)
		if err != nil {
			return err
		}
		merged := old.applyPatch(p)
		sign := kind.Sign()
		now := s.now()

		switch {
		case merged.WalletID != old.WalletID:
			if err := st.AddToBalance(ctx, old.WalletID, sign.Mul(old.Amount).Neg(), now); err != nil {
				return err
			}
			if err := st.AddToBalance(ctx, merged.WalletID, sign.Mul(merged.Amount), now); err != nil {
				return err
			}
		case !merged.Amount.Equal(old.Amount):
			if err := st.AddToBalance(ctx, old.WalletID, sign.Mul(merged.Amount.Sub(old.Amount)), now); err != nil {
				return err
			}
		}
		return st.UpdateTransaction(ctx, &merged)
	})
}

// DeleteTransaction removes the record and reverses its balance contribution
// on its wallet.
func (s *Service) DeleteTransaction(ctx context.Context, kind Kind, id string) error {
	return s.store.WithinTx(ctx, func(st Store) error {
		t, err := st.DeleteTransaction(ctx, kind, id)
		if err != nil {
			return err
		}
		return st.AddToBalance(ctx, t.WalletID, kind.Sign().Mul(t.Amount).Neg(), s.now())
	})
}
