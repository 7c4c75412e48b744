package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance-backend/internal/ledger"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.InsertWallet(ctx, &ledger.Wallet{ID: "w1", Balance: decimal.NewFromInt(100)}))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(st ledger.Store) error {
		if err := st.AddToBalance(ctx, "w1", decimal.NewFromInt(-40), now); err != nil {
			return err
		}
		if err := st.InsertTransaction(ctx, &ledger.Transaction{ID: "t1", Kind: ledger.KindExpense, WalletID: "w1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the failed transaction sticks.
	w, err := s.GetWallet(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))
	_, err = s.GetTransaction(ctx, ledger.KindExpense, "t1")
	assert.ErrorIs(t, err, ledger.ErrExpenseNotFound)
}

func TestWithinTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.InsertWallet(ctx, &ledger.Wallet{ID: "w1", Balance: decimal.NewFromInt(100)}))

	err := s.WithinTx(ctx, func(st ledger.Store) error {
		return st.AddToBalance(ctx, "w1", decimal.NewFromInt(-40), now)
	})
	require.NoError(t, err)

	w, err := s.GetWallet(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(60)))
}

func TestNestedWithinTxReusesTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(st ledger.Store) error {
		return st.WithinTx(ctx, func(inner ledger.Store) error {
			return inner.InsertWallet(ctx, &ledger.Wallet{ID: "w1"})
		})
	})
	require.NoError(t, err)

	_, err = s.GetWallet(ctx, "w1")
	assert.NoError(t, err)
}

func TestListTransactionsFiltersByKind(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertTransaction(ctx, &ledger.Transaction{ID: "e1", Kind: ledger.KindExpense}))
	require.NoError(t, s.InsertTransaction(ctx, &ledger.Transaction{ID: "i1", Kind: ledger.KindIncome}))
	require.NoError(t, s.InsertTransaction(ctx, &ledger.Transaction{ID: "e2", Kind: ledger.KindExpense}))

	expenses, err := s.ListTransactions(ctx, ledger.KindExpense)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	// Insertion order is preserved.
	assert.Equal(t, "e1", expenses[0].ID)
	assert.Equal(t, "e2", expenses[1].ID)

	// A lookup under the wrong kind misses.
	_, err = s.GetTransaction(ctx, ledger.KindIncome, "e1")
	assert.ErrorIs(t, err, ledger.ErrIncomeNotFound)
}
