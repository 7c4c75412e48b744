package ledger_test

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance-backend/internal/ledger"
)

func (suite *ServiceTestSuite) TestCreateWalletValidatesBudgetReference() {
	_, err := suite.svc.CreateWallet(suite.ctx, ledger.NewWallet{
		Name:     "Orphan",
		BudgetID: "no-such-budget",
	})
	assert.ErrorIs(suite.T(), err, ledger.ErrBudgetNotFound)

	b, err := suite.svc.CreateBudget(suite.ctx, ledger.NewBudget{Name: "Plan"})
	require.NoError(suite.T(), err)

	w, err := suite.svc.CreateWallet(suite.ctx, ledger.NewWallet{
		Name:     "Linked",
		BudgetID: b.ID,
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), b.ID, w.BudgetID)

	// No budget reference at all is fine.
	_, err = suite.svc.CreateWallet(suite.ctx, ledger.NewWallet{Name: "Free"})
	assert.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestUpdateWalletSetsArbitraryBalance() {
	w := suite.newWallet("Main", "100.00")

	// Out-of-band reconciliation: a direct PUT may overwrite the balance.
	newBalance := dec("77.77")
	err := suite.svc.UpdateWallet(suite.ctx, w.ID, ledger.WalletPatch{Balance: &newBalance})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), suite.balance(w.ID).Equal(dec("77.77")))

	err = suite.svc.UpdateWallet(suite.ctx, "nope", ledger.WalletPatch{Balance: &newBalance})
	assert.ErrorIs(suite.T(), err, ledger.ErrWalletNotFound)
}

func (suite *ServiceTestSuite) TestUpdateWalletMergesFields() {
	w := suite.newWallet("Main", "100.00")

	name := "Renamed"
	err := suite.svc.UpdateWallet(suite.ctx, w.ID, ledger.WalletPatch{Name: &name})
	require.NoError(suite.T(), err)

	got, err := suite.svc.GetWallet(suite.ctx, w.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Renamed", got.Name)
	// Untouched fields survive the merge.
	assert.Equal(suite.T(), "Savings", got.Type)
	assert.True(suite.T(), got.Balance.Equal(dec("100.00")))
}

func (suite *ServiceTestSuite) TestDeleteWalletCascadesToTransactions() {
	w := suite.newWallet("Doomed", "100.00")
	other := suite.newWallet("Survivor", "50.00")

	for i := 0; i < 3; i++ {
		_, err := suite.svc.CreateTransaction(suite.ctx, ledger.KindExpense, ledger.NewTransaction{Amount: dec("1"), WalletID: w.ID})
		require.NoError(suite.T(), err)
	}
	_, err := suite.svc.CreateTransaction(suite.ctx, ledger.KindIncome, ledger.NewTransaction{Amount: dec("5"), WalletID: w.ID})
	require.NoError(suite.T(), err)
	_, err = suite.svc.CreateTransaction(suite.ctx, ledger.KindExpense, ledger.NewTransaction{Amount: dec("2"), WalletID: other.ID})
	require.NoError(suite.T(), err)

	res, err := suite.svc.DeleteWallet(suite.ctx, w.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), res.IncomesDeleted)
	assert.Equal(suite.T(), int64(3), res.ExpensesDeleted)

	_, err = suite.svc.GetWallet(suite.ctx, w.ID)
	assert.ErrorIs(suite.T(), err, ledger.ErrWalletNotFound)

	// The other wallet's transaction is untouched.
	expenses, err := suite.svc.ListTransactions(suite.ctx, ledger.KindExpense)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), expenses, 1)
	assert.Equal(suite.T(), other.ID, expenses[0].WalletID)

	_, err = suite.svc.DeleteWallet(suite.ctx, w.ID)
	assert.ErrorIs(suite.T(), err, ledger.ErrWalletNotFound)
}

func (suite *ServiceTestSuite) TestBudgetCRUD() {
	b, err := suite.svc.CreateBudget(suite.ctx, ledger.NewBudget{
		Name: "August",
		Categories: ledger.Categories{
			Needs: map[string]decimal.Decimal{"Rent": dec("1500"), "Groceries": dec("400")},
			Wants: map[string]decimal.Decimal{"Entertainment": dec("200")},
		},
	})
	require.NoError(suite.T(), err)
	// Absent buckets come back as empty maps, not nil.
	assert.NotNil(suite.T(), b.Categories.Bills)
	assert.Empty(suite.T(), b.Categories.Bills)

	got, err := suite.svc.GetBudget(suite.ctx, b.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "August", got.Name)
	assert.True(suite.T(), got.Categories.Needs["Rent"].Equal(dec("1500")))
	assert.NotNil(suite.T(), got.Categories.Bills)

	_, err = suite.svc.GetBudget(suite.ctx, "nope")
	assert.ErrorIs(suite.T(), err, ledger.ErrBudgetNotFound)

	name := "September"
	err = suite.svc.UpdateBudget(suite.ctx, b.ID, ledger.BudgetPatch{Name: &name})
	require.NoError(suite.T(), err)
	got, err = suite.svc.GetBudget(suite.ctx, b.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "September", got.Name)
	// Categories survive a name-only patch.
	assert.True(suite.T(), got.Categories.Wants["Entertainment"].Equal(dec("200")))

	err = suite.svc.UpdateBudget(suite.ctx, "nope", ledger.BudgetPatch{Name: &name})
	assert.ErrorIs(suite.T(), err, ledger.ErrBudgetNotFound)

	budgets, err := suite.svc.ListBudgets(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), budgets, 1)
}

func (suite *ServiceTestSuite) TestDeleteBudgetCascadesTwoLevels() {
	b, err := suite.svc.CreateBudget(suite.ctx, ledger.NewBudget{Name: "Plan"})
	require.NoError(suite.T(), err)

	w1, err := suite.svc.CreateWallet(suite.ctx, ledger.NewWallet{Name: "W1", BudgetID: b.ID})
	require.NoError(suite.T(), err)
	w2, err := suite.svc.CreateWallet(suite.ctx, ledger.NewWallet{Name: "W2", BudgetID: b.ID})
	require.NoError(suite.T(), err)
	free := suite.newWallet("Free", "0")

	_, err = suite.svc.CreateTransaction(suite.ctx, ledger.KindExpense, ledger.NewTransaction{Amount: dec("1"), WalletID: w1.ID})
	require.NoError(suite.T(), err)
	_, err = suite.svc.CreateTransaction(suite.ctx, ledger.KindExpense, ledger.NewTransaction{Amount: dec("2"), WalletID: w2.ID})
	require.NoError(suite.T(), err)
	_, err = suite.svc.CreateTransaction(suite.ctx, ledger.KindIncome, ledger.NewTransaction{Amount: dec("3"), WalletID: w2.ID})
	require.NoError(suite.T(), err)
	_, err = suite.svc.CreateTransaction(suite.ctx, ledger.KindIncome, ledger.NewTransaction{Amount: dec("4"), WalletID: free.ID})
	require.NoError(suite.T(), err)

	res, err := suite.svc.DeleteBudget(suite.ctx, b.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), res.WalletsDeleted)
	assert.Equal(suite.T(), int64(1), res.IncomesDeleted)
	assert.Equal(suite.T(), int64(2), res.ExpensesDeleted)

	// Owned wallets and their transactions are gone; the free wallet stays.
	_, err = suite.svc.GetWallet(suite.ctx, w1.ID)
	assert.ErrorIs(suite.T(), err, ledger.ErrWalletNotFound)
	_, err = suite.svc.GetWallet(suite.ctx, w2.ID)
	assert.ErrorIs(suite.T(), err, ledger.ErrWalletNotFound)
	wallets, err := suite.svc.ListWallets(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), wallets, 1)
	assert.Equal(suite.T(), free.ID, wallets[0].ID)

	incomes, err := suite.svc.ListTransactions(suite.ctx, ledger.KindIncome)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), incomes, 1)
	assert.Equal(suite.T(), free.ID, incomes[0].WalletID)

	expenses, err := suite.svc.ListTransactions(suite.ctx, ledger.KindExpense)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expenses)

	_, err = suite.svc.DeleteBudget(suite.ctx, b.ID)
	assert.ErrorIs(suite.T(), err, ledger.ErrBudgetNotFound)
}
