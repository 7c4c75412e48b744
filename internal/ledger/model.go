package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two transaction flavors. They share one shape; only
// the sign of the wallet contribution and the label field name differ.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Sign returns the wallet-balance contribution factor for the kind:
// +1 for income, -1 for expense.
func (k Kind) Sign() decimal.Decimal {
	if k == KindIncome {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// LabelField is the JSON field name carrying the transaction label:
// "category" for expenses, "source" for incomes.
func (k Kind) LabelField() string {
	if k == KindIncome {
		return "source"
	}
	return "category"
}

// ErrNotFound returns the kind-specific not-found sentinel.
func (k Kind) ErrNotFound() error {
	if k == KindIncome {
		return ErrIncomeNotFound
	}
	return ErrExpenseNotFound
}

// Transaction is a signed monetary record attributed to exactly one wallet.
// Label holds the expense category or the income source depending on Kind.
type Transaction struct {
	ID          string
	Kind        Kind
	Amount      decimal.Decimal
	Date        string
	Label       string
	Description string
	WalletID    string
}

// NewTransaction carries caller-supplied fields for a transaction create.
type NewTransaction struct {
	Amount      decimal.Decimal
	Date        string
	Label       string
	Description string
	WalletID    string
}

// TransactionPatch holds the fields of a transaction update. Nil means
// "keep the stored value".
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Date        *string
	Label       *string
	Description *string
	WalletID    *string
}

func (t Transaction) applyPatch(p TransactionPatch) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Label != nil {
		t.Label = *p.Label
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.WalletID != nil {
		t.WalletID = *p.WalletID
	}
	return t
}

// Wallet is a balance bucket that transactions debit and credit. Balance is
// only mutated through the service so that it always equals the starting
// balance plus the signed sum of currently attributed transactions.
type Wallet struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	Type      string
	Target    decimal.Decimal
	BudgetID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWallet carries caller-supplied fields for a wallet create. Balance is
// the starting value; BudgetID is optional but validated when present.
type NewWallet struct {
	Name     string
	Balance  decimal.Decimal
	Type     string
	Target   decimal.Decimal
	BudgetID string
}

// WalletPatch holds the fields of a wallet update. A non-nil Balance sets the
// balance to an arbitrary value; that is how out-of-band reconciliation works.
type WalletPatch struct {
	Name     *string
	Balance  *decimal.Decimal
	Type     *string
	Target   *decimal.Decimal
	BudgetID *string
}

// Categories is a budget's static allocation plan: three buckets mapping
// category name to allocated amount.
type Categories struct {
	Needs map[string]decimal.Decimal `json:"needs"`
	Wants map[string]decimal.Decimal `json:"wants"`
	Bills map[string]decimal.Decimal `json:"bills"`
}

// Normalize replaces absent buckets with empty maps so that reads always
// surface all three keys.
func (c Categories) Normalize() Categories {
	if c.Needs == nil {
		c.Needs = map[string]decimal.Decimal{}
	}
	if c.Wants == nil {
		c.Wants = map[string]decimal.Decimal{}
	}
	if c.Bills == nil {
		c.Bills = map[string]decimal.Decimal{}
	}
	return c
}

// Value implements driver.Valuer so Categories persist as JSONB.
func (c Categories) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for the JSONB categories column.
func (c *Categories) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Categories{}.Normalize()
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into Categories", src)
	}
}

// Budget is a static allocation plan that optionally owns a set of wallets.
type Budget struct {
	ID         string
	Name       string
	Categories Categories
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBudget carries caller-supplied fields for a budget create.
type NewBudget struct {
	Name       string
	Categories Categories
}

// BudgetPatch holds the fields of a budget update.
type BudgetPatch struct {
	Name       *string
	Categories *Categories
}

// WalletDeleteResult reports how many dependent records a wallet delete
// removed.
type WalletDeleteResult struct {
	IncomesDeleted  int64
	ExpensesDeleted int64
}

// BudgetDeleteResult reports the fan-out of a budget cascade delete.
type BudgetDeleteResult struct {
	WalletsDeleted  int64
	IncomesDeleted  int64
	ExpensesDeleted int64
}
