package ledger

import "errors"

var (
	// ErrWalletNotFound means no wallet matches the given id.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrBudgetNotFound means no budget matches the given id.
	ErrBudgetNotFound = errors.New("budget not found")

	// ErrExpenseNotFound means no expense matches the given id.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrIncomeNotFound means no income matches the given id.
	ErrIncomeNotFound = errors.New("income not found")

	// ErrAmountMustBePositive rejects zero or negative transaction amounts.
	ErrAmountMustBePositive = errors.New("amount must be positive")

	// ErrWalletIDRequired rejects transactions without a wallet reference.
	ErrWalletIDRequired = errors.New("wallet_id is required")

	// ErrStorageUnavailable means the backing store is unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
