// Package memory implements ledger.Store with mutex-guarded maps. It backs
// the test suites and any run that does not need durable storage.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"myfinance-backend/internal/ledger"
)

type walletRec struct {
	w   ledger.Wallet
	seq int
}

type txRec struct {
	t   ledger.Transaction
	seq int
}

type budgetRec struct {
	b   ledger.Budget
	seq int
}

// data holds the actual state. Its methods are unsynchronized; Store and
// txStore decide the locking discipline around them.
type data struct {
	seq     int
	wallets map[string]walletRec
	txs     map[string]txRec
	budgets map[string]budgetRec
}

func newData() *data {
	return &data{
		wallets: make(map[string]walletRec),
		txs:     make(map[string]txRec),
		budgets: make(map[string]budgetRec),
	}
}

func (d *data) clone() *data {
	c := &data{
		seq:     d.seq,
		wallets: make(map[string]walletRec, len(d.wallets)),
		txs:     make(map[string]txRec, len(d.txs)),
		budgets: make(map[string]budgetRec, len(d.budgets)),
	}
	for id, r := range d.wallets {
		c.wallets[id] = r
	}
	for id, r := range d.txs {
		c.txs[id] = r
	}
	for id, r := range d.budgets {
		r.b.Categories = cloneCategories(r.b.Categories)
		c.budgets[id] = r
	}
	return c
}

func cloneCategories(c ledger.Categories) ledger.Categories {
	return ledger.Categories{
		Needs: cloneBucket(c.Needs),
		Wants: cloneBucket(c.Wants),
		Bills: cloneBucket(c.Bills),
	}
}

func cloneBucket(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	if m == nil {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is the synchronized entry point. A single mutex serializes all
// operations, so WithinTx gets snapshot isolation for free: it runs fn
// against a clone and swaps the clone in only on success.
type Store struct {
	mu sync.Mutex
	d  *data
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{d: newData()}
}

func (s *Store) WithinTx(_ context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.d.clone()
	if err := fn(&txStore{d: work}); err != nil {
		return err
	}
	s.d = work
	return nil
}

func (s *Store) InsertWallet(_ context.Context, w *ledger.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.insertWallet(w)
}

func (s *Store) GetWallet(_ context.Context, id string) (*ledger.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getWallet(id)
}

func (s *Store) ListWallets(_ context.Context) ([]ledger.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listWallets()
}

func (s *Store) ListWalletsByBudget(_ context.Context, budgetID string) ([]ledger.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listWalletsByBudget(budgetID)
}

func (s *Store) UpdateWallet(_ context.Context, id string, p ledger.WalletPatch, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateWallet(id, p, now)
}

func (s *Store) DeleteWallet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteWallet(id)
}

func (s *Store) AddToBalance(_ context.Context, id string, delta decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.addToBalance(id, delta, now)
}

func (s *Store) InsertTransaction(_ context.Context, t *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.insertTransaction(t)
}

func (s *Store) GetTransaction(_ context.Context, kind ledger.Kind, id string) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getTransaction(kind, id)
}

func (s *Store) ListTransactions(_ context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listTransactions(kind)
}

func (s *Store) UpdateTransaction(_ context.Context, t *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateTransaction(t)
}

func (s *Store) DeleteTransaction(_ context.Context, kind ledger.Kind, id string) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteTransaction(kind, id)
}

func (s *Store) DeleteTransactionsByWallet(_ context.Context, walletID string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteTransactionsByWallet(walletID)
}

func (s *Store) InsertBudget(_ context.Context, b *ledger.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.insertBudget(b)
}

func (s *Store) GetBudget(_ context.Context, id string) (*ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.getBudget(id)
}

func (s *Store) ListBudgets(_ context.Context) ([]ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.listBudgets()
}

func (s *Store) UpdateBudget(_ context.Context, id string, p ledger.BudgetPatch, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateBudget(id, p, now)
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteBudget(id)
}

// txStore is the view handed to WithinTx callbacks. The enclosing Store holds
// the mutex for the whole transaction, so txStore runs unsynchronized.
type txStore struct {
	d *data
}

func (t *txStore) WithinTx(_ context.Context, fn func(ledger.Store) error) error {
	return fn(t)
}

func (t *txStore) InsertWallet(_ context.Context, w *ledger.Wallet) error {
	return t.d.insertWallet(w)
}

func (t *txStore) GetWallet(_ context.Context, id string) (*ledger.Wallet, error) {
	return t.d.getWallet(id)
}

func (t *txStore) ListWallets(_ context.Context) ([]ledger.Wallet, error) {
	return t.d.listWallets()
}

func (t *txStore) ListWalletsByBudget(_ context.Context, budgetID string) ([]ledger.Wallet, error) {
	return t.d.listWalletsByBudget(budgetID)
}

func (t *txStore) UpdateWallet(_ context.Context, id string, p ledger.WalletPatch, now time.Time) error {
	return t.d.updateWallet(id, p, now)
}

func (t *txStore) DeleteWallet(_ context.Context, id string) error {
	return t.d.deleteWallet(id)
}

func (t *txStore) AddToBalance(_ context.Context, id string, delta decimal.Decimal, now time.Time) error {
	return t.d.addToBalance(id, delta, now)
}

func (t *txStore) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	return t.d.insertTransaction(tx)
}

func (t *txStore) GetTransaction(_ context.Context, kind ledger.Kind, id string) (*ledger.Transaction, error) {
	return t.d.getTransaction(kind, id)
}

func (t *txStore) ListTransactions(_ context.Context, kind ledger.Kind) ([]ledger.Transaction, error) {
	return t.d.listTransactions(kind)
}

func (t *txStore) UpdateTransaction(_ context.Context, tx *ledger.Transaction) error {
	return t.d.updateTransaction(tx)
}

func (t *txStore) DeleteTransaction(_ context.Context, kind ledger.Kind, id string) (*ledger.Transaction, error) {
	return t.d.deleteTransaction(kind, id)
}

func (t *txStore) DeleteTransactionsByWallet(_ context.Context, walletID string) (int64, int64, error) {
	return t.d.deleteTransactionsByWallet(walletID)
}

func (t *txStore) InsertBudget(_ context.Context, b *ledger.Budget) error {
	return t.d.insertBudget(b)
}

func (t *txStore) GetBudget(_ context.Context, id string) (*ledger.Budget, error) {
	return t.d.getBudget(id)
}

func (t *txStore) ListBudgets(_ context.Context) ([]ledger.Budget, error) {
	return t.d.listBudgets()
}

func (t *txStore) UpdateBudget(_ context.Context, id string, p ledger.BudgetPatch, now time.Time) error {
	return t.d.updateBudget(id, p, now)
}

func (t *txStore) DeleteBudget(_ context.Context, id string) error {
	return t.d.deleteBudget(id)
}

func (d *data) insertWallet(w *ledger.Wallet) error {
	d.seq++
	d.wallets[w.ID] = walletRec{w: *w, seq: d.seq}
	return nil
}

func (d *data) getWallet(id string) (*ledger.Wallet, error) {
	rec, ok := d.wallets[id]
	if !ok {
		return nil, ledger.ErrWalletNotFound
	}
	w := rec.w
	return &w, nil
}

func (d *data) listWallets() ([]ledger.Wallet, error) {
	recs := make([]walletRec, 0, len(d.wallets))
	for _, r := range d.wallets {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]ledger.Wallet, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.w)
	}
	return out, nil
}

func (d *data) listWalletsByBudget(budgetID string) ([]ledger.Wallet, error) {
	all, _ := d.listWallets()
	out := make([]ledger.Wallet, 0)
	for _, w := range all {
		if w.BudgetID == budgetID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (d *data) updateWallet(id string, p ledger.WalletPatch, now time.Time) error {
	rec, ok := d.wallets[id]
	if !ok {
		return ledger.ErrWalletNotFound
	}
	if p.Name != nil {
		rec.w.Name = *p.Name
	}
	if p.Balance != nil {
		rec.w.Balance = *p.Balance
	}
	if p.Type != nil {
		rec.w.Type = *p.Type
	}
	if p.Target != nil {
		rec.w.Target = *p.Target
	}
	if p.BudgetID != nil {
		rec.w.BudgetID = *p.BudgetID
	}
	rec.w.UpdatedAt = now
	d.wallets[id] = rec
	return nil
}

func (d *data) deleteWallet(id string) error {
	if _, ok := d.wallets[id]; !ok {
		return ledger.ErrWalletNotFound
	}
	delete(d.wallets, id)
	return nil
}

func (d *data) addToBalance(id string, delta decimal.Decimal, now time.Time) error {
	rec, ok := d.wallets[id]
	if !ok {
		return ledger.ErrWalletNotFound
	}
	rec.w.Balance = rec.w.Balance.Add(delta)
	rec.w.UpdatedAt = now
	d.wallets[id] = rec
	return nil
}

func (d *data) insertTransaction(t *ledger.Transaction) error {
	d.seq++
	d.txs[t.ID] = txRec{t: *t, seq: d.seq}
	return nil
}

func (d *data) getTransaction(kind ledger.Kind, id string) (*ledger.Transaction, error) {
	rec, ok := d.txs[id]
	if !ok || rec.t.Kind != kind {
		return nil, kind.ErrNotFound()
	}
	t := rec.t
	return &t, nil
}

func (d *data) listTransactions(kind ledger.Kind) ([]ledger.Transaction, error) {
	recs := make([]txRec, 0, len(d.txs))
	for _, r := range d.txs {
		if r.t.Kind == kind {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]ledger.Transaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.t)
	}
	return out, nil
}

func (d *data) updateTransaction(t *ledger.Transaction) error {
	rec, ok := d.txs[t.ID]
	if !ok || rec.t.Kind != t.Kind {
		return t.Kind.ErrNotFound()
	}
	rec.t = *t
	d.txs[t.ID] = rec
	return nil
}

func (d *data) deleteTransaction(kind ledger.Kind, id string) (*ledger.Transaction, error) {
	rec, ok := d.txs[id]
	if !ok || rec.t.Kind != kind {
		return nil, kind.ErrNotFound()
	}
	delete(d.txs, id)
	t := rec.t
	return &t, nil
}

func (d *data) deleteTransactionsByWallet(walletID string) (int64, int64, error) {
	var incomes, expenses int64
	for id, rec := range d.txs {
		if rec.t.WalletID != walletID {
			continue
		}
		if rec.t.Kind == ledger.KindIncome {
			incomes++
		} else {
			expenses++
		}
		delete(d.txs, id)
	}
	return incomes, expenses, nil
}

func (d *data) insertBudget(b *ledger.Budget) error {
	d.seq++
	cp := *b
	cp.Categories = cloneCategories(b.Categories)
	d.budgets[b.ID] = budgetRec{b: cp, seq: d.seq}
	return nil
}

func (d *data) getBudget(id string) (*ledger.Budget, error) {
	rec, ok := d.budgets[id]
	if !ok {
		return nil, ledger.ErrBudgetNotFound
	}
	b := rec.b
	b.Categories = cloneCategories(b.Categories)
	return &b, nil
}

func (d *data) listBudgets() ([]ledger.Budget, error) {
	recs := make([]budgetRec, 0, len(d.budgets))
	for _, r := range d.budgets {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]ledger.Budget, 0, len(recs))
	for _, r := range recs {
		b := r.b
		b.Categories = cloneCategories(b.Categories)
		out = append(out, b)
	}
	return out, nil
}

func (d *data) updateBudget(id string, p ledger.BudgetPatch, now time.Time) error {
	rec, ok := d.budgets[id]
	if !ok {
		return ledger.ErrBudgetNotFound
	}
	if p.Name != nil {
		rec.b.Name = *p.Name
	}
	if p.Categories != nil {
		rec.b.Categories = cloneCategories(*p.Categories)
	}
	rec.b.UpdatedAt = now
	d.budgets[id] = rec
	return nil
}

func (d *data) deleteBudget(id string) error {
	if _, ok := d.budgets[id]; !ok {
		return ledger.ErrBudgetNotFound
	}
	delete(d.budgets, id)
	return nil
}

var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Store = (*txStore)(nil)
)
