package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"myfinance-backend/internal/ledger"
)

type walletPayload struct {
	Name     *string          `json:"name"`
	Balance  *decimal.Decimal `json:"balance"`
	Type     *string          `json:"type"`
	Target   *decimal.Decimal `json:"target"`
	BudgetID *string          `json:"budget_id"`
}

func walletView(w ledger.Wallet) gin.H {
	return gin.H{
		"id":         w.ID,
		"name":       w.Name,
		"balance":    w.Balance,
		"type":       w.Type,
		"target":     w.Target,
		"budget_id":  w.BudgetID,
		"created_at": w.CreatedAt,
		"updated_at": w.UpdatedAt,
	}
}

func (s *Server) createWallet(c *gin.Context) {
	var p walletPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	spec := ledger.NewWallet{}
	if p.Name != nil {
		spec.Name = *p.Name
	}
	if p.Balance != nil {
		spec.Balance = *p.Balance
	}
	if p.Type != nil {
		spec.Type = *p.Type
	}
	if p.Target != nil {
		spec.Target = *p.Target
	}
	if p.BudgetID != nil {
		spec.BudgetID = *p.BudgetID
	}

	w, err := s.ledger.CreateWallet(c.Request.Context(), spec)
	if err != nil {
		fail(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context(), "wallets")
	c.JSON(http.StatusCreated, gin.H{
		"id":      w.ID,
		"message": "A wallet has been successfully added",
	})
}

func (s *Server) listWallets(c *gin.Context) {
	ctx := c.Request.Context()

	var cached map[string]any
	if s.cache.Get(ctx, "wallets", &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	wallets, err := s.ledger.ListWallets(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]gin.H, 0, len(wallets))
	for _, w := range wallets {
		views = append(views, walletView(w))
	}
	body := gin.H{"wallets": views}

	s.cache.Set(ctx, "wallets", body)
	c.JSON(http.StatusOK, body)
}

func (s *Server) updateWallet(c *gin.Context) {
	id := c.Param("id")
	var p walletPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch := ledger.WalletPatch{
		Name:     p.Name,
		Balance:  p.Balance,
		Type:     p.Type,
		Target:   p.Target,
		BudgetID: p.BudgetID,
	}

	if err := s.ledger.UpdateWallet(c.Request.Context(), id, patch); err != nil {
		fail(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context(), "wallets")
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Wallet with id: %s is updated", id)})
}

func (s *Server) deleteWallet(c *gin.Context) {
	id := c.Param("id")
	res, err := s.ledger.DeleteWallet(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context(), "wallets", "incomes", "expenses")
	c.JSON(http.StatusOK, gin.H{
		"message":          fmt.Sprintf("Wallet with id: %s is deleted", id),
		"incomes_deleted":  res.IncomesDeleted,
		"expenses_deleted": res.ExpensesDeleted,
	})
}
