package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"myfinance-backend/internal/ledger"
)

// transactionPayload is the shared request body for expense and income
// writes. Category carries the label for expenses, Source for incomes;
// whichever matches the route's kind wins.
type transactionPayload struct {
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Category    *string          `json:"category"`
	Source      *string          `json:"source"`
	Description *string          `json:"description"`
	WalletID    *string          `json:"wallet_id"`
}

func (p transactionPayload) label(kind ledger.Kind) *string {
	if kind == ledger.KindIncome {
		return p.Source
	}
	return p.Category
}

func transactionView(kind ledger.Kind, t ledger.Transaction) gin.H {
	view := gin.H{
		"id":          t.ID,
		"amount":      t.Amount,
		"date":        t.Date,
		"description": t.Description,
		"wallet_id":   t.WalletID,
	}
	view[kind.LabelField()] = t.Label
	return view
}

func listKey(kind ledger.Kind) string {
	return string(kind) + "s"
}

func (s *Server) createTransaction(kind ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p transactionPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		spec := ledger.NewTransaction{}
		if p.Amount != nil {
			spec.Amount = *p.Amount
		}
		if p.Date != nil {
			spec.Date = *p.Date
		}
		if label := p.label(kind); label != nil {
			spec.Label = *label
		}
		if p.Description != nil {
			spec.Description = *p.Description
		}
		if p.WalletID != nil {
			spec.WalletID = *p.WalletID
		}

		t, err := s.ledger.CreateTransaction(c.Request.Context(), kind, spec)
		if err != nil {
			fail(c, err)
			return
		}

		s.cache.Invalidate(c.Request.Context(), listKey(kind), "wallets")
		c.JSON(http.StatusCreated, gin.H{
			"id":      t.ID,
			"message": fmt.Sprintf("%s added and wallet balance updated", kind),
		})
	}
}

func (s *Server) listTransactions(kind ledger.Kind) gin.HandlerFunc {
	key := listKey(kind)
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var cached map[string]any
		if s.cache.Get(ctx, key, &cached) {
			c.JSON(http.StatusOK, cached)
			return
		}

		txs, err := s.ledger.ListTransactions(ctx, kind)
		if err != nil {
			fail(c, err)
			return
		}
		views := make([]gin.H, 0, len(txs))
		for _, t := range txs {
			views = append(views, transactionView(kind, t))
		}
		body := gin.H{key: views}

		s.cache.Set(ctx, key, body)
		c.JSON(http.StatusOK, body)
	}
}

func (s *Server) updateTransaction(kind ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var p transactionPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch := ledger.TransactionPatch{
			Amount:      p.Amount,
			Date:        p.Date,
			Label:       p.label(kind),
			Description: p.Description,
			WalletID:    p.WalletID,
		}

		if err := s.ledger.UpdateTransaction(c.Request.Context(), kind, id, patch); err != nil {
			fail(c, err)
			return
		}

		s.cache.Invalidate(c.Request.Context(), listKey(kind), "wallets")
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s with id: %s is updated", kind, id)})
	}
}

func (s *Server) deleteTransaction(kind ledger.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.ledger.DeleteTransaction(c.Request.Context(), kind, id); err != nil {
			fail(c, err)
			return
		}

		s.cache.Invalidate(c.Request.Context(), listKey(kind), "wallets")
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s with id: %s is deleted", kind, id)})
	}
}
