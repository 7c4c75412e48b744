package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"myfinance-backend/internal/ledger"
)

type budgetPayload struct {
	Name       *string            `json:"name"`
	Categories *ledger.Categories `json:"categories"`
}

func budgetView(b ledger.Budget) gin.H {
	return gin.H{
		"id":         b.ID,
		"name":       b.Name,
		"categories": b.Categories,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}

func (s *Server) createBudget(c *gin.Context) {
	var p budgetPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	spec := ledger.NewBudget{}
	if p.Name != nil {
		spec.Name = *p.Name
	}
	if p.Categories != nil {
		spec.Categories = *p.Categories
	}

	b, err := s.ledger.CreateBudget(c.Request.Context(), spec)
	if err != nil {
		fail(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context(), "budgets")
	c.JSON(http.StatusCreated, gin.H{
		"id":      b.ID,
		"message": "A budget has been successfully added",
	})
}

func (s *Server) listBudgets(c *gin.Context) {
	ctx := c.Request.Context()

	var cached map[string]any
	if s.cache.Get(ctx, "budgets", &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	budgets, err := s.ledger.ListBudgets(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]gin.H, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, budgetView(b))
	}
	body := gin.H{"budgets": views}

	s.cache.Set(ctx, "budgets", body)
	c.JSON(http.StatusOK, body)
}

func (s *Server) getBudget(c *gin.Context) {
	b, err := s.ledger.GetBudget(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budgetView(*b)})
}

func (s *Server) updateBudget(c *gin.Context) {
	id := c.Param("id")
	var p budgetPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch := ledger.BudgetPatch{
		Name:       p.Name,
		Categories: p.Categories,
	}

	if err := s.ledger.UpdateBudget(c.Request.Context(), id, patch); err != nil {
		fail(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context(), "budgets")
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Budget with id: %s is updated", id)})
}

func (s *Server) deleteBudget(c *gin.Context) {
	id := c.Param("id")
	res, err := s.ledger.DeleteBudget(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context(), "budgets", "wallets", "incomes", "expenses")
	c.JSON(http.StatusOK, gin.H{
		"message":          fmt.Sprintf("Budget with id: %s is deleted", id),
		"wallets_deleted":  res.WalletsDeleted,
		"incomes_deleted":  res.IncomesDeleted,
		"expenses_deleted": res.ExpensesDeleted,
	})
}
