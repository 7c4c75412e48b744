// Package server exposes the ledger service over HTTP with gin.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"myfinance-backend/internal/ledger"
	"myfinance-backend/internal/scanner"
)

func init() {
	// Amounts and balances serialize as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping() error
}

// Server holds the handlers' collaborators.
type Server struct {
	ledger    *ledger.Service
	cache     *Cache
	extractor scanner.Extractor
	pinger    Pinger
}

// New builds a Server. cache, extractor and pinger may be nil: caching is
// skipped, the scan endpoint reports the OCR backend as unavailable and the
// health endpoint skips the store ping.
func New(svc *ledger.Service, cache *Cache, extractor scanner.Extractor, pinger Pinger) *Server {
	return &Server{ledger: svc, cache: cache, extractor: extractor, pinger: pinger}
}

// Router builds the gin engine with CORS and all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthCheck)

	r.POST("/expense", s.createTransaction(ledger.KindExpense))
	r.GET("/expense", s.listTransactions(ledger.KindExpense))
	r.PUT("/expense/:id", s.updateTransaction(ledger.KindExpense))
	r.DELETE("/expense/:id", s.deleteTransaction(ledger.KindExpense))

	r.POST("/income", s.createTransaction(ledger.KindIncome))
	r.GET("/income", s.listTransactions(ledger.KindIncome))
	r.PUT("/income/:id", s.updateTransaction(ledger.KindIncome))
	r.DELETE("/income/:id", s.deleteTransaction(ledger.KindIncome))

	r.POST("/wallet", s.createWallet)
	r.GET("/wallet", s.listWallets)
	r.PUT("/wallet/:id", s.updateWallet)
	r.DELETE("/wallet/:id", s.deleteWallet)

	r.POST("/budget", s.createBudget)
	r.GET("/budget", s.listBudgets)
	r.GET("/budget/:id", s.getBudget)
	r.PUT("/budget/:id", s.updateBudget)
	r.DELETE("/budget/:id", s.deleteBudget)

	r.POST("/scan-receipt", s.scanReceipt)

	return r
}

// healthCheck reports service and store health.
func (s *Server) healthCheck(c *gin.Context) {
	if s.pinger != nil {
		if err := s.pinger.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ledger-service",
	})
}

// fail maps domain errors onto HTTP statuses: not-found conditions become
// 404, validation failures 400, storage connectivity 503.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrBudgetNotFound),
		errors.Is(err, ledger.ErrExpenseNotFound),
		errors.Is(err, ledger.ErrIncomeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrAmountMustBePositive),
		errors.Is(err, ledger.ErrWalletIDRequired):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
