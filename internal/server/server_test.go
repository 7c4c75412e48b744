package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance-backend/internal/ledger"
	"myfinance-backend/internal/scanner"
	"myfinance-backend/internal/server"
	"myfinance-backend/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubExtractor returns a canned extraction or error.
type stubExtractor struct {
	extraction scanner.Extraction
	err        error
}

func (s *stubExtractor) Extract(context.Context, []byte) (scanner.Extraction, error) {
	return s.extraction, s.err
}

func newRouter(t *testing.T, extractor scanner.Extractor) *gin.Engine {
	t.Helper()
	svc := ledger.NewService(memory.New())
	return server.New(svc, nil, extractor, nil).Router()
}

// do performs a JSON request and decodes the response body.
func do(t *testing.T, r *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	}
	return w.Code, out
}

func createWallet(t *testing.T, r *gin.Engine, name string, balance float64) string {
	t.Helper()
	code, body := do(t, r, http.MethodPost, "/wallet", gin.H{
		"name": name, "balance": balance, "type": "Savings", "target": 0,
	})
	require.Equal(t, http.StatusCreated, code)
	id, ok := body["id"].(string)
	require.True(t, ok, "wallet create response missing id: %v", body)
	return id
}

func walletBalance(t *testing.T, r *gin.Engine, id string) float64 {
	t.Helper()
	code, body := do(t, r, http.MethodGet, "/wallet", nil)
	require.Equal(t, http.StatusOK, code)
	for _, item := range body["wallets"].([]any) {
		w := item.(map[string]any)
		if w["id"] == id {
			return w["balance"].(float64)
		}
	}
	t.Fatalf("wallet %s not found in list", id)
	return 0
}

func TestHealth(t *testing.T) {
	r := newRouter(t, nil)
	code, body := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestWalletCreateAndList(t *testing.T) {
	r := newRouter(t, nil)
	id := createWallet(t, r, "Main", 2500.50)

	code, body := do(t, r, http.MethodGet, "/wallet", nil)
	require.Equal(t, http.StatusOK, code)
	wallets := body["wallets"].([]any)
	require.Len(t, wallets, 1)
	w := wallets[0].(map[string]any)
	assert.Equal(t, id, w["id"])
	assert.Equal(t, "Main", w["name"])
	assert.Equal(t, 2500.50, w["balance"])
	assert.Equal(t, "Savings", w["type"])
}

func TestWalletCreateRejectsUnknownBudget(t *testing.T) {
	r := newRouter(t, nil)
	code, body := do(t, r, http.MethodPost, "/wallet", gin.H{
		"name": "Linked", "balance": 0, "budget_id": "no-such-budget",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "budget not found")
}

func TestExpenseLifecycleOverHTTP(t *testing.T) {
	r := newRouter(t, nil)
	w1 := createWallet(t, r, "First", 6000.00)
	w2 := createWallet(t, r, "Second", 1000.00)

	code, body := do(t, r, http.MethodPost, "/expense", gin.H{
		"amount": 70.00, "date": "2025-08-01", "category": "Groceries",
		"description": "weekly shop", "wallet_id": w1,
	})
	require.Equal(t, http.StatusCreated, code)
	expID := body["id"].(string)
	assert.Equal(t, 5930.00, walletBalance(t, r, w1))

	// Round trip: every supplied field comes back.
	code, body = do(t, r, http.MethodGet, "/expense", nil)
	require.Equal(t, http.StatusOK, code)
	expenses := body["expenses"].([]any)
	require.Len(t, expenses, 1)
	exp := expenses[0].(map[string]any)
	assert.Equal(t, expID, exp["id"])
	assert.Equal(t, 70.00, exp["amount"])
	assert.Equal(t, "2025-08-01", exp["date"])
	assert.Equal(t, "Groceries", exp["category"])
	assert.Equal(t, "weekly shop", exp["description"])
	assert.Equal(t, w1, exp["wallet_id"])

	// Move to the other wallet with a new amount.
	code, _ = do(t, r, http.MethodPut, "/expense/"+expID, gin.H{
		"amount": 241.00, "wallet_id": w2,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 6000.00, walletBalance(t, r, w1))
	assert.Equal(t, 759.00, walletBalance(t, r, w2))

	// Delete reverses the contribution on the current wallet.
	code, _ = do(t, r, http.MethodDelete, "/expense/"+expID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1000.00, walletBalance(t, r, w2))

	code, _ = do(t, r, http.MethodDelete, "/expense/"+expID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestIncomeUsesSourceField(t *testing.T) {
	r := newRouter(t, nil)
	w := createWallet(t, r, "Main", 100.00)

	code, _ := do(t, r, http.MethodPost, "/income", gin.H{
		"amount": 50.00, "date": "2025-08-02", "source": "Salary", "wallet_id": w,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 150.00, walletBalance(t, r, w))

	code, body := do(t, r, http.MethodGet, "/income", nil)
	require.Equal(t, http.StatusOK, code)
	incomes := body["incomes"].([]any)
	require.Len(t, incomes, 1)
	inc := incomes[0].(map[string]any)
	assert.Equal(t, "Salary", inc["source"])
	_, hasCategory := inc["category"]
	assert.False(t, hasCategory)
}

func TestTransactionCreateFailures(t *testing.T) {
	r := newRouter(t, nil)
	w := createWallet(t, r, "Main", 10.00)

	code, body := do(t, r, http.MethodPost, "/expense", gin.H{
		"amount": 5.00, "wallet_id": "no-such-wallet",
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "wallet not found")

	code, _ = do(t, r, http.MethodPost, "/expense", gin.H{"amount": 5.00})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/expense", gin.H{"amount": -5.00, "wallet_id": w})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListEndpointsReturnEmptyArrays(t *testing.T) {
	r := newRouter(t, nil)
	for _, tc := range []struct{ path, key string }{
		{"/expense", "expenses"},
		{"/income", "incomes"},
		{"/wallet", "wallets"},
		{"/budget", "budgets"},
	} {
		code, body := do(t, r, http.MethodGet, tc.path, nil)
		require.Equal(t, http.StatusOK, code, tc.path)
		items, ok := body[tc.key].([]any)
		require.True(t, ok, "%s response missing %q: %v", tc.path, tc.key, body)
		assert.Empty(t, items)
	}
}

func TestWalletDeleteReportsCounts(t *testing.T) {
	r := newRouter(t, nil)
	w := createWallet(t, r, "Doomed", 100.00)

	for i := 0; i < 2; i++ {
		code, _ := do(t, r, http.MethodPost, "/expense", gin.H{"amount": 1.00, "wallet_id": w})
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := do(t, r, http.MethodPost, "/income", gin.H{"amount": 5.00, "wallet_id": w})
	require.Equal(t, http.StatusCreated, code)

	code, body := do(t, r, http.MethodDelete, "/wallet/"+w, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["incomes_deleted"])
	assert.Equal(t, float64(2), body["expenses_deleted"])

	code, _ = do(t, r, http.MethodDelete, "/wallet/"+w, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBudgetEndpoints(t *testing.T) {
	r := newRouter(t, nil)

	code, body := do(t, r, http.MethodPost, "/budget", gin.H{
		"name": "August",
		"categories": gin.H{
			"needs": gin.H{"Rent": 1500},
			"wants": gin.H{"Fun": 200},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	budgetID := body["id"].(string)

	code, body = do(t, r, http.MethodGet, "/budget/"+budgetID, nil)
	require.Equal(t, http.StatusOK, code)
	budget := body["budget"].(map[string]any)
	assert.Equal(t, "August", budget["name"])
	categories := budget["categories"].(map[string]any)
	assert.Equal(t, 1500.00, categories["needs"].(map[string]any)["Rent"])
	// The bills bucket is present even though it was never supplied.
	bills, ok := categories["bills"].(map[string]any)
	require.True(t, ok)
	assert.Empty(t, bills)

	code, _ = do(t, r, http.MethodGet, "/budget/no-such-budget", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPut, "/budget/"+budgetID, gin.H{"name": "September"})
	require.Equal(t, http.StatusOK, code)
	code, body = do(t, r, http.MethodGet, "/budget/"+budgetID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "September", body["budget"].(map[string]any)["name"])

	// Cascade: a wallet under this budget with one expense.
	code, body = do(t, r, http.MethodPost, "/wallet", gin.H{
		"name": "Owned", "balance": 50.00, "budget_id": budgetID,
	})
	require.Equal(t, http.StatusCreated, code)
	walletID := body["id"].(string)
	code, _ = do(t, r, http.MethodPost, "/expense", gin.H{"amount": 5.00, "wallet_id": walletID})
	require.Equal(t, http.StatusCreated, code)

	code, body = do(t, r, http.MethodDelete, "/budget/"+budgetID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["wallets_deleted"])
	assert.Equal(t, float64(0), body["incomes_deleted"])
	assert.Equal(t, float64(1), body["expenses_deleted"])

	code, body = do(t, r, http.MethodGet, "/wallet", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["wallets"].([]any))
}

func scanRequest(t *testing.T, r *gin.Engine, withFile bool) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withFile {
		fw, err := mw.CreateFormFile("receipt", "receipt.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan-receipt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w.Code, out
}

func TestScanReceipt(t *testing.T) {
	extractor := &stubExtractor{extraction: scanner.Extraction{
		TotalAmount:  "1,234.49",
		SupplierName: "Corner Cafe",
		ReceiptDate:  "03/09/2024",
	}}
	r := newRouter(t, extractor)

	code, body := scanRequest(t, r, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1234.00, body["amount"])
	assert.Equal(t, "Corner Cafe", body["description"])
	assert.Equal(t, "2024-03-09", body["date"])
	assert.Equal(t, "Expense created. Please confirm to add it.", body["message"])
}

func TestScanReceiptMissingFile(t *testing.T) {
	r := newRouter(t, &stubExtractor{})
	code, body := scanRequest(t, r, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No receipt file uploaded", body["error"])
}

func TestScanReceiptExtractorFailure(t *testing.T) {
	r := newRouter(t, &stubExtractor{err: errors.New("processor exploded")})
	code, body := scanRequest(t, r, true)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["error"], "processor exploded")
}

func TestScanReceiptDegradedFields(t *testing.T) {
	r := newRouter(t, &stubExtractor{extraction: scanner.Extraction{
		TotalAmount: "not-a-number",
	}})
	code, body := scanRequest(t, r, true)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["amount"])
	assert.Nil(t, body["description"])
	assert.Nil(t, body["date"])
}

func TestRepeatedGetIsStable(t *testing.T) {
	r := newRouter(t, nil)
	createWallet(t, r, "A", 1)
	createWallet(t, r, "B", 2)

	_, first := do(t, r, http.MethodGet, "/wallet", nil)
	_, second := do(t, r, http.MethodGet, "/wallet", nil)
	assert.Equal(t, fmt.Sprint(first), fmt.Sprint(second))
	assert.Len(t, second["wallets"].([]any), 2)
}
