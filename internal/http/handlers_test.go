package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/events"
	"github.com/RajarshiPrattipati/Auragold/internal/ledger"
	"github.com/RajarshiPrattipati/Auragold/internal/marketdata"
	"github.com/RajarshiPrattipati/Auragold/internal/portfolio"
	"github.com/RajarshiPrattipati/Auragold/internal/pricesim"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

type testEnv struct {
	server  *Server
	store   *store.Memory
	stockID int64
	acctID  int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	m := store.NewMemory()

	stock, err := m.CreateStock(ctx, "STOCK_A", "AuraGold Tech Corp", dec(t, "100.00"))
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	acct, err := m.CreateAccount(ctx, dec(t, "1000.00"))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	logger := zap.NewNop()
	updater := pricesim.NewUpdater(m, logger, 10, dec(t, "1.00"))
	scheduler := pricesim.NewScheduler(updater, time.Hour, logger)
	srv := NewServer(
		ledger.New(m, events.NewNop(), logger),
		portfolio.New(m),
		marketdata.New(m, nil),
		updater,
		scheduler,
		m,
		logger,
		"*",
	)
	return &testEnv{server: srv, store: m, stockID: stock.ID, acctID: acct.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.R.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestBuyEndpoint(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/transactions/buy", gin.H{
		"account_id": e.acctID, "stock_id": e.stockID, "amount": "500.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp orderResponse
	decodeJSON(t, w, &resp)
	if resp.OrderID == "" || resp.Status != "success" {
		t.Errorf("resp = %+v", resp)
	}
	if !resp.Quantity.Equal(dec(t, "5")) {
		t.Errorf("quantity = %s, want 5", resp.Quantity)
	}
	if !resp.NewBalance.Equal(dec(t, "500.00")) {
		t.Errorf("new_balance = %s, want 500.00", resp.NewBalance)
	}
}

func TestBuyInsufficientBalanceIs400(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/transactions/buy", gin.H{
		"account_id": e.acctID, "stock_id": e.stockID, "amount": "1000.01",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var apiErr apiError
	decodeJSON(t, w, &apiErr)
	if apiErr.Code != "bad_request" || !strings.Contains(apiErr.Message, "insufficient balance") {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestBuyUnknownAccountIs404(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/transactions/buy", gin.H{
		"account_id": 999, "stock_id": e.stockID, "amount": "10.00",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBuyMalformedBodyIs400(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/buy", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	e.server.R.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSellEndpoint(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(t, http.MethodPost, "/api/v1/transactions/buy", gin.H{
		"account_id": e.acctID, "stock_id": e.stockID, "amount": "1000.00",
	}); w.Code != http.StatusOK {
		t.Fatalf("setup buy: %d %s", w.Code, w.Body.String())
	}

	w := e.do(t, http.MethodPost, "/api/v1/transactions/sell", gin.H{
		"account_id": e.acctID, "stock_id": e.stockID, "quantity": "3",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp orderResponse
	decodeJSON(t, w, &resp)
	if resp.Proceeds == nil || !resp.Proceeds.Equal(dec(t, "300.00")) {
		t.Errorf("proceeds = %v, want 300.00", resp.Proceeds)
	}
	if !resp.NewBalance.Equal(dec(t, "300.00")) {
		t.Errorf("new_balance = %s, want 300.00", resp.NewBalance)
	}
}

func TestSellTooMuchIs400(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/transactions/sell", gin.H{
		"account_id": e.acctID, "stock_id": e.stockID, "quantity": "1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var apiErr apiError
	decodeJSON(t, w, &apiErr)
	if !strings.Contains(apiErr.Message, "insufficient stock quantity") {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestListStocks(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/v1/stocks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp stocksResponse
	decodeJSON(t, w, &resp)
	if len(resp.Stocks) != 1 || resp.Stocks[0].Symbol != "STOCK_A" {
		t.Errorf("stocks = %+v", resp.Stocks)
	}
}

func TestStockHistoryRangeValidation(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(t, http.MethodGet, "/api/v1/stocks/1/history?range=90d", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid range: status = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/v1/stocks/1/history?range=24h", nil); w.Code != http.StatusOK {
		t.Errorf("valid range: status = %d, want 200", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/api/v1/stocks/999/history?range=24h", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown stock: status = %d, want 404", w.Code)
	}
}

func TestPortfolioEndpoint(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(t, http.MethodPost, "/api/v1/transactions/buy", gin.H{
		"account_id": e.acctID, "stock_id": e.stockID, "amount": "400.00",
	}); w.Code != http.StatusOK {
		t.Fatalf("setup buy: %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/api/v1/portfolio/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		TotalInvested decimal.Decimal `json:"total_invested"`
		CashBalance   decimal.Decimal `json:"cash_balance"`
	}
	decodeJSON(t, w, &resp)
	if !resp.TotalInvested.Equal(dec(t, "400.00")) {
		t.Errorf("total_invested = %s, want 400.00", resp.TotalInvested)
	}
	if !resp.CashBalance.Equal(dec(t, "600.00")) {
		t.Errorf("cash_balance = %s, want 600.00", resp.CashBalance)
	}

	if w := e.do(t, http.MethodGet, "/api/v1/portfolio/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown account: status = %d, want 404", w.Code)
	}
}

func TestAdminAddStock(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/admin/stocks", gin.H{
		"symbol": "stock_b", "name": "Quantum Dynamics Inc", "price": "85.50", "history_days": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var stock struct {
		ID     int64  `json:"id"`
		Symbol string `json:"symbol"`
	}
	decodeJSON(t, w, &stock)
	if stock.Symbol != "STOCK_B" {
		t.Errorf("symbol = %q, want STOCK_B (uppercased)", stock.Symbol)
	}
	points, err := e.store.PriceHistory(context.Background(), stock.ID, time.Now().UTC().Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(points) != 25 {
		t.Errorf("seeded points = %d, want 25", len(points))
	}

	// duplicate symbol
	if w := e.do(t, http.MethodPost, "/api/v1/admin/stocks", gin.H{
		"symbol": "STOCK_B", "name": "Dup", "price": "1.00",
	}); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate symbol: status = %d, want 400", w.Code)
	}
}

func TestAdminTriggerSweep(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/admin/price-update", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	var resp struct {
		Started bool `json:"started"`
	}
	decodeJSON(t, w, &resp)
	if !resp.Started {
		t.Error("sweep should have started")
	}
	points, err := e.store.PriceHistory(context.Background(), e.stockID, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("points after sweep = %d, want 1", len(points))
	}
}

func TestAdminUpdateOnePrice(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/v1/admin/stocks/1/price-update", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodPost, "/api/v1/admin/stocks/999/price-update", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown stock: status = %d, want 404", w.Code)
	}
}
