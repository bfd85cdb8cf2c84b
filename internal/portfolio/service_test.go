package portfolio

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/events"
	"github.com/RajarshiPrattipati/Auragold/internal/ledger"
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

func TestSummaryAccountNotFound(t *testing.T) {
	svc := New(store.NewMemory())
	_, err := svc.Summary(context.Background(), 42)
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestSummaryEmptyPortfolio(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	acct, err := m.CreateAccount(ctx, dec(t, "2500.00"))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	sum, err := New(m).Summary(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !sum.TotalInvested.IsZero() || !sum.CurrentValue.IsZero() || !sum.GainLoss.IsZero() || !sum.GainLossPct.IsZero() {
		t.Errorf("empty portfolio should be zero-filled: %+v", sum)
	}
	if !sum.CashBalance.Equal(dec(t, "2500.00")) {
		t.Errorf("cash = %s, want 2500.00", sum.CashBalance)
	}
	if len(sum.Holdings) != 0 {
		t.Errorf("holdings = %+v, want none", sum.Holdings)
	}
}

// Two buys at different prices: amount=800 qty=10 @ 80, amount=200 qty=2
// @ 100, current price 100. Average buy price 1000/12, invested 1000.00,
// value 1200.00, gain 200.00 (20%).
func TestSummaryAverageCostAcrossBuys(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	stock, err := m.CreateStock(ctx, "STOCK_A", "AuraGold Tech Corp", dec(t, "80.00"))
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	acct, err := m.CreateAccount(ctx, dec(t, "1000.00"))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	ledgerSvc := ledger.New(m, events.NewNop(), zap.NewNop())
	if _, err := ledgerSvc.Buy(ctx, acct.ID, stock.ID, dec(t, "800.00")); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if err := m.UpdateStockPrice(ctx, stock.ID, dec(t, "100.00"), time.Now().UTC()); err != nil {
		t.Fatalf("UpdateStockPrice: %v", err)
	}
	if _, err := ledgerSvc.Buy(ctx, acct.ID, stock.ID, dec(t, "200.00")); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	sum, err := New(m).Summary(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum.Holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(sum.Holdings))
	}
	h := sum.Holdings[0]
	if !h.AverageBuyPrice.Equal(dec(t, "83.33")) {
		t.Errorf("average buy price = %s, want 83.33", h.AverageBuyPrice)
	}
	if !h.Invested.Equal(dec(t, "1000.00")) {
		t.Errorf("invested = %s, want 1000.00", h.Invested)
	}
	if !h.CurrentValue.Equal(dec(t, "1200.00")) {
		t.Errorf("current value = %s, want 1200.00", h.CurrentValue)
	}
	if !h.GainLoss.Equal(dec(t, "200.00")) {
		t.Errorf("gain/loss = %s, want 200.00", h.GainLoss)
	}
	if !sum.TotalInvested.Equal(dec(t, "1000.00")) || !sum.CurrentValue.Equal(dec(t, "1200.00")) {
		t.Errorf("totals = %s / %s, want 1000.00 / 1200.00", sum.TotalInvested, sum.CurrentValue)
	}
	if !sum.GainLossPct.Equal(dec(t, "20.00")) {
		t.Errorf("gain/loss pct = %s, want 20.00", sum.GainLossPct)
	}
}

// Cost basis averages over all BUY orders even after a partial sell.
func TestSummaryCostBasisIgnoresSells(t *testing.T) {
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

	ledgerSvc := ledger.New(m, events.NewNop(), zap.NewNop())
	if _, err := ledgerSvc.Buy(ctx, acct.ID, stock.ID, dec(t, "1000.00")); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := ledgerSvc.Sell(ctx, acct.ID, stock.ID, dec(t, "4")); err != nil {
		t.Fatalf("sell: %v", err)
	}

	sum, err := New(m).Summary(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	h := sum.Holdings[0]
	// avg remains 100; 6 shares left → invested 600
	if !h.AverageBuyPrice.Equal(dec(t, "100.00")) {
		t.Errorf("average buy price = %s, want 100.00", h.AverageBuyPrice)
	}
	if !h.Invested.Equal(dec(t, "600.00")) {
		t.Errorf("invested = %s, want 600.00", h.Invested)
	}
}

func TestSummaryIsIdempotent(t *testing.T) {
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
	ledgerSvc := ledger.New(m, events.NewNop(), zap.NewNop())
	if _, err := ledgerSvc.Buy(ctx, acct.ID, stock.ID, dec(t, "400.00")); err != nil {
		t.Fatalf("buy: %v", err)
	}

	svc := New(m)
	first, err := svc.Summary(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	second, err := svc.Summary(ctx, acct.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("summaries differ with no intervening orders:\n%+v\n%+v", first, second)
	}
}
