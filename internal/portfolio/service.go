// Package portfolio derives account valuation from the order log, current
// holdings, and current prices. It is a pure read side: nothing here mutates
// state, and two consecutive calls with no intervening orders return
// identical summaries.
package portfolio

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

type Service struct {
	store store.Store
}

func New(st store.Store) *Service { return &Service{store: st} }

var hundred = decimal.NewFromInt(100)

// Summary computes the account's portfolio valuation.
//
// Cost basis is the weighted average over all BUY orders for the stock,
// regardless of intervening sells. Running sums stay unrounded; only the
// presented fields are rounded to two decimal places, so rounding error
// never compounds across holdings.
func (s *Service) Summary(ctx context.Context, accountID int64) (models.PortfolioSummary, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	holdings, err := s.store.AccountHoldings(ctx, accountID)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	orders, err := s.store.AccountOrders(ctx, accountID)
	if err != nil {
		return models.PortfolioSummary{}, err
	}

	type buyTotals struct {
		amount   decimal.Decimal
		quantity decimal.Decimal
	}
	buys := make(map[int64]buyTotals, len(holdings))
	for _, o := range orders {
		if o.Side != domain.SideBuy {
			continue
		}
		t := buys[o.StockID]
		t.amount = t.amount.Add(o.Amount)
		t.quantity = t.quantity.Add(o.Quantity)
		buys[o.StockID] = t
	}

	var totalInvested, currentValue decimal.Decimal
	details := make([]models.HoldingDetail, 0, len(holdings))
	for _, h := range holdings {
		t := buys[h.StockID]
		var avgBuyPrice decimal.Decimal
		if t.quantity.IsPositive() {
			avgBuyPrice = t.amount.Div(t.quantity)
		}

		invested := h.Quantity.Mul(avgBuyPrice)
		value := h.Quantity.Mul(h.CurrentPrice)
		gainLoss := value.Sub(invested)
		var gainLossPct decimal.Decimal
		if invested.IsPositive() {
			gainLossPct = gainLoss.Div(invested).Mul(hundred)
		}

		details = append(details, models.HoldingDetail{
			StockID:         h.StockID,
			Symbol:          h.Symbol,
			Name:            h.Name,
			Quantity:        h.Quantity,
			AverageBuyPrice: avgBuyPrice.Round(2),
			CurrentPrice:    h.CurrentPrice,
			Invested:        invested.Round(2),
			CurrentValue:    value.Round(2),
			GainLoss:        gainLoss.Round(2),
			GainLossPct:     gainLossPct.Round(2),
		})

		totalInvested = totalInvested.Add(invested)
		currentValue = currentValue.Add(value)
	}

	gainLoss := currentValue.Sub(totalInvested)
	var gainLossPct decimal.Decimal
	if totalInvested.IsPositive() {
		gainLossPct = gainLoss.Div(totalInvested).Mul(hundred)
	}

	return models.PortfolioSummary{
		AccountID:     accountID,
		TotalInvested: totalInvested.Round(2),
		CurrentValue:  currentValue.Round(2),
		GainLoss:      gainLoss.Round(2),
		GainLossPct:   gainLossPct.Round(2),
		CashBalance:   acct.Balance,
		Holdings:      details,
	}, nil
}
