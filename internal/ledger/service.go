// Package ledger is the order processor: it turns user buy/sell requests
// into atomic ledger effects, owning the pricing arithmetic.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/events"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

var (
	ErrNonPositiveAmount   = errors.New("amount must be greater than zero")
	ErrNonPositiveQuantity = errors.New("quantity must be greater than zero")
)

const (
	cashScale     = 2
	quantityScale = 6
)

// OrderResult is what the order endpoints report back.
type OrderResult struct {
	Record     models.OrderRecord
	NewBalance decimal.Decimal
}

type Service struct {
	store  store.Store
	events events.Publisher
	logger *zap.Logger
}

func New(st store.Store, pub events.Publisher, logger *zap.Logger) *Service {
	return &Service{store: st, events: pub, logger: logger}
}

// Buy spends amount of cash on the stock at its current price. The price is
// read once here and frozen for the whole order; executed quantity is
// amount/price rounded to six decimal places.
func (s *Service) Buy(ctx context.Context, accountID, stockID int64, amount decimal.Decimal) (OrderResult, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return OrderResult{}, err
	}
	stock, err := s.store.GetStock(ctx, stockID)
	if err != nil {
		return OrderResult{}, err
	}
	if !amount.IsPositive() {
		return OrderResult{}, ErrNonPositiveAmount
	}
	if !stock.CurrentPrice.IsPositive() {
		return OrderResult{}, fmt.Errorf("stock %s has non-positive price", stock.Symbol)
	}

	quantity := amount.Div(stock.CurrentPrice).Round(quantityScale)
	eff := store.OrderEffect{
		AccountID: accountID,
		StockID:   stockID,
		Side:      domain.SideBuy,
		Amount:    amount.Round(cashScale),
		Quantity:  quantity,
		Price:     stock.CurrentPrice,
	}
	rec, newBalance, err := s.store.ApplyOrderEffect(ctx, eff)
	if err != nil {
		return OrderResult{}, err
	}
	s.logger.Info("order executed",
		zap.String("order_id", rec.ID),
		zap.Int64("account_id", accountID),
		zap.String("symbol", stock.Symbol),
		zap.String("side", rec.Side.String()),
		zap.String("amount", rec.Amount.StringFixed(cashScale)),
		zap.String("quantity", rec.Quantity.String()),
	)
	s.publish(ctx, rec)
	return OrderResult{Record: rec, NewBalance: newBalance}, nil
}

// Sell liquidates quantity shares at the stock's current price. Proceeds are
// quantity*price rounded to two decimal places.
func (s *Service) Sell(ctx context.Context, accountID, stockID int64, quantity decimal.Decimal) (OrderResult, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return OrderResult{}, err
	}
	stock, err := s.store.GetStock(ctx, stockID)
	if err != nil {
		return OrderResult{}, err
	}
	if !quantity.IsPositive() {
		return OrderResult{}, ErrNonPositiveQuantity
	}

	quantity = quantity.Round(quantityScale)
	proceeds := quantity.Mul(stock.CurrentPrice).Round(cashScale)
	eff := store.OrderEffect{
		AccountID: accountID,
		StockID:   stockID,
		Side:      domain.SideSell,
		Amount:    proceeds,
		Quantity:  quantity,
		Price:     stock.CurrentPrice,
	}
	rec, newBalance, err := s.store.ApplyOrderEffect(ctx, eff)
	if err != nil {
		return OrderResult{}, err
	}
	s.logger.Info("order executed",
		zap.String("order_id", rec.ID),
		zap.Int64("account_id", accountID),
		zap.String("symbol", stock.Symbol),
		zap.String("side", rec.Side.String()),
		zap.String("amount", rec.Amount.StringFixed(cashScale)),
		zap.String("quantity", rec.Quantity.String()),
	)
	s.publish(ctx, rec)
	return OrderResult{Record: rec, NewBalance: newBalance}, nil
}

func (s *Service) publish(ctx context.Context, rec models.OrderRecord) {
	if err := s.events.PublishOrder(ctx, rec); err != nil {
		s.logger.Warn("order event publish failed", zap.String("order_id", rec.ID), zap.Error(err))
	}
}
