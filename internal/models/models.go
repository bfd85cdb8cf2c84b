package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
)

// Stock is a tradable instrument. CurrentPrice is mutated only by the price
// simulator; everyone else reads it.
type Stock struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PricePoint is one immutable price observation.
type PricePoint struct {
	StockID int64           `json:"stock_id"`
	Price   decimal.Decimal `json:"price"`
	TS      time.Time       `json:"ts"`
}

// Account holds cash only; stock positions live in Holding rows.
// Balance is always >= 0.
type Account struct {
	ID        int64           `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Holding is an account's position in one stock, unique per
// (account, stock). Quantity is always >= 0; a zero-quantity holding is
// removed rather than stored.
type Holding struct {
	AccountID    int64           `json:"account_id"`
	StockID      int64           `json:"stock_id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OrderRecord is the immutable record of one executed order. It is the
// system of record: balances and holdings must always equal a replay of an
// account's records from empty state.
type OrderRecord struct {
	ID           string          `json:"id"`
	AccountID    int64           `json:"account_id"`
	StockID      int64           `json:"stock_id"`
	Side         domain.Side     `json:"side"`
	Amount       decimal.Decimal `json:"amount"`         // cash, 2dp
	Quantity     decimal.Decimal `json:"quantity"`       // shares, 6dp
	PricePerUnit decimal.Decimal `json:"price_per_unit"` // price at execution
	TS           time.Time       `json:"ts"`
}

// HoldingDetail is the per-stock slice of a portfolio summary.
type HoldingDetail struct {
	StockID         int64           `json:"stock_id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageBuyPrice decimal.Decimal `json:"average_buy_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	Invested        decimal.Decimal `json:"invested"`
	CurrentValue    decimal.Decimal `json:"current_value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPct     decimal.Decimal `json:"gain_loss_percentage"`
}

// PortfolioSummary is the read model served by the portfolio endpoint.
type PortfolioSummary struct {
	AccountID     int64           `json:"account_id"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	GainLoss      decimal.Decimal `json:"gain_loss_amount"`
	GainLossPct   decimal.Decimal `json:"gain_loss_percentage"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	Holdings      []HoldingDetail `json:"holdings"`
}
