package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Postgres is the durable Store implementation. Order effects run in one
// transaction with the account row locked FOR UPDATE, which serializes
// orders per account while leaving other accounts untouched.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (p *Postgres) CreateStock(ctx context.Context, symbol, name string, price decimal.Decimal) (models.Stock, error) {
	var s models.Stock
	err := p.pool.QueryRow(ctx, `
		INSERT INTO stocks (symbol, name, current_price)
		VALUES ($1, $2, $3)
		RETURNING id, symbol, name, current_price, created_at, updated_at
	`, symbol, name, price).Scan(&s.ID, &s.Symbol, &s.Name, &s.CurrentPrice, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.Stock{}, ErrSymbolExists
		}
		return models.Stock{}, fmt.Errorf("create stock: %w", err)
	}
	return s, nil
}

func (p *Postgres) GetStock(ctx context.Context, id int64) (models.Stock, error) {
	var s models.Stock
	err := p.pool.QueryRow(ctx, `
		SELECT id, symbol, name, current_price, created_at, updated_at
		FROM stocks WHERE id=$1
	`, id).Scan(&s.ID, &s.Symbol, &s.Name, &s.CurrentPrice, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Stock{}, ErrStockNotFound
	}
	if err != nil {
		return models.Stock{}, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

func (p *Postgres) ListStocks(ctx context.Context) ([]models.Stock, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, symbol, name, current_price, created_at, updated_at
		FROM stocks ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	defer rows.Close()
	out := make([]models.Stock, 0)
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Name, &s.CurrentPrice, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateStockPrice(ctx context.Context, id int64, price decimal.Decimal, at time.Time) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE stocks SET current_price=$2, updated_at=$3 WHERE id=$1
	`, id, price, at)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO price_points (stock_id, price, ts) VALUES ($1, $2, $3)
	`, id, price, at); err != nil {
		return fmt.Errorf("append price point: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) PriceHistory(ctx context.Context, stockID int64, since time.Time) ([]models.PricePoint, error) {
	if _, err := p.GetStock(ctx, stockID); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT stock_id, price, ts FROM price_points
		WHERE stock_id=$1 AND ts >= $2 ORDER BY ts
	`, stockID, since)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}
	defer rows.Close()
	out := make([]models.PricePoint, 0)
	for rows.Next() {
		var pp models.PricePoint
		if err := rows.Scan(&pp.StockID, &pp.Price, &pp.TS); err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

func (p *Postgres) SeedHistory(ctx context.Context, stockID int64, points []models.PricePoint) error {
	if _, err := p.GetStock(ctx, stockID); err != nil {
		return err
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM price_points WHERE stock_id=$1`, stockID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	for _, pp := range points {
		if _, err := tx.Exec(ctx, `
			INSERT INTO price_points (stock_id, price, ts) VALUES ($1, $2, $3)
		`, stockID, pp.Price, pp.TS); err != nil {
			return fmt.Errorf("seed history: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (p *Postgres) CreateAccount(ctx context.Context, balance decimal.Decimal) (models.Account, error) {
	var a models.Account
	err := p.pool.QueryRow(ctx, `
		INSERT INTO accounts (balance) VALUES ($1)
		RETURNING id, balance, created_at, updated_at
	`, balance).Scan(&a.ID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (p *Postgres) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	var a models.Account
	err := p.pool.QueryRow(ctx, `
		SELECT id, balance, created_at, updated_at FROM accounts WHERE id=$1
	`, id).Scan(&a.ID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (p *Postgres) ApplyOrderEffect(ctx context.Context, eff OrderEffect) (models.OrderRecord, decimal.Decimal, error) {
	var zero decimal.Decimal
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return models.OrderRecord{}, zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Account row lock is the serialization scope for this account's orders.
	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`, eff.AccountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OrderRecord{}, zero, ErrAccountNotFound
	}
	if err != nil {
		return models.OrderRecord{}, zero, mapPgErr("lock account", err)
	}

	var stockExists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stocks WHERE id=$1)`, eff.StockID).Scan(&stockExists); err != nil {
		return models.OrderRecord{}, zero, mapPgErr("check stock", err)
	}
	if !stockExists {
		return models.OrderRecord{}, zero, ErrStockNotFound
	}

	var newBalance decimal.Decimal
	switch eff.Side {
	case domain.SideBuy:
		if balance.LessThan(eff.Amount) {
			return models.OrderRecord{}, zero, &InsufficientFundsError{Available: balance, Required: eff.Amount}
		}
		newBalance = balance.Sub(eff.Amount)
		if _, err := tx.Exec(ctx, `
			INSERT INTO holdings (account_id, stock_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (account_id, stock_id)
			DO UPDATE SET quantity = holdings.quantity + EXCLUDED.quantity,
			              updated_at = now()
		`, eff.AccountID, eff.StockID, eff.Quantity); err != nil {
			return models.OrderRecord{}, zero, mapPgErr("upsert holding", err)
		}

	case domain.SideSell:
		var held decimal.Decimal
		err := tx.QueryRow(ctx, `
			SELECT quantity FROM holdings WHERE account_id=$1 AND stock_id=$2 FOR UPDATE
		`, eff.AccountID, eff.StockID).Scan(&held)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OrderRecord{}, zero, &InsufficientHoldingsError{Available: decimal.Zero, Required: eff.Quantity}
		}
		if err != nil {
			return models.OrderRecord{}, zero, mapPgErr("lock holding", err)
		}
		if held.LessThan(eff.Quantity) {
			return models.OrderRecord{}, zero, &InsufficientHoldingsError{Available: held, Required: eff.Quantity}
		}
		remaining := held.Sub(eff.Quantity)
		if remaining.IsZero() {
			if _, err := tx.Exec(ctx, `
				DELETE FROM holdings WHERE account_id=$1 AND stock_id=$2
			`, eff.AccountID, eff.StockID); err != nil {
				return models.OrderRecord{}, zero, mapPgErr("delete holding", err)
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE holdings SET quantity=$3, updated_at=now()
				WHERE account_id=$1 AND stock_id=$2
			`, eff.AccountID, eff.StockID, remaining); err != nil {
				return models.OrderRecord{}, zero, mapPgErr("update holding", err)
			}
		}
		newBalance = balance.Add(eff.Amount)

	default:
		return models.OrderRecord{}, zero, fmt.Errorf("invalid side %q", eff.Side)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET balance=$2, updated_at=now() WHERE id=$1
	`, eff.AccountID, newBalance); err != nil {
		return models.OrderRecord{}, zero, mapPgErr("update balance", err)
	}

	rec := newOrderRecord(eff, time.Now().UTC())
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, account_id, stock_id, side, amount, quantity, price_per_unit, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.AccountID, rec.StockID, rec.Side.String(), rec.Amount, rec.Quantity, rec.PricePerUnit, rec.TS); err != nil {
		return models.OrderRecord{}, zero, mapPgErr("append order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.OrderRecord{}, zero, mapPgErr("commit", err)
	}
	return rec, newBalance, nil
}

func (p *Postgres) AccountHoldings(ctx context.Context, accountID int64) ([]models.Holding, error) {
	if _, err := p.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT h.account_id, h.stock_id, s.symbol, s.name, h.quantity, s.current_price, h.updated_at
		FROM holdings h JOIN stocks s ON s.id = h.stock_id
		WHERE h.account_id=$1 AND h.quantity > 0
		ORDER BY s.symbol
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("account holdings: %w", err)
	}
	defer rows.Close()
	out := make([]models.Holding, 0)
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.AccountID, &h.StockID, &h.Symbol, &h.Name, &h.Quantity, &h.CurrentPrice, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) AccountOrders(ctx context.Context, accountID int64) ([]models.OrderRecord, error) {
	if _, err := p.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, account_id, stock_id, side, amount, quantity, price_per_unit, ts
		FROM orders WHERE account_id=$1 ORDER BY ts
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("account orders: %w", err)
	}
	defer rows.Close()
	out := make([]models.OrderRecord, 0)
	for rows.Next() {
		var r models.OrderRecord
		var side string
		if err := rows.Scan(&r.ID, &r.AccountID, &r.StockID, &side, &r.Amount, &r.Quantity, &r.PricePerUnit, &r.TS); err != nil {
			return nil, err
		}
		r.Side = domain.Side(side)
		out = append(out, r)
	}
	return out, rows.Err()
}

func newOrderRecord(eff OrderEffect, ts time.Time) models.OrderRecord {
	return models.OrderRecord{
		ID:           uuid.NewString(),
		AccountID:    eff.AccountID,
		StockID:      eff.StockID,
		Side:         eff.Side,
		Amount:       eff.Amount,
		Quantity:     eff.Quantity,
		PricePerUnit: eff.Price,
		TS:           ts,
	}
}

func mapPgErr(where string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w", where, ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", where, err)
}
