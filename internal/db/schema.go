package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS stocks (
    id            BIGSERIAL PRIMARY KEY,
    symbol        TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    current_price NUMERIC(15,2) NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
    id         BIGSERIAL PRIMARY KEY,
    balance    NUMERIC(15,2) NOT NULL CHECK (balance >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS holdings (
    id         BIGSERIAL PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id),
    stock_id   BIGINT NOT NULL REFERENCES stocks(id),
    quantity   NUMERIC(15,6) NOT NULL CHECK (quantity >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (account_id, stock_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id             UUID PRIMARY KEY,
    account_id     BIGINT NOT NULL REFERENCES accounts(id),
    stock_id       BIGINT NOT NULL REFERENCES stocks(id),
    side           TEXT NOT NULL CHECK (side IN ('BUY','SELL')),
    amount         NUMERIC(15,2) NOT NULL,
    quantity       NUMERIC(15,6) NOT NULL,
    price_per_unit NUMERIC(15,2) NOT NULL,
    ts             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_account_ts_idx ON orders (account_id, ts);

CREATE TABLE IF NOT EXISTS price_points (
    id       BIGSERIAL PRIMARY KEY,
    stock_id BIGINT NOT NULL REFERENCES stocks(id),
    price    NUMERIC(15,2) NOT NULL,
    ts       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS price_points_stock_ts_idx ON price_points (stock_id, ts);
`

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
