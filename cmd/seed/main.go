// Seed bootstraps a fresh database: schema, demo stocks with backfilled
// price history, demo accounts, and a few sample buy orders executed through
// the real ledger path so balances and holdings stay replay-consistent.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/db"
	"github.com/RajarshiPrattipati/Auragold/internal/events"
	"github.com/RajarshiPrattipati/Auragold/internal/ledger"
	"github.com/RajarshiPrattipati/Auragold/internal/pricesim"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

const historyDays = 30

type seedStock struct {
	symbol string
	name   string
	price  string
}

var seedStocks = []seedStock{
	{"STOCK_A", "AuraGold Tech Corp", "150.00"},
	{"STOCK_B", "Quantum Dynamics Inc", "85.50"},
	{"STOCK_C", "NexGen Solutions", "220.75"},
	{"STOCK_D", "Phoenix Energy Ltd", "45.25"},
	{"STOCK_E", "BlueSky Ventures", "310.00"},
}

var seedBalances = []string{"10000.00", "15000.00", "50000.00"}

// sample buys: account index, stock symbol, quantity of shares
var seedBuys = []struct {
	account int
	symbol  string
	qty     string
}{
	{0, "STOCK_A", "10"},
	{0, "STOCK_B", "20"},
	{1, "STOCK_C", "15"},
	{2, "STOCK_D", "50"},
	{2, "STOCK_E", "25"},
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	url := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if url == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	force := envOr("SEED_FORCE", "false") == "true"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbpool, err := db.Connect(ctx, url)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := db.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}
	logger.Info("schema ensured")

	st := store.NewPostgres(dbpool)

	existing, err := st.ListStocks(ctx)
	if err != nil {
		logger.Fatal("list stocks", zap.Error(err))
	}
	if len(existing) > 0 && !force {
		logger.Info("stocks already present, skipping seed (set SEED_FORCE=true to reseed)",
			zap.Int("count", len(existing)))
		return
	}

	updater := pricesim.NewUpdater(st, logger, 10, decimal.RequireFromString("1.00"))

	symbols := make(map[string]int64, len(seedStocks))
	for _, sd := range seedStocks {
		price := decimal.RequireFromString(sd.price)
		stock, err := st.CreateStock(ctx, sd.symbol, sd.name, price)
		if err != nil {
			logger.Fatal("create stock", zap.String("symbol", sd.symbol), zap.Error(err))
		}
		if err := updater.SeedHistory(ctx, stock.ID, price, historyDays); err != nil {
			logger.Fatal("seed history", zap.String("symbol", sd.symbol), zap.Error(err))
		}
		symbols[sd.symbol] = stock.ID
		logger.Info("seeded stock",
			zap.String("symbol", sd.symbol),
			zap.String("price", price.StringFixed(2)))
	}

	accountIDs := make([]int64, 0, len(seedBalances))
	for _, b := range seedBalances {
		acct, err := st.CreateAccount(ctx, decimal.RequireFromString(b))
		if err != nil {
			logger.Fatal("create account", zap.Error(err))
		}
		accountIDs = append(accountIDs, acct.ID)
		logger.Info("seeded account", zap.Int64("id", acct.ID), zap.String("balance", b))
	}

	ledgerSvc := ledger.New(st, events.NewNop(), logger)
	for _, buy := range seedBuys {
		stockID := symbols[buy.symbol]
		stock, err := st.GetStock(ctx, stockID)
		if err != nil {
			logger.Fatal("get stock", zap.Error(err))
		}
		amount := decimal.RequireFromString(buy.qty).Mul(stock.CurrentPrice).Round(2)
		if _, err := ledgerSvc.Buy(ctx, accountIDs[buy.account], stockID, amount); err != nil {
			logger.Fatal("sample buy", zap.String("symbol", buy.symbol), zap.Error(err))
		}
	}

	logger.Info("seed complete",
		zap.Int("stocks", len(seedStocks)),
		zap.Int("accounts", len(accountIDs)),
		zap.Int("orders", len(seedBuys)))
}
