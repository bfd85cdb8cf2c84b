package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/cache"
	"github.com/RajarshiPrattipati/Auragold/internal/config"
	"github.com/RajarshiPrattipati/Auragold/internal/db"
	"github.com/RajarshiPrattipati/Auragold/internal/events"
	httpserver "github.com/RajarshiPrattipati/Auragold/internal/http"
	"github.com/RajarshiPrattipati/Auragold/internal/ledger"
	"github.com/RajarshiPrattipati/Auragold/internal/marketdata"
	"github.com/RajarshiPrattipati/Auragold/internal/portfolio"
	"github.com/RajarshiPrattipati/Auragold/internal/pricesim"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer dbpool.Close()

	st := store.NewPostgres(dbpool)

	floor, err := decimal.NewFromString(cfg.PriceFloor)
	if err != nil {
		logger.Fatal("invalid PRICE_FLOOR", zap.String("value", cfg.PriceFloor), zap.Error(err))
	}

	mdCache, err := cache.New(1<<26 /* ~64MB */, cfg.CacheTTL)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}

	pub := events.NewNop()
	if brokers := strings.TrimSpace(cfg.KafkaBrokers); brokers != "" {
		pub = events.NewKafka(strings.Split(brokers, ","), cfg.KafkaTopic, logger)
	}
	defer pub.Close()

	ledgerSvc := ledger.New(st, pub, logger)
	portfolioSvc := portfolio.New(st)
	marketSvc := marketdata.New(st, mdCache)
	updater := pricesim.NewUpdater(st, logger, cfg.PriceMaxChangePct, floor)

	scheduler := pricesim.NewScheduler(updater, cfg.PriceUpdateInterval, logger)
	scheduler.Start()
	defer scheduler.Stop()

	s := httpserver.NewServer(ledgerSvc, portfolioSvc, marketSvc, updater, scheduler, st, logger, cfg.CORSOrigin)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	scheduler.Stop()
	logger.Info("shutdown complete")
}
