package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/ledger"
	"github.com/RajarshiPrattipati/Auragold/internal/marketdata"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
	"github.com/RajarshiPrattipati/Auragold/internal/portfolio"
	"github.com/RajarshiPrattipati/Auragold/internal/pricesim"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

type Server struct {
	R         *gin.Engine
	Ledger    *ledger.Service
	Portfolio *portfolio.Service
	Market    *marketdata.Service
	Updater   *pricesim.Updater
	Scheduler *pricesim.Scheduler
	Store     store.Store
	Logger    *zap.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type buyRequest struct {
	AccountID int64           `json:"account_id" binding:"required"`
	StockID   int64           `json:"stock_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type sellRequest struct {
	AccountID int64           `json:"account_id" binding:"required"`
	StockID   int64           `json:"stock_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type orderResponse struct {
	OrderID    string           `json:"order_id"`
	Status     string           `json:"status"`
	Quantity   decimal.Decimal  `json:"quantity"`
	NewBalance decimal.Decimal  `json:"new_balance"`
	Proceeds   *decimal.Decimal `json:"proceeds,omitempty"`
}

type stocksResponse struct {
	Stocks      []models.Stock `json:"stocks"`
	LastUpdated time.Time      `json:"last_updated"`
}

type historyResponse struct {
	StockID int64               `json:"stock_id"`
	Range   string              `json:"range"`
	Points  []models.PricePoint `json:"points"`
}

type addStockRequest struct {
	Symbol      string          `json:"symbol" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	HistoryDays int             `json:"history_days"`
}

type addAccountRequest struct {
	Balance *decimal.Decimal `json:"balance"`
}

// NewServer wires the router, services, and middleware.
func NewServer(
	ledgerSvc *ledger.Service,
	portfolioSvc *portfolio.Service,
	marketSvc *marketdata.Service,
	updater *pricesim.Updater,
	scheduler *pricesim.Scheduler,
	st store.Store,
	logger *zap.Logger,
	corsOrigin string,
) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{
		R:         g,
		Ledger:    ledgerSvc,
		Portfolio: portfolioSvc,
		Market:    marketSvc,
		Updater:   updater,
		Scheduler: scheduler,
		Store:     st,
		Logger:    logger,
	}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })

	v1 := g.Group("/api/v1")
	v1.GET("/stocks", s.listStocks)
	v1.GET("/stocks/:id", s.getStock)
	v1.GET("/stocks/:id/history", s.getStockHistory)
	v1.POST("/transactions/buy", s.buy)
	v1.POST("/transactions/sell", s.sell)
	v1.GET("/portfolio/:accountID", s.getPortfolio)

	admin := v1.Group("/admin")
	admin.POST("/stocks", s.addStock)
	admin.POST("/accounts", s.addAccount)
	admin.POST("/price-update", s.triggerSweep)
	admin.POST("/stocks/:id/price-update", s.updateOnePrice)

	return s
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}

// writeError maps service errors onto the HTTP taxonomy: missing entities
// are 404, business-rule violations 400 with a displayable message,
// unresolvable contention 409, and everything else a generic 500.
func (s *Server) writeError(c *gin.Context, where string, err error) {
	var funds *store.InsufficientFundsError
	var holdings *store.InsufficientHoldingsError
	switch {
	case errors.Is(err, store.ErrAccountNotFound), errors.Is(err, store.ErrStockNotFound):
		s.notFound(c, err.Error())
	case errors.As(err, &funds), errors.As(err, &holdings),
		errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, ledger.ErrNonPositiveQuantity),
		errors.Is(err, store.ErrSymbolExists):
		s.badRequest(c, err.Error())
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, apiError{Code: "conflict", Message: "please retry"})
	default:
		s.internalError(c, where, err)
	}
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(param)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Market data ---

func (s *Server) listStocks(c *gin.Context) {
	stocks, err := s.Market.ListStocks(c.Request.Context())
	if err != nil {
		s.writeError(c, "ListStocks", err)
		return
	}
	c.JSON(http.StatusOK, stocksResponse{Stocks: stocks, LastUpdated: time.Now().UTC()})
}

func (s *Server) getStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		s.badRequest(c, "invalid stock id")
		return
	}
	stock, err := s.Market.GetStock(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, "GetStock", err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

func (s *Server) getStockHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		s.badRequest(c, "invalid stock id")
		return
	}
	r, ok := domain.ParseRange(c.Query("range"))
	if !ok {
		s.badRequest(c, "invalid range (use 1h, 24h, 7d or 30d)")
		return
	}
	points, err := s.Market.History(c.Request.Context(), id, r)
	if err != nil {
		s.writeError(c, "History", err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{StockID: id, Range: r.String(), Points: points})
}

// --- Orders ---

func (s *Server) buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	res, err := s.Ledger.Buy(c.Request.Context(), req.AccountID, req.StockID, req.Amount)
	if err != nil {
		s.writeError(c, "Buy", err)
		return
	}
	c.JSON(http.StatusOK, orderResponse{
		OrderID:    res.Record.ID,
		Status:     "success",
		Quantity:   res.Record.Quantity,
		NewBalance: res.NewBalance,
	})
}

func (s *Server) sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	res, err := s.Ledger.Sell(c.Request.Context(), req.AccountID, req.StockID, req.Quantity)
	if err != nil {
		s.writeError(c, "Sell", err)
		return
	}
	proceeds := res.Record.Amount
	c.JSON(http.StatusOK, orderResponse{
		OrderID:    res.Record.ID,
		Status:     "success",
		Quantity:   res.Record.Quantity,
		NewBalance: res.NewBalance,
		Proceeds:   &proceeds,
	})
}

// --- Portfolio ---

func (s *Server) getPortfolio(c *gin.Context) {
	id, ok := parseID(c, "accountID")
	if !ok {
		s.badRequest(c, "invalid account id")
		return
	}
	summary, err := s.Portfolio.Summary(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, "Summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- Admin ---

func (s *Server) addStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	if !req.Price.IsPositive() {
		s.badRequest(c, "price must be greater than zero")
		return
	}
	if req.HistoryDays < 0 {
		s.badRequest(c, "history_days must not be negative")
		return
	}
	ctx := c.Request.Context()
	stock, err := s.Store.CreateStock(ctx, strings.ToUpper(strings.TrimSpace(req.Symbol)), req.Name, req.Price.Round(2))
	if err != nil {
		s.writeError(c, "CreateStock", err)
		return
	}
	if req.HistoryDays > 0 {
		if err := s.Updater.SeedHistory(ctx, stock.ID, stock.CurrentPrice, req.HistoryDays); err != nil {
			s.writeError(c, "SeedHistory", err)
			return
		}
	}
	c.JSON(http.StatusCreated, stock)
}

func (s *Server) addAccount(c *gin.Context) {
	var req addAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	balance := decimal.NewFromInt(10000)
	if req.Balance != nil {
		if req.Balance.IsNegative() {
			s.badRequest(c, "balance must not be negative")
			return
		}
		balance = req.Balance.Round(2)
	}
	acct, err := s.Store.CreateAccount(c.Request.Context(), balance)
	if err != nil {
		s.writeError(c, "CreateAccount", err)
		return
	}
	c.JSON(http.StatusCreated, acct)
}

func (s *Server) triggerSweep(c *gin.Context) {
	started := s.Scheduler.TriggerNow(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"started": started})
}

func (s *Server) updateOnePrice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		s.badRequest(c, "invalid stock id")
		return
	}
	if err := s.Updater.UpdateOne(c.Request.Context(), id); err != nil {
		s.writeError(c, "UpdateOne", err)
		return
	}
	stock, err := s.Market.GetStock(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, "GetStock", err)
		return
	}
	c.JSON(http.StatusOK, stock)
}
