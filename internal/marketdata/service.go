// Package marketdata is the read surface over the price store: stock
// listings and price history, with a short-TTL cache in front since these
// are the hottest endpoints and only go stale for one cache interval.
package marketdata

import (
	"context"
	"time"

	"github.com/RajarshiPrattipati/Auragold/internal/cache"
	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

type Service struct {
	store store.Store
	cache *cache.Cache // nil disables caching
}

func New(st store.Store, c *cache.Cache) *Service {
	return &Service{store: st, cache: c}
}

func (s *Service) ListStocks(ctx context.Context) ([]models.Stock, error) {
	key := cache.StocksKey()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if stocks, ok := v.([]models.Stock); ok {
				return stocks, nil
			}
		}
	}
	stocks, err := s.store.ListStocks(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, stocks)
	}
	return stocks, nil
}

func (s *Service) GetStock(ctx context.Context, id int64) (models.Stock, error) {
	key := cache.StockKey(id)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if stock, ok := v.(models.Stock); ok {
				return stock, nil
			}
		}
	}
	stock, err := s.store.GetStock(ctx, id)
	if err != nil {
		return models.Stock{}, err
	}
	if s.cache != nil {
		s.cache.Set(key, stock)
	}
	return stock, nil
}

// History returns the stock's price points inside the range window ending now.
func (s *Service) History(ctx context.Context, id int64, r domain.Range) ([]models.PricePoint, error) {
	key := cache.HistoryKey(id, r)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if points, ok := v.([]models.PricePoint); ok {
				return points, nil
			}
		}
	}
	since := time.Now().UTC().Add(-r.Duration())
	points, err := s.store.PriceHistory(ctx, id, since)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, points)
	}
	return points, nil
}
