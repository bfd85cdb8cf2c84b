package cache

import (
	"strconv"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
)

// Key builders for the market-data cache. Keeping them here means every
// caller spells the same key the same way.

func StocksKey() string { return "stocks:all" }

func StockKey(id int64) string { return "stocks:" + strconv.FormatInt(id, 10) }

func HistoryKey(id int64, r domain.Range) string {
	return "history:" + strconv.FormatInt(id, 10) + ":" + r.String()
}
