package domain

import (
	"strings"
	"time"
)

// Side is the closed set of order sides.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) String() string { return string(s) }
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	default:
		return "", false
	}
}

// Range is the closed set of price-history windows.
type Range string

const (
	RangeHour  Range = "1h"
	RangeDay   Range = "24h"
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
)

func (r Range) String() string { return string(r) }
func (r Range) Valid() bool {
	switch r {
	case RangeHour, RangeDay, RangeWeek, RangeMonth:
		return true
	default:
		return false
	}
}

// Duration is the width of the history window ending at "now".
func (r Range) Duration() time.Duration {
	switch r {
	case RangeHour:
		return time.Hour
	case RangeDay:
		return 24 * time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func ParseRange(s string) (Range, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "24h":
		return RangeDay, true
	case "1h":
		return RangeHour, true
	case "7d":
		return RangeWeek, true
	case "30d":
		return RangeMonth, true
	default:
		return "", false
	}
}
