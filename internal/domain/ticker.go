package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickerSnapshot best bid observed for a pair at a moment in time.
type TickerSnapshot struct {
	Pair    Pair            `json:"pair"`
	BestBid decimal.Decimal `json:"best_bid"`
	Time    time.Time       `json:"time"`
}
