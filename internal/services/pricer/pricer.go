// Package pricer provides best-bid lookups for trading pairs.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Pricer returns the current price of a pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

var _ Pricer = (*KrakenPricer)(nil)
