// Package trader submits orders to the exchange or to a paper wallet.
package trader

import (
	"context"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Trader places a single order and reports the exchange answer.
type Trader interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
}

var (
	_ Trader = (*KrakenTrader)(nil)
	_ Trader = (*SimulateTrader)(nil)
)
