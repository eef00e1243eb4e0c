// Package dca implements the fixed-budget dollar-cost-averaging trade cycle.
package dca

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

type pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

type tradersvc interface {
	// PlaceOrder submits the order. A rejected order is a result, not an error.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
}

type nonceSource interface {
	Next() uint64
}

// Strategy buys a fixed fiat amount of the base currency on every Trade call.
type Strategy struct {
	pair           domain.Pair
	amount         decimal.Decimal
	volumeDecimals int32
	pricer         pricer
	trader         tradersvc
	nonces         nonceSource
	journal        *tradeJournal
	l              *zap.Logger
	now            func() time.Time
}

// NewDCAStrategy returns a configured DCA strategy. amount is in the quote currency.
func NewDCAStrategy(l *zap.Logger, pair domain.Pair, amount decimal.Decimal, volumeDecimals int32,
	pricer pricer, trader tradersvc, nonces nonceSource, store recordStore) (*Strategy, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	if pricer == nil || trader == nil || nonces == nil || store == nil {
		return nil, errors.New("pricer, trader, nonce source and trade store are required")
	}
	if l == nil {
		l = zap.NewNop()
	}

	return &Strategy{
		pair:           pair,
		amount:         amount,
		volumeDecimals: volumeDecimals,
		pricer:         pricer,
		trader:         trader,
		nonces:         nonces,
		journal:        newTradeJournal(store),
		l:              l,
		now:            time.Now,
	}, nil
}

// Initialize settles journal records left pending by a previous run.
func (d *Strategy) Initialize(ctx context.Context) error {
	d.l.Info("Starting DCA strategy",
		zap.String("pair", d.pair.String()),
		zap.String("amount", d.amount.String()),
		zap.Int32("volume_decimals", d.volumeDecimals))

	return d.reconcilePending(ctx)
}

// Trade performs one trade cycle: best bid, volume, nonce, limit buy, journal.
func (d *Strategy) Trade(ctx context.Context) (*domain.TradeEvent, error) {
	price, err := d.pricer.GetPrice(ctx, d.pair)
	if err != nil {
		return nil, domain.NewPriceFetchError(errors.Wrapf(err, "pricer failed for pair %s", d.pair.String()))
	}

	volume, err := domain.OrderVolume(d.amount, price, d.volumeDecimals)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compute volume for %s", d.pair.String())
	}

	req := domain.NewLimitBuy(d.nonces.Next(), d.pair.Symbol(), volume, price)
	operationTime := d.now()

	d.l.Info("Buying",
		zap.String("pair", d.pair.String()),
		zap.String("volume", volume.String()),
		zap.String("price", price.String()),
		zap.String("amount", d.amount.String()),
		zap.Uint64("nonce", req.Nonce))

	record, err := d.journal.Prepare(req, operationTime)
	if err != nil {
		return nil, err
	}

	result, err := d.trader.PlaceOrder(ctx, req)
	if err != nil {
		if jErr := d.journal.MarkFailed(record, err); jErr != nil {
			d.l.Error("failed to persist failed trade status", zap.Error(jErr), zap.String("trade_id", record.ID))
		}
		return nil, domain.NewSubmissionError(errors.Wrapf(err, "trader buy failed for pair %s with volume %s",
			d.pair.String(), volume.String()))
	}

	event := &domain.TradeEvent{
		Pair:   d.pair,
		Side:   req.Side,
		Volume: volume,
		Price:  price,
		Nonce:  req.Nonce,
		Result: result,
		Time:   operationTime,
	}

	if result.Accepted() {
		err = d.journal.MarkDone(record, result.TxIDs)
	} else {
		d.l.Warn("Order rejected by exchange",
			zap.String("pair", d.pair.String()),
			zap.Strings("errors", result.Errors))
		err = d.journal.MarkRejected(record, result.Errors)
	}
	if err != nil {
		return event, errors.Wrapf(err, "failed to journal trade %s", record.ID)
	}

	return event, nil
}
