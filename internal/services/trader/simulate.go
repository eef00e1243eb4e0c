package trader

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/storage/simstate"
)

const (
	simulateTxPrefix         = "SIM-"
	insufficientFundsMessage = "EOrder:Insufficient funds"
)

// DefaultSimulateQuoteBalance starting quote balance of a fresh paper wallet.
var DefaultSimulateQuoteBalance = decimal.NewFromInt(10000)

// SimulateTrader fills limit buys against a paper wallet at the limit price.
type SimulateTrader struct {
	mu         sync.RWMutex
	pair       domain.Pair
	logger     *zap.Logger
	wallet     map[string]decimal.Decimal
	orders     int
	stateStore *simstate.Store
}

// NewSimulateTrader creates a SimulateTrader. stateStore may be nil to keep the wallet in memory only.
func NewSimulateTrader(pair domain.Pair, logger *zap.Logger, stateStore *simstate.Store) (*SimulateTrader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	trader := &SimulateTrader{
		pair:       pair,
		logger:     logger,
		wallet:     map[string]decimal.Decimal{pair.From: decimal.Zero, pair.To: DefaultSimulateQuoteBalance},
		stateStore: stateStore,
	}
	if err := trader.restoreState(); err != nil {
		return nil, errors.Wrap(err, "restore simulate state")
	}

	logger.Info("simulate init",
		zap.String("pair", pair.String()),
		zap.String("base", trader.wallet[pair.From].String()),
		zap.String("quote", trader.wallet[pair.To].String()))

	return trader, nil
}

// PlaceOrder fills req immediately. Orders the wallet cannot afford are rejected
// with the same message the exchange uses.
func (t *SimulateTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Pair != t.pair.Symbol() {
		return nil, fmt.Errorf("simulate trader handles %s, got %s", t.pair.Symbol(), req.Pair)
	}
	if !req.Volume.IsPositive() || !req.Price.IsPositive() {
		return nil, fmt.Errorf("volume and price must be positive, got %s @ %s", req.Volume.String(), req.Price.String())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cost := req.Volume.Mul(req.Price)

	switch req.Side {
	case domain.SideBuy:
		if t.wallet[t.pair.To].LessThan(cost) {
			t.logger.Warn("simulated order rejected",
				zap.String("need", cost.String()),
				zap.String("have", t.wallet[t.pair.To].String()))
			return &domain.OrderResult{
				Status: domain.OrderStatusRejected,
				Errors: []string{insufficientFundsMessage},
			}, nil
		}
		t.wallet[t.pair.To] = t.wallet[t.pair.To].Sub(cost)
		t.wallet[t.pair.From] = t.wallet[t.pair.From].Add(req.Volume)
	case domain.SideSell:
		if t.wallet[t.pair.From].LessThan(req.Volume) {
			return &domain.OrderResult{
				Status: domain.OrderStatusRejected,
				Errors: []string{insufficientFundsMessage},
			}, nil
		}
		t.wallet[t.pair.From] = t.wallet[t.pair.From].Sub(req.Volume)
		t.wallet[t.pair.To] = t.wallet[t.pair.To].Add(cost)
	default:
		return nil, fmt.Errorf("unknown order side %q", req.Side)
	}

	t.orders++
	t.persist()

	txID := simulateTxPrefix + uuid.New().String()
	description := fmt.Sprintf("%s %s %s @ %s %s", req.Side, req.Volume.String(), req.Pair, req.OrderType, req.Price.String())

	t.logger.Info("Simulated order filled",
		zap.String("txid", txID),
		zap.String("volume", req.Volume.String()),
		zap.String("price", req.Price.String()),
		zap.String(t.pair.From+"_balance", t.wallet[t.pair.From].String()),
		zap.String(t.pair.To+"_balance", t.wallet[t.pair.To].String()))

	return &domain.OrderResult{
		Status:      domain.OrderStatusAccepted,
		TxIDs:       []string{txID},
		Description: description,
	}, nil
}

// GetBalance returns the paper balance of currency.
func (t *SimulateTrader) GetBalance(_ context.Context, currency string) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.wallet[currency], nil
}

func (t *SimulateTrader) restoreState() error {
	state, err := t.stateStore.Load()
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	if state.Pair != "" && state.Pair != t.pair.String() {
		return fmt.Errorf("state belongs to %s, not %s", state.Pair, t.pair.String())
	}

	for currency, amount := range state.Wallet {
		t.wallet[currency] = amount
	}
	t.orders = state.Orders

	return nil
}

func (t *SimulateTrader) persist() {
	wallet := make(map[string]decimal.Decimal, len(t.wallet))
	for currency, amount := range t.wallet {
		wallet[currency] = amount
	}

	err := t.stateStore.Save(simstate.State{
		Pair:   t.pair.String(),
		Wallet: wallet,
		Orders: t.orders,
	})
	if err != nil {
		t.logger.Warn("failed to persist simulate state", zap.Error(err))
	}
}
