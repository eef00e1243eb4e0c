package trader

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/storage/simstate"
)

var simPair = domain.Pair{From: "XBT", To: "USD"}

func TestSimulateTrader_NewSimulateTrader(t *testing.T) {
	tr, err := NewSimulateTrader(simPair, zap.NewNop(), nil)
	require.NoError(t, err)

	base, err := tr.GetBalance(context.Background(), "XBT")
	require.NoError(t, err)
	quote, err := tr.GetBalance(context.Background(), "USD")
	require.NoError(t, err)

	assert.True(t, base.IsZero())
	assert.True(t, quote.Equal(decimal.NewFromInt(10000)))
}

func TestSimulateTrader_PlaceOrder(t *testing.T) {
	tr, err := NewSimulateTrader(simPair, zap.NewNop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	req := domain.NewLimitBuy(1, "XBTUSD", decimal.RequireFromString("0.002"), decimal.NewFromInt(50000))
	result, err := tr.PlaceOrder(ctx, req)
	require.NoError(t, err)

	assert.True(t, result.Accepted())
	require.Len(t, result.TxIDs, 1)
	assert.True(t, strings.HasPrefix(result.TxIDs[0], "SIM-"))

	base, _ := tr.GetBalance(ctx, "XBT")
	quote, _ := tr.GetBalance(ctx, "USD")
	assert.True(t, base.Equal(decimal.RequireFromString("0.002")))
	assert.True(t, quote.Equal(decimal.NewFromInt(9900)), "got %s", quote.String())
}

func TestSimulateTrader_InsufficientFunds(t *testing.T) {
	tr, err := NewSimulateTrader(simPair, zap.NewNop(), nil)
	require.NoError(t, err)

	req := domain.NewLimitBuy(1, "XBTUSD", decimal.NewFromInt(1), decimal.NewFromInt(50000))
	result, err := tr.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, result.Accepted())
	assert.Equal(t, []string{"EOrder:Insufficient funds"}, result.Errors)

	quote, _ := tr.GetBalance(context.Background(), "USD")
	assert.True(t, quote.Equal(decimal.NewFromInt(10000)), "rejected order must not touch the wallet")
}

func TestSimulateTrader_InvalidOrders(t *testing.T) {
	tr, err := NewSimulateTrader(simPair, zap.NewNop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = tr.PlaceOrder(ctx, domain.NewLimitBuy(1, "ETHUSD", decimal.NewFromInt(1), decimal.NewFromInt(1)))
	assert.Error(t, err)

	_, err = tr.PlaceOrder(ctx, domain.NewLimitBuy(1, "XBTUSD", decimal.Zero, decimal.NewFromInt(1)))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = tr.PlaceOrder(cancelled, domain.NewLimitBuy(1, "XBTUSD", decimal.NewFromInt(1), decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulateTrader_StatePersists(t *testing.T) {
	store, err := simstate.NewStore(t.TempDir(), simPair)
	require.NoError(t, err)

	tr, err := NewSimulateTrader(simPair, zap.NewNop(), store)
	require.NoError(t, err)

	req := domain.NewLimitBuy(1, "XBTUSD", decimal.RequireFromString("0.01"), decimal.NewFromInt(50000))
	_, err = tr.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	restored, err := NewSimulateTrader(simPair, zap.NewNop(), store)
	require.NoError(t, err)

	base, _ := restored.GetBalance(context.Background(), "XBT")
	quote, _ := restored.GetBalance(context.Background(), "USD")
	assert.True(t, base.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, quote.Equal(decimal.NewFromInt(9500)))
}
