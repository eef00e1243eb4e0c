package simstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

func TestStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, domain.Pair{From: "XBT", To: "USD"})
	require.NoError(t, err)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state, "missing file yields nil state")

	err = store.Save(State{
		Pair:   "XBT_USD",
		Wallet: map[string]decimal.Decimal{"XBT": decimal.RequireFromString("0.002"), "USD": decimal.NewFromInt(9900)},
		Orders: 1,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "xbt_usd.json"))
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.Orders)
	assert.True(t, decimal.RequireFromString("0.002").Equal(loaded.Wallet["XBT"]))
	assert.True(t, decimal.NewFromInt(9900).Equal(loaded.Wallet["USD"]))
}

func TestStore_LoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, domain.Pair{From: "XBT", To: "USD"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "xbt_usd.json"), []byte("{"), 0o644))

	_, err = store.Load()
	assert.Error(t, err)
}
