package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultVolumeDecimals lot precision of XBT pairs on the exchange.
const DefaultVolumeDecimals int32 = 8

// OrderVolume returns how much base currency the fiat amount buys at price,
// truncated toward zero to the given number of decimals.
func OrderVolume(amount, price decimal.Decimal, decimals int32) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be positive, got %s", price.String())
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	if decimals < 0 {
		decimals = DefaultVolumeDecimals
	}

	volume := amount.Div(price).Truncate(decimals)
	if volume.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s / %s at %d decimals", ErrZeroVolume, amount.String(), price.String(), decimals)
	}

	return volume, nil
}
