package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderVolume(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		price    decimal.Decimal
		decimals int32
		expected string
		errIs    error
		wantErr  bool
	}{
		{
			name:     "exact division",
			amount:   decimal.NewFromInt(100),
			price:    decimal.NewFromInt(50000),
			decimals: 8,
			expected: "0.002",
		},
		{
			name:     "truncates repeating decimals",
			amount:   decimal.NewFromInt(100),
			price:    decimal.NewFromInt(3),
			decimals: 8,
			expected: "33.33333333",
		},
		{
			name:     "truncates instead of rounding up",
			amount:   decimal.NewFromInt(2),
			price:    decimal.NewFromInt(3),
			decimals: 4,
			expected: "0.6666",
		},
		{
			name:     "fractional price",
			amount:   decimal.NewFromInt(50),
			price:    decimal.RequireFromString("65000.1"),
			decimals: 8,
			expected: "0.00076922",
		},
		{
			name:     "negative decimals fall back to default precision",
			amount:   decimal.NewFromInt(1),
			price:    decimal.NewFromInt(3),
			decimals: -1,
			expected: "0.33333333",
		},
		{
			name:     "budget below one lot",
			amount:   decimal.NewFromInt(1),
			price:    decimal.NewFromInt(70000),
			decimals: 4,
			errIs:    ErrZeroVolume,
			wantErr:  true,
		},
		{
			name:     "zero price",
			amount:   decimal.NewFromInt(100),
			price:    decimal.Zero,
			decimals: 8,
			wantErr:  true,
		},
		{
			name:     "negative amount",
			amount:   decimal.NewFromInt(-100),
			price:    decimal.NewFromInt(50000),
			decimals: 8,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			volume, err := OrderVolume(tt.amount, tt.price, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
				assert.True(t, volume.IsZero())
				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(volume),
				"expected %s, got %s", tt.expected, volume.String())
			assert.Equal(t, tt.expected, volume.String())
		})
	}
}
