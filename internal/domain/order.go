package domain

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderRequest order to be signed and submitted to the private AddOrder endpoint.
type OrderRequest struct {
	// Nonce millisecond epoch timestamp, strictly increasing per API secret.
	Nonce     uint64
	OrderType OrderType
	Side      Side
	// Volume quantity of the base currency.
	Volume decimal.Decimal
	// Pair exchange symbol, e.g. XBTUSD.
	Pair string
	// Price limit price in the quote currency.
	Price decimal.Decimal
}

// orderWire fixes the field order of the JSON body; the exchange verifies the
// signature over these exact bytes.
type orderWire struct {
	Nonce     string `json:"nonce"`
	OrderType string `json:"ordertype"`
	Type      string `json:"type"`
	Volume    string `json:"volume"`
	Pair      string `json:"pair"`
	Price     string `json:"price"`
}

// NewLimitBuy builds a limit buy order.
func NewLimitBuy(nonce uint64, pair string, volume, price decimal.Decimal) OrderRequest {
	return OrderRequest{
		Nonce:     nonce,
		OrderType: OrderTypeLimit,
		Side:      SideBuy,
		Volume:    volume,
		Pair:      pair,
		Price:     price,
	}
}

// NonceString returns the nonce in decimal notation.
func (r OrderRequest) NonceString() string {
	return strconv.FormatUint(r.Nonce, 10)
}

// Body returns the canonical JSON body of the request.
func (r OrderRequest) Body() ([]byte, error) {
	if !r.OrderType.IsValid() {
		return nil, errors.Errorf("invalid order type %q", r.OrderType)
	}
	if !r.Side.IsValid() {
		return nil, errors.Errorf("invalid order side %q", r.Side)
	}
	if r.Nonce == 0 {
		return nil, ErrMissingNonce
	}

	body, err := json.Marshal(orderWire{
		Nonce:     r.NonceString(),
		OrderType: r.OrderType.String(),
		Type:      r.Side.String(),
		Volume:    r.Volume.String(),
		Pair:      r.Pair,
		Price:     r.Price.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal order request")
	}
	return body, nil
}
