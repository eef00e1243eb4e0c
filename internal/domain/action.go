package domain

// Side order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType order execution type.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// String returns the string representation of the side.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the Side value is valid.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return string(t)
}

// IsValid checks if the OrderType value is valid.
func (t OrderType) IsValid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}
