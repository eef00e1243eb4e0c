package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus outcome of an order submission as reported by the exchange.
type OrderStatus string

const (
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusRejected OrderStatus = "rejected"
)

// OrderResult parsed exchange answer to an order submission.
type OrderResult struct {
	Status OrderStatus `json:"status"`
	// TxIDs transaction ids assigned to the order.
	TxIDs []string `json:"txid,omitempty"`
	// Description human-readable order description returned by the exchange.
	Description string `json:"description,omitempty"`
	// Errors exchange error messages of a rejected order.
	Errors []string `json:"errors,omitempty"`
	// Raw unmodified response body.
	Raw string `json:"-"`
}

// Accepted reports whether the exchange accepted the order.
func (r *OrderResult) Accepted() bool {
	return r != nil && r.Status == OrderStatusAccepted
}

// TradeEvent trading event.
type TradeEvent struct {
	Pair   Pair            `json:"pair"`
	Side   Side            `json:"side"`
	Volume decimal.Decimal `json:"volume"`
	Price  decimal.Decimal `json:"price"`
	Nonce  uint64          `json:"nonce"`
	Result *OrderResult    `json:"result,omitempty"`
	Time   time.Time       `json:"time"`
}

// String returns a human-readable string representation.
func (t *TradeEvent) String() string {
	status := "unknown"
	if t.Result != nil {
		status = string(t.Result.Status)
	}
	s := fmt.Sprintf("%s %s volume: %s price: %s status: %s", t.Pair.String(), t.Side.String(),
		t.Volume.String(), t.Price.String(), status)
	if t.Result != nil && len(t.Result.TxIDs) > 0 {
		s += " txid: " + strings.Join(t.Result.TxIDs, ",")
	}
	if t.Result != nil && len(t.Result.Errors) > 0 {
		s += " errors: " + strings.Join(t.Result.Errors, "; ")
	}
	return s
}

// TradeRecordStatus lifecycle state of a journaled trade.
type TradeRecordStatus string

const (
	TradeRecordPending  TradeRecordStatus = "pending"
	TradeRecordDone     TradeRecordStatus = "done"
	TradeRecordRejected TradeRecordStatus = "rejected"
	TradeRecordFailed   TradeRecordStatus = "failed"
)

// TradeRecord journal entry for a single trade attempt. The same ID is written
// again on every status change; the latest write wins.
type TradeRecord struct {
	ID     string            `json:"id"`
	Status TradeRecordStatus `json:"status"`
	Nonce  uint64            `json:"nonce"`
	Pair   string            `json:"pair"`
	Side   Side              `json:"side"`
	Volume decimal.Decimal   `json:"volume"`
	Price  decimal.Decimal   `json:"price"`
	Time   time.Time         `json:"time"`
	TxIDs  []string          `json:"txid,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// TradeRecordEntry journal record with its WAL index.
type TradeRecordEntry struct {
	Index  uint64      `json:"index"`
	Record TradeRecord `json:"record"`
}
