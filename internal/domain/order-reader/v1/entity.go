package orderreaderv1

import orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"

// EventType names which matching-engine operation an OrderEvent drives.
type EventType string

const (
	EventTypeAdd   EventType = "add"
	EventTypeAmend EventType = "amend"
	EventTypePull  EventType = "pull"
)

// OrderEvent is the wire shape of one order instruction. It carries enough
// fields to drive any of add_order/amend_order/pull_order; fields that don't
// apply to a given Type are left zero. NewPrice/NewVolume carry the amended
// parameters for EventTypeAmend; Price/Volume are unused in that case.
type OrderEvent struct {
	Type      EventType        `json:"type"`
	OrderID   uint64           `json:"orderId"`
	Symbol    string           `json:"symbol"`
	Side      orderbookv1.Side `json:"side"`
	Price     int64            `json:"price"`
	Volume    int64            `json:"volume"`
	NewPrice  int64            `json:"newPrice,omitempty"`
	NewVolume int64            `json:"newVolume,omitempty"`
}
