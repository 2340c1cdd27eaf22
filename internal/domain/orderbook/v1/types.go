package orderbookv1

import (
	"errors"
	"fmt"
)

var (
	ErrOrderExists    = errors.New("order_id already exists")
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidPrice   = errors.New("price must be positive")
	ErrInvalidVolume  = errors.New("volume must be positive")
	ErrUnitMisaligned = errors.New("price is not a multiple of the book's unit")
)

// Side is the direction of an order relative to the book.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// Order is a single resting or incoming order. Price and Volume are in whole
// ticks; the book that owns an Order is responsible for aligning Price to its
// unit before an Order is ever constructed.
//
// Level, Prev and Next are the Order's position within its PriceLevel's FIFO
// queue and are owned by the PriceLevel, not by callers; a caller holding an
// *Order obtained from OrderByID must treat it as a snapshot, not a live handle.
type Order struct {
	ID     uint64
	Side   Side
	Price  int64
	Volume int64

	Level *PriceLevel
	Prev  *Order
	Next  *Order
}

func NewOrder(id uint64, side Side, price, volume int64) *Order {
	return &Order{ID: id, Side: side, Price: price, Volume: volume}
}

func (o *Order) String() string {
	prev, next := "nil", "nil"
	if o.Prev != nil {
		prev = fmt.Sprintf("%d", o.Prev.ID)
	}
	if o.Next != nil {
		next = fmt.Sprintf("%d", o.Next.ID)
	}
	return fmt.Sprintf("Order[id:%d side:%s price:%d volume:%d prev:%s next:%s]",
		o.ID, o.Side, o.Price, o.Volume, prev, next)
}

// Snapshot returns a copy of o with its queue links stripped, safe to hand
// outside the book that owns it.
func (o *Order) Snapshot() Order {
	return Order{ID: o.ID, Side: o.Side, Price: o.Price, Volume: o.Volume}
}

// Fill records a counter order consumed by an incoming order.
type Fill struct {
	OtherOrderID uint64
	TradePrice   int64
	TradeVolume  int64
}

// BestBidOffer is a snapshot of the best price and resting volume on each
// side of a book. Zero fields mean that side (or the book) has no resting
// orders.
type BestBidOffer struct {
	BidVolume int64
	BidPrice  int64

	AskVolume int64
	AskPrice  int64
}
