package orderbookv1

// PriceLevel is the FIFO queue of resting orders at one price tick on one
// side of a book. Time priority within a price comes from the queue order
// alone: append always lands at the tail, and the head is always the
// longest-resting order.
type PriceLevel struct {
	Price  int64
	Size   int64
	Volume int64

	head *Order
	tail *Order
}

func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Head returns the order with the highest priority at this level, or nil.
func (l *PriceLevel) Head() *Order {
	return l.head
}

// Append links order at the tail of the level's queue. O(1).
func (l *PriceLevel) Append(order *Order) {
	order.Level = l
	order.Prev = nil
	order.Next = nil

	if l.Size == 0 {
		l.head = order
		l.tail = order
	} else {
		l.tail.Next = order
		order.Prev = l.tail
		l.tail = order
	}

	l.Size++
	l.Volume += order.Volume
}

// Unlink splices order out of the level's queue. O(1). The caller must
// verify order.Level == l before calling.
func (l *PriceLevel) Unlink(order *Order) {
	switch {
	case order.Prev != nil && order.Next != nil:
		order.Prev.Next = order.Next
		order.Next.Prev = order.Prev
	case order.Prev == nil && order.Next == nil:
		l.head = nil
		l.tail = nil
	case order.Prev == nil:
		order.Next.Prev = nil
		l.head = order.Next
	default: // order.Next == nil
		order.Prev.Next = nil
		l.tail = order.Prev
	}

	order.Prev = nil
	order.Next = nil
	order.Level = nil

	l.Size--
	l.Volume -= order.Volume
}

// IsEmpty reports whether the level currently holds no resting orders. A
// level may exist with Size == 0 transiently; it must never be surfaced as a
// book's best price.
func (l *PriceLevel) IsEmpty() bool {
	return l.Size == 0
}
