package orderbook

import (
	"fmt"
	"strings"
	"sync"

	orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/riverstonefx/clob-engine/internal/domain/snapshot/v1"
)

// OrderBook is a single symbol's price-time priority book: an order-id index,
// a paged directory of price levels per side, and cached best-bid/best-ask
// handles kept consistent on every mutation.
type OrderBook struct {
	mu sync.RWMutex

	Symbol string
	Unit   int64

	orders     map[uint64]*orderbookv1.Order
	buyLevels  *orderbookv1.PagedDirectory[*orderbookv1.PriceLevel]
	sellLevels *orderbookv1.PagedDirectory[*orderbookv1.PriceLevel]

	orderCount uint64
	buyVolume  int64
	sellVolume int64

	bestBid *orderbookv1.PriceLevel
	bestAsk *orderbookv1.PriceLevel
}

// NewOrderBook creates an empty book for symbol, quoting prices in multiples
// of unit ticks.
func NewOrderBook(symbol string, unit int64) *OrderBook {
	if unit <= 0 {
		unit = 1
	}
	return &OrderBook{
		Symbol:     symbol,
		Unit:       unit,
		orders:     make(map[uint64]*orderbookv1.Order),
		buyLevels:  orderbookv1.NewPagedDirectory[*orderbookv1.PriceLevel](orderbookv1.DefaultPageSize),
		sellLevels: orderbookv1.NewPagedDirectory[*orderbookv1.PriceLevel](orderbookv1.DefaultPageSize),
	}
}

func (b *OrderBook) tickIndex(price int64) (int64, bool) {
	if price <= 0 {
		return 0, false
	}
	if price%b.Unit != 0 {
		return 0, false
	}
	return price / b.Unit, true
}

func (b *OrderBook) levelsFor(side orderbookv1.Side) *orderbookv1.PagedDirectory[*orderbookv1.PriceLevel] {
	if side == orderbookv1.Buy {
		return b.buyLevels
	}
	return b.sellLevels
}

// Insert adds order to its side's level at order.Price, creating the level
// if necessary, and updates best-bid/best-ask. Rejects a duplicate order_id
// or a price that doesn't align to the book's unit.
func (b *OrderBook) Insert(order *orderbookv1.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertLocked(order)
}

func (b *OrderBook) insertLocked(order *orderbookv1.Order) error {
	if order == nil {
		return orderbookv1.ErrOrderNotFound
	}
	if _, exists := b.orders[order.ID]; exists {
		return fmt.Errorf("%w: order_id %d", orderbookv1.ErrOrderExists, order.ID)
	}
	if order.Volume <= 0 {
		return orderbookv1.ErrInvalidVolume
	}
	tick, aligned := b.tickIndex(order.Price)
	if !aligned {
		return fmt.Errorf("%w: price %d, unit %d", orderbookv1.ErrUnitMisaligned, order.Price, b.Unit)
	}

	levels := b.levelsFor(order.Side)
	level := levels.Get(uint64(tick))
	if level == nil {
		level = orderbookv1.NewPriceLevel(order.Price)
		levels.Set(uint64(tick), level)
	}

	level.Append(order)

	b.orders[order.ID] = order
	b.orderCount++
	if order.Side == orderbookv1.Buy {
		b.buyVolume += order.Volume
	} else {
		b.sellVolume += order.Volume
	}

	b.adoptIfBetter(order.Side, level)

	return nil
}

func (b *OrderBook) adoptIfBetter(side orderbookv1.Side, level *orderbookv1.PriceLevel) {
	if side == orderbookv1.Buy {
		if b.bestBid == nil || level.Price > b.bestBid.Price {
			b.bestBid = level
		}
		return
	}
	if b.bestAsk == nil || level.Price < b.bestAsk.Price {
		b.bestAsk = level
	}
}

// Amend changes an existing order's price and/or volume. A same-price
// amend mutates volume in place and preserves the order's queue position; a
// price change detaches and reinserts the order, forfeiting priority.
func (b *OrderBook) Amend(orderID uint64, newPrice, newVolume int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, exists := b.orders[orderID]
	if !exists {
		return fmt.Errorf("%w: order_id %d", orderbookv1.ErrOrderNotFound, orderID)
	}
	if newVolume <= 0 {
		return orderbookv1.ErrInvalidVolume
	}
	if _, aligned := b.tickIndex(newPrice); !aligned {
		return fmt.Errorf("%w: price %d, unit %d", orderbookv1.ErrUnitMisaligned, newPrice, b.Unit)
	}

	if order.Price == newPrice {
		delta := newVolume - order.Volume
		order.Level.Volume += delta
		if order.Side == orderbookv1.Buy {
			b.buyVolume += delta
		} else {
			b.sellVolume += delta
		}
		order.Volume = newVolume
		return nil
	}

	if _, err := b.detachLocked(orderID); err != nil {
		return err
	}
	order.Price = newPrice
	order.Volume = newVolume
	return b.insertLocked(order)
}

// Detach unlinks an order from its level and the order-id index without
// destroying the handle, rescanning for a new best price if the level it
// occupied is now empty and was the cached best.
func (b *OrderBook) Detach(orderID uint64) (*orderbookv1.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.detachLocked(orderID)
}

func (b *OrderBook) detachLocked(orderID uint64) (*orderbookv1.Order, error) {
	order, exists := b.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("%w: order_id %d", orderbookv1.ErrOrderNotFound, orderID)
	}

	level := order.Level
	tick := order.Price / b.Unit

	delete(b.orders, orderID)
	level.Unlink(order)

	b.orderCount--
	if order.Side == orderbookv1.Buy {
		b.buyVolume -= order.Volume
	} else {
		b.sellVolume -= order.Volume
	}

	b.rescanBestIfExhausted(order.Side, level, tick)

	return order, nil
}

// rescanBestIfExhausted re-derives the cached best price for side when the
// level that was just drained was the cached best, scanning one tick at a
// time toward worse prices until a non-empty level is found or the
// directory is exhausted.
func (b *OrderBook) rescanBestIfExhausted(side orderbookv1.Side, drained *orderbookv1.PriceLevel, tick int64) {
	if side == orderbookv1.Buy {
		if b.bestBid != drained || !drained.IsEmpty() {
			return
		}
		b.bestBid = nil
		for idx := tick - 1; idx >= 0; idx-- {
			if lvl := b.buyLevels.Get(uint64(idx)); lvl != nil && !lvl.IsEmpty() {
				b.bestBid = lvl
				return
			}
		}
		return
	}

	if b.bestAsk != drained || !drained.IsEmpty() {
		return
	}
	b.bestAsk = nil
	maxIdx := int64(b.sellLevels.PageCount())*int64(orderbookv1.DefaultPageSize) - 1
	for idx := tick + 1; idx <= maxIdx; idx++ {
		if lvl := b.sellLevels.Get(uint64(idx)); lvl != nil && !lvl.IsEmpty() {
			b.bestAsk = lvl
			return
		}
	}
}

// Remove detaches and destroys an order; it returns false if the order_id
// is unknown.
func (b *OrderBook) Remove(orderID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.detachLocked(orderID)
	return err == nil
}

// BestOrderID returns the head order id of the book side that would match
// against an incoming order of the given side: for an incoming Buy this is
// the best (lowest-priced) resting Sell, and vice versa. Returns 0 if the
// counter side has no resting orders.
func (b *OrderBook) BestOrderID(incomingSide orderbookv1.Side) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if incomingSide == orderbookv1.Buy {
		if b.bestAsk == nil || b.bestAsk.Head() == nil {
			return 0
		}
		return b.bestAsk.Head().ID
	}
	if b.bestBid == nil || b.bestBid.Head() == nil {
		return 0
	}
	return b.bestBid.Head().ID
}

// VolumeAt returns the resting volume at price on side, or 0 if no level
// exists there.
func (b *OrderBook) VolumeAt(side orderbookv1.Side, price int64) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tick, aligned := b.tickIndex(price)
	if !aligned {
		return 0
	}
	level := b.levelsFor(side).Get(uint64(tick))
	if level == nil {
		return 0
	}
	return level.Volume
}

// OrderIDs returns every order_id currently resting in the book, in no
// particular order. Used when re-indexing a set of books into an engine.
func (b *OrderBook) OrderIDs() []uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]uint64, 0, len(b.orders))
	for id := range b.orders {
		ids = append(ids, id)
	}
	return ids
}

// OrderByID returns a value snapshot of the order, and whether it was found.
func (b *OrderBook) OrderByID(orderID uint64) (orderbookv1.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order, exists := b.orders[orderID]
	if !exists {
		return orderbookv1.Order{}, false
	}
	return order.Snapshot(), true
}

// OrderCount, BuyVolume, SellVolume, HighestBuyPrice and LowestSellPrice
// report the book's aggregate counters.
func (b *OrderBook) OrderCount() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.orderCount
}

func (b *OrderBook) BuyVolume() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buyVolume
}

func (b *OrderBook) SellVolume() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sellVolume
}

func (b *OrderBook) HighestBuyPrice() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bestBid == nil {
		return 0
	}
	return b.bestBid.Price
}

func (b *OrderBook) LowestSellPrice() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bestAsk == nil {
		return 0
	}
	return b.bestAsk.Price
}

// DebugString fine-prints the book and every resting order. Diagnostics
// only; never relied on for any invariant.
func (b *OrderBook) DebugString() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Book[ symbol:%s unit:%d order_count:%d buy_volume:%d sell_volume:%d highest_buy:%d lowest_sell:%d ]\n",
		b.Symbol, b.Unit, b.orderCount, b.buyVolume, b.sellVolume, b.highestBuyPriceLocked(), b.lowestSellPriceLocked())
	for _, order := range b.orders {
		sb.WriteString(order.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *OrderBook) highestBuyPriceLocked() int64 {
	if b.bestBid == nil {
		return 0
	}
	return b.bestBid.Price
}

func (b *OrderBook) lowestSellPriceLocked() int64 {
	if b.bestAsk == nil {
		return 0
	}
	return b.bestAsk.Price
}

// CreateSnapshot captures every resting order in FIFO order per level, for
// checkpointing. It is a point-in-time record of current book state, not a
// trade history.
func (b *OrderBook) CreateSnapshot() *snapshotv1.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var bookOrders []snapshotv1.BookOrder
	appendSide := func(levels *orderbookv1.PagedDirectory[*orderbookv1.PriceLevel], side orderbookv1.Side) {
		for idx := 0; idx < levels.PageCount()*orderbookv1.DefaultPageSize; idx++ {
			level := levels.Get(uint64(idx))
			if level == nil || level.IsEmpty() {
				continue
			}
			for cur := level.Head(); cur != nil; cur = cur.Next {
				bookOrders = append(bookOrders, snapshotv1.BookOrder{
					OrderID: cur.ID,
					Side:    uint8(side),
					Price:   cur.Price,
					Volume:  cur.Volume,
				})
			}
		}
	}
	appendSide(b.buyLevels, orderbookv1.Buy)
	appendSide(b.sellLevels, orderbookv1.Sell)

	return &snapshotv1.Snapshot{
		OrderBookSnapshot: snapshotv1.OrderBookSnapshot{
			Symbol: b.Symbol,
			Unit:   b.Unit,
			Orders: bookOrders,
		},
	}
}

// RestoreOrderbook rebuilds book state from a snapshot, discarding whatever
// was previously resting. Orders are reinserted in stored order, which
// preserves FIFO priority per price because CreateSnapshot walks each level
// head-to-tail.
func (b *OrderBook) RestoreOrderbook(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders = make(map[uint64]*orderbookv1.Order)
	b.buyLevels = orderbookv1.NewPagedDirectory[*orderbookv1.PriceLevel](orderbookv1.DefaultPageSize)
	b.sellLevels = orderbookv1.NewPagedDirectory[*orderbookv1.PriceLevel](orderbookv1.DefaultPageSize)
	b.orderCount = 0
	b.buyVolume = 0
	b.sellVolume = 0
	b.bestBid = nil
	b.bestAsk = nil

	if snapshot.OrderBookSnapshot.Unit > 0 {
		b.Unit = snapshot.OrderBookSnapshot.Unit
	}

	for _, bo := range snapshot.OrderBookSnapshot.Orders {
		order := orderbookv1.NewOrder(bo.OrderID, orderbookv1.Side(bo.Side), bo.Price, bo.Volume)
		if err := b.insertLocked(order); err != nil {
			return fmt.Errorf("failed to restore order %d: %w", bo.OrderID, err)
		}
	}

	return nil
}
