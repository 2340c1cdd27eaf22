// Package matching implements the symbol-routing and price-time priority
// matching state machine on top of internal/usecase/orderbook's per-symbol
// books.
package matching

import (
	"errors"
	"fmt"
	"sync"

	orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"
	"github.com/riverstonefx/clob-engine/internal/usecase/orderbook"
)

var (
	ErrInvalidOrderID    = errors.New("order_id must be non-zero")
	ErrDuplicateOrderID  = errors.New("order_id already resting")
	ErrUnknownOrderID    = errors.New("order_id not found")
	ErrEmptySymbol       = errors.New("symbol must not be empty")
	ErrAlreadyRegistered = errors.New("symbol already registered")
)

// Engine owns every symbol's book and the order_id -> book index used to
// route amend/pull requests without knowing their symbol in advance.
type Engine struct {
	mu sync.RWMutex

	books      map[string]*orderbook.OrderBook
	orderIndex map[uint64]*orderbook.OrderBook
}

// NewEngine constructs an Engine with no registered symbols.
func NewEngine() *Engine {
	return &Engine{
		books:      make(map[string]*orderbook.OrderBook),
		orderIndex: make(map[uint64]*orderbook.OrderBook),
	}
}

// NewEngineFromBooks indexes a set of already-populated books, e.g. when
// restoring several symbols' worth of snapshots at startup.
func NewEngineFromBooks(books ...*orderbook.OrderBook) *Engine {
	e := NewEngine()
	for _, book := range books {
		e.books[book.Symbol] = book
	}
	for _, book := range books {
		for _, id := range book.OrderIDs() {
			e.orderIndex[id] = book
		}
	}
	return e
}

// RegisterSymbol creates symbol's book ahead of any order flow with an
// explicit tick unit. It is an error to register a symbol twice.
func (e *Engine) RegisterSymbol(symbol string, unit int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if symbol == "" {
		return ErrEmptySymbol
	}
	if _, exists := e.books[symbol]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, symbol)
	}
	e.books[symbol] = orderbook.NewOrderBook(symbol, unit)
	return nil
}

// GetBook returns symbol's book, or nil if it has never been registered or
// traded.
func (e *Engine) GetBook(symbol string) *orderbook.OrderBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.books[symbol]
}

// AddOrder attempts to exhaust order_id's volume against the opposite side
// of symbol's book in price-time priority, resting whatever remains. The
// book is created with unit 1 if this is the first order ever seen for
// symbol and it was never explicitly registered via RegisterSymbol.
func (e *Engine) AddOrder(orderID uint64, symbol string, side orderbookv1.Side, price, volume int64, fills *[]orderbookv1.Fill) (bool, error) {
	if orderID == 0 {
		return false, ErrInvalidOrderID
	}
	if symbol == "" {
		return false, ErrEmptySymbol
	}
	if price <= 0 {
		return false, orderbookv1.ErrInvalidPrice
	}
	if volume <= 0 {
		return false, orderbookv1.ErrInvalidVolume
	}

	e.mu.Lock()
	if _, exists := e.orderIndex[orderID]; exists {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: order_id %d", ErrDuplicateOrderID, orderID)
	}

	book, exists := e.books[symbol]
	if !exists {
		book = orderbook.NewOrderBook(symbol, 1)
		e.books[symbol] = book
	}
	e.mu.Unlock()

	if price%book.Unit != 0 {
		return false, fmt.Errorf("%w: price %d, unit %d", orderbookv1.ErrUnitMisaligned, price, book.Unit)
	}

	remaining := volume
	for remaining > 0 {
		counterID := book.BestOrderID(side)
		if counterID == 0 {
			break
		}
		counter, ok := book.OrderByID(counterID)
		if !ok {
			break
		}

		crosses := (side == orderbookv1.Buy && counter.Price <= price) ||
			(side == orderbookv1.Sell && counter.Price >= price)
		if !crosses {
			break
		}

		if counter.Volume > remaining {
			if err := book.Amend(counter.ID, counter.Price, counter.Volume-remaining); err != nil {
				return false, err
			}
			*fills = append(*fills, orderbookv1.Fill{OtherOrderID: counter.ID, TradePrice: counter.Price, TradeVolume: remaining})
			remaining = 0
		} else {
			book.Remove(counter.ID)
			e.mu.Lock()
			delete(e.orderIndex, counter.ID)
			e.mu.Unlock()
			*fills = append(*fills, orderbookv1.Fill{OtherOrderID: counter.ID, TradePrice: counter.Price, TradeVolume: counter.Volume})
			remaining -= counter.Volume
		}
	}

	if remaining > 0 {
		order := orderbookv1.NewOrder(orderID, side, price, remaining)
		if err := book.Insert(order); err != nil {
			return false, err
		}
		e.mu.Lock()
		e.orderIndex[orderID] = book
		e.mu.Unlock()
	}

	return true, nil
}

// AmendOrder changes order_id's price/volume. A same-price, non-increasing
// volume change preserves priority; any other change is equivalent to
// pulling the order and re-adding it at the new parameters, which re-runs
// matching and may produce fills.
func (e *Engine) AmendOrder(orderID uint64, newPrice, newVolume int64, fills *[]orderbookv1.Fill) (bool, error) {
	e.mu.RLock()
	book, exists := e.orderIndex[orderID]
	e.mu.RUnlock()
	if !exists {
		return false, fmt.Errorf("%w: order_id %d", ErrUnknownOrderID, orderID)
	}
	if newPrice <= 0 {
		return false, orderbookv1.ErrInvalidPrice
	}
	if newVolume <= 0 {
		return false, orderbookv1.ErrInvalidVolume
	}

	current, ok := book.OrderByID(orderID)
	if !ok {
		return false, fmt.Errorf("%w: order_id %d", ErrUnknownOrderID, orderID)
	}

	if current.Price == newPrice && newVolume <= current.Volume {
		if err := book.Amend(orderID, newPrice, newVolume); err != nil {
			return false, err
		}
		return true, nil
	}

	if newPrice%book.Unit != 0 {
		return false, fmt.Errorf("%w: price %d, unit %d", orderbookv1.ErrUnitMisaligned, newPrice, book.Unit)
	}

	symbol := book.Symbol
	side := current.Side

	if _, err := e.PullOrder(orderID); err != nil {
		return false, err
	}
	return e.AddOrder(orderID, symbol, side, newPrice, newVolume, fills)
}

// PullOrder removes order_id from the book and the order-id index. It
// returns false if order_id is unknown.
func (e *Engine) PullOrder(orderID uint64) (bool, error) {
	e.mu.Lock()
	book, exists := e.orderIndex[orderID]
	if !exists {
		e.mu.Unlock()
		return false, nil
	}
	delete(e.orderIndex, orderID)
	e.mu.Unlock()

	return book.Remove(orderID), nil
}

// GetTopOfBook returns the best bid/ask prices and their resting volume for
// symbol. An unknown symbol, or an empty side, is reported as zero fields.
func (e *Engine) GetTopOfBook(symbol string) orderbookv1.BestBidOffer {
	e.mu.RLock()
	book, exists := e.books[symbol]
	e.mu.RUnlock()
	if !exists {
		return orderbookv1.BestBidOffer{}
	}

	bidPrice := book.HighestBuyPrice()
	askPrice := book.LowestSellPrice()

	return orderbookv1.BestBidOffer{
		BidVolume: book.VolumeAt(orderbookv1.Buy, bidPrice),
		BidPrice:  bidPrice,
		AskVolume: book.VolumeAt(orderbookv1.Sell, askPrice),
		AskPrice:  askPrice,
	}
}
