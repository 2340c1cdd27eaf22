package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"
)

func TestNewOrderBook_DefaultsUnitToOne(t *testing.T) {
	book := NewOrderBook("X", 0)
	assert.Equal(t, int64(1), book.Unit)
}

func TestOrderBook_InsertRejectsDuplicateID(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Buy, 100, 5)))

	err := book.Insert(orderbookv1.NewOrder(1, orderbookv1.Sell, 101, 3))
	assert.ErrorIs(t, err, orderbookv1.ErrOrderExists)
	assert.Equal(t, uint64(1), book.OrderCount())
}

func TestOrderBook_InsertRejectsMisalignedPrice(t *testing.T) {
	book := NewOrderBook("X", 5)
	err := book.Insert(orderbookv1.NewOrder(1, orderbookv1.Buy, 12, 5))
	assert.ErrorIs(t, err, orderbookv1.ErrUnitMisaligned)
	assert.Equal(t, uint64(0), book.OrderCount())
}

func TestOrderBook_InsertUpdatesBestBidAndAsk(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Buy, 90, 5)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(2, orderbookv1.Buy, 95, 5)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(3, orderbookv1.Sell, 110, 5)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(4, orderbookv1.Sell, 105, 5)))

	assert.Equal(t, int64(95), book.HighestBuyPrice())
	assert.Equal(t, int64(105), book.LowestSellPrice())
	assert.Equal(t, int64(10), book.BuyVolume())
	assert.Equal(t, int64(10), book.SellVolume())
}

func TestOrderBook_BestOrderIDReturnsOppositeSide(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Sell, 100, 5)))

	assert.Equal(t, uint64(1), book.BestOrderID(orderbookv1.Buy))
	assert.Equal(t, uint64(0), book.BestOrderID(orderbookv1.Sell))
}

func TestOrderBook_AmendSamePricePreservesPriority(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Sell, 100, 5)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(2, orderbookv1.Sell, 100, 5)))

	require.NoError(t, book.Amend(1, 100, 2))

	assert.Equal(t, uint64(1), book.BestOrderID(orderbookv1.Buy))
	assert.Equal(t, int64(7), book.VolumeAt(orderbookv1.Sell, 100))
	assert.Equal(t, int64(7), book.SellVolume())
}

func TestOrderBook_AmendPriceChangeForfeitsPriority(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Sell, 100, 5)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(2, orderbookv1.Sell, 101, 5)))

	require.NoError(t, book.Amend(1, 101, 5))

	assert.Equal(t, int64(0), book.VolumeAt(orderbookv1.Sell, 100))
	assert.Equal(t, int64(10), book.VolumeAt(orderbookv1.Sell, 101))
	order, ok := book.OrderByID(1)
	require.True(t, ok)
	assert.Equal(t, int64(101), order.Price)
}

func TestOrderBook_DetachRescansForNextBestOnEmptyLevel(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Sell, 100, 5)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(2, orderbookv1.Sell, 105, 5)))

	assert.True(t, book.Remove(1))

	assert.Equal(t, int64(105), book.LowestSellPrice())
	assert.Equal(t, uint64(2), book.BestOrderID(orderbookv1.Buy))
}

func TestOrderBook_DetachLastOrderClearsBest(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Buy, 90, 5)))

	assert.True(t, book.Remove(1))

	assert.Equal(t, int64(0), book.HighestBuyPrice())
	assert.Equal(t, uint64(0), book.OrderCount())
}

func TestOrderBook_RemoveUnknownOrderReturnsFalse(t *testing.T) {
	book := NewOrderBook("X", 1)
	assert.False(t, book.Remove(999))
}

func TestOrderBook_SnapshotRoundTripPreservesFIFO(t *testing.T) {
	book := NewOrderBook("X", 1)
	require.NoError(t, book.Insert(orderbookv1.NewOrder(1, orderbookv1.Sell, 100, 3)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(2, orderbookv1.Sell, 100, 4)))
	require.NoError(t, book.Insert(orderbookv1.NewOrder(3, orderbookv1.Buy, 90, 1)))

	snap := book.CreateSnapshot()

	restored := NewOrderBook("X", 1)
	require.NoError(t, restored.RestoreOrderbook(snap))

	assert.Equal(t, uint64(3), restored.OrderCount())
	assert.Equal(t, int64(7), restored.VolumeAt(orderbookv1.Sell, 100))
	assert.Equal(t, uint64(1), restored.BestOrderID(orderbookv1.Buy))
}
