package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"
)

func TestEngine_CrossOnEqualPriceExactSize(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	ok, err := e.AddOrder(1, "X", orderbookv1.Buy, 100, 10, &fills)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.AddOrder(2, "X", orderbookv1.Sell, 100, 10, &fills)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []orderbookv1.Fill{{OtherOrderID: 1, TradePrice: 100, TradeVolume: 10}}, fills)
	top := e.GetTopOfBook("X")
	assert.Equal(t, orderbookv1.BestBidOffer{}, top)
}

func TestEngine_PartialFillLeavesResidualResting(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(1, "X", orderbookv1.Sell, 50, 5, &fills)
	require.NoError(t, err)

	_, err = e.AddOrder(2, "X", orderbookv1.Buy, 60, 12, &fills)
	require.NoError(t, err)

	assert.Equal(t, []orderbookv1.Fill{{OtherOrderID: 1, TradePrice: 50, TradeVolume: 5}}, fills)

	book := e.GetBook("X")
	order, ok := book.OrderByID(2)
	require.True(t, ok)
	assert.Equal(t, int64(7), order.Volume)

	top := e.GetTopOfBook("X")
	assert.Equal(t, orderbookv1.BestBidOffer{BidVolume: 7, BidPrice: 60}, top)
}

func TestEngine_MultiLevelSweepWithFIFOTie(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(1, "X", orderbookv1.Sell, 100, 3, &fills)
	require.NoError(t, err)
	_, err = e.AddOrder(2, "X", orderbookv1.Sell, 100, 4, &fills)
	require.NoError(t, err)
	_, err = e.AddOrder(3, "X", orderbookv1.Sell, 101, 5, &fills)
	require.NoError(t, err)

	ok, err := e.AddOrder(4, "X", orderbookv1.Buy, 101, 10, &fills)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []orderbookv1.Fill{
		{OtherOrderID: 1, TradePrice: 100, TradeVolume: 3},
		{OtherOrderID: 2, TradePrice: 100, TradeVolume: 4},
		{OtherOrderID: 3, TradePrice: 101, TradeVolume: 3},
	}, fills)

	book := e.GetBook("X")
	order, ok := book.OrderByID(3)
	require.True(t, ok)
	assert.Equal(t, int64(2), order.Volume)

	_, ok = book.OrderByID(4)
	assert.False(t, ok)
}

func TestEngine_NonCrossingAddRestsCleanly(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(1, "X", orderbookv1.Buy, 90, 5, &fills)
	require.NoError(t, err)
	_, err = e.AddOrder(2, "X", orderbookv1.Sell, 100, 5, &fills)
	require.NoError(t, err)

	assert.Empty(t, fills)
	top := e.GetTopOfBook("X")
	assert.Equal(t, orderbookv1.BestBidOffer{BidVolume: 5, BidPrice: 90, AskVolume: 5, AskPrice: 100}, top)
}

func TestEngine_AmendDownPreservesPriority(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(1, "X", orderbookv1.Sell, 100, 5, &fills)
	require.NoError(t, err)
	_, err = e.AddOrder(2, "X", orderbookv1.Sell, 100, 5, &fills)
	require.NoError(t, err)

	ok, err := e.AmendOrder(1, 100, 2, &fills)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.AddOrder(3, "X", orderbookv1.Buy, 100, 3, &fills)
	require.NoError(t, err)

	assert.Equal(t, []orderbookv1.Fill{
		{OtherOrderID: 1, TradePrice: 100, TradeVolume: 2},
		{OtherOrderID: 2, TradePrice: 100, TradeVolume: 1},
	}, fills)
}

func TestEngine_AmendToCrossingTriggersMatch(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(1, "X", orderbookv1.Buy, 90, 5, &fills)
	require.NoError(t, err)
	_, err = e.AddOrder(2, "X", orderbookv1.Sell, 100, 5, &fills)
	require.NoError(t, err)

	ok, err := e.AmendOrder(1, 100, 5, &fills)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []orderbookv1.Fill{{OtherOrderID: 2, TradePrice: 100, TradeVolume: 5}}, fills)

	top := e.GetTopOfBook("X")
	assert.Equal(t, orderbookv1.BestBidOffer{}, top)

	_, err = e.PullOrder(1)
	require.NoError(t, err)
}

func TestEngine_AddOrderRejectsInvalidInputs(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(0, "X", orderbookv1.Buy, 1, 1, &fills)
	assert.ErrorIs(t, err, ErrInvalidOrderID)

	_, err = e.AddOrder(1, "", orderbookv1.Buy, 1, 1, &fills)
	assert.ErrorIs(t, err, ErrEmptySymbol)

	_, err = e.AddOrder(1, "X", orderbookv1.Buy, 0, 1, &fills)
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidPrice)

	_, err = e.AddOrder(1, "X", orderbookv1.Buy, 1, 0, &fills)
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidVolume)
}

func TestEngine_AddOrderImplicitlyCreatesBookWithUnitOne(t *testing.T) {
	e := NewEngine()
	var fills []orderbookv1.Fill

	_, err := e.AddOrder(1, "NEW", orderbookv1.Buy, 3, 1, &fills)
	require.NoError(t, err)

	assert.Equal(t, int64(1), e.GetBook("NEW").Unit)
}

func TestEngine_RegisterSymbolSetsExplicitUnit(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.RegisterSymbol("TICKY", 5))

	err := e.RegisterSymbol("TICKY", 1)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	assert.Equal(t, int64(5), e.GetBook("TICKY").Unit)
}

func TestEngine_PullOrderUnknownReturnsFalse(t *testing.T) {
	e := NewEngine()
	ok, err := e.PullOrder(42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_GetTopOfBookUnknownSymbolIsZero(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, orderbookv1.BestBidOffer{}, e.GetTopOfBook("NOPE"))
}
