package matchpublisherv1

import orderbookv1 "github.com/riverstonefx/clob-engine/internal/domain/orderbook/v1"

// FillEvent is the wire shape of one executed trade, published after the
// matching engine reports a orderbookv1.Fill.
type FillEvent struct {
	TradeID      string `json:"tradeId"`
	Symbol       string `json:"symbol"`
	TakerOrderID uint64 `json:"takerOrderId"`
	MakerOrderID uint64 `json:"makerOrderId"`
	TakerSide    string `json:"takerSide"`
	Price        int64  `json:"price"`
	Volume       int64  `json:"volume"`
}

// CreateFromFill builds a FillEvent from a fill reported by the matching
// engine for an incoming order of takerSide on symbol, stamped with tradeID
// (expected to be a process-unique, time-sortable identifier).
func CreateFromFill(tradeID, symbol string, takerOrderID uint64, takerSide orderbookv1.Side, fill orderbookv1.Fill) *FillEvent {
	side := "buy"
	if takerSide == orderbookv1.Sell {
		side = "sell"
	}

	return &FillEvent{
		TradeID:      tradeID,
		Symbol:       symbol,
		TakerOrderID: takerOrderID,
		MakerOrderID: fill.OtherOrderID,
		TakerSide:    side,
		Price:        fill.TradePrice,
		Volume:       fill.TradeVolume,
	}
}
