package snapshotv1

// Snapshot is a checkpoint of one symbol's book plus the consumer offset it
// was taken at, so a restart can resume order ingestion near where it left
// off instead of from the beginning of the topic.
type Snapshot struct {
	OrderOffset       int64             `json:"orderOffset"`
	OrderBookSnapshot OrderBookSnapshot `json:"orderBookSnapshot"`
}

// OrderBookSnapshot is the resting state of a single symbol's book.
type OrderBookSnapshot struct {
	Symbol string      `json:"symbol"`
	Unit   int64       `json:"unit"`
	Orders []BookOrder `json:"orders"`
}

// BookOrder is one resting order as recorded in a snapshot. Orders for a
// given price are stored in FIFO order so restoring a snapshot rebuilds the
// same time priority the book had when it was taken.
type BookOrder struct {
	OrderID uint64 `json:"orderID"`
	Side    uint8  `json:"side"`
	Price   int64  `json:"price"`
	Volume  int64  `json:"volume"`
}
