// Package bookkeeper maintains a best-bid/ask snapshot per stock code from
// a stream of decoded trade snapshots, adapted from the teacher
// repository's Instrument order book (pkg/instrument). It is an
// illustrative downstream consumer, not part of the core decoder.
package bookkeeper

import (
	"sync"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
)

// Book holds the most recently observed price levels for one stock code.
type Book struct {
	StockCode string

	BidPx  [5]bcd.Price
	BidQty [5]uint64
	AskPx  [5]bcd.Price
	AskQty [5]uint64

	ValidBids int
	ValidAsks int

	LastTradePx  bcd.Price
	LastTradeQty uint64

	CumulativeVolume uint64
}

// UpdateFromSnapshot replaces the book's levels with the ones carried by a
// freshly decoded trade snapshot (§3.3 levels are a full replacement, not
// an incremental diff — the wire format carries no deltas).
func (b *Book) UpdateFromSnapshot(ts *record.TradeSnapshot) {
	b.ValidBids = ts.BidDepth
	b.ValidAsks = ts.AskDepth
	b.CumulativeVolume = ts.CumulativeVolume

	for i := range b.BidPx {
		b.BidPx[i], b.BidQty[i] = 0, 0
	}
	for i := range b.AskPx {
		b.AskPx[i], b.AskQty[i] = 0, 0
	}

	for i, lvl := range ts.Bids() {
		b.BidPx[i] = lvl.Price
		b.BidQty[i] = lvl.Quantity
	}
	for i, lvl := range ts.Asks() {
		b.AskPx[i] = lvl.Price
		b.AskQty[i] = lvl.Quantity
	}

	if deal, ok := ts.Deal(); ok {
		b.LastTradePx = deal.Price
		b.LastTradeQty = deal.Quantity
	}
}

// HasValidBook reports whether both the best bid and best ask are present.
func (b *Book) HasValidBook() bool {
	return b.ValidBids > 0 && b.ValidAsks > 0 && b.BidPx[0] > 0 && b.AskPx[0] > 0
}

// MidPrice returns the simple mid of the best bid and ask.
func (b *Book) MidPrice() float64 {
	return (b.BidPx[0].Float64() + b.AskPx[0].Float64()) / 2.0
}

// Spread returns the best ask minus the best bid.
func (b *Book) Spread() float64 {
	return b.AskPx[0].Float64() - b.BidPx[0].Float64()
}

// Keeper maintains one Book per stock code observed across all trade
// snapshots delivered to it. Safe for concurrent use; a Parser sink may
// call Update from its single worker goroutine while other goroutines call
// Snapshot.
type Keeper struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewKeeper returns an empty Keeper.
func NewKeeper() *Keeper {
	return &Keeper{books: make(map[string]*Book)}
}

// Update applies a decoded record to the keeper. Non-TradeSnapshot records
// are ignored; warrant descriptors and unknown records carry no book data.
func (k *Keeper) Update(r record.Record) {
	ts, ok := r.(*record.TradeSnapshot)
	if !ok {
		return
	}
	code := ts.StockCodeTrimmed()

	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.books[code]
	if !ok {
		b = &Book{StockCode: code}
		k.books[code] = b
	}
	b.UpdateFromSnapshot(ts)
}

// Snapshot returns a copy of the current book for a stock code, and
// whether one has been observed yet.
func (k *Keeper) Snapshot(stockCode string) (Book, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	b, ok := k.books[stockCode]
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// StockCodes returns every stock code the keeper has observed, in no
// particular order.
func (k *Keeper) StockCodes() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	codes := make([]string, 0, len(k.books))
	for code := range k.books {
		codes = append(codes, code)
	}
	return codes
}
