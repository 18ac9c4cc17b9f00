package bookkeeper

import (
	"testing"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
)

func sampleSnapshot(stockCode string, bidDepth, askDepth int) *record.TradeSnapshot {
	ts := &record.TradeSnapshot{
		HasDeal:          true,
		BidDepth:         bidDepth,
		AskDepth:         askDepth,
		CumulativeVolume: 500,
	}
	copy(ts.StockCode[:], stockCode+"      "[:6-len(stockCode)])

	levels := []record.PriceLevel{{Price: bcd.Price(1000000), Quantity: 10, Level: record.LevelDeal}}
	for i := 0; i < bidDepth; i++ {
		levels = append(levels, record.PriceLevel{Price: bcd.Price(int64(990000 - i*10000)), Quantity: uint64(10 + i), Level: record.LevelBid, Index: i})
	}
	for i := 0; i < askDepth; i++ {
		levels = append(levels, record.PriceLevel{Price: bcd.Price(int64(1010000 + i*10000)), Quantity: uint64(20 + i), Level: record.LevelAsk, Index: i})
	}
	ts.PriceLevels = levels
	return ts
}

func TestKeeperUpdateAndSnapshot(t *testing.T) {
	k := NewKeeper()
	if _, ok := k.Snapshot("2330"); ok {
		t.Fatal("Snapshot on empty keeper returned ok=true")
	}

	k.Update(sampleSnapshot("2330", 2, 1))

	b, ok := k.Snapshot("2330")
	if !ok {
		t.Fatal("Snapshot(2330) ok=false after Update")
	}
	if !b.HasValidBook() {
		t.Error("HasValidBook() = false, want true")
	}
	if b.BidPx[0].Float64() != 99.0 {
		t.Errorf("BidPx[0] = %v, want 99.0", b.BidPx[0].Float64())
	}
	if b.AskPx[0].Float64() != 101.0 {
		t.Errorf("AskPx[0] = %v, want 101.0", b.AskPx[0].Float64())
	}
	if got, want := b.MidPrice(), 100.0; got != want {
		t.Errorf("MidPrice() = %v, want %v", got, want)
	}
	if got, want := b.Spread(), 2.0; got != want {
		t.Errorf("Spread() = %v, want %v", got, want)
	}
	if b.LastTradePx.Float64() != 100.0 || b.LastTradeQty != 10 {
		t.Errorf("LastTrade = %v/%d, want 100.0/10", b.LastTradePx.Float64(), b.LastTradeQty)
	}
}

func TestKeeperUpdateReplacesStaleLevels(t *testing.T) {
	k := NewKeeper()
	k.Update(sampleSnapshot("2330", 5, 3))
	k.Update(sampleSnapshot("2330", 1, 1))

	b, _ := k.Snapshot("2330")
	if b.ValidBids != 1 || b.ValidAsks != 1 {
		t.Errorf("ValidBids/ValidAsks = %d/%d, want 1/1", b.ValidBids, b.ValidAsks)
	}
	for i := 1; i < 5; i++ {
		if b.BidPx[i] != 0 {
			t.Errorf("BidPx[%d] = %v, want 0 (stale level not cleared)", i, b.BidPx[i])
		}
	}
}

func TestKeeperIgnoresNonTradeRecords(t *testing.T) {
	k := NewKeeper()
	k.Update(&record.UnknownRecord{FormatCode: 0x99})
	if len(k.StockCodes()) != 0 {
		t.Errorf("StockCodes() = %v, want empty", k.StockCodes())
	}
}

func TestKeeperStockCodes(t *testing.T) {
	k := NewKeeper()
	k.Update(sampleSnapshot("2330", 1, 1))
	k.Update(sampleSnapshot("2002", 1, 1))

	codes := k.StockCodes()
	if len(codes) != 2 {
		t.Fatalf("StockCodes() = %v, want 2 entries", codes)
	}
}
