package recordjson

import (
	"testing"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
)

func TestFromTradeSnapshot(t *testing.T) {
	ts := &record.TradeSnapshot{
		MatchTime:        record.MatchTime{Hour: 9, Minute: 4, Second: 15, Microsecond: 61278},
		HasDeal:          true,
		BidDepth:         2,
		AskDepth:         1,
		CumulativeVolume: 100,
		PriceLevels: []record.PriceLevel{
			{Price: bcd.Price(995000), Quantity: 10, Level: record.LevelDeal, Index: 0},
		},
	}
	copy(ts.StockCode[:], "2330  ")

	w := From(ts)
	if w.Kind != "trade_snapshot" {
		t.Errorf("Kind = %q, want trade_snapshot", w.Kind)
	}
	if w.StockCode != "2330" {
		t.Errorf("StockCode = %q, want 2330", w.StockCode)
	}
	if w.MatchTime != "09:04:15.061278" {
		t.Errorf("MatchTime = %q, want 09:04:15.061278", w.MatchTime)
	}
	if w.DealPrice != 99.5 {
		t.Errorf("DealPrice = %v, want 99.5", w.DealPrice)
	}
	if w.DealQty != 10 {
		t.Errorf("DealQty = %d, want 10", w.DealQty)
	}
}

func TestFromUnknownRecord(t *testing.T) {
	u := &record.UnknownRecord{FormatCode: 0x99}
	w := From(u)
	if w.Kind != "unknown" || w.FormatCode != 0x99 {
		t.Errorf("From(UnknownRecord) = %+v", w)
	}
}

func TestFromWarrantDescriptor(t *testing.T) {
	wd := &record.WarrantDescriptor{UnderlyingAsset: []byte("2330  ")}
	w := From(wd)
	if w.Kind != "warrant_descriptor" {
		t.Errorf("Kind = %q, want warrant_descriptor", w.Kind)
	}
}
