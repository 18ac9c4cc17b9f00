// Package recordjson flattens a record.Record into a JSON-friendly shape
// for consumers outside this module's type system — a NATS relay, a
// websocket dashboard, or any other language's subscriber.
package recordjson

import (
	"time"

	"twse-md-parser/pkg/record"
)

// WireRecord is the flattened shape. Kind discriminates which of the
// optional fields are meaningful, since JSON has no sum types.
type WireRecord struct {
	Kind       string  `json:"kind"`
	StockCode  string  `json:"stock_code,omitempty"`
	MatchTime  string  `json:"match_time,omitempty"`
	HasDeal    bool    `json:"has_deal,omitempty"`
	DealPrice  float64 `json:"deal_price,omitempty"`
	DealQty    uint64  `json:"deal_qty,omitempty"`
	BidDepth   int     `json:"bid_depth,omitempty"`
	AskDepth   int     `json:"ask_depth,omitempty"`
	CumVolume  uint64  `json:"cumulative_volume,omitempty"`
	FormatCode byte    `json:"format_code,omitempty"`
}

// From converts any Record variant into its WireRecord shape.
func From(r record.Record) WireRecord {
	switch rec := r.(type) {
	case *record.TradeSnapshot:
		w := WireRecord{
			Kind:      "trade_snapshot",
			StockCode: rec.StockCodeTrimmed(),
			MatchTime: formatMatchTime(rec.MatchTime),
			HasDeal:   rec.HasDeal,
			BidDepth:  rec.BidDepth,
			AskDepth:  rec.AskDepth,
			CumVolume: rec.CumulativeVolume,
		}
		if deal, ok := rec.Deal(); ok {
			w.DealPrice = deal.Price.Float64()
			w.DealQty = deal.Quantity
		}
		return w
	case *record.WarrantDescriptor:
		return WireRecord{Kind: "warrant_descriptor", StockCode: string(rec.UnderlyingAsset)}
	case *record.UnknownRecord:
		return WireRecord{Kind: "unknown", FormatCode: rec.FormatCode}
	default:
		return WireRecord{Kind: "unrecognized"}
	}
}

func formatMatchTime(mt record.MatchTime) string {
	return time.Date(0, 1, 1, mt.Hour, mt.Minute, mt.Second, mt.Microsecond*1000, time.UTC).Format("15:04:05.000000")
}
