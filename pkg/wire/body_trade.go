package wire

import (
	"fmt"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
)

// quantityWidth returns the BCD width of quantity (and cumulative volume,
// for format 23) fields for a given format code, per §3.3 and §9's Open
// Question on format-23 field widths (resolved here from the repository's
// own mocker: format 23 uses 6-byte quantity/volume fields).
func quantityWidth(formatCode byte) (int, error) {
	switch formatCode {
	case record.FormatTradeSnapshot06, record.FormatTradeSnapshot17:
		return 4, nil
	case record.FormatTradeSnapshot23:
		return 6, nil
	default:
		return 0, fmt.Errorf("wire: format code 0x%02x is not a trade snapshot", formatCode)
	}
}

const (
	stockCodeWidth  = 6
	matchTimeWidth  = 6
	priceWidth      = 5
	tradeFixedWidth = stockCodeWidth + matchTimeWidth + 1 /*display*/ + 1 /*limit*/ + 1 /*status*/
)

// DecodeTradeSnapshot decodes a format 06/17/23 body per §4.5. body is the
// datagram's body region (Frame.Body()); header carries the already-
// decoded format code needed to select the quantity field width.
func DecodeTradeSnapshot(header record.Header, body []byte) (*record.TradeSnapshot, error) {
	qWidth, err := quantityWidth(header.FormatCode)
	if err != nil {
		return nil, err
	}

	fixedWidth := tradeFixedWidth + qWidth // + cumulative_volume
	if len(body) < fixedWidth {
		return nil, fmt.Errorf("wire: trade snapshot body too short: %d bytes, need at least %d", len(body), fixedWidth)
	}

	var ts record.TradeSnapshot
	ts.Header = header

	copy(ts.StockCode[:], body[0:6])

	rawMatchTime, err := bcd.Decode(body[6:12])
	if err != nil {
		return nil, fmt.Errorf("wire: match_time: %w", err)
	}
	ts.MatchTime = record.MatchTimeFromBCD(rawMatchTime)

	display, err := DecodeDisplayItem(body[12])
	if err != nil {
		return nil, fmt.Errorf("wire: display_item: %w", err)
	}
	ts.HasDeal = display.HasDeal
	ts.BidDepth = display.BidDepth
	ts.AskDepth = display.AskDepth

	ts.LimitUpLimitDown = body[13]
	ts.StatusNote = body[14]

	volumeEnd := 15 + qWidth
	cumVolume, err := bcd.Decode(body[15:volumeEnd])
	if err != nil {
		return nil, fmt.Errorf("wire: cumulative_volume: %w", err)
	}
	ts.CumulativeVolume = cumVolume

	variableLen := display.VariableRegionLen(qWidth)
	wantLen := volumeEnd + variableLen
	if len(body) != wantLen {
		return nil, fmt.Errorf("wire: trade snapshot body length %d does not match implied length %d (display=%+v, qWidth=%d)",
			len(body), wantLen, display, qWidth)
	}

	levels := make([]record.PriceLevel, 0, display.LevelCount())
	offset := volumeEnd
	appendLevel := func(kind record.LevelKind, idx int) error {
		price, err := bcd.DecodePrice(body[offset : offset+priceWidth])
		if err != nil {
			return fmt.Errorf("wire: price level %d (%v): %w", idx, kind, err)
		}
		offset += priceWidth
		qty, err := bcd.Decode(body[offset : offset+qWidth])
		if err != nil {
			return fmt.Errorf("wire: quantity level %d (%v): %w", idx, kind, err)
		}
		offset += qWidth
		levels = append(levels, record.PriceLevel{Price: price, Quantity: qty, Level: kind, Index: idx})
		return nil
	}

	if display.HasDeal {
		if err := appendLevel(record.LevelDeal, 0); err != nil {
			return nil, err
		}
	}
	for i := 0; i < display.BidDepth; i++ {
		if err := appendLevel(record.LevelBid, i); err != nil {
			return nil, err
		}
	}
	for i := 0; i < display.AskDepth; i++ {
		if err := appendLevel(record.LevelAsk, i); err != nil {
			return nil, err
		}
	}

	ts.PriceLevels = levels
	return &ts, nil
}

// EncodeTradeSnapshot is the inverse of DecodeTradeSnapshot, producing a
// body ready to hand to Encode. Used by the canonical round-trip test
// encoder and cmd/twse-mocker.
func EncodeTradeSnapshot(ts *record.TradeSnapshot) ([]byte, error) {
	qWidth, err := quantityWidth(ts.Header.FormatCode)
	if err != nil {
		return nil, err
	}

	matchTimeVal := uint64(ts.MatchTime.Hour)*10000000000 +
		uint64(ts.MatchTime.Minute)*100000000 +
		uint64(ts.MatchTime.Second)*1000000 +
		uint64(ts.MatchTime.Microsecond)
	matchTimeBCD, err := bcd.Encode(matchTimeVal, matchTimeWidth)
	if err != nil {
		return nil, fmt.Errorf("wire: encode match_time: %w", err)
	}

	cumVolumeBCD, err := bcd.Encode(ts.CumulativeVolume, qWidth)
	if err != nil {
		return nil, fmt.Errorf("wire: encode cumulative_volume: %w", err)
	}

	display := DisplayItem{HasDeal: ts.HasDeal, BidDepth: ts.BidDepth, AskDepth: ts.AskDepth}

	body := make([]byte, 0, tradeFixedWidth+qWidth+display.VariableRegionLen(qWidth))
	body = append(body, ts.StockCode[:]...)
	body = append(body, matchTimeBCD...)
	body = append(body, EncodeDisplayItem(display))
	body = append(body, ts.LimitUpLimitDown, ts.StatusNote)
	body = append(body, cumVolumeBCD...)

	for _, lvl := range ts.PriceLevels {
		priceBCD, err := bcd.EncodePrice(lvl.Price)
		if err != nil {
			return nil, fmt.Errorf("wire: encode price level %d (%v): %w", lvl.Index, lvl.Level, err)
		}
		qtyBCD, err := bcd.Encode(lvl.Quantity, qWidth)
		if err != nil {
			return nil, fmt.Errorf("wire: encode quantity level %d (%v): %w", lvl.Index, lvl.Level, err)
		}
		body = append(body, priceBCD...)
		body = append(body, qtyBCD...)
	}

	return body, nil
}
