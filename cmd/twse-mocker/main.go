// Command twse-mocker sends a stream of synthetic TWSE multicast datagrams
// to a target UDP address: alternately one well-formed format-06 trade
// snapshot and one byte-reversed copy of it (garbage framing), mirroring
// TWSE_mocker.py's send loop. It is a test fixture, not part of the core.
package main

import (
	"flag"
	"log"
	"net"
	"time"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
	"twse-md-parser/pkg/wire"
)

func main() {
	targetAddr := flag.String("addr", "127.0.0.1:12345", "destination host:port")
	interval := flag.Duration("interval", time.Second, "delay between each packet sent")
	garbage := flag.Bool("garbage", true, "also send a byte-reversed copy of each packet")
	flag.Parse()

	conn, err := net.Dial("udp4", *targetAddr)
	if err != nil {
		log.Fatalf("[twse-mocker] dial %s: %v", *targetAddr, err)
	}
	defer conn.Close()

	packet := buildSamplePacket()

	for {
		log.Printf("[twse-mocker] sending valid packet (%d bytes)", len(packet))
		if _, err := conn.Write(packet); err != nil {
			log.Printf("[twse-mocker] send failed: %v", err)
		}
		time.Sleep(*interval)

		if *garbage {
			log.Printf("[twse-mocker] sending reversed (garbage) packet")
			if _, err := conn.Write(reversed(packet)); err != nil {
				log.Printf("[twse-mocker] send failed: %v", err)
			}
			time.Sleep(*interval)
		}
	}
}

// buildSamplePacket reproduces the reference scenario from the Python
// mocker: stock 2330, a deal plus 5 bid levels and 3 ask levels.
func buildSamplePacket() []byte {
	ts := &record.TradeSnapshot{
		Header: record.Header{
			BusinessType:       0x01,
			FormatCode:         record.FormatTradeSnapshot06,
			FormatVersion:      0x04,
			TransmissionNumber: 4567,
		},
		MatchTime:        record.MatchTime{Hour: 9, Minute: 4, Second: 15, Microsecond: 61278},
		HasDeal:          true,
		BidDepth:         5,
		AskDepth:         3,
		LimitUpLimitDown: 0x00,
		StatusNote:       0x00,
		CumulativeVolume: 16423,
	}
	copy(ts.StockCode[:], "2330  ")

	price := func(v int64) bcd.Price { return bcd.Price(v) }
	ts.PriceLevels = []record.PriceLevel{
		{Price: price(995000), Quantity: 1234, Level: record.LevelDeal, Index: 0},
		{Price: price(995000), Quantity: 250, Level: record.LevelBid, Index: 0},
		{Price: price(990000), Quantity: 175, Level: record.LevelBid, Index: 1},
		{Price: price(985000), Quantity: 477, Level: record.LevelBid, Index: 2},
		{Price: price(975000), Quantity: 669, Level: record.LevelBid, Index: 3},
		{Price: price(970000), Quantity: 125, Level: record.LevelBid, Index: 4},
		{Price: price(1000000), Quantity: 80, Level: record.LevelAsk, Index: 0},
		{Price: price(1005000), Quantity: 675, Level: record.LevelAsk, Index: 1},
		{Price: price(1015000), Quantity: 460, Level: record.LevelAsk, Index: 2},
	}

	body, err := wire.EncodeTradeSnapshot(ts)
	if err != nil {
		log.Fatalf("[twse-mocker] EncodeTradeSnapshot: %v", err)
	}
	packet, err := wire.Encode(ts.Header, body)
	if err != nil {
		log.Fatalf("[twse-mocker] Encode: %v", err)
	}
	return packet
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
