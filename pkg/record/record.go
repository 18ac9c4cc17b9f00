// Package record defines the decoded TWSE record shapes delivered to a
// consumer sink: the trade snapshot and warrant descriptor bodies, and the
// Header every datagram carries regardless of format.
package record

import "twse-md-parser/pkg/bcd"

// Format codes recognized by the body decoders (§6.1, §4.5, §4.6).
const (
	FormatTradeSnapshot06 byte = 0x06
	FormatTradeSnapshot17 byte = 0x17
	FormatTradeSnapshot23 byte = 0x23
	FormatWarrant14       byte = 0x14
)

// Header is the nine-byte fixed header present on every datagram (§3.2).
type Header struct {
	MessageLength      uint64
	BusinessType       byte
	FormatCode         byte
	FormatVersion      byte
	TransmissionNumber uint64
}

// MatchTime is the exchange-side trade timestamp, packed as HHMMSS followed
// by six decimal digits of sub-second precision (§3.3).
type MatchTime struct {
	Hour        int
	Minute      int
	Second      int
	Microsecond int
}

// MatchTimeFromBCD splits the decoded value of the 6-byte BCD match-time
// field (HHMMSSffffff) into its component fields.
func MatchTimeFromBCD(v uint64) MatchTime {
	return MatchTime{
		Hour:        int(v / 10000000000),
		Minute:      int(v / 100000000 % 100),
		Second:      int(v / 1000000 % 100),
		Microsecond: int(v % 1000000),
	}
}

// PriceLevel is one (price, quantity) pair from the variable-length region
// of a trade-snapshot body (§3.3). Level identifies which slot this entry
// occupies so consumers never have to re-derive it from the display-item
// bitmap themselves.
type PriceLevel struct {
	Price    bcd.Price
	Quantity uint64
	Level    LevelKind
	Index    int // 0-based position within its Level (bid[0] is best bid)
}

// LevelKind tags a PriceLevel's role within the fixed wire ordering:
// optional deal first, then bids best-to-worst, then asks best-to-worst.
type LevelKind int

const (
	LevelDeal LevelKind = iota
	LevelBid
	LevelAsk
)

func (k LevelKind) String() string {
	switch k {
	case LevelDeal:
		return "deal"
	case LevelBid:
		return "bid"
	case LevelAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// TradeSnapshot is the decoded body for format codes 06, 17, and 23 (§3.3).
type TradeSnapshot struct {
	Header Header

	StockCode         [6]byte // right-padded with ASCII space, preserved verbatim
	MatchTime         MatchTime
	HasDeal           bool
	BidDepth          int // 0..5
	AskDepth          int // 0..5
	LimitUpLimitDown  byte
	StatusNote        byte
	CumulativeVolume  uint64
	PriceLevels       []PriceLevel // ordered: deal (if any), bids best->worst, asks best->worst
}

// Deal returns the deal price level and true if HasDeal is set.
func (t *TradeSnapshot) Deal() (PriceLevel, bool) {
	if !t.HasDeal || len(t.PriceLevels) == 0 {
		return PriceLevel{}, false
	}
	return t.PriceLevels[0], true
}

// Bids returns the bid levels in best-to-worst order.
func (t *TradeSnapshot) Bids() []PriceLevel {
	start := 0
	if t.HasDeal {
		start = 1
	}
	return t.PriceLevels[start : start+t.BidDepth]
}

// Asks returns the ask levels in best-to-worst order.
func (t *TradeSnapshot) Asks() []PriceLevel {
	start := t.BidDepth
	if t.HasDeal {
		start++
	}
	return t.PriceLevels[start : start+t.AskDepth]
}

// StockCodeTrimmed returns the stock code with trailing ASCII spaces
// removed. The core itself never trims; this is offered for consumer
// convenience only.
func (t *TradeSnapshot) StockCodeTrimmed() string {
	end := len(t.StockCode)
	for end > 0 && t.StockCode[end-1] == ' ' {
		end--
	}
	return string(t.StockCode[:end])
}

// WarrantDescriptor is the decoded body for format code 14 (§3.4). Fields
// are opaque byte slices; the core performs no character-set conversion.
type WarrantDescriptor struct {
	Header Header

	BriefName       []byte
	Separator       []byte
	UnderlyingAsset []byte
	ExpirationDate  []byte
	WarrantTypeD    []byte
	WarrantTypeE    []byte
	WarrantTypeF    []byte
	Reserved        []byte
}

// UnknownRecord carries the raw payload of a datagram whose format code
// wasn't recognized, delivered only when the Parser is configured to
// deliver unknown formats (§3.5).
type UnknownRecord struct {
	Header     Header
	FormatCode byte
	RawPayload []byte
}

// Record is the sum type delivered to the sink: exactly one of
// TradeSnapshot, WarrantDescriptor, or UnknownRecord. Implementations are
// sealed to this package's three variants.
type Record interface {
	recordHeader() Header
}

func (t *TradeSnapshot) recordHeader() Header     { return t.Header }
func (w *WarrantDescriptor) recordHeader() Header { return w.Header }
func (u *UnknownRecord) recordHeader() Header     { return u.Header }

// HeaderOf returns the Header embedded in any Record variant, regardless
// of its concrete type.
func HeaderOf(r Record) Header {
	return r.recordHeader()
}
