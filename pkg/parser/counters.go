package parser

import "sync/atomic"

// Counters is a read-only snapshot of the per-datagram outcomes accumulated
// since the last Start (§7). All fields are monotonic within one run.
type Counters struct {
	Delivered       uint64
	TooShort        uint64
	BadFraming      uint64
	BadChecksum     uint64
	LengthMismatch  uint64
	BadBCD          uint64
	BadBody         uint64
	UnknownFormat   uint64
	SinkRaised      uint64
	TransientErrors uint64
}

// counters holds the live atomic accumulators the worker updates. It is
// never copied; Parser embeds it by value and always accesses it through a
// *Parser receiver.
type counters struct {
	delivered       atomic.Uint64
	tooShort        atomic.Uint64
	badFraming      atomic.Uint64
	badChecksum     atomic.Uint64
	lengthMismatch  atomic.Uint64
	badBCD          atomic.Uint64
	badBody         atomic.Uint64
	unknownFormat   atomic.Uint64
	sinkRaised      atomic.Uint64
	transientErrors atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Delivered:       c.delivered.Load(),
		TooShort:        c.tooShort.Load(),
		BadFraming:      c.badFraming.Load(),
		BadChecksum:     c.badChecksum.Load(),
		LengthMismatch:  c.lengthMismatch.Load(),
		BadBCD:          c.badBCD.Load(),
		BadBody:         c.badBody.Load(),
		UnknownFormat:   c.unknownFormat.Load(),
		SinkRaised:      c.sinkRaised.Load(),
		TransientErrors: c.transientErrors.Load(),
	}
}

func (c *counters) reset() {
	*c = counters{}
}
