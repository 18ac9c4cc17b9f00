// Package parser implements the UDP receive loop (§4.8): it joins a
// multicast group on a named interface, validates and decodes each
// datagram through pkg/wire, and delivers the resulting record.Record to a
// consumer sink on a single dedicated worker goroutine.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"twse-md-parser/pkg/bcd"
	"twse-md-parser/pkg/record"
	"twse-md-parser/pkg/wire"
)

// ErrAlreadyRunning is returned by Start on a Parser that is already
// Running (§4.8's state machine forbids double-start).
var ErrAlreadyRunning = errors.New("parser: already running")

const (
	recvBufferSize  = 2048
	stopJoinTimeout = 2 * time.Second
	readRetryDelay  = 50 * time.Millisecond
)

// Sink receives exactly one decoded record.Record per successful decode,
// called synchronously on the Parser's worker goroutine (§6.2).
type Sink func(record.Record)

// Parser is a single Idle/Running/Stopped market-data receiver. Start may be
// called again once Stop returns; each Start resets the counters.
type Parser struct {
	mu sync.Mutex // guards configuration below until Start

	multicastGroup string
	iface          string
	allowed        map[byte]bool
	deliverUnknown bool
	checksumMode   wire.ChecksumMode
	predicate      func(record.Record) bool

	running       atomic.Bool
	stopRequested atomic.Bool
	closeOnce     sync.Once
	conn          *net.UDPConn
	done          chan struct{}

	counters counters
}

// NewParser returns an Idle Parser with no admission allow-set (formats
// 06/17/23/14 decode to typed records, every other code follows
// SetDeliverUnknown) and the strict checksum domain.
func NewParser() *Parser {
	return &Parser{
		allowed:      nil,
		checksumMode: wire.ChecksumHeaderBody,
	}
}

// ConfigureMulticast sets the multicast group and interface to join on
// Start. Both are IPv4 literals; interface names the local interface's own
// address, not its device name (§6.3). Calling it after Start has no
// effect — configuration is immutable once Running (§5).
func (p *Parser) ConfigureMulticast(group, iface string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.multicastGroup = group
	p.iface = iface
}

// ConfigureAllowedFormatCodes replaces the admission allow-set (§4.7). A
// nil set removes the restriction: every recognized format decodes, and
// unrecognized ones fall through to deliverUnknown.
func (p *Parser) ConfigureAllowedFormatCodes(allowed map[byte]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowed = allowed
}

// SetDeliverUnknown controls whether unrecognized format codes are
// delivered as *record.UnknownRecord instead of being dropped (§4.7).
func (p *Parser) SetDeliverUnknown(deliver bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliverUnknown = deliver
}

// SetChecksumMode selects the XOR checksum domain the validator accepts.
func (p *Parser) SetChecksumMode(mode wire.ChecksumMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checksumMode = mode
}

// SetPredicate installs a per-packet filter evaluated after dispatch and
// before the sink is called. A nil predicate (the default) admits every
// record. This is the predicate hook §1 reserves symbol filtering to —
// the core itself never filters by stock code.
func (p *Parser) SetPredicate(pred func(record.Record) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predicate = pred
}

// Counters returns a point-in-time snapshot of the per-datagram counters
// accumulated since Start.
func (p *Parser) Counters() Counters {
	return p.counters.snapshot()
}

// Start opens the socket, joins the configured multicast group if any, and
// spawns the worker goroutine. It returns once the socket is bound and any
// multicast join has completed; it does not block for the worker's
// lifetime.
func (p *Parser) Start(port uint16, sink Sink) error {
	if sink == nil {
		return fmt.Errorf("parser: sink must not be nil")
	}
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	p.mu.Lock()
	group, iface := p.multicastGroup, p.iface
	allowed, deliverUnknown := p.allowed, p.deliverUnknown
	checksumMode, predicate := p.checksumMode, p.predicate
	p.mu.Unlock()

	p.counters.reset()
	p.stopRequested.Store(false)
	p.closeOnce = sync.Once{}

	lc := net.ListenConfig{Control: setReuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		p.running.Store(false)
		return fmt.Errorf("parser: bind: %w", err)
	}
	conn := pc.(*net.UDPConn)

	if group != "" {
		if err := joinMulticastGroup(conn, group, iface); err != nil {
			conn.Close()
			p.running.Store(false)
			return fmt.Errorf("parser: multicast join: %w", err)
		}
	}

	p.conn = conn
	p.done = make(chan struct{})

	go p.receiveLoop(conn, allowed, deliverUnknown, checksumMode, predicate, sink)
	return nil
}

// Stop cooperatively shuts down the worker: it signals the stop flag and
// closes the socket, unblocking the worker's pending read, then waits up
// to stopJoinTimeout for it to exit. Stop is idempotent and a no-op on an
// idle or already-stopped Parser (§4.8).
func (p *Parser) Stop() {
	if !p.running.Load() {
		return
	}
	p.closeOnce.Do(func() {
		p.stopRequested.Store(true)
		if p.conn != nil {
			p.conn.Close()
		}
	})
	select {
	case <-p.done:
	case <-time.After(stopJoinTimeout):
		log.Printf("[parser] worker did not exit within %s; detaching", stopJoinTimeout)
	}
	p.running.Store(false)
}

func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

func joinMulticastGroup(conn *net.UDPConn, group, iface string) error {
	groupIP := net.ParseIP(group).To4()
	if groupIP == nil {
		return fmt.Errorf("invalid multicast group literal %q", group)
	}
	ifi, err := interfaceWithAddress(iface)
	if err != nil {
		return err
	}
	p := ipv4.NewPacketConn(conn)
	return p.JoinGroup(ifi, &net.UDPAddr{IP: groupIP})
}

// interfaceWithAddress resolves the local net.Interface whose address
// matches the given IPv4 literal, as required to call ipv4.JoinGroup.
func interfaceWithAddress(ipLiteral string) (*net.Interface, error) {
	ip := net.ParseIP(ipLiteral)
	if ip == nil {
		return nil, fmt.Errorf("invalid interface IPv4 literal %q", ipLiteral)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("enumerate interfaces: %w", err)
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var addrIP net.IP
			switch v := a.(type) {
			case *net.IPNet:
				addrIP = v.IP
			case *net.IPAddr:
				addrIP = v.IP
			}
			if addrIP != nil && addrIP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no local interface has address %s", ipLiteral)
}

func (p *Parser) receiveLoop(conn *net.UDPConn, allowed map[byte]bool, deliverUnknown bool, mode wire.ChecksumMode, predicate func(record.Record) bool, sink Sink) {
	defer close(p.done)
	buf := make([]byte, recvBufferSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if p.stopRequested.Load() {
				return
			}
			log.Printf("[parser] read error: %v", err)
			p.counters.transientErrors.Add(1)
			time.Sleep(readRetryDelay)
			continue
		}
		p.handleDatagram(buf[:n], allowed, deliverUnknown, mode, predicate, sink)
	}
}

func (p *Parser) handleDatagram(raw []byte, allowed map[byte]bool, deliverUnknown bool, mode wire.ChecksumMode, predicate func(record.Record) bool, sink Sink) {
	frame, err := wire.Validate(raw, mode)
	if err != nil {
		p.countValidationFailure(err)
		return
	}

	rec, err := wire.Dispatch(frame, allowed, deliverUnknown)
	if err != nil {
		p.countDispatchFailure(err)
		return
	}

	if predicate != nil && !predicate(rec) {
		return
	}

	p.invokeSink(sink, rec)
}

func (p *Parser) countValidationFailure(err error) {
	var ve *wire.ValidationError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case wire.TooShort:
			p.counters.tooShort.Add(1)
		case wire.BadFraming:
			p.counters.badFraming.Add(1)
		case wire.BadChecksum:
			p.counters.badChecksum.Add(1)
		case wire.LengthMismatch:
			p.counters.lengthMismatch.Add(1)
		}
		return
	}
	// Validate's only other failure mode is a header decode error, which
	// is either malformed BCD or a plain length assertion from DecodeHeader.
	var bcdErr *bcd.Error
	if errors.As(err, &bcdErr) {
		p.counters.badBCD.Add(1)
		return
	}
	p.counters.badBody.Add(1)
}

func (p *Parser) countDispatchFailure(err error) {
	if errors.Is(err, wire.ErrFormatDropped) {
		p.counters.unknownFormat.Add(1)
		return
	}
	var bcdErr *bcd.Error
	if errors.As(err, &bcdErr) {
		p.counters.badBCD.Add(1)
		return
	}
	p.counters.badBody.Add(1)
}

func (p *Parser) invokeSink(sink Sink, rec record.Record) {
	p.counters.delivered.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.counters.sinkRaised.Add(1)
			log.Printf("[parser] sink panic recovered: %v", r)
		}
	}()
	sink(rec)
}
