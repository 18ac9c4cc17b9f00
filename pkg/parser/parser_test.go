package parser

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"twse-md-parser/pkg/record"
	"twse-md-parser/pkg/wire"
)

func freeUDPPort(t *testing.T) uint16 {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer conn.Close()
	return uint16(conn.LocalAddr().(*net.UDPAddr).Port)
}

func sendDatagram(t *testing.T, port uint16, raw []byte) {
	t.Helper()
	conn, err := net.Dial("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(raw); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestParserDeliversDecodedRecord(t *testing.T) {
	port := freeUDPPort(t)

	var mu sync.Mutex
	var got record.Record
	done := make(chan struct{}, 1)
	sink := func(r record.Record) {
		mu.Lock()
		got = r
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	}

	// A format code outside the default allow-set, routed to the sink as
	// UnknownRecord, exercises the same transport path a recognized format
	// would take without needing a real trade-snapshot body.
	p := NewParser()
	p.SetDeliverUnknown(true)
	p.ConfigureAllowedFormatCodes(nil)
	if err := p.Start(port, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	h := record.Header{BusinessType: 0x01, FormatCode: 0x99, FormatVersion: 0x04, TransmissionNumber: 1}
	raw, err := wire.Encode(h, []byte("payload-bytes"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	sendDatagram(t, port, raw)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink invocation")
	}

	mu.Lock()
	defer mu.Unlock()
	u, ok := got.(*record.UnknownRecord)
	if !ok {
		t.Fatalf("sink received %T, want *record.UnknownRecord", got)
	}
	if u.FormatCode != 0x99 {
		t.Errorf("FormatCode = 0x%02x, want 0x99", u.FormatCode)
	}
	if string(u.RawPayload) != "payload-bytes" {
		t.Errorf("RawPayload = %q, want %q", u.RawPayload, "payload-bytes")
	}

	if got := p.Counters().Delivered; got != 1 {
		t.Errorf("Counters().Delivered = %d, want 1", got)
	}
}

func TestParserDropsMalformedFraming(t *testing.T) {
	port := freeUDPPort(t)
	p := NewParser()
	sink := func(record.Record) { t.Error("sink called for malformed datagram") }
	if err := p.Start(port, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	sendDatagram(t, port, []byte("not a valid TWSE datagram at all"))

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if p.Counters().BadFraming > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("Counters().BadFraming = %d, want > 0", p.Counters().BadFraming)
}

func TestParserDoubleStartFails(t *testing.T) {
	port := freeUDPPort(t)
	p := NewParser()
	sink := func(record.Record) {}
	if err := p.Start(port, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	port2 := freeUDPPort(t)
	if err := p.Start(port2, sink); err != ErrAlreadyRunning {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
}

func TestParserStopIsIdempotent(t *testing.T) {
	p := NewParser()
	p.Stop() // idle: no-op, must not panic

	port := freeUDPPort(t)
	if err := p.Start(port, func(record.Record) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop()
	p.Stop() // already stopped: no-op, must not panic
}

func TestParserRejectsNilSink(t *testing.T) {
	p := NewParser()
	port := freeUDPPort(t)
	if err := p.Start(port, nil); err == nil {
		p.Stop()
		t.Error("Start(nil sink): expected error")
	}
}
