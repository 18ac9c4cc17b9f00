// Package monitor serves a live websocket stream of decoded TWSE records.
// A single multicast feed can carry thousands of trade-snapshot datagrams
// per second across a few hundred symbols; a browser tab has no use for
// every intermediate update to the same symbol, only its latest state, so
// the Hub conflates same-key updates between flush ticks instead of
// fanning out one websocket frame per decoded record.
package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"twse-md-parser/pkg/record"
	"twse-md-parser/pkg/recordjson"
)

// flushInterval bounds how often a client observes a state change. It is
// independent of the feed's datagram rate: a symbol updated 500 times a
// second still produces at most one snapshot entry per interval.
const flushInterval = 150 * time.Millisecond

// clientSendBuffer is how many flush messages may wait for one client; a
// flush that finds the client's buffer full is dropped for that client.
const clientSendBuffer = 4

// Message is the envelope pushed to every connected browser. A "snapshot"
// message carries the latest state of every key that changed since the
// last flush; a "ping" message carries none and exists only so an idle
// connection still produces on-the-wire traffic a client can detect the
// loss of.
type Message struct {
	Type      string                  `json:"type"` // "snapshot", "ping"
	Timestamp string                  `json:"timestamp"`
	Records   []recordjson.WireRecord `json:"records,omitempty"`
}

// Hub fans out decoded records to every connected websocket client,
// conflating updates to the same key between flushes so a slow browser
// client never falls behind a fast feed.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan *Message

	latest map[string]recordjson.WireRecord // conflateKey -> most recent state
	dirty  map[string]bool                  // keys changed since the last flush

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	stopCh     chan struct{}
	running    bool
}

// NewHub returns an idle Hub. Call Start before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]chan *Message),
		latest:     make(map[string]recordjson.WireRecord),
		dirty:      make(map[string]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the Hub's connection-management and flush loop.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
	log.Printf("[monitor] hub started, flush interval %s", flushInterval)
}

// Stop closes every client connection and shuts the Hub down.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.stopCh)
	clients := h.clients
	h.clients = make(map[*websocket.Conn]chan *Message)
	h.mu.Unlock()

	for conn, ch := range clients {
		close(ch)
		conn.Close()
	}
	log.Printf("[monitor] hub stopped")
}

func (h *Hub) run() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return

		case conn := <-h.register:
			ch := make(chan *Message, clientSendBuffer)
			h.mu.Lock()
			h.clients[conn] = ch
			n := len(h.clients)
			h.mu.Unlock()
			go h.writeLoop(conn, ch)
			log.Printf("[monitor] client connected, total: %d", n)

		case conn := <-h.unregister:
			h.mu.Lock()
			ch, ok := h.clients[conn]
			if ok {
				delete(h.clients, conn)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if ok {
				close(ch)
				conn.Close()
			}
			log.Printf("[monitor] client disconnected, total: %d", n)

		case <-ticker.C:
			h.flush()
		}
	}
}

// flush drains the dirty set into one snapshot message, sent identically
// to every client, falling back to a ping when nothing changed.
func (h *Hub) flush() {
	h.mu.Lock()
	var records []recordjson.WireRecord
	if len(h.dirty) > 0 {
		records = make([]recordjson.WireRecord, 0, len(h.dirty))
		for key := range h.dirty {
			records = append(records, h.latest[key])
			delete(h.dirty, key)
		}
	}
	clients := make([]chan *Message, 0, len(h.clients))
	for _, ch := range h.clients {
		clients = append(clients, ch)
	}
	h.mu.Unlock()

	if len(clients) == 0 {
		return
	}

	msg := &Message{Timestamp: time.Now().Format(time.RFC3339Nano)}
	if len(records) > 0 {
		msg.Type = "snapshot"
		msg.Records = records
	} else {
		msg.Type = "ping"
	}

	for _, ch := range clients {
		select {
		case ch <- msg:
		default:
			// Client is behind by clientSendBuffer flushes already; this
			// message is dropped for it, and the records it carried reach
			// that client again only once their keys are updated again.
		}
	}
}

// writeLoop owns the one goroutine allowed to write to conn, since
// websocket.Conn has no concurrent-write guarantee of its own.
func (h *Hub) writeLoop(conn *websocket.Conn, ch chan *Message) {
	for msg := range ch {
		if err := websocket.JSON.Send(conn, msg); err != nil {
			h.requestUnregister(conn)
			return
		}
	}
}

func (h *Hub) requestUnregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.stopCh:
	}
}

// conflateKey groups updates that supersede one another: a later trade
// snapshot for stock 2330 replaces an earlier one, but it must never
// collide with a warrant descriptor or an unrecognized format that
// happens to report the same stock code.
func conflateKey(wr recordjson.WireRecord) string {
	if wr.StockCode != "" {
		return wr.Kind + ":" + wr.StockCode
	}
	return fmt.Sprintf("%s:%d", wr.Kind, wr.FormatCode)
}

// BroadcastRecord records a decoded record's latest state under its
// conflate key; the next flush tick fans it out to every connected
// client. Called synchronously from the Parser's sink.
func (h *Hub) BroadcastRecord(r record.Record) {
	wr := recordjson.From(r)
	key := conflateKey(wr)

	h.mu.Lock()
	h.latest[key] = wr
	h.dirty[key] = true
	h.mu.Unlock()
}

// HandleWebSocket upgrades and services one client connection until it
// disconnects. The read loop exists only to detect the disconnect; the
// dashboard is push-only and ignores whatever the client sends.
func (h *Hub) HandleWebSocket(ws *websocket.Conn) {
	h.register <- ws

	var msg map[string]any
	for {
		if err := websocket.JSON.Receive(ws, &msg); err != nil {
			h.requestUnregister(ws)
			return
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
