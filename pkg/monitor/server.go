package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"twse-md-parser/pkg/record"
)

// Server serves the websocket endpoint and a small health/status REST
// surface alongside it.
type Server struct {
	hub        *Hub
	port       int
	httpServer *http.Server
}

// NewServer returns a Server bound to port, ready for Start.
func NewServer(port int) *Server {
	return &Server{hub: NewHub(), port: port}
}

// Start launches the hub and the HTTP server in the background.
func (s *Server) Start() {
	s.hub.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/ws", websocket.Handler(s.hub.HandleWebSocket))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		log.Printf("[monitor] server starting on :%d", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[monitor] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts the hub and HTTP server down.
func (s *Server) Stop() {
	s.hub.Stop()
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// Sink is a parser.Sink that hands every decoded record to the hub, which
// sends the latest state per key to connected websocket clients on each
// flush tick.
func (s *Server) Sink(r record.Record) {
	s.hub.BroadcastRecord(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `{"clients":%d}`, s.hub.ClientCount())
}
