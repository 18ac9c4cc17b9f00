// Command twse-monitor starts a parser.Parser and streams the latest state
// of each decoded record's key to connected browsers over a websocket, at
// most once per hub flush tick, adapted from the teacher
// repository's trading dashboard. It is an illustrative downstream
// consumer, not part of the core.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"twse-md-parser/pkg/monitor"
	"twse-md-parser/pkg/parser"
)

func main() {
	udpPort := flag.Int("udp-port", 0, "UDP bind port for the market-data feed")
	httpPort := flag.Int("http-port", 8080, "HTTP port serving /ws")
	group := flag.String("group", "", "multicast group IPv4 literal")
	iface := flag.String("iface", "", "local interface IPv4 literal")
	deliverUnknown := flag.Bool("deliver-unknown", false, "broadcast unrecognized format codes too")
	flag.Parse()

	if *udpPort == 0 {
		log.Fatal("[twse-monitor] -udp-port is required")
	}

	srv := monitor.NewServer(*httpPort)
	srv.Start()
	defer srv.Stop()

	p := parser.NewParser()
	if *group != "" {
		p.ConfigureMulticast(*group, *iface)
	}
	p.SetDeliverUnknown(*deliverUnknown)

	if err := p.Start(uint16(*udpPort), srv.Sink); err != nil {
		log.Fatalf("[twse-monitor] start: %v", err)
	}
	log.Printf("[twse-monitor] udp :%d -> ws http://localhost:%d/ws", *udpPort, *httpPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("[twse-monitor] shutting down")
	p.Stop()
}
