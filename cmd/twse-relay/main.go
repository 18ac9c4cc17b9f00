// Command twse-relay republishes decoded TWSE records onto a NATS subject
// as JSON, one message per record, mirroring the sibling repository's
// NATSClient role but as a producer instead of a subscriber. It is an
// illustrative downstream consumer, not part of the core.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"twse-md-parser/pkg/parser"
	"twse-md-parser/pkg/record"
	"twse-md-parser/pkg/recordjson"
)

func main() {
	port := flag.Int("port", 0, "UDP bind port")
	group := flag.String("group", "", "multicast group IPv4 literal")
	iface := flag.String("iface", "", "local interface IPv4 literal")
	natsURL := flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	subject := flag.String("subject", "twse.md", "NATS subject to publish decoded records to")
	deliverUnknown := flag.Bool("deliver-unknown", false, "relay unrecognized format codes too")
	flag.Parse()

	if *port == 0 {
		log.Fatal("[twse-relay] -port is required")
	}

	conn, err := nats.Connect(*natsURL,
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		log.Fatalf("[twse-relay] connect to NATS at %s: %v", *natsURL, err)
	}
	defer conn.Close()

	p := parser.NewParser()
	if *group != "" {
		p.ConfigureMulticast(*group, *iface)
	}
	p.SetDeliverUnknown(*deliverUnknown)

	sink := func(r record.Record) {
		msg, err := json.Marshal(recordjson.From(r))
		if err != nil {
			log.Printf("[twse-relay] marshal record: %v", err)
			return
		}
		if err := conn.Publish(*subject, msg); err != nil {
			log.Printf("[twse-relay] publish: %v", err)
		}
	}

	if err := p.Start(uint16(*port), sink); err != nil {
		log.Fatalf("[twse-relay] start: %v", err)
	}
	log.Printf("[twse-relay] relaying :%d -> nats subject %q", *port, *subject)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("[twse-relay] shutting down")
	p.Stop()
	conn.Drain()
}
