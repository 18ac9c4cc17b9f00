// Command twse-dump is a diagnostic consumer of the TWSE multicast feed: it
// starts a parser.Parser and prints every delivered record to stdout (or,
// in benchmark mode, just a trade snapshot's stock code and match time),
// optionally restricted to one
// stock code. It performs no persistence; it is the illustrative "console
// printer" role spec.md assigns to downstream consumers, not part of the
// core.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twse-md-parser/pkg/config"
	"twse-md-parser/pkg/parser"
	"twse-md-parser/pkg/record"
	"twse-md-parser/pkg/wire"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (listen/admit/checksum_mode)")
	port := flag.Int("port", 0, "UDP bind port (overrides config file)")
	group := flag.String("group", "", "multicast group IPv4 literal (overrides config file)")
	iface := flag.String("iface", "", "local interface IPv4 literal (overrides config file)")
	stock := flag.String("stock", "", "only print trade snapshots for this stock code (space-padded to 6 bytes)")
	mode := flag.String("mode", "normal", "\"normal\" prints every field, \"benchmark\" prints only stock code and match time for trade snapshots")
	deliverUnknown := flag.Bool("deliver-unknown", false, "deliver unrecognized format codes as UnknownRecord")
	logFile := flag.String("log-file", "", "redirect logging to this file instead of stderr")
	flag.Parse()

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("[twse-dump] open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	p := parser.NewParser()
	bindPort := uint16(*port)

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[twse-dump] load config: %v", err)
		}
		if bindPort == 0 {
			bindPort = cfg.Listen.Port
		}
		if cfg.Listen.MulticastGroup != "" {
			p.ConfigureMulticast(cfg.Listen.MulticastGroup, cfg.Listen.Interface)
		}
		p.ConfigureAllowedFormatCodes(cfg.Admit.AllowedFormatCodesSet(nil))
		p.SetDeliverUnknown(cfg.Admit.DeliverUnknown)
		if cfg.Checksum == "lenient" {
			p.SetChecksumMode(wire.ChecksumLenient)
		}
	}

	if *group != "" {
		p.ConfigureMulticast(*group, *iface)
	}
	if *deliverUnknown {
		p.SetDeliverUnknown(true)
	}
	if bindPort == 0 {
		log.Fatal("[twse-dump] a port is required: pass -port or -config with listen.port set")
	}

	if *stock != "" {
		wantCode := padStockCode(*stock)
		p.SetPredicate(func(r record.Record) bool {
			ts, ok := r.(*record.TradeSnapshot)
			if !ok {
				return true
			}
			return ts.StockCode == wantCode
		})
	}

	benchmark := *mode == "benchmark"
	sink := func(r record.Record) {
		printRecord(r, benchmark)
	}

	if err := p.Start(bindPort, sink); err != nil {
		log.Fatalf("[twse-dump] start: %v", err)
	}
	log.Printf("[twse-dump] listening on :%d", bindPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("[twse-dump] shutting down")
	p.Stop()
	c := p.Counters()
	log.Printf("[twse-dump] counters: delivered=%d too_short=%d bad_framing=%d bad_checksum=%d "+
		"length_mismatch=%d bad_bcd=%d bad_body=%d unknown_format=%d sink_raised=%d transient_errors=%d",
		c.Delivered, c.TooShort, c.BadFraming, c.BadChecksum, c.LengthMismatch,
		c.BadBCD, c.BadBody, c.UnknownFormat, c.SinkRaised, c.TransientErrors)
}

func padStockCode(s string) [6]byte {
	var out [6]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out
}

func printRecord(r record.Record, benchmark bool) {
	switch rec := r.(type) {
	case *record.TradeSnapshot:
		if benchmark {
			fmt.Printf("%s %02d:%02d:%02d.%06d\n", rec.StockCodeTrimmed(),
				rec.MatchTime.Hour, rec.MatchTime.Minute, rec.MatchTime.Second, rec.MatchTime.Microsecond)
			return
		}
		deal, hasDeal := rec.Deal()
		dealStr := "none"
		if hasDeal {
			dealStr = fmt.Sprintf("%.4f x %d", deal.Price.Float64(), deal.Quantity)
		}
		fmt.Printf("TRADE %s time=%02d:%02d:%02d.%06d deal=%s bids=%d asks=%d cum_vol=%d\n",
			rec.StockCodeTrimmed(), rec.MatchTime.Hour, rec.MatchTime.Minute, rec.MatchTime.Second,
			rec.MatchTime.Microsecond, dealStr, rec.BidDepth, rec.AskDepth, rec.CumulativeVolume)
	case *record.WarrantDescriptor:
		if benchmark {
			fmt.Printf("%s\n", time.Now().Format(time.RFC3339Nano))
			return
		}
		fmt.Printf("WARRANT brief=%q underlying=%q expires=%q\n",
			trimNulls(rec.BriefName), trimNulls(rec.UnderlyingAsset), trimNulls(rec.ExpirationDate))
	case *record.UnknownRecord:
		fmt.Printf("UNKNOWN format=0x%02x bytes=%d\n", rec.FormatCode, len(rec.RawPayload))
	}
}

func trimNulls(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0x00 || b[end-1] == ' ') {
		end--
	}
	return string(b[:end])
}
