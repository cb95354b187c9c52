package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"holdem-broadcast/broadcast"
	"holdem-broadcast/replay"
)

func main() {
	tapePath := flag.String("tape", "", "path to a recorded tape (JSON)")
	leaveHold := flag.Duration("leave-hold", 0, "hold departed players as leaving for this long")
	pretty := flag.Bool("pretty", false, "indent output")
	flag.Parse()

	log.SetPrefix("[Replay] ")
	if *tapePath == "" {
		log.Fatalf("missing -tape")
	}

	raw, err := os.ReadFile(*tapePath)
	if err != nil {
		log.Fatalf("read tape: %v", err)
	}
	var tape replay.Tape
	if err := json.Unmarshal(raw, &tape); err != nil {
		log.Fatalf("decode tape: %v", err)
	}

	tl, err := replay.Run(&tape, broadcast.Config{LeaveHold: *leaveHold})
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	log.Printf("%d events -> %d steps", len(tape.Events), len(tl.Steps))

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(tl); err != nil {
		log.Fatalf("encode timeline: %v", err)
	}
}
