// Command feedwatch connects to the market game WebSocket feed, subscribes
// to topics or instruments, and prints every message in human-readable form.
//
// Usage:
//
//	feedwatch                                  # connect to localhost:8100, subscribe to all
//	feedwatch -url ws://host:8100/feed         # custom endpoint
//	feedwatch -symbols stocks,BTC,events       # topics and instruments
//	feedwatch -json                            # request JSON format instead (pass-through print)
//	feedwatch -stats 10                        # print message rate stats every N seconds
//	feedwatch -hex                             # also dump raw hex alongside decoded output
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-game/internal/feed"
)

func main() {
	url := flag.String("url", "ws://localhost:8100/feed", "WebSocket endpoint")
	symbols := flag.String("symbols", "*", "Comma-separated topics, symbols, or * for all")
	useJSON := flag.Bool("json", false, "Request JSON format instead of binary")
	statsInterval := flag.Int("stats", 0, "Print message rate stats every N seconds (0 = off)")
	showHex := flag.Bool("hex", false, "Print raw hex dump alongside decoded output")
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	log.Printf("connecting to %s", *url)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	log.Println("connected")

	format := "binary"
	if *useJSON {
		format = "json"
	}
	sendControl(conn, map[string]any{"action": "format", "format": format})
	sendControl(conn, map[string]any{"action": "subscribe", "symbols": strings.Split(*symbols, ",")})
	log.Printf("subscribed to %s in %s mode", *symbols, format)

	var msgCount uint64
	if *statsInterval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(*statsInterval) * time.Second)
			defer ticker.Stop()
			var last uint64
			for range ticker.C {
				cur := atomic.LoadUint64(&msgCount)
				rate := float64(cur-last) / float64(*statsInterval)
				log.Printf("[stats] %d msgs total | %.1f msgs/sec", cur, rate)
				last = cur
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("shutting down...")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(200 * time.Millisecond)
		os.Exit(0)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		atomic.AddUint64(&msgCount, 1)

		if msgType == websocket.TextMessage {
			fmt.Println(string(data))
			continue
		}
		if *showHex {
			fmt.Print(hex.Dump(data))
		}
		msgs, err := feed.DecodeAll(data)
		for i := range msgs {
			fmt.Println(describe(&msgs[i]))
		}
		if err != nil {
			fmt.Printf("??? %v\n", err)
		}
	}
}

func sendControl(conn *websocket.Conn, msg map[string]any) {
	data, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Fatalf("send control: %v", err)
	}
}

// describe renders one decoded message on a single line.
func describe(m *feed.Message) string {
	ts := m.Time().Format("2006-01-02 15:04")
	switch m.Type {
	case feed.MsgQuote:
		return fmt.Sprintf("QUOTE    %s  %-7s %-8s %.4f", ts, m.Topic(), m.Symbol, m.Price)
	case feed.MsgDirectory:
		return fmt.Sprintf("LISTING  %-7s %-8s %-24s %.4f", m.Topic(), m.Symbol, m.Name, m.Price)
	case feed.MsgClock:
		state := "running"
		if m.Paused {
			state = "paused"
		}
		return fmt.Sprintf("CLOCK    %s  tick=%-3d speed=%gx %s", ts, m.Tick, m.Speed, state)
	case feed.MsgEvent:
		return fmt.Sprintf("EVENT    %s  [%c] %s: %s", ts, m.Category, m.Name, m.Text)
	case feed.MsgDraw:
		return fmt.Sprintf("DRAW     %s  reds=%v blue=%d pool=%.2f", ts, m.Reds, m.Blue, m.Pool)
	}
	return fmt.Sprintf("UNKNOWN  type=%c", m.Type)
}
