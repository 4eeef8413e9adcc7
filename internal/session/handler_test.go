package session

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-game/internal/feed"
)

func dial(t *testing.T, m *Manager) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(Handler(m))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return obj
}

func TestHandlerSubscribeSendsListing(t *testing.T) {
	m := newTestManager()
	conn := dial(t, m)

	if err := conn.WriteJSON(controlMessage{Action: "subscribe", Symbols: []string{"BTC"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	obj := readJSON(t, conn)
	if obj["type"] != "directory" || obj["symbol"] != "BTC" {
		t.Fatalf("listing = %v", obj)
	}

	// The listing arriving proves the subscription is in place.
	m.Broadcast([]feed.Message{
		feed.NewQuote(feed.MarketStock, "000858", 181, t0),
		feed.NewQuote(feed.MarketCrypto, "BTC", 45500, t0),
	})
	obj = readJSON(t, conn)
	if obj["type"] != "quote" || obj["symbol"] != "BTC" || obj["price"] != "45500.0000" {
		t.Fatalf("quote = %v", obj)
	}
}

func TestHandlerBinaryFormat(t *testing.T) {
	m := newTestManager()
	conn := dial(t, m)

	conn.WriteJSON(controlMessage{Action: "format", Format: "binary"})
	conn.WriteJSON(controlMessage{Action: "subscribe", Topics: []string{"stocks"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message kind = %d, want binary", kind)
	}
	msgs, err := feed.DecodeAll(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Type != feed.MsgDirectory || msgs[0].Market != feed.MarketStock {
		t.Fatalf("msgs = %+v", msgs)
	}
}
