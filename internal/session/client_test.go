package session

import (
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
)

func newTestClient(bufSize int) *Client {
	return NewClient(nil, bufSize)
}

func TestDefaultFormat(t *testing.T) {
	c := newTestClient(10)
	if c.Format() != FormatJSON {
		t.Fatalf("default format = %d, want FormatJSON (%d)", c.Format(), FormatJSON)
	}
}

func TestSetFormat(t *testing.T) {
	c := newTestClient(10)
	c.SetFormat(FormatBinary)
	if c.Format() != FormatBinary {
		t.Fatalf("format = %d, want FormatBinary (%d)", c.Format(), FormatBinary)
	}
	c.SetFormat(FormatJSON)
	if c.Format() != FormatJSON {
		t.Fatalf("format = %d, want FormatJSON (%d)", c.Format(), FormatJSON)
	}
}

func TestSubscribeTopic(t *testing.T) {
	c := newTestClient(10)
	c.Subscribe([]string{"stocks"})
	if !c.IsSubscribed("stocks", "000858") {
		t.Fatal("topic subscription should cover every symbol on it")
	}
	if c.IsSubscribed("crypto", "BTC") {
		t.Fatal("should not be subscribed to crypto")
	}
}

func TestSubscribeSymbol(t *testing.T) {
	c := newTestClient(10)
	c.Subscribe([]string{"BTC"})
	if !c.IsSubscribed("crypto", "BTC") {
		t.Fatal("should be subscribed to BTC")
	}
	if c.IsSubscribed("crypto", "ETH") {
		t.Fatal("should not be subscribed to ETH")
	}
	if c.IsSubscribed("clock", "") {
		t.Fatal("symbol subscription should not match symbol-less messages")
	}
}

func TestSubscribeAll(t *testing.T) {
	c := newTestClient(10)
	c.SubscribeAll()
	if !c.IsSubscribed("events", "") || !c.IsSubscribed("forex", "JPY") {
		t.Fatal("should be subscribed to everything after SubscribeAll")
	}
	if !c.IsAllSubscribed() {
		t.Fatal("IsAllSubscribed should be true")
	}
	if c.Subscriptions() != nil {
		t.Fatal("Subscriptions should be nil for all-subscribed")
	}
	c.Unsubscribe([]string{"*"})
	if c.IsAllSubscribed() {
		t.Fatal("unsubscribing * should clear the catch-all")
	}
}

func TestUnsubscribe(t *testing.T) {
	c := newTestClient(10)
	c.Subscribe([]string{"stocks", "BTC", "clock"})
	c.Unsubscribe([]string{"BTC"})
	if c.IsSubscribed("crypto", "BTC") {
		t.Fatal("should not be subscribed to BTC after unsubscribe")
	}
	if len(c.Subscriptions()) != 2 {
		t.Fatalf("Subscriptions = %v, want 2 entries", c.Subscriptions())
	}
}

func TestFormatOpcode(t *testing.T) {
	if op := FormatJSON.Opcode(); op != websocket.TextMessage {
		t.Fatalf("json opcode = %d, want %d", op, websocket.TextMessage)
	}
	if op := FormatBinary.Opcode(); op != websocket.BinaryMessage {
		t.Fatalf("binary opcode = %d, want %d", op, websocket.BinaryMessage)
	}
}

func TestSendBufferFull(t *testing.T) {
	c := newTestClient(2)
	ok1 := c.Send(Frame{Type: websocket.TextMessage, Data: []byte("msg1")})
	ok2 := c.Send(Frame{Type: websocket.TextMessage, Data: []byte("msg2")})
	ok3 := c.Send(Frame{Type: websocket.TextMessage, Data: []byte("msg3")})
	if !ok1 || !ok2 {
		t.Fatal("first two sends should succeed")
	}
	if ok3 {
		t.Fatal("third send should fail (buffer full)")
	}
	if dropped := atomic.LoadUint64(&c.Dropped); dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", dropped)
	}
}

func TestUniqueIDs(t *testing.T) {
	c1 := newTestClient(10)
	c2 := newTestClient(10)
	c3 := newTestClient(10)
	if c1.ID == c2.ID || c2.ID == c3.ID || c1.ID == c3.ID {
		t.Fatalf("client IDs should be unique: %d, %d, %d", c1.ID, c2.ID, c3.ID)
	}
}

func TestIsSubscribedDefault(t *testing.T) {
	c := newTestClient(10)
	if c.IsSubscribed("stocks", "000858") {
		t.Fatal("new client should not be subscribed to anything")
	}
}

func TestCloseWithoutConn(t *testing.T) {
	c := newTestClient(1)
	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed")
	}
}
