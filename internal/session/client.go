package session

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Format represents the client's preferred encoding format.
type Format int

const (
	FormatJSON   Format = 0
	FormatBinary Format = 1
)

// Opcode returns the websocket message type frames in this format use.
func (f Format) Opcode() int {
	if f == FormatBinary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Frame is an encoded message queued for a client together with the
// websocket message type it was encoded for.
type Frame struct {
	Type int
	Data []byte
}

// Client represents a connected WebSocket client.
type Client struct {
	ID   uint64
	Conn *websocket.Conn

	mu     sync.RWMutex
	format Format
	subs   map[string]bool // topic or symbol -> subscribed
	all    bool

	sendCh    chan Frame
	done      chan struct{}
	closeOnce sync.Once

	// stats
	Dropped uint64
}

var clientIDCounter uint64

// NewClient creates a new client wrapping a WebSocket connection.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:     atomic.AddUint64(&clientIDCounter, 1),
		Conn:   conn,
		format: FormatJSON,
		subs:   make(map[string]bool),
		sendCh: make(chan Frame, bufferSize),
		done:   make(chan struct{}),
	}
}

// Format returns the client's current encoding format.
func (c *Client) Format() Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

// SetFormat sets the client's encoding format.
func (c *Client) SetFormat(f Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// Subscribe adds topics or symbols to the client's subscription.
func (c *Client) Subscribe(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.subs[k] = true
	}
}

// SubscribeAll subscribes the client to everything.
func (c *Client) SubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = true
}

// Unsubscribe removes topics or symbols. Unsubscribing from "*" clears the
// catch-all flag.
func (c *Client) Unsubscribe(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if k == "*" {
			c.all = false
		}
		delete(c.subs, k)
	}
}

// IsSubscribed reports whether a message on topic about symbol should reach
// the client. symbol may be empty.
func (c *Client) IsSubscribed(topic, symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.all || c.subs[topic] {
		return true
	}
	return symbol != "" && c.subs[symbol]
}

// Subscriptions returns the subscribed topics and symbols, or nil when the
// client is subscribed to everything.
func (c *Client) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.all {
		return nil
	}
	out := make([]string, 0, len(c.subs))
	for k := range c.subs {
		out = append(out, k)
	}
	return out
}

// IsAllSubscribed returns true if the client is subscribed to everything.
func (c *Client) IsAllSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.all
}

// Send enqueues a frame to be sent to the client.
// Returns false if the buffer is full (message dropped).
func (c *Client) Send(f Frame) bool {
	select {
	case c.sendCh <- f:
		return true
	default:
		atomic.AddUint64(&c.Dropped, 1)
		return false
	}
}

// SendCh returns the send channel for the write pump.
func (c *Client) SendCh() <-chan Frame {
	return c.sendCh
}

// Done returns a channel that is closed when the client is disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}
