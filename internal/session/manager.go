package session

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-game/internal/feed"
)

// Manager handles client registration, subscriptions, and message fan-out.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	listing    []feed.Message
	bySymbol   map[string]feed.Message
	topics     map[string]bool
	bufferSize int

	sent    uint64
	dropped uint64
}

// NewManager creates a session manager over the instrument listing.
func NewManager(listing []feed.Message, bufferSize int) *Manager {
	topics := make(map[string]bool, len(feed.Topics))
	for _, t := range feed.Topics {
		topics[t] = true
	}
	m := &Manager{
		clients:    make(map[uint64]*Client),
		topics:     topics,
		bufferSize: bufferSize,
	}
	m.SetListing(listing)
	return m
}

// SetListing replaces the directory sent to new subscribers.
func (m *Manager) SetListing(listing []feed.Message) {
	bySymbol := make(map[string]feed.Message, len(listing))
	for _, l := range listing {
		bySymbol[l.Symbol] = l
	}
	m.mu.Lock()
	m.listing = listing
	m.bySymbol = bySymbol
	m.mu.Unlock()
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)
	m.add(c)
	log.Printf("client %d connected (%s)", c.ID, conn.RemoteAddr())
	return c
}

func (m *Manager) add(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	log.Printf("client %d disconnected", c.ID)
}

// Resolve keeps the known topics and symbols from names. all is true when
// names contains "*".
func (m *Manager) Resolve(names []string) (keys []string, all bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range names {
		if n == "*" {
			return nil, true
		}
		if _, ok := m.bySymbol[n]; ok || m.topics[n] {
			keys = append(keys, n)
		}
	}
	return keys, false
}

// Broadcast sends messages to every subscribed client. Each message is
// encoded at most once per format.
func (m *Manager) Broadcast(msgs []feed.Message) {
	if len(msgs) == 0 {
		return
	}

	var jsonEncoded, binaryEncoded [][]byte
	var jsonOnce, binaryOnce sync.Once

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		var encoded [][]byte
		format := c.Format()
		switch format {
		case FormatJSON:
			jsonOnce.Do(func() { jsonEncoded = encodeAllJSON(msgs) })
			encoded = jsonEncoded
		case FormatBinary:
			binaryOnce.Do(func() { binaryEncoded = encodeAllBinary(msgs) })
			encoded = binaryEncoded
		}
		for i := range msgs {
			if encoded[i] == nil || !c.IsSubscribed(msgs[i].Topic(), msgs[i].Symbol) {
				continue
			}
			m.count(c.Send(Frame{Type: format.Opcode(), Data: encoded[i]}))
		}
	}
}

// SendToClient sends messages directly to a specific client (e.g. the
// listing on subscribe).
func (m *Manager) SendToClient(c *Client, msgs []feed.Message) {
	var encoded [][]byte
	format := c.Format()
	switch format {
	case FormatJSON:
		encoded = encodeAllJSON(msgs)
	case FormatBinary:
		encoded = encodeAllBinary(msgs)
	}
	for _, data := range encoded {
		if data != nil {
			m.count(c.Send(Frame{Type: format.Opcode(), Data: data}))
		}
	}
}

func (m *Manager) count(ok bool) {
	if ok {
		atomic.AddUint64(&m.sent, 1)
	} else {
		atomic.AddUint64(&m.dropped, 1)
	}
}

// Listing returns the directory entries matching keys, or all of them.
func (m *Manager) Listing(keys []string, all bool) []feed.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if all {
		return append([]feed.Message(nil), m.listing...)
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []feed.Message
	for _, l := range m.listing {
		if want[l.Symbol] || want[l.Topic()] {
			out = append(out, l)
		}
	}
	return out
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Sent returns the number of frames queued to clients.
func (m *Manager) Sent() uint64 { return atomic.LoadUint64(&m.sent) }

// Dropped returns the number of frames dropped on full buffers.
func (m *Manager) Dropped() uint64 { return atomic.LoadUint64(&m.dropped) }

// encodeAllJSON keeps positions aligned with msgs; failures are nil.
func encodeAllJSON(msgs []feed.Message) [][]byte {
	out := make([][]byte, len(msgs))
	for i := range msgs {
		data, err := feed.EncodeJSON(&msgs[i])
		if err != nil {
			continue
		}
		out[i] = data
	}
	return out
}

func encodeAllBinary(msgs []feed.Message) [][]byte {
	out := make([][]byte, len(msgs))
	for i := range msgs {
		out[i] = feed.EncodeBinary(&msgs[i])
	}
	return out
}
