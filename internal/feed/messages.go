package feed

import (
	"math"
	"time"

	"github.com/ndrandal/market-game/internal/event"
	"github.com/ndrandal/market-game/internal/lottery"
)

// Message type codes.
type MsgType byte

const (
	MsgQuote     MsgType = 'Q'
	MsgDirectory MsgType = 'R'
	MsgClock     MsgType = 'C'
	MsgEvent     MsgType = 'E'
	MsgDraw      MsgType = 'L'
)

// Market identifies the venue of a quote or directory entry.
type Market byte

const (
	MarketStock  Market = 'S'
	MarketCrypto Market = 'C'
	MarketForex  Market = 'F'
)

// Topics a client can subscribe to.
const (
	TopicStocks  = "stocks"
	TopicCrypto  = "crypto"
	TopicForex   = "forex"
	TopicEvents  = "events"
	TopicLottery = "lottery"
	TopicClock   = "clock"
)

// Topics lists every subscribable topic.
var Topics = []string{TopicStocks, TopicCrypto, TopicForex, TopicEvents, TopicLottery, TopicClock}

// Topic returns the topic carrying quotes for mk.
func (mk Market) Topic() string {
	switch mk {
	case MarketStock:
		return TopicStocks
	case MarketCrypto:
		return TopicCrypto
	case MarketForex:
		return TopicForex
	}
	return ""
}

// Message is the universal feed message. Not all fields are used for every
// message type.
type Message struct {
	Type      MsgType
	Timestamp int64 // game time, Unix nanoseconds

	// Quote and directory
	Market Market
	Symbol string // up to 8 chars
	Name   string
	Price  float64

	// Clock
	Tick   uint16
	Paused bool
	Speed  float64

	// Event
	Category byte // 'M', 'I' or 'P'
	Text     string

	// Draw
	Reds []int
	Blue int
	Pool float64
}

// Topic returns the subscription topic the message is published on.
func (m *Message) Topic() string {
	switch m.Type {
	case MsgQuote, MsgDirectory:
		return m.Market.Topic()
	case MsgClock:
		return TopicClock
	case MsgEvent:
		return TopicEvents
	case MsgDraw:
		return TopicLottery
	}
	return ""
}

// Time returns the game time carried by the message.
func (m *Message) Time() time.Time {
	return time.Unix(0, m.Timestamp).UTC()
}

// NewQuote builds a price update.
func NewQuote(mk Market, sym string, price float64, at time.Time) Message {
	return Message{Type: MsgQuote, Timestamp: at.UnixNano(), Market: mk, Symbol: sym, Price: price}
}

// NewDirectory builds an instrument listing.
func NewDirectory(mk Market, sym, name string, price float64) Message {
	return Message{Type: MsgDirectory, Market: mk, Symbol: sym, Name: name, Price: price}
}

// NewClock builds a calendar update.
func NewClock(at time.Time, tick int, paused bool, speed float64) Message {
	return Message{Type: MsgClock, Timestamp: at.UnixNano(), Tick: uint16(tick), Paused: paused, Speed: speed}
}

var categoryCodes = map[event.Category]byte{
	event.CategoryMarket:   'M',
	event.CategoryIndustry: 'I',
	event.CategoryPersonal: 'P',
}

// FromRecord builds an event notice from a triggered event.
func FromRecord(r event.Record) Message {
	return Message{
		Type:      MsgEvent,
		Timestamp: r.Date.UnixNano(),
		Category:  categoryCodes[r.Category],
		Name:      r.Name,
		Text:      r.EffectText,
	}
}

// FromDraw builds a draw notice.
func FromDraw(d *lottery.DrawResult) Message {
	return Message{
		Type:      MsgDraw,
		Timestamp: d.Date.UnixNano(),
		Reds:      append([]int(nil), d.Reds...),
		Blue:      d.Blue,
		Pool:      d.Pool,
	}
}

// Price8 converts a price to 8-decimal fixed point.
func Price8(price float64) uint64 {
	return uint64(math.Round(price * 1e8))
}

// Price8ToFloat converts fixed point back to float64.
func Price8ToFloat(p uint64) float64 {
	return float64(p) / 1e8
}

// PadSymbol right-pads a symbol to 8 bytes with spaces.
func PadSymbol(sym string) [8]byte {
	var b [8]byte
	copy(b[:], sym)
	for i := len(sym); i < 8; i++ {
		b[i] = ' '
	}
	return b
}
