package feed

import (
	"encoding/json"
	"fmt"
)

// JSON encoder: human-readable mirror of the binary messages.
// Prices are formatted as 4-decimal strings, timestamps as RFC 3339 game time.

// EncodeJSON encodes a Message into JSON bytes.
func EncodeJSON(m *Message) ([]byte, error) {
	obj := msgToMap(m)
	if obj == nil {
		return nil, fmt.Errorf("unsupported message type: %c", m.Type)
	}
	return json.Marshal(obj)
}

func msgToMap(m *Message) map[string]any {
	switch m.Type {
	case MsgQuote:
		return map[string]any{
			"type":   "quote",
			"time":   m.Time(),
			"topic":  m.Topic(),
			"symbol": m.Symbol,
			"price":  formatPrice(m.Price),
		}

	case MsgDirectory:
		return map[string]any{
			"type":   "directory",
			"topic":  m.Topic(),
			"symbol": m.Symbol,
			"name":   m.Name,
			"price":  formatPrice(m.Price),
		}

	case MsgClock:
		return map[string]any{
			"type":   "clock",
			"time":   m.Time(),
			"tick":   m.Tick,
			"paused": m.Paused,
			"speed":  m.Speed,
		}

	case MsgEvent:
		return map[string]any{
			"type":     "event",
			"time":     m.Time(),
			"category": string([]byte{m.Category}),
			"name":     m.Name,
			"effect":   m.Text,
		}

	case MsgDraw:
		return map[string]any{
			"type": "draw",
			"time": m.Time(),
			"reds": m.Reds,
			"blue": m.Blue,
			"pool": formatPrice(m.Pool),
		}
	}
	return nil
}

func formatPrice(price float64) string {
	return fmt.Sprintf("%.4f", price)
}
