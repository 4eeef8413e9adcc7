package feed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Binary encoder. Each message is prefixed with a 2-byte big-endian body
// length. Every body starts with Type(1) + Timestamp(8).

var (
	ErrShortFrame  = errors.New("short frame")
	ErrUnknownType = errors.New("unknown message type")
)

const headerLen = 9

// EncodeBinary encodes a Message including its length prefix. It returns nil
// for an unknown type.
func EncodeBinary(m *Message) []byte {
	var body []byte

	switch m.Type {
	case MsgQuote:
		body = encodeQuote(m)
	case MsgDirectory:
		body = encodeDirectory(m)
	case MsgClock:
		body = encodeClock(m)
	case MsgEvent:
		body = encodeEvent(m)
	case MsgDraw:
		body = encodeDraw(m)
	default:
		return nil
	}

	frame := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(frame[0:2], uint16(len(body)))
	copy(frame[2:], body)
	return frame
}

func putHeader(buf []byte, m *Message) {
	buf[0] = byte(m.Type)
	binary.BigEndian.PutUint64(buf[1:9], uint64(m.Timestamp))
}

// Quote (26 bytes)
// Header(9) + Market(1) + Symbol(8) + Price(8)
func encodeQuote(m *Message) []byte {
	buf := make([]byte, 26)
	putHeader(buf, m)
	buf[9] = byte(m.Market)
	sym := PadSymbol(m.Symbol)
	copy(buf[10:18], sym[:])
	binary.BigEndian.PutUint64(buf[18:26], Price8(m.Price))
	return buf
}

// Directory (27 + n bytes)
// Header(9) + Market(1) + Symbol(8) + Price(8) + NameLen(1) + Name(n)
func encodeDirectory(m *Message) []byte {
	name := clip(m.Name, math.MaxUint8)
	buf := make([]byte, 27+len(name))
	putHeader(buf, m)
	buf[9] = byte(m.Market)
	sym := PadSymbol(m.Symbol)
	copy(buf[10:18], sym[:])
	binary.BigEndian.PutUint64(buf[18:26], Price8(m.Price))
	buf[26] = byte(len(name))
	copy(buf[27:], name)
	return buf
}

// Clock (16 bytes)
// Header(9) + Tick(2) + Paused(1) + Speed(4, hundredths)
func encodeClock(m *Message) []byte {
	buf := make([]byte, 16)
	putHeader(buf, m)
	binary.BigEndian.PutUint16(buf[9:11], m.Tick)
	if m.Paused {
		buf[11] = 1
	}
	binary.BigEndian.PutUint32(buf[12:16], uint32(math.Round(m.Speed*100)))
	return buf
}

// Event (13 + n + k bytes)
// Header(9) + Category(1) + NameLen(1) + Name(n) + TextLen(2) + Text(k)
func encodeEvent(m *Message) []byte {
	name := clip(m.Name, math.MaxUint8)
	// The body length must itself fit the uint16 frame prefix.
	text := clip(m.Text, math.MaxUint16-13-len(name))
	buf := make([]byte, 13+len(name)+len(text))
	putHeader(buf, m)
	buf[9] = m.Category
	buf[10] = byte(len(name))
	off := 11 + copy(buf[11:], name)
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(len(text)))
	copy(buf[off+2:], text)
	return buf
}

// Draw (24 bytes)
// Header(9) + Reds(6) + Blue(1) + Pool(8)
func encodeDraw(m *Message) []byte {
	buf := make([]byte, 24)
	putHeader(buf, m)
	for i := 0; i < 6 && i < len(m.Reds); i++ {
		buf[9+i] = byte(m.Reds[i])
	}
	buf[15] = byte(m.Blue)
	binary.BigEndian.PutUint64(buf[16:24], Price8(m.Pool))
	return buf
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// DecodeBinary decodes one length-prefixed message from the front of data
// and returns it with the number of bytes consumed.
func DecodeBinary(data []byte) (Message, int, error) {
	if len(data) < 2 {
		return Message{}, 0, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(data))
	}
	n := int(binary.BigEndian.Uint16(data[0:2]))
	if len(data) < 2+n {
		return Message{}, 0, fmt.Errorf("%w: want %d body bytes, have %d", ErrShortFrame, n, len(data)-2)
	}
	m, err := decodeBody(data[2 : 2+n])
	if err != nil {
		return Message{}, 0, err
	}
	return m, 2 + n, nil
}

// DecodeAll decodes every message in a buffer of concatenated frames.
func DecodeAll(data []byte) ([]Message, error) {
	var out []Message
	for len(data) > 0 {
		m, n, err := DecodeBinary(data)
		if err != nil {
			return out, err
		}
		out = append(out, m)
		data = data[n:]
	}
	return out, nil
}

func decodeBody(b []byte) (Message, error) {
	if len(b) < headerLen {
		return Message{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrShortFrame, headerLen, len(b))
	}
	m := Message{
		Type:      MsgType(b[0]),
		Timestamp: int64(binary.BigEndian.Uint64(b[1:9])),
	}
	short := func(want int) error {
		return fmt.Errorf("%w: %c needs %d bytes, have %d", ErrShortFrame, m.Type, want, len(b))
	}

	switch m.Type {
	case MsgQuote:
		if len(b) < 26 {
			return Message{}, short(26)
		}
		m.Market = Market(b[9])
		m.Symbol = readSymbol(b[10:18])
		m.Price = Price8ToFloat(binary.BigEndian.Uint64(b[18:26]))

	case MsgDirectory:
		if len(b) < 27 || len(b) < 27+int(b[26]) {
			return Message{}, short(27)
		}
		m.Market = Market(b[9])
		m.Symbol = readSymbol(b[10:18])
		m.Price = Price8ToFloat(binary.BigEndian.Uint64(b[18:26]))
		m.Name = string(b[27 : 27+int(b[26])])

	case MsgClock:
		if len(b) < 16 {
			return Message{}, short(16)
		}
		m.Tick = binary.BigEndian.Uint16(b[9:11])
		m.Paused = b[11] == 1
		m.Speed = float64(binary.BigEndian.Uint32(b[12:16])) / 100

	case MsgEvent:
		if len(b) < 13 {
			return Message{}, short(13)
		}
		m.Category = b[9]
		nameEnd := 11 + int(b[10])
		if len(b) < nameEnd+2 {
			return Message{}, short(nameEnd + 2)
		}
		m.Name = string(b[11:nameEnd])
		textEnd := nameEnd + 2 + int(binary.BigEndian.Uint16(b[nameEnd:nameEnd+2]))
		if len(b) < textEnd {
			return Message{}, short(textEnd)
		}
		m.Text = string(b[nameEnd+2 : textEnd])

	case MsgDraw:
		if len(b) < 24 {
			return Message{}, short(24)
		}
		m.Reds = make([]int, 6)
		for i := range m.Reds {
			m.Reds[i] = int(b[9+i])
		}
		m.Blue = int(b[15])
		m.Pool = Price8ToFloat(binary.BigEndian.Uint64(b[16:24]))

	default:
		return Message{}, fmt.Errorf("%w: %c (0x%02x)", ErrUnknownType, b[0], b[0])
	}
	return m, nil
}

func readSymbol(b []byte) string {
	return strings.TrimRight(string(b), " ")
}
