package engine

import (
	"sync"
	"time"

	"github.com/ndrandal/market-game/internal/symbol"
)

// StockMarket owns the listed equities and the equity sentiment walk.
type StockMarket struct {
	mu        sync.RWMutex
	stocks    map[string]*Stock
	order     []string
	sentiment *Sentiment
}

// NewStockMarket lists every definition at its initial price.
func NewStockMarket(defs []symbol.StockDef, src Source, at time.Time) *StockMarket {
	m := &StockMarket{
		stocks:    make(map[string]*Stock, len(defs)),
		order:     make([]string, 0, len(defs)),
		sentiment: NewStockSentiment(),
	}
	for _, d := range defs {
		if _, dup := m.stocks[d.Code]; dup {
			continue
		}
		m.stocks[d.Code] = NewStock(d, src, at)
		m.order = append(m.order, d.Code)
	}
	return m
}

// Update advances sentiment and then every equity by one step.
func (m *StockMarket) Update(src Source, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.sentiment.Update(src)
	for _, code := range m.order {
		m.stocks[code].Update(src, v, at)
	}
}

// Get returns the equity with the given code.
func (m *StockMarket) Get(code string) (*Stock, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[code]
	return s, ok
}

// Price returns the current price for code.
func (m *StockMarket) Price(code string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[code]
	if !ok {
		return 0, false
	}
	return s.Price, true
}

// Stocks returns the equities in listing order.
func (m *StockMarket) Stocks() []*Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Stock, 0, len(m.order))
	for _, code := range m.order {
		out = append(out, m.stocks[code])
	}
	return out
}

// Industry returns the equities tagged with ind in listing order.
func (m *StockMarket) Industry(ind symbol.Industry) []*Stock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Stock
	for _, code := range m.order {
		if s := m.stocks[code]; s.Industry == ind {
			out = append(out, s)
		}
	}
	return out
}

// AllPrices returns a snapshot of all current prices.
func (m *StockMarket) AllPrices() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.stocks))
	for code, s := range m.stocks {
		out[code] = s.Price
	}
	return out
}

// Sentiment returns the current equity market sentiment.
func (m *StockMarket) Sentiment() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sentiment.Value
}

// SetSentiment overwrites the sentiment (used when restoring a save).
func (m *StockMarket) SetSentiment(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentiment.Value = v
}

// ApplyGlobalChange shifts every equity by fraction.
func (m *StockMarket) ApplyGlobalChange(fraction float64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, code := range m.order {
		m.stocks[code].Shift(fraction, at)
	}
}

// BoostIndustry shifts every equity tagged with ind by fraction and returns
// how many were affected.
func (m *StockMarket) BoostIndustry(ind symbol.Industry, fraction float64, at time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, code := range m.order {
		if s := m.stocks[code]; s.Industry == ind {
			s.Shift(fraction, at)
			n++
		}
	}
	return n
}

// ScatterIndustry shifts each equity tagged with ind by its own U(lo, hi)
// draw and returns how many were affected.
func (m *StockMarket) ScatterIndustry(ind symbol.Industry, lo, hi float64, src Source, at time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, code := range m.order {
		if s := m.stocks[code]; s.Industry == ind {
			s.Shift(Uniform(src, lo, hi), at)
			n++
		}
	}
	return n
}

// Restore overwrites an equity's price state from a save. Unknown codes are
// reported as false.
func (m *StockMarket) Restore(code string, price, initial float64, points []Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stocks[code]
	if !ok {
		return false
	}
	s.Price = price
	if initial > 0 {
		s.InitialPrice = initial
	}
	s.MarketCap = s.Price * s.FloatShares
	if len(points) > 0 {
		s.History.Replace(points)
	}
	return true
}
