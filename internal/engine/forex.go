package engine

import (
	"sync"
	"time"

	"github.com/ndrandal/market-game/internal/symbol"
)

const forexHistoryCap = 100

// Currency is one forex rate quoted as units per US dollar.
type Currency struct {
	Code        string
	Name        string
	Rate        float64
	InitialRate float64
	Volatility  float64
	Trend       float64
	Momentum    float64

	History *History
}

// ForexMarket owns the rate table. The base currency never moves.
type ForexMarket struct {
	mu         sync.RWMutex
	currencies map[string]*Currency
	order      []string
	sentiment  *Sentiment
}

// NewForexMarket quotes every currency at its initial rate.
func NewForexMarket(defs []symbol.CurrencyDef, src Source, at time.Time) *ForexMarket {
	m := &ForexMarket{
		currencies: make(map[string]*Currency, len(defs)),
		sentiment:  NewForexSentiment(),
	}
	for _, d := range defs {
		if _, dup := m.currencies[d.Code]; dup {
			continue
		}
		c := &Currency{
			Code:        d.Code,
			Name:        d.Name,
			Rate:        d.RateToUSD,
			InitialRate: d.RateToUSD,
			Volatility:  d.Volatility,
			Trend:       Uniform(src, -0.0001, 0.0001),
			History:     NewHistory(forexHistoryCap),
		}
		if d.Code == symbol.BaseCurrency {
			c.Trend = 0
		}
		c.History.Append(at, c.Rate)
		m.currencies[d.Code] = c
		m.order = append(m.order, d.Code)
	}
	return m
}

// Update advances sentiment and every non-base rate. A step whose multiplier
// would not be positive is skipped.
func (m *ForexMarket) Update(src Source, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.sentiment.Update(src)
	for _, code := range m.order {
		if code == symbol.BaseCurrency {
			continue
		}
		c := m.currencies[code]
		change := Normal(src, c.Trend, c.Volatility) + v*0.1
		c.Momentum = c.Momentum*0.95 + change*0.05
		change += c.Momentum
		if 1+change <= 0 {
			continue
		}
		c.Rate *= 1 + change
		c.History.Append(at, c.Rate)
	}
}

// Rate returns how many units of to one unit of from buys.
func (m *ForexMarket) Rate(from, to string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.currencies[from]
	if !ok {
		return 0, false
	}
	t, ok := m.currencies[to]
	if !ok {
		return 0, false
	}
	if from == to {
		return 1, true
	}
	return t.Rate / f.Rate, true
}

// USDRate returns the units of code per US dollar.
func (m *ForexMarket) USDRate(code string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.currencies[code]
	if !ok {
		return 0, false
	}
	return c.Rate, true
}

// Get returns the currency with the given code.
func (m *ForexMarket) Get(code string) (*Currency, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.currencies[code]
	return c, ok
}

// Currencies returns the currencies in quote order.
func (m *ForexMarket) Currencies() []*Currency {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Currency, 0, len(m.order))
	for _, code := range m.order {
		out = append(out, m.currencies[code])
	}
	return out
}

// Rates returns a snapshot of the rate table.
func (m *ForexMarket) Rates() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.currencies))
	for code, c := range m.currencies {
		out[code] = c.Rate
	}
	return out
}

// Sentiment returns the current forex sentiment.
func (m *ForexMarket) Sentiment() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sentiment.Value
}

// SetSentiment overwrites the sentiment (used when restoring a save).
func (m *ForexMarket) SetSentiment(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentiment.Value = v
}

// Restore overwrites a rate from a save. The base currency stays at 1.
func (m *ForexMarket) Restore(code string, rate, initial float64, points []Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.currencies[code]
	if !ok {
		return false
	}
	if code != symbol.BaseCurrency && rate > 0 {
		c.Rate = rate
	}
	if initial > 0 && code != symbol.BaseCurrency {
		c.InitialRate = initial
	}
	if len(points) > 0 {
		c.History.Replace(points)
	}
	return true
}
