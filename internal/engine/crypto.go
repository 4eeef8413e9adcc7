package engine

import (
	"math"
	"sync"
	"time"

	"github.com/ndrandal/market-game/internal/symbol"
)

const (
	coinHistoryCap = 1440 // one game-day of minutes
	coinFloor      = 0.01
)

// Coin is a tradable cryptocurrency.
type Coin struct {
	Symbol       string
	Name         string
	Price        float64
	InitialPrice float64
	Volatility   float64
	Trend        float64
	Momentum     float64
	Volume24h    float64

	History *History
}

// NewCoin lists a coin with a small random drift.
func NewCoin(def symbol.CoinDef, src Source, at time.Time) *Coin {
	c := &Coin{
		Symbol:       def.Symbol,
		Name:         def.Name,
		Price:        def.Price,
		InitialPrice: def.Price,
		Volatility:   def.Volatility,
		Trend:        Uniform(src, -0.0002, 0.0002),
		History:      NewHistory(coinHistoryCap),
	}
	c.History.Append(at, c.Price)
	return c
}

// Update advances the price one step. Sentiment is amplified by a random
// factor in [1.5, 2.5).
func (c *Coin) Update(src Source, sentiment float64, at time.Time) {
	change := Normal(src, c.Trend, c.Volatility)
	change += sentiment * Uniform(src, 1.5, 2.5)

	c.Momentum = c.Momentum*0.95 + change*0.05
	change += c.Momentum

	c.Price = math.Max(c.Price*(1+change), c.InitialPrice*coinFloor)
	c.Volume24h = c.Price * Uniform(src, 1000, 10000)
	c.History.Append(at, c.Price)
}

// CryptoMarket owns the coins and the crypto sentiment walk.
type CryptoMarket struct {
	mu        sync.RWMutex
	coins     map[string]*Coin
	order     []string
	sentiment *Sentiment
}

// NewCryptoMarket lists every coin definition.
func NewCryptoMarket(defs []symbol.CoinDef, src Source, at time.Time) *CryptoMarket {
	m := &CryptoMarket{
		coins:     make(map[string]*Coin, len(defs)),
		sentiment: NewCryptoSentiment(),
	}
	for _, d := range defs {
		if _, dup := m.coins[d.Symbol]; dup {
			continue
		}
		m.coins[d.Symbol] = NewCoin(d, src, at)
		m.order = append(m.order, d.Symbol)
	}
	return m
}

// Update advances sentiment and then every coin.
func (m *CryptoMarket) Update(src Source, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.sentiment.Update(src)
	for _, sym := range m.order {
		m.coins[sym].Update(src, v, at)
	}
}

// Get returns the coin with the given symbol.
func (m *CryptoMarket) Get(sym string) (*Coin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.coins[sym]
	return c, ok
}

// Price returns the current price for sym.
func (m *CryptoMarket) Price(sym string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.coins[sym]
	if !ok {
		return 0, false
	}
	return c.Price, true
}

// Coins returns the coins in listing order.
func (m *CryptoMarket) Coins() []*Coin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Coin, 0, len(m.order))
	for _, sym := range m.order {
		out = append(out, m.coins[sym])
	}
	return out
}

// Sentiment returns the current crypto sentiment.
func (m *CryptoMarket) Sentiment() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sentiment.Value
}

// SetSentiment overwrites the sentiment (used when restoring a save).
func (m *CryptoMarket) SetSentiment(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentiment.Value = v
}

// Restore overwrites a coin's price state from a save.
func (m *CryptoMarket) Restore(sym string, price, initial float64, points []Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coins[sym]
	if !ok {
		return false
	}
	c.Price = price
	if initial > 0 {
		c.InitialPrice = initial
	}
	if len(points) > 0 {
		c.History.Replace(points)
	}
	return true
}
