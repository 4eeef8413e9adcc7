package game

import (
	"github.com/ndrandal/market-game/internal/engine"
	"github.com/ndrandal/market-game/internal/symbol"
)

// Quote is a point-in-time copy of one instrument.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Industry  symbol.Industry `json:"industry,omitempty"`
	Price     float64         `json:"price"`
	Initial   float64         `json:"initial_price"`
	ChangePct float64         `json:"change_pct"`
}

// StockDetail is a quote plus fundamentals and recent history.
type StockDetail struct {
	Quote
	PE            float64        `json:"pe"`
	PB            float64        `json:"pb"`
	MarketCap     float64        `json:"market_cap"`
	DividendYield float64        `json:"dividend_yield"`
	ROE           float64        `json:"roe"`
	Volatility    float64        `json:"volatility"`
	History       []engine.Point `json:"history"`
}

// CoinDetail is a coin quote plus its recent history.
type CoinDetail struct {
	Quote
	Volume24h float64        `json:"volume_24h"`
	History   []engine.Point `json:"history"`
}

func changePct(price, initial float64) float64 {
	if initial == 0 {
		return 0
	}
	return (price - initial) / initial * 100
}

func stockQuote(s *engine.Stock) Quote {
	return Quote{
		Symbol:    s.Code,
		Name:      s.Name,
		Industry:  s.Industry,
		Price:     s.Price,
		Initial:   s.InitialPrice,
		ChangePct: s.ChangePercent(),
	}
}

// StockQuotes copies every equity quote.
func (g *Game) StockQuotes() []Quote {
	g.mu.RLock()
	defer g.mu.RUnlock()
	stocks := g.stocks.Stocks()
	out := make([]Quote, len(stocks))
	for i, s := range stocks {
		out[i] = stockQuote(s)
	}
	return out
}

// Stock returns one equity with fundamentals and history.
func (g *Game) Stock(code string) (StockDetail, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.stocks.Get(code)
	if !ok {
		return StockDetail{}, false
	}
	return StockDetail{
		Quote:         stockQuote(s),
		PE:            s.PE,
		PB:            s.PB,
		MarketCap:     s.MarketCap,
		DividendYield: s.DividendYield,
		ROE:           s.ROE,
		Volatility:    s.Volatility,
		History:       s.History.Points(),
	}, true
}

// CoinQuotes copies every coin quote.
func (g *Game) CoinQuotes() []Quote {
	g.mu.RLock()
	defer g.mu.RUnlock()
	coins := g.crypto.Coins()
	out := make([]Quote, len(coins))
	for i, c := range coins {
		out[i] = Quote{Symbol: c.Symbol, Name: c.Name, Price: c.Price, Initial: c.InitialPrice, ChangePct: changePct(c.Price, c.InitialPrice)}
	}
	return out
}

// Coin returns one coin with history.
func (g *Game) Coin(sym string) (CoinDetail, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.crypto.Get(sym)
	if !ok {
		return CoinDetail{}, false
	}
	return CoinDetail{
		Quote:     Quote{Symbol: c.Symbol, Name: c.Name, Price: c.Price, Initial: c.InitialPrice, ChangePct: changePct(c.Price, c.InitialPrice)},
		Volume24h: c.Volume24h,
		History:   c.History.Points(),
	}, true
}

// ForexQuotes copies every rate, in units per US dollar.
func (g *Game) ForexQuotes() []Quote {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cur := g.forex.Currencies()
	out := make([]Quote, len(cur))
	for i, c := range cur {
		out[i] = Quote{Symbol: c.Code, Name: c.Name, Price: c.Rate, Initial: c.InitialRate, ChangePct: changePct(c.Rate, c.InitialRate)}
	}
	return out
}

// Rate returns the cross rate from → to under the game lock.
func (g *Game) Rate(from, to string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.forex.Rate(from, to)
}
