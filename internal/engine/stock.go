package engine

import (
	"math"
	"time"

	"github.com/ndrandal/market-game/internal/symbol"
)

const (
	stockHistoryCap = 100
	stockFloor      = 0.2  // fraction of initial price
	stockStepClamp  = 0.10 // max move vs last recorded price
)

// Stock is a listed equity and its evolving price state.
type Stock struct {
	Code         string
	Name         string
	Industry     symbol.Industry
	Price        float64
	InitialPrice float64
	Volatility   float64
	Trend        float64
	Beta         float64
	Resistance   float64
	symbol.Fundamentals

	History *History
}

// NewStock lists an equity at its definition price. Fundamentals missing from
// the definition are drawn from src.
func NewStock(def symbol.StockDef, src Source, at time.Time) *Stock {
	s := &Stock{
		Code:         def.Code,
		Name:         def.Name,
		Industry:     def.Industry,
		Price:        def.Price,
		InitialPrice: def.Price,
		Volatility:   def.Volatility,
		Trend:        def.Trend,
		Beta:         def.Beta,
		Resistance:   def.Resistance,
		History:      NewHistory(stockHistoryCap),
	}
	if def.Fundamentals != nil {
		s.Fundamentals = *def.Fundamentals
	} else {
		s.Fundamentals = drawFundamentals(src, def.Price)
	}
	s.History.Append(at, s.Price)
	return s
}

func drawFundamentals(src Source, price float64) symbol.Fundamentals {
	f := symbol.Fundamentals{
		PE:        Uniform(src, 10, 50),
		PB:        Uniform(src, 1, 5),
		MarketCap: price * Uniform(src, 1e8, 1e10),
	}
	f.FloatShares = f.MarketCap / price
	f.DividendYield = Uniform(src, 0, 0.05)
	f.TurnoverRate = Uniform(src, 0.5, 5)
	f.RevenueGrowth = Uniform(src, -0.1, 0.3)
	f.ProfitMargin = Uniform(src, 0.05, 0.3)
	f.DebtRatio = Uniform(src, 0.3, 0.7)
	f.ROE = Uniform(src, 0.05, 0.25)
	return f
}

// Update advances the price one step under the given market sentiment.
func (s *Stock) Update(src Source, sentiment float64, at time.Time) {
	change := Normal(src, s.Trend, s.Volatility)

	impact := sentiment * s.Beta
	if sentiment < 0 {
		impact *= 2 - s.Resistance
	}

	switch {
	case s.PE > 30:
		change -= Uniform(src, 0, 0.001)
	case s.PE < 15:
		change += Uniform(src, 0, 0.0005)
	}

	switch {
	case s.MarketCap > 1e10:
		change *= 0.9
	case s.MarketCap < 1e9:
		change *= 1.1
	}

	if s.TurnoverRate > 3 {
		change *= 1.1
	}

	switch {
	case s.RevenueGrowth > 0.2 && s.ProfitMargin > 0.15:
		change += Uniform(src, 0, 0.0005)
	case s.RevenueGrowth < 0 || s.ProfitMargin < 0.05:
		change -= Uniform(src, 0, 0.0005)
	}

	deviation := (s.Price - s.InitialPrice) / s.InitialPrice
	if math.Abs(deviation) > 0.5 {
		change -= deviation * 0.001
	}

	price := s.Price * (1 + change + impact)

	if last, ok := s.History.Last(); ok {
		limit := last.Price * stockStepClamp
		price = math.Max(math.Min(price, last.Price+limit), last.Price-limit)
	}
	s.Price = math.Max(price, s.MinPrice())

	s.MarketCap = s.Price * s.FloatShares
	s.TurnoverRate = Uniform(src, 0.5, 5)
	s.History.Append(at, s.Price)
}

// Shift moves the price by fraction outside the regular walk, as events do.
// The floor still holds.
func (s *Stock) Shift(fraction float64, at time.Time) {
	s.Price = math.Max(s.Price*(1+fraction), s.MinPrice())
	s.MarketCap = s.Price * s.FloatShares
	s.History.Append(at, s.Price)
}

// MinPrice is the lowest price the equity may trade at.
func (s *Stock) MinPrice() float64 {
	return s.InitialPrice * stockFloor
}

// ChangePercent returns the move since listing as a percentage.
func (s *Stock) ChangePercent() float64 {
	return (s.Price - s.InitialPrice) / s.InitialPrice * 100
}
