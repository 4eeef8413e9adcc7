package event

import (
	"fmt"
	"time"

	"github.com/ndrandal/market-game/internal/engine"
	"github.com/ndrandal/market-game/internal/symbol"
)

// Kind identifies the shape of an Effect.
type Kind string

const (
	KindNone          Kind = "none"
	KindGlobalShift   Kind = "global_shift"
	KindIndustryShift Kind = "industry_shift"
	KindIndustryRange Kind = "industry_range"
	KindStockScatter  Kind = "stock_scatter"
	KindCashDelta     Kind = "cash_delta"
	KindCashLoss      Kind = "cash_loss"
	KindComposite     Kind = "composite"
)

// Effect is a data-driven mutation of market prices or player cash.
// Which fields apply depends on Kind.
type Effect struct {
	Kind     Kind            `json:"kind"`
	Industry symbol.Industry `json:"industry,omitempty"`
	Fraction float64         `json:"fraction,omitempty"`
	Lo       float64         `json:"lo,omitempty"`
	Hi       float64         `json:"hi,omitempty"`
	Amount   float64         `json:"amount,omitempty"`
	Parts    []Effect        `json:"parts,omitempty"`
}

// None has no effect.
func None() Effect { return Effect{Kind: KindNone} }

// GlobalShift moves every equity by fraction.
func GlobalShift(fraction float64) Effect {
	return Effect{Kind: KindGlobalShift, Fraction: fraction}
}

// IndustryShift moves every equity in ind by fraction.
func IndustryShift(ind symbol.Industry, fraction float64) Effect {
	return Effect{Kind: KindIndustryShift, Industry: ind, Fraction: fraction}
}

// IndustryRange moves every equity in ind by one U(lo, hi) draw.
func IndustryRange(ind symbol.Industry, lo, hi float64) Effect {
	return Effect{Kind: KindIndustryRange, Industry: ind, Lo: lo, Hi: hi}
}

// StockScatter moves each equity in ind by its own U(lo, hi) draw.
func StockScatter(ind symbol.Industry, lo, hi float64) Effect {
	return Effect{Kind: KindStockScatter, Industry: ind, Lo: lo, Hi: hi}
}

// CashDelta credits or debits a fixed amount of cash.
func CashDelta(amount float64) Effect {
	return Effect{Kind: KindCashDelta, Amount: amount}
}

// CashLoss removes a U(lo, hi) fraction of the player's cash.
func CashLoss(lo, hi float64) Effect {
	return Effect{Kind: KindCashLoss, Lo: lo, Hi: hi}
}

// Composite applies parts in order.
func Composite(parts ...Effect) Effect {
	return Effect{Kind: KindComposite, Parts: parts}
}

// Market is the price surface effects mutate.
type Market interface {
	ApplyGlobalChange(fraction float64, at time.Time)
	BoostIndustry(ind symbol.Industry, fraction float64, at time.Time) int
	ScatterIndustry(ind symbol.Industry, lo, hi float64, src engine.Source, at time.Time) int
}

// Account is the player cash effects mutate. AdjustCash must not take the
// balance below zero and returns the delta actually applied.
type Account interface {
	Cash() float64
	AdjustCash(delta float64, memo string, at time.Time) float64
}

// Apply interprets e against the market and the player account.
func Apply(e Effect, acct Account, m Market, src engine.Source, memo string, at time.Time) error {
	switch e.Kind {
	case KindNone:
	case KindGlobalShift:
		m.ApplyGlobalChange(e.Fraction, at)
	case KindIndustryShift:
		m.BoostIndustry(e.Industry, e.Fraction, at)
	case KindIndustryRange:
		m.BoostIndustry(e.Industry, engine.Uniform(src, e.Lo, e.Hi), at)
	case KindStockScatter:
		m.ScatterIndustry(e.Industry, e.Lo, e.Hi, src, at)
	case KindCashDelta:
		acct.AdjustCash(e.Amount, memo, at)
	case KindCashLoss:
		loss := acct.Cash() * engine.Uniform(src, e.Lo, e.Hi)
		acct.AdjustCash(-loss, memo, at)
	case KindComposite:
		for _, p := range e.Parts {
			if err := Apply(p, acct, m, src, memo, at); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}
