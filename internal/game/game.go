package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ndrandal/market-game/internal/engine"
	"github.com/ndrandal/market-game/internal/event"
	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/lottery"
	"github.com/ndrandal/market-game/internal/symbol"
)

// Speeds lists the accepted speed multipliers.
var Speeds = []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 1000, 10000}

var (
	ErrInvalidSpeed  = errors.New("invalid game speed")
	ErrUnknownSymbol = ledger.ErrUnknownSymbol
)

// Options configures a new game.
type Options struct {
	Seed         int64
	StartDate    time.Time
	InitialCash  float64
	TicksPerDay  int
	BaseInterval time.Duration
	DrawSchedule string
}

// DefaultOptions starts on 2023-01-01 with 100,000 cash and 60 one-second
// ticks per game day.
func DefaultOptions() Options {
	return Options{
		Seed:         42,
		StartDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		InitialCash:  100_000,
		TicksPerDay:  60,
		BaseInterval: time.Second,
		DrawSchedule: lottery.DrawSpec,
	}
}

// Game owns every subsystem. One tick runs to completion under the write
// lock; accessors take the read lock.
type Game struct {
	mu   sync.RWMutex
	opts Options
	rng  *engine.RNG

	date   time.Time
	tick   int
	paused bool
	speed  float64

	stocks  *engine.StockMarket
	crypto  *engine.CryptoMarket
	forex   *engine.ForexMarket
	events  *event.System
	lottery *lottery.Lottery
	player  *ledger.Player

	onTx func(ledger.Transaction)
}

// New builds a game from opts. Zero fields fall back to DefaultOptions.
func New(opts Options) (*Game, error) {
	def := DefaultOptions()
	if opts.StartDate.IsZero() {
		opts.StartDate = def.StartDate
	}
	if opts.InitialCash <= 0 {
		opts.InitialCash = def.InitialCash
	}
	if opts.TicksPerDay <= 0 {
		opts.TicksPerDay = def.TicksPerDay
	}
	if opts.BaseInterval <= 0 {
		opts.BaseInterval = def.BaseInterval
	}
	if opts.DrawSchedule == "" {
		opts.DrawSchedule = def.DrawSchedule
	}
	g := &Game{opts: opts}
	if err := g.init(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) init() error {
	lot, err := lottery.NewWithSchedule(g.opts.DrawSchedule)
	if err != nil {
		return err
	}
	g.rng = engine.NewRNG(g.opts.Seed)
	g.date = midnight(g.opts.StartDate)
	g.tick = 0
	g.paused = false
	g.speed = 1
	g.stocks = engine.NewStockMarket(symbol.AllStocks(), g.rng, g.date)
	g.crypto = engine.NewCryptoMarket(symbol.AllCoins(), g.rng, g.date)
	g.forex = engine.NewForexMarket(symbol.AllCurrencies(), g.rng, g.date)
	g.events = event.NewDefaultSystem()
	g.lottery = lot
	g.player = ledger.NewPlayer(g.opts.InitialCash)
	g.player.OnTransaction = g.onTx
	return nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// OnTransaction installs a hook that sees every ledger entry.
func (g *Game) OnTransaction(fn func(ledger.Transaction)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onTx = fn
	g.player.OnTransaction = fn
}

// Reset discards all progress and starts over from the configured options.
func (g *Game) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.init()
}

// RNG exposes the generator for state persistence.
func (g *Game) RNG() *engine.RNG {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rng
}

// Stocks returns the equity market. It carries its own lock.
func (g *Game) Stocks() *engine.StockMarket {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stocks
}

// Crypto returns the crypto market.
func (g *Game) Crypto() *engine.CryptoMarket {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.crypto
}

// Forex returns the forex market.
func (g *Game) Forex() *engine.ForexMarket {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.forex
}

// Clock is the game calendar position.
type Clock struct {
	Date     time.Time     `json:"date"`
	Tick     int           `json:"tick"`
	Paused   bool          `json:"paused"`
	Speed    float64       `json:"speed"`
	Interval time.Duration `json:"interval_ns"`
}

// Clock returns the current calendar position.
func (g *Game) Clock() Clock {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Clock{Date: g.date, Tick: g.tick, Paused: g.paused, Speed: g.speed, Interval: g.interval()}
}

// Date returns the current game date.
func (g *Game) Date() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.date
}

func (g *Game) interval() time.Duration {
	return time.Duration(float64(g.opts.BaseInterval) / g.speed)
}

// Interval returns the wall-clock time between ticks at the current speed.
func (g *Game) Interval() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.interval()
}

// SetSpeed changes the speed multiplier. Only values in Speeds are accepted.
func (g *Game) SetSpeed(speed float64) error {
	for _, s := range Speeds {
		if s == speed {
			g.mu.Lock()
			g.speed = speed
			g.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
}

// TogglePause flips the pause flag and returns the new value.
func (g *Game) TogglePause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = !g.paused
	return g.paused
}

// DayReport is what happened when the calendar rolled to Date.
type DayReport struct {
	Date     time.Time            `json:"date"`
	Events   []event.Record       `json:"events,omitempty"`
	Draw     *lottery.DrawResult  `json:"draw,omitempty"`
	Claimed  float64              `json:"claimed"`
	Tax      float64              `json:"tax"`
	Expired  []lottery.Prize      `json:"expired,omitempty"`
	Staking  []ledger.Reward      `json:"staking,omitempty"`
	Airdrops []ledger.Reward      `json:"airdrops,omitempty"`
	Accrual  ledger.AccrualReport `json:"accrual"`
}

// TickResult describes one completed tick.
type TickResult struct {
	Date    time.Time            `json:"date"`
	Tick    int                  `json:"tick"`
	At      time.Time            `json:"at"`
	Day     *DayReport           `json:"day,omitempty"`
	Accrual ledger.AccrualReport `json:"accrual"`
}

// Tick advances the simulation by one step. It returns nil while paused.
// On the last tick of a day the calendar rolls over, events are checked, the
// lottery draws and prizes are paid. Markets and the bank book move on every
// tick.
func (g *Game) Tick() (*TickResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return nil, nil
	}

	var day *DayReport
	g.tick++
	if g.tick >= g.opts.TicksPerDay {
		g.date = g.date.AddDate(0, 0, 1)
		g.tick = 0
		rep, err := g.rollover()
		if err != nil {
			return nil, err
		}
		day = rep
	}

	at := g.now()
	g.stocks.Update(g.rng, at)
	g.crypto.Update(g.rng, at)
	g.forex.Update(g.rng, at)

	acc := g.player.UpdateLoansAndDeposits(g.date, g.stocks)
	if day != nil {
		day.Accrual = acc
	}
	return &TickResult{Date: g.date, Tick: g.tick, At: at, Day: day, Accrual: acc}, nil
}

func (g *Game) rollover() (*DayReport, error) {
	rep := &DayReport{Date: g.date}

	recs, err := g.events.CheckEvents(g.rng, g.player, g.stocks, g.date)
	if err != nil {
		return nil, fmt.Errorf("check events %s: %w", g.date.Format("2006-01-02"), err)
	}
	rep.Events = recs

	if res, ok := g.lottery.Draw(g.rng, g.date); ok {
		rep.Draw = res
	}
	total, expired := g.lottery.ClaimPrizes(g.date)
	rep.Expired = expired
	if total > 0 {
		rep.Claimed = total
		rep.Tax = lottery.Tax(total)
		g.player.AdjustCash(total-rep.Tax, "lottery prize", g.date)
	}

	rep.Staking = g.player.Crypto.StakingRewards(g.rng, g.date)
	if g.date.Day() == 1 {
		rep.Airdrops = g.player.Crypto.Airdrops(g.date)
	}
	return rep, nil
}
