package lottery

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ndrandal/market-game/internal/engine"
)

const (
	// DrawSpec holds draws on Tuesday, Thursday and Sunday.
	DrawSpec = "0 0 * * 0,2,4"

	InitialPool    = 1_000_000.0
	RetentionDays  = 60
	ClaimDays      = 60
	jackpotCap     = 5_000_000.0
	richPoolCutoff = 100_000_000.0
	taxFreeAmount  = 10_000.0
	prizeTaxRate   = 0.2
)

// Tier is a prize rank, 1 highest.
type Tier int

// fixedAmounts pays tiers 3 to 6. Tiers 1 and 2 share the pool.
var fixedAmounts = map[Tier]float64{3: 3000, 4: 200, 5: 10, 6: 5}

type rule struct {
	tier Tier
	reds int
	blue bool
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{1, 6, true},
	{2, 6, false},
	{3, 5, true},
	{4, 5, false},
	{4, 4, true},
	{5, 4, false},
	{5, 3, true},
	{6, 2, true},
	{6, 1, true},
	{6, 0, true},
}

// Match returns the prize tier for a ticket against the winning numbers, or
// 0 when it wins nothing.
func Match(t Ticket, reds []int, blue int) Tier {
	win := make(map[int]bool, len(reds))
	for _, r := range reds {
		win[r] = true
	}
	hits := 0
	for _, r := range t.Reds {
		if win[r] {
			hits++
		}
	}
	blueHit := t.Blue == blue
	for _, r := range rules {
		if r.reds == hits && r.blue == blueHit {
			return r.tier
		}
	}
	return 0
}

// Prize is an award for one winning ticket.
type Prize struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Tier        Tier      `json:"tier"`
	Amount      float64   `json:"amount"`
	Ticket      Ticket    `json:"ticket"`
	WinningReds []int     `json:"winning_reds"`
	WinningBlue int       `json:"winning_blue"`
}

// DrawResult describes one draw.
type DrawResult struct {
	Date    time.Time    `json:"date"`
	Reds    []int        `json:"reds"`
	Blue    int          `json:"blue"`
	Winners map[Tier]int `json:"winners"`
	Prizes  []Prize      `json:"prizes"`
	Pool    float64      `json:"pool"`
}

// Lottery holds tickets, the prize pool and the prize lifecycle. It is not
// safe for concurrent use; the game serialises access.
type Lottery struct {
	schedule  cron.Schedule
	tickets   map[string][]Ticket
	pool      float64
	lastDraw  time.Time
	unclaimed []Prize
	claimed   []Prize
	draws     []DrawResult
}

// New creates a lottery drawing on DrawSpec.
func New() *Lottery {
	l, err := NewWithSchedule(DrawSpec)
	if err != nil {
		panic(err)
	}
	return l
}

// NewWithSchedule creates a lottery drawing on a standard five-field cron
// spec, evaluated against game dates.
func NewWithSchedule(spec string) (*Lottery, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse draw schedule %q: %w", spec, err)
	}
	return &Lottery{
		schedule: sched,
		tickets:  make(map[string][]Ticket),
		pool:     InitialPool,
	}, nil
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsDrawDay reports whether the schedule fires on date.
func (l *Lottery) IsDrawDay(date time.Time) bool {
	day := midnight(date)
	next := l.schedule.Next(day.Add(-time.Second))
	return !next.After(day.Add(24*time.Hour - time.Second))
}

// NextDraw returns the first draw date strictly after date.
func (l *Lottery) NextDraw(date time.Time) time.Time {
	return midnight(l.schedule.Next(midnight(date).Add(24*time.Hour - time.Second)))
}

// Pool returns the current prize pool.
func (l *Lottery) Pool() float64 { return l.pool }

// AddTickets stores the valid tickets under date and credits the pool
// TicketPrice for each one. Invalid tickets are dropped. It returns how many
// were accepted.
func (l *Lottery) AddTickets(date time.Time, tickets []Ticket) int {
	key := dayKey(date)
	n := 0
	for _, t := range tickets {
		if !t.Valid() {
			continue
		}
		l.tickets[key] = append(l.tickets[key], t.normalized())
		n++
	}
	l.pool += float64(n) * TicketPrice
	return n
}

// Draw runs the draw for date. It reports false when date is not a draw day
// or the draw already ran.
func (l *Lottery) Draw(src engine.Source, date time.Time) (*DrawResult, bool) {
	day := midnight(date)
	if !l.IsDrawDay(day) || l.lastDraw.Equal(day) {
		return nil, false
	}
	l.lastDraw = day

	reds := engine.Sample(src, 1, RedMax, RedCount)
	sort.Ints(reds)
	blue := engine.IntBetween(src, 1, BlueMax)

	cutoff := dayKey(day.AddDate(0, 0, -RetentionDays))
	today := dayKey(day)

	type hit struct {
		tier   Tier
		ticket Ticket
	}
	var hits []hit
	winners := make(map[Tier]int)

	keys := make([]string, 0, len(l.tickets))
	for k := range l.tickets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k < cutoff {
			delete(l.tickets, k)
			continue
		}
		if k >= today {
			continue
		}
		for _, t := range l.tickets[k] {
			if tier := Match(t, reds, blue); tier != 0 {
				hits = append(hits, hit{tier, t})
				winners[tier]++
			}
		}
	}

	share := map[Tier]float64{1: 0.75, 2: 0.25}
	if l.pool >= richPoolCutoff {
		share[1] = 0.55
	}
	top := make(map[Tier]float64, 2)
	for tier, frac := range share {
		if winners[tier] > 0 {
			top[tier] = math.Min(jackpotCap, l.pool*frac/float64(winners[tier]))
		}
	}

	res := &DrawResult{Date: day, Reds: reds, Blue: blue, Winners: winners}
	for _, h := range hits {
		amount, ok := top[h.tier]
		if !ok {
			amount = fixedAmounts[h.tier]
		} else {
			l.pool -= amount
		}
		p := Prize{
			ID:          uuid.NewString(),
			Date:        day,
			Tier:        h.tier,
			Amount:      amount,
			Ticket:      h.ticket,
			WinningReds: reds,
			WinningBlue: blue,
		}
		l.unclaimed = append(l.unclaimed, p)
		res.Prizes = append(res.Prizes, p)
	}
	res.Pool = l.pool
	l.draws = append(l.draws, *res)
	return res, true
}

// ClaimPrizes pays every unclaimed prize at most ClaimDays old and returns
// the total. Older prizes go back to the pool and are returned as expired.
func (l *Lottery) ClaimPrizes(date time.Time) (float64, []Prize) {
	day := midnight(date)
	total := 0.0
	var expired []Prize
	for _, p := range l.unclaimed {
		age := int(day.Sub(p.Date).Hours() / 24)
		if age <= ClaimDays {
			total += p.Amount
			l.claimed = append(l.claimed, p)
			continue
		}
		l.pool += p.Amount
		expired = append(expired, p)
	}
	l.unclaimed = l.unclaimed[:0]
	return total, expired
}

// Tax returns the income tax due on a claimed total: 20% above 10,000.
func Tax(total float64) float64 {
	if total <= taxFreeAmount {
		return 0
	}
	return (total - taxFreeAmount) * prizeTaxRate
}

// Tickets returns the retained tickets for date.
func (l *Lottery) Tickets(date time.Time) []Ticket {
	return append([]Ticket(nil), l.tickets[dayKey(date)]...)
}

// TicketCount returns the number of retained tickets.
func (l *Lottery) TicketCount() int {
	n := 0
	for _, ts := range l.tickets {
		n += len(ts)
	}
	return n
}

// Unclaimed returns the pending prizes.
func (l *Lottery) Unclaimed() []Prize { return append([]Prize(nil), l.unclaimed...) }

// Claimed returns the paid prizes.
func (l *Lottery) Claimed() []Prize { return append([]Prize(nil), l.claimed...) }

// LastDraw returns the most recent draw, if any.
func (l *Lottery) LastDraw() (DrawResult, bool) {
	if len(l.draws) == 0 {
		return DrawResult{}, false
	}
	return l.draws[len(l.draws)-1], true
}

// State is the persisted form of a lottery.
type State struct {
	Pool      float64             `json:"prize_pool"`
	LastDraw  time.Time           `json:"last_draw"`
	Tickets   map[string][]Ticket `json:"tickets"`
	Unclaimed []Prize             `json:"unclaimed_prizes"`
	Claimed   []Prize             `json:"claimed_prizes"`
}

// Snapshot returns the persisted form.
func (l *Lottery) Snapshot() State {
	tickets := make(map[string][]Ticket, len(l.tickets))
	for k, v := range l.tickets {
		tickets[k] = append([]Ticket(nil), v...)
	}
	return State{
		Pool:      l.pool,
		LastDraw:  l.lastDraw,
		Tickets:   tickets,
		Unclaimed: l.Unclaimed(),
		Claimed:   l.Claimed(),
	}
}

// Restore replaces the lottery state from a save.
func (l *Lottery) Restore(s State) {
	l.pool = s.Pool
	l.lastDraw = s.LastDraw
	l.tickets = make(map[string][]Ticket, len(s.Tickets))
	for k, v := range s.Tickets {
		l.tickets[k] = append([]Ticket(nil), v...)
	}
	l.unclaimed = append([]Prize(nil), s.Unclaimed...)
	l.claimed = append([]Prize(nil), s.Claimed...)
	l.draws = nil
}
