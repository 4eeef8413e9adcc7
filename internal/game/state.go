package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/ndrandal/market-game/internal/engine"
	"github.com/ndrandal/market-game/internal/event"
	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/lottery"
)

// TimeLayout is the timestamp format used in saves.
const TimeLayout = "2006-01-02 15:04:05"

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func parseStamp(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

// State is the complete persisted form of a game.
type State struct {
	Date     string  `json:"game_date"`
	Tick     int     `json:"tick_count"`
	Speed    float64 `json:"game_speed"`
	Paused   bool    `json:"is_paused"`
	RNGState []byte  `json:"rng_state,omitempty"`

	Player  PlayerState   `json:"player"`
	Market  MarketState   `json:"stock_market"`
	Crypto  MarketState   `json:"crypto_market"`
	Forex   MarketState   `json:"forex_market"`
	Lottery LotteryState  `json:"lottery"`
	Events  []RecordState `json:"event_history"`
}

// MarketState holds one market's sentiment and instruments.
type MarketState struct {
	Sentiment   float64      `json:"sentiment"`
	Instruments []QuoteState `json:"instruments"`
}

// QuoteState is one instrument's price, opening price and history.
type QuoteState struct {
	Symbol  string       `json:"symbol"`
	Price   float64      `json:"price"`
	Initial float64      `json:"initial_price"`
	History []PointState `json:"price_history"`
}

// PointState is one history sample.
type PointState struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

// PlayerState is the player's book.
type PlayerState struct {
	Cash         float64             `json:"money"`
	Holdings     map[string]int      `json:"stocks"`
	CostBasis    map[string]float64  `json:"stock_costs"`
	Loans        []LoanState         `json:"loans"`
	Deposits     []DepositState      `json:"deposits"`
	Transactions []TxState           `json:"transaction_history"`
	Defaulted    bool                `json:"has_loan_default"`
	Crypto       ledger.CryptoWallet `json:"crypto_wallet"`
	Forex        ledger.ForexWallet  `json:"forex_wallet"`
}

type LoanState struct {
	ID              string  `json:"id"`
	Principal       float64 `json:"amount"`
	Rate            float64 `json:"rate"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	RemainingMonths int     `json:"remaining_months"`
	Remaining       float64 `json:"remaining_amount"`
	Start           string  `json:"start_date"`
	NextDue         string  `json:"next_due"`
	Repaid          bool    `json:"is_repaid"`
}

type DepositState struct {
	ID        string  `json:"id"`
	Principal float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Start     string  `json:"start_date"`
	Interest  float64 `json:"interest"`
}

type TxState struct {
	ID       string        `json:"id"`
	Kind     ledger.TxKind `json:"type"`
	Symbol   string        `json:"symbol,omitempty"`
	Quantity float64       `json:"quantity,omitempty"`
	Price    float64       `json:"price,omitempty"`
	Total    float64       `json:"total"`
	Profit   float64       `json:"profit,omitempty"`
	Memo     string        `json:"memo,omitempty"`
	At       string        `json:"date"`
}

// LotteryState is the pool, retained tickets and prizes.
type LotteryState struct {
	Pool      float64                     `json:"prize_pool"`
	LastDraw  string                      `json:"last_draw"`
	Tickets   map[string][]lottery.Ticket `json:"tickets"`
	Unclaimed []PrizeState                `json:"unclaimed_prizes"`
	Claimed   []PrizeState                `json:"claimed_prizes"`
}

type PrizeState struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Tier        lottery.Tier   `json:"level"`
	Amount      float64        `json:"amount"`
	Ticket      lottery.Ticket `json:"ticket"`
	WinningReds []int          `json:"winning_reds"`
	WinningBlue int            `json:"winning_blue"`
}

// RecordState is one triggered event.
type RecordState struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	EffectText  string         `json:"effect"`
	Category    event.Category `json:"type"`
}

func pointStates(points func() []engine.Point) []PointState {
	ps := points()
	out := make([]PointState, len(ps))
	for i, p := range ps {
		out[i] = PointState{Time: stamp(p.At), Price: p.Price}
	}
	return out
}

func parsePoints(field string, ps []PointState) ([]engine.Point, error) {
	out := make([]engine.Point, len(ps))
	for i, p := range ps {
		at, err := parseStamp(field, p.Time)
		if err != nil {
			return nil, err
		}
		out[i] = engine.Point{At: at, Price: p.Price}
	}
	return out, nil
}

// Snapshot captures the whole game under the read lock.
func (g *Game) Snapshot() State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := State{
		Date:     stamp(g.date),
		Tick:     g.tick,
		Speed:    g.speed,
		Paused:   g.paused,
		RNGState: g.rng.StateBytes(),
	}

	st.Market.Sentiment = g.stocks.Sentiment()
	for _, s := range g.stocks.Stocks() {
		st.Market.Instruments = append(st.Market.Instruments, QuoteState{
			Symbol: s.Code, Price: s.Price, Initial: s.InitialPrice, History: pointStates(s.History.Points),
		})
	}
	st.Crypto.Sentiment = g.crypto.Sentiment()
	for _, c := range g.crypto.Coins() {
		st.Crypto.Instruments = append(st.Crypto.Instruments, QuoteState{
			Symbol: c.Symbol, Price: c.Price, Initial: c.InitialPrice, History: pointStates(c.History.Points),
		})
	}
	st.Forex.Sentiment = g.forex.Sentiment()
	for _, c := range g.forex.Currencies() {
		st.Forex.Instruments = append(st.Forex.Instruments, QuoteState{
			Symbol: c.Code, Price: c.Rate, Initial: c.InitialRate, History: pointStates(c.History.Points),
		})
	}

	ps := g.player.Snapshot()
	st.Player = PlayerState{
		Cash:      ps.Cash,
		Holdings:  ps.Holdings,
		CostBasis: ps.CostBasis,
		Defaulted: ps.Defaulted,
		Crypto:    ps.Crypto,
		Forex:     ps.Forex,
	}
	for _, l := range ps.Loans {
		st.Player.Loans = append(st.Player.Loans, LoanState{
			ID:              l.ID,
			Principal:       l.Principal,
			Rate:            l.Rate,
			MonthlyPayment:  l.MonthlyPayment,
			RemainingMonths: l.RemainingMonths,
			Remaining:       l.Remaining,
			Start:           stamp(l.Start),
			NextDue:         stamp(l.NextDue),
			Repaid:          l.Repaid,
		})
	}
	for _, d := range ps.Deposits {
		st.Player.Deposits = append(st.Player.Deposits, DepositState{
			ID: d.ID, Principal: d.Principal, Rate: d.Rate, Start: stamp(d.Start), Interest: d.Interest,
		})
	}
	for _, tx := range ps.Transactions {
		st.Player.Transactions = append(st.Player.Transactions, TxState{
			ID:       tx.ID,
			Kind:     tx.Kind,
			Symbol:   tx.Symbol,
			Quantity: tx.Quantity,
			Price:    tx.Price,
			Total:    tx.Total,
			Profit:   tx.Profit,
			Memo:     tx.Memo,
			At:       stamp(tx.At),
		})
	}

	ls := g.lottery.Snapshot()
	st.Lottery = LotteryState{
		Pool:      ls.Pool,
		LastDraw:  stamp(ls.LastDraw),
		Tickets:   ls.Tickets,
		Unclaimed: prizeStates(ls.Unclaimed),
		Claimed:   prizeStates(ls.Claimed),
	}

	for _, r := range g.events.History() {
		st.Events = append(st.Events, RecordState{
			ID:          r.ID,
			Date:        stamp(r.Date),
			Name:        r.Name,
			Description: r.Description,
			EffectText:  r.EffectText,
			Category:    r.Category,
		})
	}
	return st
}

func prizeStates(ps []lottery.Prize) []PrizeState {
	out := make([]PrizeState, len(ps))
	for i, p := range ps {
		out[i] = PrizeState{
			ID:          p.ID,
			Date:        stamp(p.Date),
			Tier:        p.Tier,
			Amount:      p.Amount,
			Ticket:      p.Ticket,
			WinningReds: p.WinningReds,
			WinningBlue: p.WinningBlue,
		}
	}
	return out
}

func parsePrizes(field string, ps []PrizeState) ([]lottery.Prize, error) {
	out := make([]lottery.Prize, len(ps))
	for i, p := range ps {
		d, err := parseStamp(field, p.Date)
		if err != nil {
			return nil, err
		}
		out[i] = lottery.Prize{
			ID:          p.ID,
			Date:        d,
			Tier:        p.Tier,
			Amount:      p.Amount,
			Ticket:      p.Ticket,
			WinningReds: p.WinningReds,
			WinningBlue: p.WinningBlue,
		}
	}
	return out, nil
}

type quoteRestore struct {
	symbol  string
	price   float64
	initial float64
	points  []engine.Point
}

func parseQuotes(field string, qs []QuoteState) ([]quoteRestore, error) {
	out := make([]quoteRestore, len(qs))
	for i, q := range qs {
		pts, err := parsePoints(field+"."+q.Symbol, q.History)
		if err != nil {
			return nil, err
		}
		out[i] = quoteRestore{q.Symbol, q.Price, q.Initial, pts}
	}
	return out, nil
}

// Restore replaces the game from a save. Every timestamp is parsed before
// anything is assigned, so a malformed save leaves the game untouched.
// Instruments missing from the catalogue are ignored.
func (g *Game) Restore(st State) error {
	date, err := parseStamp("game_date", st.Date)
	if err != nil {
		return err
	}
	if date.IsZero() {
		return errors.New("game_date: missing")
	}

	stocks, err := parseQuotes("stock_market", st.Market.Instruments)
	if err != nil {
		return err
	}
	coins, err := parseQuotes("crypto_market", st.Crypto.Instruments)
	if err != nil {
		return err
	}
	rates, err := parseQuotes("forex_market", st.Forex.Instruments)
	if err != nil {
		return err
	}

	ps := ledger.State{
		Cash:      st.Player.Cash,
		Holdings:  st.Player.Holdings,
		CostBasis: st.Player.CostBasis,
		Defaulted: st.Player.Defaulted,
		Crypto:    st.Player.Crypto,
		Forex:     st.Player.Forex,
	}
	for _, l := range st.Player.Loans {
		start, err := parseStamp("loans.start_date", l.Start)
		if err != nil {
			return err
		}
		due, err := parseStamp("loans.next_due", l.NextDue)
		if err != nil {
			return err
		}
		ps.Loans = append(ps.Loans, ledger.Loan{
			ID:              l.ID,
			Principal:       l.Principal,
			Rate:            l.Rate,
			MonthlyPayment:  l.MonthlyPayment,
			RemainingMonths: l.RemainingMonths,
			Remaining:       l.Remaining,
			Start:           start,
			NextDue:         due,
			Repaid:          l.Repaid,
		})
	}
	for _, d := range st.Player.Deposits {
		start, err := parseStamp("deposits.start_date", d.Start)
		if err != nil {
			return err
		}
		ps.Deposits = append(ps.Deposits, ledger.Deposit{
			ID: d.ID, Principal: d.Principal, Rate: d.Rate, Start: start, Interest: d.Interest,
		})
	}
	for _, tx := range st.Player.Transactions {
		at, err := parseStamp("transaction_history.date", tx.At)
		if err != nil {
			return err
		}
		ps.Transactions = append(ps.Transactions, ledger.Transaction{
			ID:       tx.ID,
			Kind:     tx.Kind,
			Symbol:   tx.Symbol,
			Quantity: tx.Quantity,
			Price:    tx.Price,
			Total:    tx.Total,
			Profit:   tx.Profit,
			Memo:     tx.Memo,
			At:       at,
		})
	}

	lastDraw, err := parseStamp("lottery.last_draw", st.Lottery.LastDraw)
	if err != nil {
		return err
	}
	unclaimed, err := parsePrizes("lottery.unclaimed_prizes", st.Lottery.Unclaimed)
	if err != nil {
		return err
	}
	claimed, err := parsePrizes("lottery.claimed_prizes", st.Lottery.Claimed)
	if err != nil {
		return err
	}

	history := make([]event.Record, 0, len(st.Events))
	for _, r := range st.Events {
		d, err := parseStamp("event_history.date", r.Date)
		if err != nil {
			return err
		}
		history = append(history, event.Record{
			ID:          r.ID,
			Date:        d,
			Name:        r.Name,
			Description: r.Description,
			EffectText:  r.EffectText,
			Category:    r.Category,
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.date = date
	g.tick = st.Tick
	if g.tick < 0 || g.tick >= g.opts.TicksPerDay {
		g.tick = 0
	}
	g.speed = 1
	for _, s := range Speeds {
		if s == st.Speed {
			g.speed = s
		}
	}
	g.paused = st.Paused
	if len(st.RNGState) >= 16 {
		g.rng.RestoreStateBytes(st.RNGState)
	}

	g.stocks.SetSentiment(st.Market.Sentiment)
	for _, q := range stocks {
		g.stocks.Restore(q.symbol, q.price, q.initial, q.points)
	}
	g.crypto.SetSentiment(st.Crypto.Sentiment)
	for _, q := range coins {
		g.crypto.Restore(q.symbol, q.price, q.initial, q.points)
	}
	g.forex.SetSentiment(st.Forex.Sentiment)
	for _, q := range rates {
		g.forex.Restore(q.symbol, q.price, q.initial, q.points)
	}

	g.player.Restore(ps)
	g.lottery.Restore(lottery.State{
		Pool:      st.Lottery.Pool,
		LastDraw:  lastDraw,
		Tickets:   st.Lottery.Tickets,
		Unclaimed: unclaimed,
		Claimed:   claimed,
	})
	g.events.Restore(history)
	return nil
}

// ErrBadSaveName reports a slot name outside [A-Za-z0-9_-]{1,64}.
var ErrBadSaveName = errors.New("invalid save name")

// CheckSaveName validates a slot name. Names double as file names.
func CheckSaveName(name string) error {
	if name == "" || len(name) > 64 {
		return fmt.Errorf("%w: %q", ErrBadSaveName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: %q", ErrBadSaveName, name)
		}
	}
	return nil
}

// SaveInfo describes one stored save slot.
type SaveInfo struct {
	Name     string    `json:"name" bson:"name"`
	SavedAt  time.Time `json:"saved_at" bson:"saved_at"`
	GameDate string    `json:"game_date" bson:"game_date"`
	Cash     float64   `json:"cash" bson:"cash"`
	Size     int64     `json:"size,omitempty" bson:"-"`
}

// Info summarises the state for a save listing.
func (st *State) Info(name string, savedAt time.Time) SaveInfo {
	return SaveInfo{Name: name, SavedAt: savedAt, GameDate: st.Date, Cash: st.Player.Cash}
}
