package game

import (
	"fmt"
	"time"

	"github.com/ndrandal/market-game/internal/event"
	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/lottery"
)

// BuyStock buys qty shares of code at the current price.
func (g *Game) BuyStock(code string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.stocks.Price(code)
	if !ok {
		return fmt.Errorf("%w: stock %s", ErrUnknownSymbol, code)
	}
	return g.player.Buy(code, qty, price, g.now())
}

// SellStock sells qty shares of code at the current price and returns the
// realised profit.
func (g *Game) SellStock(code string, qty int) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.stocks.Price(code)
	if !ok {
		return 0, fmt.Errorf("%w: stock %s", ErrUnknownSymbol, code)
	}
	return g.player.Sell(code, qty, price, g.now())
}

// BuyCrypto buys amount coins of sym at the current price.
func (g *Game) BuyCrypto(sym string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.crypto.Price(sym)
	if !ok {
		return fmt.Errorf("%w: coin %s", ErrUnknownSymbol, sym)
	}
	return g.player.BuyCrypto(sym, amount, price, g.now())
}

// SellCrypto sells amount coins of sym at the current price.
func (g *Game) SellCrypto(sym string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.crypto.Price(sym)
	if !ok {
		return fmt.Errorf("%w: coin %s", ErrUnknownSymbol, sym)
	}
	return g.player.SellCrypto(sym, amount, price, g.now())
}

// Stake locks amount coins of sym for daily rewards.
func (g *Game) Stake(sym string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player.Crypto.Stake(sym, amount)
}

// Unstake releases amount staked coins of sym.
func (g *Game) Unstake(sym string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player.Crypto.Unstake(sym, amount)
}

// FundForex moves cash into the forex wallet.
func (g *Game) FundForex(amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player.FundForex(amount, g.now())
}

// DrainForex moves the wallet's home-currency balance back to cash.
func (g *Game) DrainForex(amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player.DrainForex(amount, g.now())
}

// Exchange sells amount of from for to at the current cross rate and
// returns the rate used.
func (g *Game) Exchange(from, to string, amount float64) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rate, ok := g.forex.Rate(from, to)
	if !ok {
		return 0, fmt.Errorf("%w: pair %s/%s", ErrUnknownSymbol, from, to)
	}
	return rate, g.player.Exchange(from, to, amount, rate, g.now())
}

// BuyCurrency buys amount of to, paying in from at the current cross rate,
// and returns the price paid per unit.
func (g *Game) BuyCurrency(from, to string, amount float64) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	price, ok := g.forex.Rate(to, from)
	if !ok {
		return 0, fmt.Errorf("%w: pair %s/%s", ErrUnknownSymbol, to, from)
	}
	return price, g.player.BuyCurrency(from, to, amount, price, g.now())
}

// Deposit opens a time deposit at the standard deposit rate.
func (g *Game) Deposit(amount float64) (ledger.Deposit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, err := g.player.Deposit(amount, ledger.DepositRate, g.date)
	if err != nil {
		return ledger.Deposit{}, err
	}
	return *d, nil
}

// Withdraw closes the deposit at index and returns what was paid out.
func (g *Game) Withdraw(index int) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player.Withdraw(index, g.date)
}

// TakeLoan borrows amount at the rate in force on the game date.
func (g *Game) TakeLoan(amount float64) (ledger.Loan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, err := g.player.TakeLoan(amount, ledger.LoanRate(g.date), g.date, g.stocks)
	if err != nil {
		return ledger.Loan{}, err
	}
	return *l, nil
}

// RepayLoan settles the loan at index early.
func (g *Game) RepayLoan(index int) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.player.RepayLoan(index, g.date)
}

// BuyTickets pays TicketPrice for every valid ticket and enters them for the
// next draw. Invalid tickets are dropped and not charged.
func (g *Game) BuyTickets(tickets []lottery.Ticket) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buyTickets(tickets)
}

func (g *Game) buyTickets(tickets []lottery.Ticket) (int, error) {
	valid := make([]lottery.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Valid() {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return 0, fmt.Errorf("%w: no valid tickets", lottery.ErrInvalidPicks)
	}
	cost := float64(len(valid)) * lottery.TicketPrice
	memo := fmt.Sprintf("%d lottery tickets", len(valid))
	if err := g.player.Spend(ledger.TxLottery, cost, memo, g.now()); err != nil {
		return 0, err
	}
	return g.lottery.AddTickets(g.date, valid), nil
}

// QuickPick buys n random tickets and returns them.
func (g *Game) QuickPick(n int) ([]lottery.Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tickets, err := lottery.QuickPicks(g.rng, n)
	if err != nil {
		return nil, err
	}
	if _, err := g.buyTickets(tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// BuyCompound expands a multiple selection and buys every resulting ticket.
func (g *Game) BuyCompound(reds, blues []int) (int, error) {
	tickets, err := lottery.Compound(reds, blues)
	if err != nil {
		return 0, err
	}
	return g.BuyTickets(tickets)
}

// now is the timestamp of the current tick.
func (g *Game) now() time.Time {
	return g.date.Add(time.Duration(g.tick) * 24 * time.Hour / time.Duration(g.opts.TicksPerDay))
}

// PlayerView is a read-only summary of the player.
type PlayerView struct {
	Cash          float64             `json:"cash"`
	Holdings      map[string]int      `json:"holdings"`
	CostBasis     map[string]float64  `json:"cost_basis"`
	HoldingsValue float64             `json:"holdings_value"`
	TotalAssets   float64             `json:"total_assets"`
	LoanLimit     float64             `json:"loan_limit"`
	LoanRate      float64             `json:"loan_rate"`
	Loans         []ledger.Loan       `json:"loans"`
	Deposits      []ledger.Deposit    `json:"deposits"`
	Defaulted     bool                `json:"defaulted"`
	Crypto        ledger.CryptoWallet `json:"crypto"`
	CryptoValue   float64             `json:"crypto_value"`
	Forex         ledger.ForexWallet  `json:"forex"`
	ForexValueUSD float64             `json:"forex_value_usd"`
}

// Player returns a snapshot of the player's book valued at current prices.
func (g *Game) Player() PlayerView {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := g.player.Snapshot()
	return PlayerView{
		Cash:          st.Cash,
		Holdings:      st.Holdings,
		CostBasis:     st.CostBasis,
		HoldingsValue: g.player.HoldingsValue(g.stocks),
		TotalAssets:   g.player.TotalAssets(g.stocks),
		LoanLimit:     g.player.LoanLimit(g.stocks),
		LoanRate:      ledger.LoanRate(g.date),
		Loans:         st.Loans,
		Deposits:      st.Deposits,
		Defaulted:     st.Defaulted,
		Crypto:        st.Crypto,
		CryptoValue:   g.player.Crypto.Value(g.crypto),
		Forex:         st.Forex,
		ForexValueUSD: g.player.Forex.ValueUSD(g.forex),
	}
}

// Transactions returns the player's history, oldest first.
func (g *Game) Transactions() []ledger.Transaction {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.player.Transactions()
}

// RecentEvents returns up to n triggered events, newest first.
func (g *Game) RecentEvents(n int) []event.Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.events.Recent(n)
}

// LotteryView summarises the lottery.
type LotteryView struct {
	Pool        float64             `json:"pool"`
	NextDraw    time.Time           `json:"next_draw"`
	TicketCount int                 `json:"ticket_count"`
	Today       []lottery.Ticket    `json:"today"`
	Unclaimed   []lottery.Prize     `json:"unclaimed"`
	LastDraw    *lottery.DrawResult `json:"last_draw,omitempty"`
}

// Lottery returns a summary of the lottery.
func (g *Game) Lottery() LotteryView {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v := LotteryView{
		Pool:        g.lottery.Pool(),
		NextDraw:    g.lottery.NextDraw(g.date),
		TicketCount: g.lottery.TicketCount(),
		Today:       g.lottery.Tickets(g.date),
		Unclaimed:   g.lottery.Unclaimed(),
	}
	if last, ok := g.lottery.LastDraw(); ok {
		v.LastDraw = &last
	}
	return v
}

// Gauges is a scalar summary of the game for monitoring.
type Gauges struct {
	StockSentiment  float64
	CryptoSentiment float64
	ForexSentiment  float64
	PrizePool       float64
	Cash            float64
	TotalAssets     float64
}

// Gauges reads the monitoring scalars. Unlike Player and Lottery it copies
// no history, so its cost does not grow with play time.
func (g *Game) Gauges() Gauges {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Gauges{
		StockSentiment:  g.stocks.Sentiment(),
		CryptoSentiment: g.crypto.Sentiment(),
		ForexSentiment:  g.forex.Sentiment(),
		PrizePool:       g.lottery.Pool(),
		Cash:            g.player.Cash(),
		TotalAssets:     g.player.TotalAssets(g.stocks),
	}
}
