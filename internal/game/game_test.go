package game

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/lottery"
)

func newGame(t *testing.T, ticksPerDay int) *Game {
	t.Helper()
	opts := DefaultOptions()
	opts.TicksPerDay = ticksPerDay
	g, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func tickN(t *testing.T, g *Game, n int) []*TickResult {
	t.Helper()
	var out []*TickResult
	for i := 0; i < n; i++ {
		res, err := g.Tick()
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		out = append(out, res)
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	g := newGame(t, 0)
	c := g.Clock()
	if !c.Date.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", c.Date)
	}
	if c.Tick != 0 || c.Paused || c.Speed != 1 {
		t.Fatalf("clock = %+v", c)
	}
	if g.Player().Cash != 100000 {
		t.Fatalf("cash = %f", g.Player().Cash)
	}
	if g.Lottery().Pool != lottery.InitialPool {
		t.Fatalf("pool = %f", g.Lottery().Pool)
	}
}

func TestBadDrawSchedule(t *testing.T) {
	opts := DefaultOptions()
	opts.DrawSchedule = "not a cron"
	if _, err := New(opts); err == nil {
		t.Fatal("expected error for bad schedule")
	}
}

func TestDayRollsOverAfterTicksPerDay(t *testing.T) {
	g := newGame(t, 60)
	results := tickN(t, g, 60)
	for i, r := range results[:59] {
		if r.Day != nil {
			t.Fatalf("tick %d rolled the day", i+1)
		}
	}
	last := results[59]
	if last.Day == nil {
		t.Fatal("60th tick did not roll the day")
	}
	want := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if !last.Date.Equal(want) || last.Tick != 0 {
		t.Fatalf("date=%v tick=%d, want %v and 0", last.Date, last.Tick, want)
	}
}

func TestMarketsMoveEveryTick(t *testing.T) {
	g := newGame(t, 60)
	before := g.Stocks().AllPrices()
	tickN(t, g, 1)
	after := g.Stocks().AllPrices()
	moved := 0
	for code, p := range before {
		if after[code] != p {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("no stock moved")
	}
	for _, s := range g.Stocks().Stocks() {
		if s.History.Len() != 2 {
			t.Fatalf("%s history len = %d, want 2", s.Code, s.History.Len())
		}
	}
}

func TestPauseSkipsTicks(t *testing.T) {
	g := newGame(t, 1)
	if !g.TogglePause() {
		t.Fatal("TogglePause should report paused")
	}
	before := g.Stocks().AllPrices()
	res, err := g.Tick()
	if err != nil || res != nil {
		t.Fatalf("paused tick = %v, %v", res, err)
	}
	if !g.Date().Equal(DefaultOptions().StartDate) {
		t.Fatalf("date moved while paused: %v", g.Date())
	}
	for code, p := range g.Stocks().AllPrices() {
		if before[code] != p {
			t.Fatalf("%s moved while paused", code)
		}
	}
	g.TogglePause()
	if res, _ := g.Tick(); res == nil {
		t.Fatal("tick after resume returned nil")
	}
}

func TestSetSpeed(t *testing.T) {
	g := newGame(t, 60)
	if err := g.SetSpeed(10); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if g.Interval() != 100*time.Millisecond {
		t.Fatalf("interval = %v, want 100ms", g.Interval())
	}
	if err := g.SetSpeed(3); !errors.Is(err, ErrInvalidSpeed) {
		t.Fatalf("err = %v, want ErrInvalidSpeed", err)
	}
	if g.Clock().Speed != 10 {
		t.Fatalf("speed changed by rejected value: %v", g.Clock().Speed)
	}
}

func TestSameSeedSamePrices(t *testing.T) {
	a := newGame(t, 10)
	b := newGame(t, 10)
	tickN(t, a, 250)
	tickN(t, b, 250)
	pa, pb := a.Stocks().AllPrices(), b.Stocks().AllPrices()
	for code, p := range pa {
		if pb[code] != p {
			t.Fatalf("%s: %f vs %f", code, p, pb[code])
		}
	}
	if a.Player().Cash != b.Player().Cash {
		t.Fatalf("cash diverged: %f vs %f", a.Player().Cash, b.Player().Cash)
	}
}

func TestBuySellStock(t *testing.T) {
	g := newGame(t, 60)
	price, _ := g.Stocks().Price("000858")
	if err := g.BuyStock("000858", 100); err != nil {
		t.Fatalf("BuyStock: %v", err)
	}
	p := g.Player()
	if math.Abs(p.Cash-(100000-100*price)) > 1e-6 {
		t.Fatalf("cash = %f, want %f", p.Cash, 100000-100*price)
	}
	if p.Holdings["000858"] != 100 {
		t.Fatalf("holding = %d", p.Holdings["000858"])
	}
	profit, err := g.SellStock("000858", 100)
	if err != nil {
		t.Fatalf("SellStock: %v", err)
	}
	if math.Abs(profit) > 1e-6 || math.Abs(g.Player().Cash-100000) > 1e-6 {
		t.Fatalf("profit=%f cash=%f after flat round trip", profit, g.Player().Cash)
	}
}

func TestUnknownSymbols(t *testing.T) {
	g := newGame(t, 60)
	if err := g.BuyStock("999999", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("BuyStock err = %v", err)
	}
	if _, err := g.SellStock("999999", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("SellStock err = %v", err)
	}
	if err := g.BuyCrypto("DOGE2", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("BuyCrypto err = %v", err)
	}
	if _, err := g.Exchange("USD", "XXX", 1); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("Exchange err = %v", err)
	}
	if g.Player().Cash != 100000 {
		t.Fatalf("cash changed: %f", g.Player().Cash)
	}
}

func TestInsufficientCash(t *testing.T) {
	g := newGame(t, 60)
	if err := g.BuyStock("000858", 1_000_000); !errors.Is(err, ledger.ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}
}

func TestBuyTicketsChargesValidOnly(t *testing.T) {
	g := newGame(t, 60)
	tickets := []lottery.Ticket{
		{Reds: []int{1, 2, 3, 4, 5, 6}, Blue: 7},
		{Reds: []int{1, 2, 3, 4, 5, 5}, Blue: 7},
		{Reds: []int{8, 9, 10, 11, 12, 13}, Blue: 16},
	}
	n, err := g.BuyTickets(tickets)
	if err != nil {
		t.Fatalf("BuyTickets: %v", err)
	}
	if n != 2 {
		t.Fatalf("accepted = %d, want 2", n)
	}
	if g.Player().Cash != 100000-2*lottery.TicketPrice {
		t.Fatalf("cash = %f", g.Player().Cash)
	}
	if g.Lottery().Pool != lottery.InitialPool+2*lottery.TicketPrice {
		t.Fatalf("pool = %f", g.Lottery().Pool)
	}
	if _, err := g.BuyTickets(tickets[1:2]); !errors.Is(err, lottery.ErrInvalidPicks) {
		t.Fatalf("err = %v, want ErrInvalidPicks", err)
	}
}

func TestQuickPickAndCompound(t *testing.T) {
	g := newGame(t, 60)
	ts, err := g.QuickPick(5)
	if err != nil || len(ts) != 5 {
		t.Fatalf("QuickPick = %d, %v", len(ts), err)
	}
	n, err := g.BuyCompound([]int{1, 2, 3, 4, 5, 6, 7}, []int{1, 2})
	if err != nil {
		t.Fatalf("BuyCompound: %v", err)
	}
	if n != 14 {
		t.Fatalf("compound tickets = %d, want 14", n)
	}
	if got := g.Lottery().TicketCount; got != 19 {
		t.Fatalf("ticket count = %d, want 19", got)
	}
	if _, err := g.QuickPick(0); !errors.Is(err, lottery.ErrBatchSize) {
		t.Fatalf("err = %v, want ErrBatchSize", err)
	}
}

func TestDrawOnScheduledDay(t *testing.T) {
	g := newGame(t, 1)
	// 2023-01-01 is a Sunday; the first rollover lands on Monday, the
	// second on Tuesday.
	res := tickN(t, g, 2)
	if res[0].Day.Draw != nil {
		t.Fatal("drew on Monday")
	}
	if res[1].Day.Draw == nil {
		t.Fatal("no draw on Tuesday")
	}
	if d := res[1].Day.Draw; len(d.Reds) != lottery.RedCount || d.Blue < 1 || d.Blue > lottery.BlueMax {
		t.Fatalf("draw = %+v", d)
	}
}

func TestPrizeClaimPaidNetOfTax(t *testing.T) {
	g := newGame(t, 1)
	st := g.Snapshot()
	st.Lottery.Unclaimed = []PrizeState{{
		ID:     "p1",
		Date:   st.Date,
		Tier:   3,
		Amount: 20000,
		Ticket: lottery.Ticket{Reds: []int{1, 2, 3, 4, 5, 6}, Blue: 1},
	}}
	if err := g.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	res := tickN(t, g, 1)[0]
	if res.Day == nil {
		t.Fatal("expected a rollover")
	}
	if res.Day.Claimed != 20000 || res.Day.Tax != 2000 {
		t.Fatalf("claimed=%f tax=%f, want 20000 and 2000", res.Day.Claimed, res.Day.Tax)
	}
	found := false
	for _, tx := range g.Transactions() {
		if tx.Memo == "lottery prize" && tx.Total == 18000 {
			found = true
		}
	}
	if !found {
		t.Fatal("net prize not credited to cash")
	}
}

func TestStakingRewardsOnRollover(t *testing.T) {
	g := newGame(t, 1)
	price, _ := g.Crypto().Price("BTC")
	if err := g.BuyCrypto("BTC", 1000/price); err != nil {
		t.Fatalf("BuyCrypto: %v", err)
	}
	if err := g.Stake("BTC", 500/price); err != nil {
		t.Fatalf("Stake: %v", err)
	}
	res := tickN(t, g, 1)[0]
	if len(res.Day.Staking) != 1 || res.Day.Staking[0].Symbol != "BTC" {
		t.Fatalf("staking = %+v", res.Day.Staking)
	}
	if apy := res.Day.Staking[0].APY; apy < 0.05 || apy >= 0.15 {
		t.Fatalf("apy = %f", apy)
	}
}

func TestLoanUsesScheduledRate(t *testing.T) {
	g := newGame(t, 60)
	l, err := g.TakeLoan(12000)
	if err != nil {
		t.Fatalf("TakeLoan: %v", err)
	}
	if l.Rate != ledger.LoanRate(g.Date()) {
		t.Fatalf("rate = %f", l.Rate)
	}
	if g.Player().Cash != 112000 {
		t.Fatalf("cash = %f", g.Player().Cash)
	}
	if _, err := g.RepayLoan(0); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	if _, err := g.RepayLoan(0); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	g := newGame(t, 1)
	if _, err := g.Deposit(36500); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	tickN(t, g, 10)
	got, err := g.Withdraw(0)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	want := 36500 + 36500*ledger.DepositRate/365*10
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("withdrawn = %f, want %f", got, want)
	}
}

func TestForexRoundTrip(t *testing.T) {
	g := newGame(t, 60)
	if err := g.FundForex(1000); err != nil {
		t.Fatalf("FundForex: %v", err)
	}
	rate, err := g.Exchange("CNY", "USD", 1000)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	usd := g.Player().Forex.Balances["USD"]
	if math.Abs(usd-1000*rate) > 1e-9 {
		t.Fatalf("usd = %f, want %f", usd, 1000*rate)
	}
	if v := g.Player().ForexValueUSD; math.Abs(v-usd) > 1e-9 {
		t.Fatalf("value = %f, want %f", v, usd)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	a := newGame(t, 5)
	if err := a.BuyStock("600036", 200); err != nil {
		t.Fatalf("BuyStock: %v", err)
	}
	if _, err := a.TakeLoan(5000); err != nil {
		t.Fatalf("TakeLoan: %v", err)
	}
	if _, err := a.QuickPick(3); err != nil {
		t.Fatalf("QuickPick: %v", err)
	}
	tickN(t, a, 23)

	raw, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	b := newGame(t, 5)
	if err := b.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !a.Date().Equal(b.Date()) || a.Clock().Tick != b.Clock().Tick {
		t.Fatalf("clock %+v vs %+v", a.Clock(), b.Clock())
	}
	if a.Player().Cash != b.Player().Cash {
		t.Fatalf("cash %f vs %f", a.Player().Cash, b.Player().Cash)
	}
	if b.Player().Holdings["600036"] != 200 || len(b.Player().Loans) != 1 {
		t.Fatalf("player = %+v", b.Player())
	}
	if a.Lottery().Pool != b.Lottery().Pool || a.Lottery().TicketCount != b.Lottery().TicketCount {
		t.Fatal("lottery differs")
	}
	pa, pb := a.Stocks().AllPrices(), b.Stocks().AllPrices()
	for code, p := range pa {
		if pb[code] != p {
			t.Fatalf("%s: %f vs %f", code, p, pb[code])
		}
	}

	// Two games restored from the same save evolve identically.
	c := newGame(t, 5)
	if err := c.Restore(st); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	tickN(t, b, 7)
	tickN(t, c, 7)
	pb, pc := b.Stocks().AllPrices(), c.Stocks().AllPrices()
	for code, p := range pb {
		if pc[code] != p {
			t.Fatalf("after restore %s: %f vs %f", code, p, pc[code])
		}
	}
}

func TestRestoreMalformedTimestamp(t *testing.T) {
	g := newGame(t, 60)
	st := g.Snapshot()
	st.Date = "2023-13-45 99:00:00"
	if err := g.Restore(st); err == nil {
		t.Fatal("expected error for malformed date")
	}

	st = g.Snapshot()
	st.Player.Cash = 1
	st.Player.Transactions = []TxState{{ID: "x", Kind: ledger.TxBuy, At: "yesterday"}}
	if err := g.Restore(st); err == nil {
		t.Fatal("expected error for malformed transaction date")
	}
	if g.Player().Cash != 100000 {
		t.Fatalf("failed restore mutated cash: %f", g.Player().Cash)
	}
}

func TestResetStartsOver(t *testing.T) {
	g := newGame(t, 1)
	if err := g.BuyStock("000858", 10); err != nil {
		t.Fatalf("BuyStock: %v", err)
	}
	tickN(t, g, 5)
	if err := g.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if g.Player().Cash != 100000 || len(g.Player().Holdings) != 0 {
		t.Fatalf("player after reset = %+v", g.Player())
	}
	if !g.Date().Equal(DefaultOptions().StartDate) {
		t.Fatalf("date after reset = %v", g.Date())
	}
}

func TestTransactionHookSurvivesReset(t *testing.T) {
	g := newGame(t, 60)
	var seen []ledger.Transaction
	g.OnTransaction(func(tx ledger.Transaction) { seen = append(seen, tx) })
	if err := g.BuyStock("000858", 1); err != nil {
		t.Fatalf("BuyStock: %v", err)
	}
	if err := g.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := g.BuyStock("000858", 1); err != nil {
		t.Fatalf("BuyStock: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("hook saw %d transactions, want 2", len(seen))
	}
}
