package game

import (
	"testing"

	"github.com/ndrandal/market-game/internal/symbol"
)

func TestStockViews(t *testing.T) {
	g := newGame(t, 60)
	tickN(t, g, 5)

	quotes := g.StockQuotes()
	if len(quotes) != len(symbol.AllStocks()) {
		t.Fatalf("quotes = %d", len(quotes))
	}
	d, ok := g.Stock(quotes[0].Symbol)
	if !ok {
		t.Fatalf("Stock(%s) not found", quotes[0].Symbol)
	}
	if d.Price != quotes[0].Price || len(d.History) != 6 {
		t.Fatalf("detail = %+v", d)
	}
	if _, ok := g.Stock("NOPE"); ok {
		t.Fatal("unknown stock found")
	}
}

func TestCoinAndForexViews(t *testing.T) {
	g := newGame(t, 60)
	if len(g.CoinQuotes()) != len(symbol.AllCoins()) {
		t.Fatal("coin quotes missing")
	}
	btc, ok := g.Coin("BTC")
	if !ok || btc.Price != 45000 || btc.ChangePct != 0 {
		t.Fatalf("BTC = %+v", btc)
	}
	if len(g.ForexQuotes()) != len(symbol.AllCurrencies()) {
		t.Fatal("forex quotes missing")
	}
	if r, ok := g.Rate("USD", "USD"); !ok || r != 1 {
		t.Fatalf("USD/USD = %v, %v", r, ok)
	}
}

func TestGaugesMatchViewsWithoutAllocating(t *testing.T) {
	g := newGame(t, 60)
	if err := g.BuyStock("000858", 100); err != nil {
		t.Fatalf("BuyStock: %v", err)
	}
	if _, err := g.QuickPick(50); err != nil {
		t.Fatalf("QuickPick: %v", err)
	}

	v := g.Gauges()
	p := g.Player()
	if v.Cash != p.Cash || v.TotalAssets != p.TotalAssets {
		t.Fatalf("gauges cash/assets = %v/%v, player %v/%v", v.Cash, v.TotalAssets, p.Cash, p.TotalAssets)
	}
	if v.PrizePool != g.Lottery().Pool {
		t.Fatalf("gauges pool = %v, want %v", v.PrizePool, g.Lottery().Pool)
	}
	if n := testing.AllocsPerRun(100, func() { g.Gauges() }); n != 0 {
		t.Fatalf("Gauges allocates %v times per call", n)
	}
}
