package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/ndrandal/market-game/internal/engine"
)

func TestCryptoBuySell(t *testing.T) {
	p := NewPlayer(100000)
	if err := p.BuyCrypto("BTC", 1, 45000, day0); err != nil {
		t.Fatal(err)
	}
	if err := p.BuyCrypto("BTC", 2, 45000, day0); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v", err)
	}
	if err := p.SellCrypto("BTC", 2, 45000, day0); !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("err = %v", err)
	}
	if err := p.SellCrypto("BTC", 1, 50000, day0); err != nil {
		t.Fatal(err)
	}
	if p.Cash() != 105000 {
		t.Fatalf("cash = %f", p.Cash())
	}
	if _, ok := p.Crypto.Holdings["BTC"]; ok {
		t.Fatal("empty balance should be dropped")
	}
}

func TestStakingRewards(t *testing.T) {
	w := NewCryptoWallet()
	w.Holdings["ETH"] = 10
	if err := w.Stake("ETH", 20); !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("err = %v", err)
	}
	if err := w.Stake("ETH", 10); err != nil {
		t.Fatal(err)
	}
	rs := w.StakingRewards(engine.NewRNG(42), day0)
	if len(rs) != 1 {
		t.Fatalf("rewards = %+v", rs)
	}
	r := rs[0]
	if r.APY < 0.05 || r.APY >= 0.15 || math.Abs(r.Amount-10*r.APY/365) > 1e-12 {
		t.Fatalf("reward = %+v", r)
	}
	if w.Holdings["ETH"] != r.Amount {
		t.Fatalf("holdings = %f, want reward %f", w.Holdings["ETH"], r.Amount)
	}
	if err := w.Unstake("ETH", 10); err != nil {
		t.Fatal(err)
	}
	if w.Staking["ETH"] != 0 || w.Holdings["ETH"] != 10+r.Amount {
		t.Fatal("unstake did not return coins")
	}
}

func TestAirdrops(t *testing.T) {
	w := NewCryptoWallet()
	w.Holdings["DOGE"] = 1000
	w.Holdings["BTC"] = 1
	rs := w.Airdrops(day0)
	if len(rs) != 1 || rs[0].Symbol != "DOGE" || rs[0].Amount != 10 {
		t.Fatalf("airdrops = %+v", rs)
	}
	if w.Holdings["DOGE"] != 1010 {
		t.Fatalf("DOGE = %f", w.Holdings["DOGE"])
	}
}

func TestForexExchange(t *testing.T) {
	p := NewPlayer(10000)
	if err := p.FundForex(6450, day0); err != nil {
		t.Fatal(err)
	}
	if err := p.Exchange("CNY", "USD", 6450, 1/6.45, day0); err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Forex.Balances["USD"]-1000) > 1e-9 {
		t.Fatalf("USD = %f", p.Forex.Balances["USD"])
	}
	p.Forex.Balances["USD"] = 1000
	if err := p.BuyCurrency("USD", "EUR", 500, 1.25, day0); err != nil {
		t.Fatal(err)
	}
	if p.Forex.Balances["USD"] != 375 || p.Forex.Balances["EUR"] != 500 {
		t.Fatalf("balances = %v", p.Forex.Balances)
	}
	if err := p.BuyCurrency("USD", "EUR", 500, 1.25, day0); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v", err)
	}
	if err := p.Exchange("USD", "XXX", 1, 1, day0); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("err = %v", err)
	}
	if err := p.DrainForex(1, day0); !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("err = %v", err)
	}
}

func TestForexValueUSD(t *testing.T) {
	w := NewForexWallet()
	w.Balances["USD"] = 100
	w.Balances["CNY"] = 645
	w.Balances["JPY"] = 11000
	got := w.ValueUSD(priceMap{"USD": 1, "CNY": 6.45, "JPY": 110})
	if math.Abs(got-300) > 1e-9 {
		t.Fatalf("ValueUSD = %f, want 300", got)
	}
}
