package engine

import (
	"testing"
	"time"

	"github.com/ndrandal/market-game/internal/symbol"
)

func TestCoinFloorOver10kTicks(t *testing.T) {
	rng := NewRNG(42)
	m := NewCryptoMarket(symbol.AllCoins(), rng, t0)
	for i := 0; i < 10000; i++ {
		m.Update(rng, t0.Add(time.Duration(i)*time.Minute))
		for _, c := range m.Coins() {
			if c.Price < c.InitialPrice*0.01 {
				t.Fatalf("%s: price %f below 1%% floor at tick %d", c.Symbol, c.Price, i)
			}
		}
	}
}

func TestCoinFloorUnderCrash(t *testing.T) {
	m := NewCryptoMarket(symbol.AllCoins(), NewRNG(42), t0)
	crash := fixedSource{f: 0.5, g: -40}
	for i := 0; i < 50; i++ {
		m.Update(crash, t0.Add(time.Duration(i)*time.Minute))
	}
	for _, c := range m.Coins() {
		if c.Price != c.InitialPrice*0.01 {
			t.Errorf("%s: price %f, want floor %f", c.Symbol, c.Price, c.InitialPrice*0.01)
		}
	}
}

func TestCoinVolumeAndHistory(t *testing.T) {
	rng := NewRNG(42)
	m := NewCryptoMarket(symbol.AllCoins(), rng, t0)
	for i := 0; i < 1500; i++ {
		m.Update(rng, t0.Add(time.Duration(i)*time.Minute))
	}
	for _, c := range m.Coins() {
		if c.History.Len() != 1440 {
			t.Errorf("%s: history len %d, want 1440", c.Symbol, c.History.Len())
		}
		if c.Volume24h < c.Price*1000 || c.Volume24h > c.Price*10000 {
			t.Errorf("%s: volume %f out of range for price %f", c.Symbol, c.Volume24h, c.Price)
		}
	}
}

func TestCoinTrendRange(t *testing.T) {
	m := NewCryptoMarket(symbol.AllCoins(), NewRNG(42), t0)
	for _, c := range m.Coins() {
		if c.Trend < -0.0002 || c.Trend > 0.0002 {
			t.Errorf("%s: trend %f out of range", c.Symbol, c.Trend)
		}
	}
	if _, ok := m.Get("NOPE"); ok {
		t.Fatal("unknown coin should not be found")
	}
}
