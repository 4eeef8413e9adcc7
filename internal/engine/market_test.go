package engine

import (
	"math"
	"testing"
	"time"

	"github.com/ndrandal/market-game/internal/symbol"
)

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedSource returns the same draws forever.
type fixedSource struct {
	f float64
	g float64
}

func (s fixedSource) Float64() float64  { return s.f }
func (s fixedSource) Gaussian() float64 { return s.g }
func (s fixedSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.f * float64(n))
}

func newTestMarket() (*StockMarket, *RNG) {
	rng := NewRNG(42)
	return NewStockMarket(symbol.AllStocks(), rng, t0), rng
}

func TestInitialPrices(t *testing.T) {
	m, _ := newTestMarket()
	for _, d := range symbol.AllStocks() {
		got, ok := m.Price(d.Code)
		if !ok {
			t.Fatalf("%s missing from market", d.Code)
		}
		if got != d.Price {
			t.Errorf("%s: initial price = %f, want %f", d.Code, got, d.Price)
		}
	}
}

func TestUnknownCode(t *testing.T) {
	m, _ := newTestMarket()
	if s, ok := m.Get("999999"); ok || s != nil {
		t.Fatal("unknown code should return (nil, false)")
	}
	if _, ok := m.Price("999999"); ok {
		t.Fatal("unknown code should have no price")
	}
}

func TestListingOrderStable(t *testing.T) {
	m, _ := newTestMarket()
	defs := symbol.AllStocks()
	got := m.Stocks()
	if len(got) != len(defs) {
		t.Fatalf("Stocks() = %d, want %d", len(got), len(defs))
	}
	for i := range defs {
		if got[i].Code != defs[i].Code {
			t.Fatalf("Stocks()[%d] = %s, want %s", i, got[i].Code, defs[i].Code)
		}
	}
}

func TestFloorAndClampOver10kTicks(t *testing.T) {
	m, rng := newTestMarket()
	for i := 0; i < 10000; i++ {
		prev := m.AllPrices()
		m.Update(rng, t0.Add(time.Duration(i)*time.Minute))
		for _, s := range m.Stocks() {
			if s.Price < s.InitialPrice*0.2 {
				t.Fatalf("%s: price %f below floor %f at tick %d", s.Code, s.Price, s.InitialPrice*0.2, i)
			}
			p := prev[s.Code]
			if math.Abs(s.Price-p) > p*0.10+1e-9 && s.Price != s.MinPrice() {
				t.Fatalf("%s: moved %f -> %f at tick %d, beyond 10%%", s.Code, p, s.Price, i)
			}
		}
	}
}

func TestFloorHoldsUnderCrash(t *testing.T) {
	m := NewStockMarket(symbol.AllStocks(), NewRNG(42), t0)
	crash := fixedSource{f: 0.5, g: -50}
	for i := 0; i < 200; i++ {
		m.Update(crash, t0.Add(time.Duration(i)*time.Minute))
	}
	for _, s := range m.Stocks() {
		if math.Abs(s.Price-s.MinPrice()) > 1e-9 {
			t.Errorf("%s: price %f, want floor %f after sustained crash", s.Code, s.Price, s.MinPrice())
		}
	}
}

func TestClampLimitsSingleStep(t *testing.T) {
	m := NewStockMarket(symbol.AllStocks(), NewRNG(42), t0)
	spike := fixedSource{f: 0.5, g: 50}
	m.Update(spike, t0.Add(time.Minute))
	for _, s := range m.Stocks() {
		want := s.InitialPrice * 1.10
		if math.Abs(s.Price-want) > 1e-9 {
			t.Errorf("%s: price %f after spike, want clamp at %f", s.Code, s.Price, want)
		}
	}
}

func TestHistoryCapacity(t *testing.T) {
	m, rng := newTestMarket()
	for i := 0; i < 250; i++ {
		m.Update(rng, t0.Add(time.Duration(i)*time.Minute))
	}
	for _, s := range m.Stocks() {
		if s.History.Len() != 100 {
			t.Fatalf("%s: history len = %d, want 100", s.Code, s.History.Len())
		}
		last, _ := s.History.Last()
		if last.Price != s.Price {
			t.Fatalf("%s: last history price %f != price %f", s.Code, last.Price, s.Price)
		}
	}
}

func TestTurnoverRedrawn(t *testing.T) {
	m, rng := newTestMarket()
	for i := 0; i < 100; i++ {
		m.Update(rng, t0.Add(time.Duration(i)*time.Minute))
		for _, s := range m.Stocks() {
			if s.TurnoverRate < 0.5 || s.TurnoverRate >= 5 {
				t.Fatalf("%s: turnover %f out of [0.5, 5)", s.Code, s.TurnoverRate)
			}
			if math.Abs(s.MarketCap-s.Price*s.FloatShares) > 1e-3*s.MarketCap {
				t.Fatalf("%s: market cap %f not price x float shares", s.Code, s.MarketCap)
			}
		}
	}
}

func TestDrawnFundamentalsInRange(t *testing.T) {
	m, _ := newTestMarket()
	for _, s := range m.Stocks() {
		if s.PE < 10 || s.PE > 50 {
			t.Errorf("%s: PE %f out of range", s.Code, s.PE)
		}
		if s.FloatShares <= 0 {
			t.Errorf("%s: float shares %f", s.Code, s.FloatShares)
		}
	}
	s, _ := m.Get("000858")
	if s.PE != 38 || s.ROE != 0.30 {
		t.Errorf("000858 fundamentals overwritten: PE=%f ROE=%f", s.PE, s.ROE)
	}
}

func TestApplyGlobalChange(t *testing.T) {
	m, _ := newTestMarket()
	before := m.AllPrices()
	m.ApplyGlobalChange(0.03, t0.Add(time.Minute))
	for code, p := range m.AllPrices() {
		if math.Abs(p-before[code]*1.03) > 1e-9 {
			t.Errorf("%s: %f after +3%%, want %f", code, p, before[code]*1.03)
		}
	}
}

func TestBoostIndustryOnlyTouchesIndustry(t *testing.T) {
	m, _ := newTestMarket()
	before := m.AllPrices()
	n := m.BoostIndustry(symbol.IndustryBanking, 0.05, t0.Add(time.Minute))
	if n != len(m.Industry(symbol.IndustryBanking)) || n == 0 {
		t.Fatalf("BoostIndustry affected %d stocks", n)
	}
	for _, s := range m.Stocks() {
		want := before[s.Code]
		if s.Industry == symbol.IndustryBanking {
			want *= 1.05
		}
		if math.Abs(s.Price-want) > 1e-9 {
			t.Errorf("%s: %f, want %f", s.Code, s.Price, want)
		}
	}
}

func TestBoostIndustryKeepsFloor(t *testing.T) {
	m, _ := newTestMarket()
	for i := 0; i < 50; i++ {
		m.BoostIndustry(symbol.IndustryRealEstate, -0.5, t0.Add(time.Duration(i)*time.Minute))
	}
	for _, s := range m.Industry(symbol.IndustryRealEstate) {
		if s.Price < s.MinPrice() {
			t.Fatalf("%s: price %f below floor", s.Code, s.Price)
		}
		if s.History.Len() > 100 {
			t.Fatalf("%s: history grew to %d", s.Code, s.History.Len())
		}
	}
}

func TestScatterIndustryBounds(t *testing.T) {
	m, rng := newTestMarket()
	before := m.AllPrices()
	m.ScatterIndustry(symbol.IndustryPharma, -0.05, 0.05, rng, t0.Add(time.Minute))
	for _, s := range m.Industry(symbol.IndustryPharma) {
		r := s.Price/before[s.Code] - 1
		if r < -0.05-1e-9 || r > 0.05+1e-9 {
			t.Errorf("%s: scattered by %f", s.Code, r)
		}
	}
}

func TestRestore(t *testing.T) {
	m, _ := newTestMarket()
	pts := []Point{{At: t0, Price: 170}, {At: t0.Add(time.Minute), Price: 175}}
	if !m.Restore("000858", 175, 180, pts) {
		t.Fatal("Restore returned false for known code")
	}
	s, _ := m.Get("000858")
	if s.Price != 175 || s.History.Len() != 2 {
		t.Fatalf("restore: price=%f len=%d", s.Price, s.History.Len())
	}
	if m.Restore("999999", 1, 1, nil) {
		t.Fatal("Restore accepted unknown code")
	}
}
