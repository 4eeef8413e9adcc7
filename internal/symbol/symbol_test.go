package symbol

import "testing"

func TestStockCodesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range AllStocks() {
		if seen[s.Code] {
			t.Fatalf("duplicate stock code %s", s.Code)
		}
		seen[s.Code] = true
	}
}

func TestStockCodesSixDigits(t *testing.T) {
	for _, s := range AllStocks() {
		if len(s.Code) != 6 {
			t.Fatalf("stock code %q should be 6 characters", s.Code)
		}
		for _, r := range s.Code {
			if r < '0' || r > '9' {
				t.Fatalf("stock code %q should be numeric", s.Code)
			}
		}
	}
}

func TestPositivePrices(t *testing.T) {
	for _, s := range AllStocks() {
		if s.Price <= 0 {
			t.Fatalf("non-positive price %f for %s", s.Price, s.Code)
		}
		if s.Volatility <= 0 {
			t.Fatalf("non-positive volatility %f for %s", s.Volatility, s.Code)
		}
	}
	for _, c := range AllCoins() {
		if c.Price <= 0 {
			t.Fatalf("non-positive price %f for %s", c.Price, c.Symbol)
		}
	}
	for _, c := range AllCurrencies() {
		if c.RateToUSD <= 0 {
			t.Fatalf("non-positive rate %f for %s", c.RateToUSD, c.Code)
		}
	}
}

func TestStocksByCodeLookup(t *testing.T) {
	m := StocksByCode()
	s, ok := m["000858"]
	if !ok {
		t.Fatal("000858 not found in StocksByCode")
	}
	if s.Industry != IndustryLiquor {
		t.Fatalf("000858 industry = %s, want %s", s.Industry, IndustryLiquor)
	}
	if s.Fundamentals == nil || s.Fundamentals.PE != 38 {
		t.Fatal("000858 should carry explicit fundamentals")
	}
}

func TestStocksByCodeMissing(t *testing.T) {
	if _, ok := StocksByCode()["999999"]; ok {
		t.Fatal("expected 999999 to be missing")
	}
}

func TestIndustriesDistinct(t *testing.T) {
	seen := make(map[Industry]bool)
	for _, ind := range Industries() {
		if seen[ind] {
			t.Fatalf("industry %s listed twice", ind)
		}
		seen[ind] = true
	}
	if len(seen) != len(StocksByIndustry()) {
		t.Fatalf("Industries() = %d entries, StocksByIndustry() = %d", len(seen), len(StocksByIndustry()))
	}
}

func TestBaseCurrencyFirst(t *testing.T) {
	cur := AllCurrencies()
	if cur[0].Code != BaseCurrency || cur[0].RateToUSD != 1.0 {
		t.Fatalf("first currency = %s@%f, want %s@1", cur[0].Code, cur[0].RateToUSD, BaseCurrency)
	}
	found := false
	for _, c := range cur {
		if c.Code == HomeCurrency {
			found = true
		}
	}
	if !found {
		t.Fatalf("home currency %s missing", HomeCurrency)
	}
}
