package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ndrandal/market-game/internal/engine"
	"github.com/ndrandal/market-game/internal/symbol"
)

const (
	airdropThreshold = 100.0
	airdropShare     = 0.01
)

// Reward is a staking payout or airdrop credited to the crypto wallet.
type Reward struct {
	Symbol string    `json:"symbol"`
	Amount float64   `json:"amount"`
	APY    float64   `json:"apy,omitempty"`
	Reason string    `json:"reason"`
	At     time.Time `json:"date"`
}

// CryptoWallet holds free and staked coin balances.
type CryptoWallet struct {
	Holdings map[string]float64 `json:"holdings"`
	Staking  map[string]float64 `json:"staking"`
}

// NewCryptoWallet returns an empty wallet.
func NewCryptoWallet() *CryptoWallet {
	return &CryptoWallet{Holdings: make(map[string]float64), Staking: make(map[string]float64)}
}

// Stake moves amount of sym from free to staked balance.
func (w *CryptoWallet) Stake(sym string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: stake %f", ErrInvalidAmount, amount)
	}
	if w.Holdings[sym] < amount {
		return fmt.Errorf("%w: hold %f %s, staking %f", ErrInsufficientHoldings, w.Holdings[sym], sym, amount)
	}
	take(w.Holdings, sym, amount)
	w.Staking[sym] += amount
	return nil
}

// Unstake moves amount of sym back to the free balance.
func (w *CryptoWallet) Unstake(sym string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: unstake %f", ErrInvalidAmount, amount)
	}
	if w.Staking[sym] < amount {
		return fmt.Errorf("%w: staked %f %s, unstaking %f", ErrInsufficientHoldings, w.Staking[sym], sym, amount)
	}
	take(w.Staking, sym, amount)
	w.Holdings[sym] += amount
	return nil
}

// StakingRewards pays one day of interest on every staked balance at a
// random APY in [5%, 15%).
func (w *CryptoWallet) StakingRewards(src engine.Source, at time.Time) []Reward {
	var out []Reward
	for _, sym := range sortedKeys(w.Staking) {
		apy := engine.Uniform(src, 0.05, 0.15)
		amt := w.Staking[sym] * apy / 365
		w.Holdings[sym] += amt
		out = append(out, Reward{Symbol: sym, Amount: amt, APY: apy, Reason: "staking", At: at})
	}
	return out
}

// Airdrops credits 1% of every free balance of at least 100 coins.
func (w *CryptoWallet) Airdrops(at time.Time) []Reward {
	var out []Reward
	for _, sym := range sortedKeys(w.Holdings) {
		if amt := w.Holdings[sym]; amt >= airdropThreshold {
			drop := amt * airdropShare
			w.Holdings[sym] += drop
			out = append(out, Reward{Symbol: sym, Amount: drop, Reason: "holding", At: at})
		}
	}
	return out
}

// Value prices free and staked balances.
func (w *CryptoWallet) Value(prices PriceLookup) float64 {
	total := 0.0
	for _, m := range []map[string]float64{w.Holdings, w.Staking} {
		for sym, amt := range m {
			if p, ok := prices.Price(sym); ok {
				total += p * amt
			}
		}
	}
	return total
}

// BuyCrypto pays amount*price from cash for amount coins.
func (p *Player) BuyCrypto(sym string, amount, price float64, at time.Time) error {
	if amount <= 0 || price <= 0 {
		return fmt.Errorf("%w: buy %f %s", ErrInvalidAmount, amount, sym)
	}
	total := amount * price
	if total > p.cash {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, total, p.cash)
	}
	p.cash -= total
	p.Crypto.Holdings[sym] += amount
	p.record(Transaction{Kind: TxCryptoBuy, Symbol: sym, Quantity: amount, Price: price, Total: total, At: at})
	return nil
}

// SellCrypto sells amount free coins into cash.
func (p *Player) SellCrypto(sym string, amount, price float64, at time.Time) error {
	if amount <= 0 || price <= 0 {
		return fmt.Errorf("%w: sell %f %s", ErrInvalidAmount, amount, sym)
	}
	if p.Crypto.Holdings[sym] < amount {
		return fmt.Errorf("%w: hold %f %s, selling %f", ErrInsufficientHoldings, p.Crypto.Holdings[sym], sym, amount)
	}
	total := amount * price
	take(p.Crypto.Holdings, sym, amount)
	p.cash += total
	p.record(Transaction{Kind: TxCryptoSell, Symbol: sym, Quantity: amount, Price: price, Total: total, At: at})
	return nil
}

// ForexWallet holds a balance per supported currency.
type ForexWallet struct {
	Balances map[string]float64 `json:"balances"`
}

// NewForexWallet opens a zero balance for every catalogue currency.
func NewForexWallet() *ForexWallet {
	w := &ForexWallet{Balances: make(map[string]float64)}
	for _, c := range symbol.AllCurrencies() {
		w.Balances[c.Code] = 0
	}
	return w
}

func (w *ForexWallet) supports(codes ...string) error {
	for _, c := range codes {
		if _, ok := w.Balances[c]; !ok {
			return fmt.Errorf("%w: currency %s", ErrUnknownSymbol, c)
		}
	}
	return nil
}

// Buy acquires amount of to, paying amount*price of from. price is in units
// of from per unit of to.
func (w *ForexWallet) Buy(from, to string, amount, price float64) error {
	if err := w.supports(from, to); err != nil {
		return err
	}
	if amount <= 0 || price <= 0 {
		return fmt.Errorf("%w: buy %f %s", ErrInvalidAmount, amount, to)
	}
	cost := amount * price
	if w.Balances[from] < cost {
		return fmt.Errorf("%w: need %.2f %s, have %.2f", ErrInsufficientCash, cost, from, w.Balances[from])
	}
	w.Balances[from] -= cost
	w.Balances[to] += amount
	return nil
}

// Sell converts amount of from into to at rate units of to per unit of
// from.
func (w *ForexWallet) Sell(from, to string, amount, rate float64) error {
	if err := w.supports(from, to); err != nil {
		return err
	}
	if amount <= 0 || rate <= 0 {
		return fmt.Errorf("%w: sell %f %s", ErrInvalidAmount, amount, from)
	}
	if w.Balances[from] < amount {
		return fmt.Errorf("%w: need %.2f %s, have %.2f", ErrInsufficientCash, amount, from, w.Balances[from])
	}
	w.Balances[from] -= amount
	w.Balances[to] += amount * rate
	return nil
}

// USDRater quotes units of a currency per US dollar.
type USDRater interface {
	USDRate(code string) (float64, bool)
}

// ValueUSD converts every balance to US dollars.
func (w *ForexWallet) ValueUSD(rates USDRater) float64 {
	total := 0.0
	for code, amt := range w.Balances {
		if r, ok := rates.USDRate(code); ok && r > 0 {
			total += amt / r
		}
	}
	return total
}

// FundForex moves amount of cash into the wallet's home-currency balance.
func (p *Player) FundForex(amount float64, at time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer %.2f", ErrInvalidAmount, amount)
	}
	if amount > p.cash {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, amount, p.cash)
	}
	p.cash -= amount
	p.Forex.Balances[symbol.HomeCurrency] += amount
	p.record(Transaction{Kind: TxForex, Symbol: symbol.HomeCurrency, Total: amount, Memo: "to wallet", At: at})
	return nil
}

// DrainForex moves amount of the wallet's home-currency balance to cash.
func (p *Player) DrainForex(amount float64, at time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer %.2f", ErrInvalidAmount, amount)
	}
	if p.Forex.Balances[symbol.HomeCurrency] < amount {
		return fmt.Errorf("%w: wallet holds %.2f %s", ErrInsufficientCash, p.Forex.Balances[symbol.HomeCurrency], symbol.HomeCurrency)
	}
	p.Forex.Balances[symbol.HomeCurrency] -= amount
	p.cash += amount
	p.record(Transaction{Kind: TxForex, Symbol: symbol.HomeCurrency, Total: amount, Memo: "from wallet", At: at})
	return nil
}

// Exchange converts amount of from into to inside the forex wallet at the
// given cross rate and records it.
func (p *Player) Exchange(from, to string, amount, rate float64, at time.Time) error {
	if err := p.Forex.Sell(from, to, amount, rate); err != nil {
		return err
	}
	p.record(Transaction{Kind: TxForex, Symbol: from + "/" + to, Quantity: amount, Price: rate, Total: amount * rate, At: at})
	return nil
}

// BuyCurrency acquires amount of to inside the forex wallet, paying at
// price units of from per unit of to, and records it.
func (p *Player) BuyCurrency(from, to string, amount, price float64, at time.Time) error {
	if err := p.Forex.Buy(from, to, amount, price); err != nil {
		return err
	}
	p.record(Transaction{Kind: TxForex, Symbol: to + "/" + from, Quantity: amount, Price: price, Total: amount * price, At: at})
	return nil
}

// take subtracts amount from m[key], dropping the key once empty.
func take(m map[string]float64, key string, amount float64) {
	m[key] -= amount
	if m[key] <= 1e-12 {
		delete(m, key)
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
