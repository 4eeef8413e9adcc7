package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrLoanLimit            = errors.New("loan limit exceeded")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNotFound             = errors.New("not found")
)

// PriceLookup resolves the current price of an equity.
type PriceLookup interface {
	Price(code string) (float64, bool)
}

// TxKind labels a ledger entry.
type TxKind string

const (
	TxBuy        TxKind = "buy"
	TxSell       TxKind = "sell"
	TxLiquidate  TxKind = "liquidate"
	TxLoan       TxKind = "loan"
	TxRepayment  TxKind = "repayment"
	TxDeposit    TxKind = "deposit"
	TxWithdraw   TxKind = "withdraw"
	TxAdjust     TxKind = "adjust"
	TxCryptoBuy  TxKind = "crypto_buy"
	TxCryptoSell TxKind = "crypto_sell"
	TxForex      TxKind = "forex"
	TxLottery    TxKind = "lottery"
)

// Transaction is one entry in the player's history.
type Transaction struct {
	ID       string    `json:"id" bson:"_id"`
	Kind     TxKind    `json:"type" bson:"type"`
	Symbol   string    `json:"symbol,omitempty" bson:"symbol,omitempty"`
	Quantity float64   `json:"quantity,omitempty" bson:"quantity,omitempty"`
	Price    float64   `json:"price,omitempty" bson:"price,omitempty"`
	Total    float64   `json:"total" bson:"total"`
	Profit   float64   `json:"profit,omitempty" bson:"profit,omitempty"`
	Memo     string    `json:"memo,omitempty" bson:"memo,omitempty"`
	At       time.Time `json:"date" bson:"date"`
}

// Player is the cash, positions and bank book of the single player. It is
// not safe for concurrent use; the game serialises access.
type Player struct {
	cash     float64
	holdings map[string]int
	costs    map[string]float64
	loans    []*Loan
	deposits []*Deposit
	txs      []Transaction

	defaulted bool

	Crypto *CryptoWallet
	Forex  *ForexWallet

	// OnTransaction, when set, sees every recorded transaction.
	OnTransaction func(Transaction)
}

// NewPlayer opens a ledger with the given cash.
func NewPlayer(cash float64) *Player {
	return &Player{
		cash:     cash,
		holdings: make(map[string]int),
		costs:    make(map[string]float64),
		Crypto:   NewCryptoWallet(),
		Forex:    NewForexWallet(),
	}
}

func (p *Player) record(tx Transaction) Transaction {
	tx.ID = uuid.NewString()
	p.txs = append(p.txs, tx)
	if p.OnTransaction != nil {
		p.OnTransaction(tx)
	}
	return tx
}

// Cash returns the cash balance.
func (p *Player) Cash() float64 { return p.cash }

// AdjustCash applies delta without taking cash below zero and returns the
// delta actually applied.
func (p *Player) AdjustCash(delta float64, memo string, at time.Time) float64 {
	if p.cash+delta < 0 {
		delta = -p.cash
	}
	if delta == 0 {
		return 0
	}
	p.cash += delta
	p.record(Transaction{Kind: TxAdjust, Total: delta, Memo: memo, At: at})
	return delta
}

// Spend debits amount from cash for a purchase outside the stock book.
func (p *Player) Spend(kind TxKind, amount float64, memo string, at time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: spend %.2f", ErrInvalidAmount, amount)
	}
	if amount > p.cash {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, amount, p.cash)
	}
	p.cash -= amount
	p.record(Transaction{Kind: kind, Total: amount, Memo: memo, At: at})
	return nil
}

// Buy debits qty*price and adds the shares to the position.
func (p *Player) Buy(code string, qty int, price float64, at time.Time) error {
	if qty <= 0 || price <= 0 {
		return fmt.Errorf("%w: buy %d @ %.2f", ErrInvalidAmount, qty, price)
	}
	total := float64(qty) * price
	if total > p.cash {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, total, p.cash)
	}
	p.cash -= total
	p.holdings[code] += qty
	p.costs[code] += total
	p.record(Transaction{Kind: TxBuy, Symbol: code, Quantity: float64(qty), Price: price, Total: total, At: at})
	return nil
}

// Sell credits qty*price and returns the realised profit against the
// average cost. The cost basis shrinks in proportion to the shares left.
func (p *Player) Sell(code string, qty int, price float64, at time.Time) (float64, error) {
	tx, err := p.sell(code, qty, price, at, TxSell)
	if err != nil {
		return 0, err
	}
	return tx.Profit, nil
}

func (p *Player) sell(code string, qty int, price float64, at time.Time, kind TxKind) (Transaction, error) {
	if qty <= 0 || price <= 0 {
		return Transaction{}, fmt.Errorf("%w: sell %d @ %.2f", ErrInvalidAmount, qty, price)
	}
	held := p.holdings[code]
	if held < qty {
		return Transaction{}, fmt.Errorf("%w: hold %d of %s, selling %d", ErrInsufficientHoldings, held, code, qty)
	}
	revenue := float64(qty) * price
	avg := p.costs[code] / float64(held)
	profit := revenue - avg*float64(qty)

	p.cash += revenue
	remaining := held - qty
	if remaining == 0 {
		delete(p.holdings, code)
		delete(p.costs, code)
	} else {
		p.holdings[code] = remaining
		p.costs[code] *= float64(remaining) / float64(held)
	}
	tx := p.record(Transaction{Kind: kind, Symbol: code, Quantity: float64(qty), Price: price, Total: revenue, Profit: profit, At: at})
	return tx, nil
}

// Holding returns the shares held of code.
func (p *Player) Holding(code string) int { return p.holdings[code] }

// CostBasis returns the total cost attributed to the position in code.
func (p *Player) CostBasis(code string) float64 { return p.costs[code] }

// Holdings returns a copy of all positions.
func (p *Player) Holdings() map[string]int {
	out := make(map[string]int, len(p.holdings))
	for k, v := range p.holdings {
		out[k] = v
	}
	return out
}

// Transactions returns the history, oldest first.
func (p *Player) Transactions() []Transaction {
	return append([]Transaction(nil), p.txs...)
}

// Defaulted reports whether a loan instalment could not be met.
func (p *Player) Defaulted() bool { return p.defaulted }

// HoldingsValue values every position at current prices. Positions without
// a price count as zero.
func (p *Player) HoldingsValue(prices PriceLookup) float64 {
	total := 0.0
	for code, qty := range p.holdings {
		if price, ok := prices.Price(code); ok {
			total += price * float64(qty)
		}
	}
	return total
}

// TotalAssets is cash plus positions plus deposits with interest, less the
// unpaid balance of every loan.
func (p *Player) TotalAssets(prices PriceLookup) float64 {
	total := p.cash + p.HoldingsValue(prices)
	for _, d := range p.deposits {
		total += d.Principal + d.Interest
	}
	for _, l := range p.loans {
		if !l.Repaid {
			total -= l.Remaining
		}
	}
	return total
}

// Liquidate sells positions, largest market value first, until cash reaches
// target or nothing is left to sell. It reports whether target was reached.
func (p *Player) Liquidate(target float64, prices PriceLookup, at time.Time) ([]Transaction, bool) {
	type position struct {
		code  string
		qty   int
		price float64
	}
	var book []position
	for code, qty := range p.holdings {
		if price, ok := prices.Price(code); ok && price > 0 {
			book = append(book, position{code, qty, price})
		}
	}
	sort.Slice(book, func(i, j int) bool {
		vi, vj := book[i].price*float64(book[i].qty), book[j].price*float64(book[j].qty)
		if vi != vj {
			return vi > vj
		}
		return book[i].code < book[j].code
	})

	var sold []Transaction
	for _, pos := range book {
		if p.cash >= target {
			break
		}
		qty := int((target-p.cash)/pos.price) + 1
		if qty > pos.qty {
			qty = pos.qty
		}
		tx, err := p.sell(pos.code, qty, pos.price, at, TxLiquidate)
		if err != nil {
			continue
		}
		sold = append(sold, tx)
	}
	return sold, p.cash >= target
}
