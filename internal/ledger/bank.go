package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	LoanTermMonths = 12
	MinLoanLimit   = 1_000_000.0
	DepositRate    = 0.015
)

// loanRates lists benchmark loan rates, newest first.
var loanRates = []struct {
	from time.Time
	rate float64
}{
	{time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 0.0355},
	{time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC), 0.0365},
	{time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), 0.0370},
	{time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), 0.0385},
	{time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), 0.0405},
	{time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC), 0.0425},
}

// LoanRate returns the annual loan rate in force on date.
func LoanRate(date time.Time) float64 {
	for _, r := range loanRates {
		if !date.Before(r.from) {
			return r.rate
		}
	}
	return 0.0435
}

// Loan is a fixed-term loan repaid in equal monthly instalments.
type Loan struct {
	ID              string    `json:"id"`
	Principal       float64   `json:"amount"`
	Rate            float64   `json:"rate"`
	MonthlyPayment  float64   `json:"monthly_payment"`
	RemainingMonths int       `json:"remaining_months"`
	Remaining       float64   `json:"remaining_amount"`
	Start           time.Time `json:"start_date"`
	NextDue         time.Time `json:"next_due"`
	Repaid          bool      `json:"is_repaid"`
}

// Deposit is a simple-interest time deposit.
type Deposit struct {
	ID        string    `json:"id"`
	Principal float64   `json:"amount"`
	Rate      float64   `json:"rate"`
	Start     time.Time `json:"start_date"`
	Interest  float64   `json:"interest"`
}

// interestAt returns principal*rate/365*days for whole days since Start.
func (d *Deposit) interestAt(date time.Time) float64 {
	days := int(date.Sub(d.Start).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return d.Principal * (d.Rate / 365) * float64(days)
}

// LoanLimit returns how much more the player may borrow.
func (p *Player) LoanLimit(prices PriceLookup) float64 {
	outstanding := 0.0
	for _, l := range p.loans {
		if !l.Repaid {
			outstanding += l.Principal
		}
	}
	return math.Max(MinLoanLimit, 2*p.TotalAssets(prices)) - outstanding
}

// TakeLoan borrows amount at rate for LoanTermMonths. The first instalment
// falls due one month after date.
func (p *Player) TakeLoan(amount, rate float64, date time.Time, prices PriceLookup) (*Loan, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: loan %.2f", ErrInvalidAmount, amount)
	}
	if limit := p.LoanLimit(prices); amount > limit {
		return nil, fmt.Errorf("%w: requested %.2f, available %.2f", ErrLoanLimit, amount, limit)
	}
	owed := amount * (1 + rate)
	l := &Loan{
		ID:              uuid.NewString(),
		Principal:       amount,
		Rate:            rate,
		MonthlyPayment:  owed / LoanTermMonths,
		RemainingMonths: LoanTermMonths,
		Remaining:       owed,
		Start:           date,
		NextDue:         date.AddDate(0, 1, 0),
	}
	p.loans = append(p.loans, l)
	p.cash += amount
	p.record(Transaction{Kind: TxLoan, Total: amount, Memo: l.ID, At: date})
	return l, nil
}

// RepayLoan settles every remaining instalment of the loan at index.
func (p *Player) RepayLoan(index int, date time.Time) (float64, error) {
	if index < 0 || index >= len(p.loans) || p.loans[index].Repaid {
		return 0, fmt.Errorf("%w: active loan %d", ErrNotFound, index)
	}
	l := p.loans[index]
	cost := l.MonthlyPayment * float64(l.RemainingMonths)
	if cost > p.cash {
		return 0, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, cost, p.cash)
	}
	p.cash -= cost
	l.Remaining = 0
	l.RemainingMonths = 0
	l.Repaid = true
	p.record(Transaction{Kind: TxRepayment, Total: cost, Memo: l.ID, At: date})
	return cost, nil
}

// Deposit moves amount from cash into a new time deposit.
func (p *Player) Deposit(amount, rate float64, date time.Time) (*Deposit, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit %.2f", ErrInvalidAmount, amount)
	}
	if amount > p.cash {
		return nil, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, amount, p.cash)
	}
	d := &Deposit{ID: uuid.NewString(), Principal: amount, Rate: rate, Start: date}
	p.cash -= amount
	p.deposits = append(p.deposits, d)
	p.record(Transaction{Kind: TxDeposit, Total: amount, Memo: d.ID, At: date})
	return d, nil
}

// Withdraw closes the deposit at index and returns principal plus interest
// to cash.
func (p *Player) Withdraw(index int, date time.Time) (float64, error) {
	if index < 0 || index >= len(p.deposits) {
		return 0, fmt.Errorf("%w: deposit %d", ErrNotFound, index)
	}
	d := p.deposits[index]
	total := d.Principal + d.interestAt(date)
	p.cash += total
	p.deposits = append(p.deposits[:index], p.deposits[index+1:]...)
	p.record(Transaction{Kind: TxWithdraw, Total: total, Memo: d.ID, At: date})
	return total, nil
}

// Loans returns copies of every loan, repaid ones included.
func (p *Player) Loans() []Loan {
	out := make([]Loan, len(p.loans))
	for i, l := range p.loans {
		out[i] = *l
	}
	return out
}

// Deposits returns copies of every open deposit.
func (p *Player) Deposits() []Deposit {
	out := make([]Deposit, len(p.deposits))
	for i, d := range p.deposits {
		out[i] = *d
	}
	return out
}

// AccrualReport summarises one pass of UpdateLoansAndDeposits.
type AccrualReport struct {
	Paid       float64       `json:"paid"`
	Instalment int           `json:"instalments"`
	Missed     int           `json:"missed"`
	Liquidated []Transaction `json:"liquidated,omitempty"`
}

// UpdateLoansAndDeposits pays every instalment due on or before date,
// liquidating positions to cover a shortfall, and recomputes deposit
// interest from scratch.
func (p *Player) UpdateLoansAndDeposits(date time.Time, prices PriceLookup) AccrualReport {
	var rep AccrualReport
	for _, l := range p.loans {
		for !l.Repaid && !date.Before(l.NextDue) {
			if p.cash < l.MonthlyPayment {
				sold, ok := p.Liquidate(l.MonthlyPayment, prices, date)
				rep.Liquidated = append(rep.Liquidated, sold...)
				if !ok {
					p.defaulted = true
					rep.Missed++
					break
				}
			}
			p.cash -= l.MonthlyPayment
			l.Remaining -= l.MonthlyPayment
			l.RemainingMonths--
			l.NextDue = l.NextDue.AddDate(0, 1, 0)
			if l.RemainingMonths <= 0 {
				l.Repaid = true
				l.Remaining = 0
			}
			rep.Paid += l.MonthlyPayment
			rep.Instalment++
			p.record(Transaction{Kind: TxRepayment, Total: l.MonthlyPayment, Memo: l.ID, At: date})
		}
	}
	for _, d := range p.deposits {
		d.Interest = d.interestAt(date)
	}
	return rep
}
