package ledger

// State is the persisted form of a player.
type State struct {
	Cash         float64            `json:"cash"`
	Holdings     map[string]int     `json:"stocks"`
	CostBasis    map[string]float64 `json:"stock_costs"`
	Loans        []Loan             `json:"loans"`
	Deposits     []Deposit          `json:"deposits"`
	Transactions []Transaction      `json:"transaction_history"`
	Defaulted    bool               `json:"has_loan_default"`
	Crypto       CryptoWallet       `json:"crypto_wallet"`
	Forex        ForexWallet        `json:"forex_wallet"`
}

// Snapshot returns the persisted form.
func (p *Player) Snapshot() State {
	costs := make(map[string]float64, len(p.costs))
	for k, v := range p.costs {
		costs[k] = v
	}
	return State{
		Cash:         p.cash,
		Holdings:     p.Holdings(),
		CostBasis:    costs,
		Loans:        p.Loans(),
		Deposits:     p.Deposits(),
		Transactions: p.Transactions(),
		Defaulted:    p.defaulted,
		Crypto: CryptoWallet{
			Holdings: copyFloats(p.Crypto.Holdings),
			Staking:  copyFloats(p.Crypto.Staking),
		},
		Forex: ForexWallet{Balances: copyFloats(p.Forex.Balances)},
	}
}

// Restore rebuilds the player from a save by direct assignment. The
// transaction hook is kept.
func (p *Player) Restore(s State) {
	p.cash = s.Cash
	p.holdings = make(map[string]int, len(s.Holdings))
	for k, v := range s.Holdings {
		if v > 0 {
			p.holdings[k] = v
		}
	}
	p.costs = copyFloats(s.CostBasis)
	p.loans = p.loans[:0]
	for i := range s.Loans {
		l := s.Loans[i]
		if l.NextDue.IsZero() {
			l.NextDue = l.Start.AddDate(0, LoanTermMonths-l.RemainingMonths+1, 0)
		}
		p.loans = append(p.loans, &l)
	}
	p.deposits = p.deposits[:0]
	for i := range s.Deposits {
		d := s.Deposits[i]
		p.deposits = append(p.deposits, &d)
	}
	p.txs = append([]Transaction(nil), s.Transactions...)
	p.defaulted = s.Defaulted

	p.Crypto = NewCryptoWallet()
	for k, v := range s.Crypto.Holdings {
		p.Crypto.Holdings[k] = v
	}
	for k, v := range s.Crypto.Staking {
		p.Crypto.Staking[k] = v
	}
	p.Forex = NewForexWallet()
	for k, v := range s.Forex.Balances {
		p.Forex.Balances[k] = v
	}
}

func copyFloats(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
