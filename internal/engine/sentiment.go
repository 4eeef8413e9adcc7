package engine

// Sentiment is a mean-reverting random walk with rare jumps. Markets feed
// its value into every instrument update.
type Sentiment struct {
	Value float64 `json:"value"`
	Sigma float64 `json:"-"`
	Jump  float64 `json:"-"`
}

// jumpChance is the per-update probability of a sentiment shock.
const jumpChance = 0.01

// NewStockSentiment returns the tuning used by the equity market.
func NewStockSentiment() *Sentiment { return &Sentiment{Sigma: 0.01, Jump: 0.05} }

// NewCryptoSentiment returns the tuning used by the crypto market.
func NewCryptoSentiment() *Sentiment { return &Sentiment{Sigma: 0.01, Jump: 0.1} }

// NewForexSentiment returns the tuning used by the forex market.
func NewForexSentiment() *Sentiment { return &Sentiment{Sigma: 0.01, Jump: 0.02} }

// Update advances the walk one step and returns the new value.
func (s *Sentiment) Update(src Source) float64 {
	s.Value = s.Value*0.95 + Normal(src, 0, s.Sigma)
	if src.Float64() < jumpChance {
		s.Value += Uniform(src, -s.Jump, s.Jump)
	}
	return s.Value
}
