package engine

import (
	"math"
	"testing"
)

func TestSentimentMeanReverts(t *testing.T) {
	s := NewStockSentiment()
	s.Value = 1.0
	calm := fixedSource{f: 0.5, g: 0}
	for i := 0; i < 100; i++ {
		s.Update(calm)
	}
	want := math.Pow(0.95, 100)
	if math.Abs(s.Value-want) > 1e-12 {
		t.Fatalf("sentiment = %g, want %g", s.Value, want)
	}
}

func TestSentimentJump(t *testing.T) {
	s := NewCryptoSentiment()
	// f=0 triggers the jump and lands at the low end of the range.
	s.Update(fixedSource{f: 0, g: 0})
	if math.Abs(s.Value-(-0.1)) > 1e-12 {
		t.Fatalf("sentiment after jump = %f, want -0.1", s.Value)
	}
}

func TestSentimentStaysBounded(t *testing.T) {
	rng := NewRNG(42)
	for _, s := range []*Sentiment{NewStockSentiment(), NewCryptoSentiment(), NewForexSentiment()} {
		for i := 0; i < 100000; i++ {
			s.Update(rng)
			if math.Abs(s.Value) > 1 {
				t.Fatalf("sentiment escaped to %f at step %d", s.Value, i)
			}
		}
	}
}
