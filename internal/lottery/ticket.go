package lottery

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ndrandal/market-game/internal/engine"
)

const (
	RedCount    = 6
	RedMax      = 33
	BlueMax     = 16
	TicketPrice = 2.0
	MaxBatch    = 10000

	// MaxCompoundReds bounds a multiple-selection ticket to C(16,6) red sets.
	MaxCompoundReds = 16
)

var (
	ErrBatchSize    = errors.New("batch size out of range")
	ErrInvalidPicks = errors.New("invalid number selection")
)

// Ticket is one line of six reds and a blue.
type Ticket struct {
	Reds []int `json:"reds" bson:"reds"`
	Blue int   `json:"blue" bson:"blue"`
}

// Valid reports whether the ticket has six distinct reds in [1,33] and a
// blue in [1,16].
func (t Ticket) Valid() bool {
	if len(t.Reds) != RedCount {
		return false
	}
	seen := make(map[int]bool, RedCount)
	for _, n := range t.Reds {
		if n < 1 || n > RedMax || seen[n] {
			return false
		}
		seen[n] = true
	}
	return t.Blue >= 1 && t.Blue <= BlueMax
}

// normalized returns a copy with the reds sorted.
func (t Ticket) normalized() Ticket {
	reds := append([]int(nil), t.Reds...)
	sort.Ints(reds)
	return Ticket{Reds: reds, Blue: t.Blue}
}

func (t Ticket) String() string {
	return fmt.Sprintf("%02v+%02d", t.Reds, t.Blue)
}

// QuickPick draws a random valid ticket.
func QuickPick(src engine.Source) Ticket {
	reds := engine.Sample(src, 1, RedMax, RedCount)
	sort.Ints(reds)
	return Ticket{Reds: reds, Blue: engine.IntBetween(src, 1, BlueMax)}
}

// QuickPicks draws n random tickets, 1 <= n <= MaxBatch.
func QuickPicks(src engine.Source, n int) ([]Ticket, error) {
	if n < 1 || n > MaxBatch {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrBatchSize, n, MaxBatch)
	}
	out := make([]Ticket, n)
	for i := range out {
		out[i] = QuickPick(src)
	}
	return out, nil
}

// Compound expands a multiple selection into every six-red combination
// paired with each chosen blue.
func Compound(reds, blues []int) ([]Ticket, error) {
	reds = dedupe(reds)
	blues = dedupe(blues)
	if len(reds) < RedCount || len(reds) > MaxCompoundReds {
		return nil, fmt.Errorf("%w: need %d-%d reds, got %d", ErrInvalidPicks, RedCount, MaxCompoundReds, len(reds))
	}
	if len(blues) < 1 {
		return nil, fmt.Errorf("%w: need at least one blue", ErrInvalidPicks)
	}
	for _, r := range reds {
		if r < 1 || r > RedMax {
			return nil, fmt.Errorf("%w: red %d out of range", ErrInvalidPicks, r)
		}
	}
	for _, b := range blues {
		if b < 1 || b > BlueMax {
			return nil, fmt.Errorf("%w: blue %d out of range", ErrInvalidPicks, b)
		}
	}

	var out []Ticket
	combo := make([]int, RedCount)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == RedCount {
			for _, b := range blues {
				out = append(out, Ticket{Reds: append([]int(nil), combo...), Blue: b})
			}
			return
		}
		for i := start; i <= len(reds)-(RedCount-depth); i++ {
			combo[depth] = reds[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return out, nil
}

func dedupe(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}
