package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndrandal/market-game/internal/engine"
)

// Category groups events for display. It does not change behaviour.
type Category string

const (
	CategoryMarket   Category = "market"
	CategoryIndustry Category = "industry"
	CategoryPersonal Category = "personal"
)

// MaxPerDay caps how many events fire on one game-day.
const MaxPerDay = 2

// DefaultCooldownDays applies when an event does not set its own.
const DefaultCooldownDays = 7

// Event is a scripted shock. Only LastTrigger changes after construction.
type Event struct {
	Name         string
	Description  string
	EffectText   string
	Category     Category
	Effect       Effect
	Probability  float64
	CooldownDays int
	Tags         []string
	LastTrigger  *time.Time
}

// coolingDown reports whether the event fired fewer than CooldownDays
// whole days before date.
func (e *Event) coolingDown(date time.Time) bool {
	if e.LastTrigger == nil {
		return false
	}
	days := int(date.Sub(*e.LastTrigger).Hours() / 24)
	return days < e.CooldownDays
}

// Record is one triggered event instance.
type Record struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EffectText  string    `json:"effect"`
	Category    Category  `json:"category"`
}

// System owns the event table and the append-only history of triggers.
type System struct {
	events  []*Event
	byName  map[string]*Event
	history []Record
}

// NewSystem builds a system over the given events. Events without a cooldown
// get DefaultCooldownDays.
func NewSystem(events []Event) *System {
	s := &System{byName: make(map[string]*Event, len(events))}
	for i := range events {
		e := events[i]
		if e.CooldownDays == 0 {
			e.CooldownDays = DefaultCooldownDays
		}
		s.events = append(s.events, &e)
		s.byName[e.Name] = &e
	}
	return s
}

// NewDefaultSystem builds a system over the standard event catalogue.
func NewDefaultSystem() *System {
	return NewSystem(Catalog())
}

// CheckEvents rolls every event not cooling down, in shuffled order, and
// fires at most MaxPerDay of them against the player and market.
func (s *System) CheckEvents(src engine.Source, acct Account, m Market, date time.Time) ([]Record, error) {
	candidates := make([]*Event, len(s.events))
	copy(candidates, s.events)
	engine.Shuffle(src, len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	var fired []Record
	for _, e := range candidates {
		if len(fired) >= MaxPerDay {
			break
		}
		if e.coolingDown(date) {
			continue
		}
		if src.Float64() >= e.Probability {
			continue
		}
		if err := Apply(e.Effect, acct, m, src, e.Name, date); err != nil {
			return fired, fmt.Errorf("apply %s: %w", e.Name, err)
		}
		at := date
		e.LastTrigger = &at
		rec := Record{
			ID:          uuid.NewString(),
			Date:        date,
			Name:        e.Name,
			Description: e.Description,
			EffectText:  e.EffectText,
			Category:    e.Category,
		}
		s.history = append(s.history, rec)
		fired = append(fired, rec)
	}
	return fired, nil
}

// Events returns the event table in definition order.
func (s *System) Events() []*Event {
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns the event with the given name.
func (s *System) Get(name string) (*Event, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// History returns every triggered record, oldest first.
func (s *System) History() []Record {
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// Recent returns up to n of the newest records, newest first.
func (s *System) Recent(n int) []Record {
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]Record, 0, n)
	for i := len(s.history) - 1; i >= len(s.history)-n; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// Restore replaces the history and cooldown stamps from a save. Cooldowns
// are rebuilt from the newest record per event name.
func (s *System) Restore(history []Record) {
	s.history = append(s.history[:0], history...)
	for _, e := range s.events {
		e.LastTrigger = nil
	}
	for _, r := range s.history {
		e, ok := s.byName[r.Name]
		if !ok {
			continue
		}
		if e.LastTrigger == nil || r.Date.After(*e.LastTrigger) {
			d := r.Date
			e.LastTrigger = &d
		}
	}
}
