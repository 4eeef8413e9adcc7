package game

import (
	"github.com/ndrandal/market-game/internal/feed"
)

// Listing returns a directory entry for every tradable instrument.
func (g *Game) Listing() []feed.Message {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []feed.Message
	for _, s := range g.stocks.Stocks() {
		out = append(out, feed.NewDirectory(feed.MarketStock, s.Code, s.Name, s.Price))
	}
	for _, c := range g.crypto.Coins() {
		out = append(out, feed.NewDirectory(feed.MarketCrypto, c.Symbol, c.Name, c.Price))
	}
	for _, c := range g.forex.Currencies() {
		out = append(out, feed.NewDirectory(feed.MarketForex, c.Code, c.Name, c.Rate))
	}
	return out
}

// FeedMessages turns a tick into the messages published to subscribers:
// the clock, every quote, then any events and draw from a day rollover.
func (g *Game) FeedMessages(res *TickResult) []feed.Message {
	if res == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []feed.Message{feed.NewClock(res.At, res.Tick, g.paused, g.speed)}
	for _, s := range g.stocks.Stocks() {
		out = append(out, feed.NewQuote(feed.MarketStock, s.Code, s.Price, res.At))
	}
	for _, c := range g.crypto.Coins() {
		out = append(out, feed.NewQuote(feed.MarketCrypto, c.Symbol, c.Price, res.At))
	}
	for _, c := range g.forex.Currencies() {
		out = append(out, feed.NewQuote(feed.MarketForex, c.Code, c.Rate, res.At))
	}

	if res.Day != nil {
		for _, r := range res.Day.Events {
			out = append(out, feed.FromRecord(r))
		}
		if res.Day.Draw != nil {
			out = append(out, feed.FromDraw(res.Day.Draw))
		}
	}
	return out
}
