package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ndrandal/market-game/internal/game"
	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/persist"
)

// handleStocks returns every equity quote.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.StockQuotes())
}

// handleStockDetail returns one equity with fundamentals and history.
func (s *Server) handleStockDetail(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	d, ok := s.game.Stock(code)
	if !ok {
		writeError(w, http.StatusNotFound, "stock not found: "+code)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCandles returns OHLC bars of the player's fills for a symbol.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, ok := s.game.Stock(code); !ok {
		writeError(w, http.StatusNotFound, "stock not found: "+code)
		return
	}
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "transaction log not configured")
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	candles, err := s.reader.QueryCandles(ctx, persist.CandleFilter{
		Symbol:   code,
		Interval: interval,
		Limit:    parseIntParam(r, "limit", 100),
		From:     parseTimeParam(r, "from"),
		To:       parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if candles == nil {
		candles = []persist.Candle{}
	}

	writeJSON(w, http.StatusOK, candles)
}

// handleCrypto returns every coin quote.
func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.CoinQuotes())
}

// handleCoinDetail returns one coin with history.
func (s *Server) handleCoinDetail(w http.ResponseWriter, r *http.Request) {
	sym := r.PathValue("symbol")
	d, ok := s.game.Coin(sym)
	if !ok {
		writeError(w, http.StatusNotFound, "coin not found: "+sym)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleForex returns every rate in units per US dollar.
func (s *Server) handleForex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.ForexQuotes())
}

type rateResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// handleForexRate returns the cross rate ?from=&to=.
func (s *Server) handleForexRate(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	rate, ok := s.game.Rate(from, to)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown currency pair: "+from+"/"+to)
		return
	}
	writeJSON(w, http.StatusOK, rateResponse{From: from, To: to, Rate: rate})
}

// handlePlayer returns the player's book valued at current prices.
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Player())
}

// handleTransactions returns ledger entries, newest first. With a database
// the full log is queried; otherwise the in-memory history is filtered.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f := persist.TxFilter{
		Kind:   ledger.TxKind(r.URL.Query().Get("type")),
		Symbol: r.URL.Query().Get("symbol"),
		Limit:  parseIntParam(r, "limit", 100),
		Offset: parseIntParam(r, "offset", 0),
		From:   parseTimeParam(r, "from"),
		To:     parseTimeParam(r, "to"),
	}

	if s.reader == nil {
		writeJSON(w, http.StatusOK, filterTransactions(s.game.Transactions(), f))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	txs, err := s.reader.QueryTransactions(ctx, f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// filterTransactions applies f to an oldest-first history and returns the
// page newest first.
func filterTransactions(all []ledger.Transaction, f persist.TxFilter) []ledger.Transaction {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	out := []ledger.Transaction{}
	skipped := 0
	for i := len(all) - 1; i >= 0 && len(out) < f.Limit; i-- {
		tx := all[i]
		if f.Kind != "" && tx.Kind != f.Kind {
			continue
		}
		if f.Symbol != "" && tx.Symbol != f.Symbol {
			continue
		}
		if f.From != nil && tx.At.Before(*f.From) {
			continue
		}
		if f.To != nil && tx.At.After(*f.To) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out
}

// handleEvents returns recently triggered events, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.RecentEvents(parseIntParam(r, "limit", 20)))
}

// handleLottery returns the pool, today's tickets and unclaimed prizes.
func (s *Server) handleLottery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Lottery())
}

// handleClock returns the calendar position and speed.
func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Clock())
}

type statsResponse struct {
	Uptime            string                       `json:"uptime"`
	Clients           int                          `json:"clients"`
	FramesSent        uint64                       `json:"framesSent"`
	FramesDropped     uint64                       `json:"framesDropped"`
	GameDate          string                       `json:"gameDate"`
	TotalTransactions int64                        `json:"totalTransactions"`
	TotalVolume       float64                      `json:"totalVolume"`
	ByKind            map[string]persist.KindStats `json:"byKind"`
}

// handleStats returns runtime and aggregate statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var ts persist.TxStats
	if s.reader != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var err error
		ts, err = s.reader.QueryTxStats(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		ts = memoryStats(s.game.Transactions())
	}

	resp := statsResponse{
		Uptime:            time.Since(s.startAt).Truncate(time.Second).String(),
		GameDate:          s.game.Date().Format(game.TimeLayout),
		TotalTransactions: ts.TotalTransactions,
		TotalVolume:       ts.TotalVolume,
		ByKind:            ts.ByKind,
	}
	if s.mgr != nil {
		resp.Clients = s.mgr.ClientCount()
		resp.FramesSent = s.mgr.Sent()
		resp.FramesDropped = s.mgr.Dropped()
	}
	writeJSON(w, http.StatusOK, resp)
}

func memoryStats(txs []ledger.Transaction) persist.TxStats {
	ts := persist.TxStats{ByKind: map[string]persist.KindStats{}}
	for _, tx := range txs {
		k := ts.ByKind[string(tx.Kind)]
		k.Count++
		amount := tx.Total
		if amount < 0 {
			amount = -amount
		}
		k.Total += amount
		ts.ByKind[string(tx.Kind)] = k
		ts.TotalTransactions++
		ts.TotalVolume += amount
	}
	return ts
}

// handleListSaves returns every save slot, newest first.
func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	saves, err := s.saves.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saves)
}
