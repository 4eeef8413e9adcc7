package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ndrandal/market-game/internal/game"
	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/lottery"
	"github.com/ndrandal/market-game/internal/persist"
	"github.com/ndrandal/market-game/internal/session"
)

// Saver stores and restores named save slots.
type Saver interface {
	Save(ctx context.Context, name string) (game.SaveInfo, error)
	Load(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]game.SaveInfo, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Server provides REST API endpoints for the game.
type Server struct {
	game     *game.Game
	reader   persist.TxReader // nil without a database
	saves    Saver
	mgr      *session.Manager
	saveName string
	startAt  time.Time
}

// NewServer creates a new API server. reader may be nil, in which case
// transaction queries are served from the in-memory ledger.
func NewServer(g *game.Game, reader persist.TxReader, saves Saver, mgr *session.Manager, saveName string) *Server {
	return &Server{
		game:     g,
		reader:   reader,
		saves:    saves,
		mgr:      mgr,
		saveName: saveName,
		startAt:  time.Now(),
	}
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	// Markets
	mux.HandleFunc("GET /api/stocks", s.handleStocks)
	mux.HandleFunc("GET /api/stocks/{code}", s.handleStockDetail)
	mux.HandleFunc("GET /api/stocks/{code}/candles", s.handleCandles)
	mux.HandleFunc("POST /api/stocks/{code}/buy", s.handleBuyStock)
	mux.HandleFunc("POST /api/stocks/{code}/sell", s.handleSellStock)
	mux.HandleFunc("GET /api/crypto", s.handleCrypto)
	mux.HandleFunc("GET /api/crypto/{symbol}", s.handleCoinDetail)
	mux.HandleFunc("POST /api/crypto/{symbol}/buy", s.handleBuyCrypto)
	mux.HandleFunc("POST /api/crypto/{symbol}/sell", s.handleSellCrypto)
	mux.HandleFunc("POST /api/crypto/{symbol}/stake", s.handleStake)
	mux.HandleFunc("POST /api/crypto/{symbol}/unstake", s.handleUnstake)
	mux.HandleFunc("GET /api/forex", s.handleForex)
	mux.HandleFunc("GET /api/forex/rate", s.handleForexRate)
	mux.HandleFunc("POST /api/forex/fund", s.handleFundForex)
	mux.HandleFunc("POST /api/forex/drain", s.handleDrainForex)
	mux.HandleFunc("POST /api/forex/exchange", s.handleExchange)

	// Player and bank
	mux.HandleFunc("GET /api/player", s.handlePlayer)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("POST /api/bank/deposit", s.handleDeposit)
	mux.HandleFunc("POST /api/bank/deposit/{index}/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /api/bank/loan", s.handleLoan)
	mux.HandleFunc("POST /api/bank/loan/{index}/repay", s.handleRepay)

	// Events and lottery
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/lottery", s.handleLottery)
	mux.HandleFunc("POST /api/lottery/tickets", s.handleTickets)

	// Game control
	mux.HandleFunc("GET /api/game", s.handleClock)
	mux.HandleFunc("POST /api/game/pause", s.handlePause)
	mux.HandleFunc("POST /api/game/speed", s.handleSpeed)
	mux.HandleFunc("POST /api/game/reset", s.handleReset)
	mux.HandleFunc("GET /api/game/saves", s.handleListSaves)
	mux.HandleFunc("DELETE /api/game/saves", s.handleDeleteSaves)
	mux.HandleFunc("POST /api/game/save", s.handleSave)
	mux.HandleFunc("POST /api/game/load", s.handleLoad)
	mux.HandleFunc("GET /api/game/export", s.handleExport)
	mux.HandleFunc("POST /api/game/import", s.handleImport)

	mux.HandleFunc("GET /api/stats", s.handleStats)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeGameError maps a business error to its HTTP status.
func writeGameError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrUnknownSymbol), errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientCash),
		errors.Is(err, ledger.ErrInsufficientHoldings),
		errors.Is(err, ledger.ErrLoanLimit):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, lottery.ErrBatchSize),
		errors.Is(err, lottery.ErrInvalidPicks),
		errors.Is(err, game.ErrInvalidSpeed),
		errors.Is(err, game.ErrBadSaveName):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

const maxBodyBytes = 1 << 20

// decodeBody parses a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseTimeParam parses an RFC3339 query parameter.
func parseTimeParam(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

// pathIndex parses a non-negative integer path value, writing a 400 if it
// is malformed.
func pathIndex(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(key))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid "+key+": "+r.PathValue(key))
		return 0, false
	}
	return n, true
}
