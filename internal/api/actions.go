package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ndrandal/market-game/internal/archive"
	"github.com/ndrandal/market-game/internal/game"
	"github.com/ndrandal/market-game/internal/lottery"
)

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type tradeResponse struct {
	Symbol   string          `json:"symbol"`
	Quantity float64         `json:"quantity"`
	Profit   float64         `json:"profit,omitempty"`
	Player   game.PlayerView `json:"player"`
}

// handleBuyStock buys {quantity} shares at the current price.
func (s *Server) handleBuyStock(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	code := r.PathValue("code")
	if err := s.game.BuyStock(code, req.Quantity); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tradeResponse{Symbol: code, Quantity: float64(req.Quantity), Player: s.game.Player()})
}

// handleSellStock sells {quantity} shares at the current price.
func (s *Server) handleSellStock(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	code := r.PathValue("code")
	profit, err := s.game.SellStock(code, req.Quantity)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tradeResponse{Symbol: code, Quantity: float64(req.Quantity), Profit: profit, Player: s.game.Player()})
}

// coinAction runs a wallet operation taking {amount} of the path coin.
func (s *Server) coinAction(op func(sym string, amount float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req amountRequest
		if !decodeBody(w, r, &req) {
			return
		}
		sym := r.PathValue("symbol")
		if err := op(sym, req.Amount); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tradeResponse{Symbol: sym, Quantity: req.Amount, Player: s.game.Player()})
	}
}

func (s *Server) handleBuyCrypto(w http.ResponseWriter, r *http.Request) {
	s.coinAction(s.game.BuyCrypto)(w, r)
}

func (s *Server) handleSellCrypto(w http.ResponseWriter, r *http.Request) {
	s.coinAction(s.game.SellCrypto)(w, r)
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	s.coinAction(s.game.Stake)(w, r)
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	s.coinAction(s.game.Unstake)(w, r)
}

// handleFundForex moves {amount} of cash into the forex wallet.
func (s *Server) handleFundForex(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.game.FundForex(req.Amount); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Player())
}

// handleDrainForex moves {amount} of the wallet's home currency to cash.
func (s *Server) handleDrainForex(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.game.DrainForex(req.Amount); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Player())
}

type exchangeRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`

	// Buy spends From to receive Amount of To; otherwise Amount of From is
	// sold.
	Buy bool `json:"buy"`
}

type exchangeResponse struct {
	Rate   float64            `json:"rate"`
	Wallet map[string]float64 `json:"wallet"`
}

// handleExchange converts between two wallet currencies.
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var rate float64
	var err error
	if req.Buy {
		rate, err = s.game.BuyCurrency(req.From, req.To, req.Amount)
	} else {
		rate, err = s.game.Exchange(req.From, req.To, req.Amount)
	}
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{Rate: rate, Wallet: s.game.Player().Forex.Balances})
}

// handleDeposit opens a time deposit of {amount}.
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.game.Deposit(req.Amount)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

type payoutResponse struct {
	Amount float64 `json:"amount"`
	Cash   float64 `json:"cash"`
}

// handleWithdraw closes the deposit at {index}.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	paid, err := s.game.Withdraw(idx)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{Amount: paid, Cash: s.game.Player().Cash})
}

// handleLoan borrows {amount}.
func (s *Server) handleLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	l, err := s.game.TakeLoan(req.Amount)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// handleRepay settles the loan at {index} early.
func (s *Server) handleRepay(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	paid, err := s.game.RepayLoan(idx)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{Amount: paid, Cash: s.game.Player().Cash})
}

type ticketRequest struct {
	Tickets  []lottery.Ticket `json:"tickets,omitempty"`
	Quick    int              `json:"quick,omitempty"`
	Compound *struct {
		Reds  []int `json:"reds"`
		Blues []int `json:"blues"`
	} `json:"compound,omitempty"`
}

type ticketResponse struct {
	Bought  int              `json:"bought"`
	Picked  []lottery.Ticket `json:"picked,omitempty"`
	Lottery game.LotteryView `json:"lottery"`
}

// handleTickets buys explicit tickets, {quick} random tickets, or a
// compound selection.
func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var resp ticketResponse
	switch {
	case req.Quick > 0:
		picked, err := s.game.QuickPick(req.Quick)
		if err != nil {
			writeGameError(w, err)
			return
		}
		resp.Bought, resp.Picked = len(picked), picked
	case req.Compound != nil:
		n, err := s.game.BuyCompound(req.Compound.Reds, req.Compound.Blues)
		if err != nil {
			writeGameError(w, err)
			return
		}
		resp.Bought = n
	case len(req.Tickets) > 0:
		n, err := s.game.BuyTickets(req.Tickets)
		if err != nil {
			writeGameError(w, err)
			return
		}
		resp.Bought = n
	default:
		writeError(w, http.StatusBadRequest, "no tickets requested")
		return
	}

	resp.Lottery = s.game.Lottery()
	writeJSON(w, http.StatusOK, resp)
}

// handlePause toggles the pause flag.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.game.TogglePause()
	writeJSON(w, http.StatusOK, s.game.Clock())
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

// handleSpeed sets the speed multiplier.
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.game.SetSpeed(req.Speed); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Clock())
}

// handleReset discards all progress.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Reset(); err != nil {
		writeGameError(w, err)
		return
	}
	log.Println("game reset")
	writeJSON(w, http.StatusOK, s.game.Clock())
}

type slotRequest struct {
	Name string `json:"name"`
}

// slotName reads an optional {name}, defaulting to the autosave slot.
func (s *Server) slotName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req slotRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return "", false
	}
	if req.Name == "" {
		req.Name = s.saveName
	}
	if err := game.CheckSaveName(req.Name); err != nil {
		writeGameError(w, err)
		return "", false
	}
	return req.Name, true
}

// handleSave writes the game to a slot.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	name, ok := s.slotName(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	info, err := s.saves.Save(ctx, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleLoad restores a slot.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name, ok := s.slotName(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	found, err := s.saves.Load(ctx, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "save not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, s.game.Clock())
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

// handleDeleteSaves removes every slot.
func (s *Server) handleDeleteSaves(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	n, err := s.saves.DeleteAll(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
}

// handleExport streams the current game as a .sav download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st := s.game.Snapshot()
	name := "export_" + time.Now().UTC().Format("20060102_150405")

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+archive.Ext))
	if err := archive.Export(w, name, time.Now().UTC(), &st); err != nil {
		log.Printf("export: %v", err)
	}
}

// handleImport replaces the game with an uploaded .sav file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sf, err := archive.Import(http.MaxBytesReader(w, r.Body, 64<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.game.Restore(sf.State); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("imported save %q (game date %s)", sf.Name, sf.State.Date)
	writeJSON(w, http.StatusOK, s.game.Clock())
}
