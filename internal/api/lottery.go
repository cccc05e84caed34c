package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/lotto-network/lotto/internal/domain"
	"github.com/lotto-network/lotto/internal/infra/observability"
)

// ─── Lottery API ────────────────────────────────────────────────────────────
// POST /v1/tickets                  — purchase a ticket (commitment + payment)
// POST /v1/reveals                  — reveal the number behind a commitment
// POST /v1/payout                   — trigger the round payout
// POST /v1/withdrawals/{account}    — withdraw the pending balance
// GET  /v1/round                    — round params, tick and current phase
// GET  /v1/round/winners            — winner numbers of the last settled round
// GET  /v1/balances/{account}       — pending balance
//
// Addresses and hashes are 0x-hex; wei amounts are decimal strings so no
// precision is lost in JSON.

// errorStatus maps protocol rejections onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrDuplicateCommitment),
		errors.Is(err, domain.ErrAlreadyRevealed),
		errors.Is(err, domain.ErrAlreadyPaidOut):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownCommitment):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrCommitmentMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseAccount decodes a 0x-hex account address.
func parseAccount(s string) (domain.AccountID, bool) {
	if !common.IsHexAddress(s) {
		return domain.AccountID{}, false
	}
	return common.HexToAddress(s), true
}

// parseCommitment decodes a 0x-hex 32-byte commitment hash.
func parseCommitment(s string) (domain.Commitment, bool) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return domain.Commitment{}, false
	}
	return common.BytesToHash(b), true
}

// ─── Purchase ───────────────────────────────────────────────────────────────

type purchaseRequest struct {
	Commitment    string `json:"commitment"`
	Tier          string `json:"tier"`
	Account       string `json:"account"`
	PaidAmountWei string `json:"paid_amount_wei"`
}

// handlePurchase creates a ticket during the submission window.
// POST /v1/tickets
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	commitment, ok := parseCommitment(req.Commitment)
	if !ok {
		writeError(w, http.StatusBadRequest, "commitment must be a 0x-hex 32-byte hash")
		return
	}
	account, ok := parseAccount(req.Account)
	if !ok {
		writeError(w, http.StatusBadRequest, "account must be a 0x-hex address")
		return
	}
	paid, err := uint256.FromDecimal(req.PaidAmountWei)
	if err != nil {
		writeError(w, http.StatusBadRequest, "paid_amount_wei must be a decimal wei amount")
		return
	}

	id, err := s.ctrl.Purchase(commitment, domain.Tier(req.Tier), account, paid)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"ticket_id": id,
	})
}

// ─── Reveal ─────────────────────────────────────────────────────────────────

type revealRequest struct {
	Commitment string `json:"commitment"`
	Number     uint64 `json:"number"`
	Account    string `json:"account"`
}

// handleReveal discloses a committed number during the reveal window.
// POST /v1/reveals
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	commitment, ok := parseCommitment(req.Commitment)
	if !ok {
		writeError(w, http.StatusBadRequest, "commitment must be a 0x-hex 32-byte hash")
		return
	}
	account, ok := parseAccount(req.Account)
	if !ok {
		writeError(w, http.StatusBadRequest, "account must be a 0x-hex address")
		return
	}

	if err := s.ctrl.Reveal(commitment, domain.Number(req.Number), account); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "revealed",
	})
}

// ─── Payout ─────────────────────────────────────────────────────────────────

// handlePayout settles the round once its period has elapsed.
// POST /v1/payout
func (s *Server) handlePayout(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ctrl.TriggerPayout()
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	rewards := make(map[string]string, len(sum.Rewards))
	for acct, amt := range sum.Rewards {
		rewards[acct.Hex()] = amt.Dec()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"round":          sum.Round,
		"winner_numbers": sum.Winners,
		"rewards":        rewards,
		"total_wei":      sum.Total.Dec(),
		"allocated_wei":  sum.Allocated.Dec(),
		"leftover_wei":   sum.Leftover.Dec(),
	})
}

// ─── Withdrawal ─────────────────────────────────────────────────────────────

// handleWithdraw atomically reads and zeroes the account's pending balance.
// A zero balance returns amount 0; it is not an error.
// POST /v1/withdrawals/{account}
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAccount(chi.URLParam(r, "account"))
	if !ok {
		writeError(w, http.StatusBadRequest, "account must be a 0x-hex address")
		return
	}

	amount := s.ledger.Withdraw(account)
	observability.Withdrawals.Inc()
	observability.WithdrawnWei.Add(amount.Float64())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":    account.Hex(),
		"amount_wei": amount.Dec(),
	})
}

// ─── Queries ────────────────────────────────────────────────────────────────

// handleRound returns round parameters and the phase at the current tick.
// GET /v1/round
func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	info := s.ctrl.CurrentInfo()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"round":              info.Index,
		"start_tick":         info.StartTick,
		"period":             info.Period,
		"ranks":              info.Ranks,
		"current_tick":       info.Tick,
		"phase":              info.Phase.String(),
		"tickets":            info.Tickets,
		"revealed":           info.Revealed,
		"total_reward_wei":   info.Total.Dec(),
		"carried_reward_wei": info.Carried.Dec(),
	})
}

// handleWinners returns the winner sequence of the last settled round.
// GET /v1/round/winners
func (s *Server) handleWinners(w http.ResponseWriter, r *http.Request) {
	winners, ok := s.ctrl.WinnerNumbers()
	if !ok {
		writeError(w, http.StatusNotFound, "no payout has run yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"winner_numbers": winners,
	})
}

// handleBalance returns the pending balance for an account.
// GET /v1/balances/{account}
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAccount(chi.URLParam(r, "account"))
	if !ok {
		writeError(w, http.StatusBadRequest, "account must be a 0x-hex address")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":     account.Hex(),
		"pending_wei": s.ledger.Pending(account).Dec(),
	})
}
