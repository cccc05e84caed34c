package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/lotto-network/lotto/internal/app/round"
	"github.com/lotto-network/lotto/internal/domain"
)

// ─── Ticket Operations ──────────────────────────────────────────────────────

// InsertTicket persists a freshly purchased ticket.
func (db *DB) InsertTicket(roundIndex uint64, t *domain.Ticket) error {
	_, err := db.db.Exec(`
		INSERT INTO tickets (commitment, round_idx, id, owner, tier)
		VALUES (?, ?, ?, ?, ?)
	`, t.Commitment.Hex(), int64(roundIndex), t.ID, t.Owner.Hex(), string(t.Tier))
	return err
}

// MarkTicketRevealed records a successful reveal.
func (db *DB) MarkTicketRevealed(commitment domain.Commitment, number domain.Number) error {
	_, err := db.db.Exec(`
		UPDATE tickets SET number = ?, revealed = 1 WHERE commitment = ?
	`, int64(number), commitment.Hex())
	return err
}

// LoadTickets returns all tickets of a round in purchase order.
func (db *DB) LoadTickets(roundIndex uint64) ([]*domain.Ticket, error) {
	rows, err := db.db.Query(`
		SELECT commitment, id, owner, tier, number, revealed
		FROM tickets WHERE round_idx = ? ORDER BY rowid
	`, int64(roundIndex))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		var commitHex, ownerHex, tier string
		var number int64
		var revealed int
		t := &domain.Ticket{}
		if err := rows.Scan(&commitHex, &t.ID, &ownerHex, &tier, &number, &revealed); err != nil {
			return nil, err
		}
		t.Commitment = common.HexToHash(commitHex)
		t.Owner = common.HexToAddress(ownerHex)
		t.Tier = domain.Tier(tier)
		t.Number = domain.Number(number)
		t.Revealed = revealed == 1
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ─── Balance Operations ─────────────────────────────────────────────────────

// SaveBalance upserts an account's pending balance.
func (db *DB) SaveBalance(account domain.AccountID, pending *uint256.Int) error {
	_, err := db.db.Exec(`
		INSERT INTO balances (account, pending, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(account) DO UPDATE SET
			pending    = excluded.pending,
			updated_at = datetime('now')
	`, account.Hex(), pending.Dec())
	return err
}

// LoadBalances returns every non-zero pending balance.
func (db *DB) LoadBalances() (map[domain.AccountID]*uint256.Int, error) {
	rows, err := db.db.Query(`SELECT account, pending FROM balances WHERE pending != '0'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[domain.AccountID]*uint256.Int)
	for rows.Next() {
		var acctHex, pendingDec string
		if err := rows.Scan(&acctHex, &pendingDec); err != nil {
			return nil, err
		}
		amt, err := uint256.FromDecimal(pendingDec)
		if err != nil {
			return nil, fmt.Errorf("balance for %s: %w", acctHex, err)
		}
		balances[common.HexToAddress(acctHex)] = amt
	}
	return balances, rows.Err()
}

// ─── Payout Operations ──────────────────────────────────────────────────────

// InsertPayout records a settled round.
func (db *DB) InsertPayout(index, payoutTick uint64, total, allocated, leftover *uint256.Int, winners []domain.Number) error {
	winnersJSON, err := json.Marshal(winners)
	if err != nil {
		return err
	}
	_, err = db.db.Exec(`
		INSERT INTO payouts (round_idx, payout_tick, total, allocated, leftover, winners_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, int64(index), int64(payoutTick), total.Dec(), allocated.Dec(), leftover.Dec(), string(winnersJSON))
	return err
}

// LatestPayout returns the most recent settled round, or ok=false when no
// payout has run yet.
func (db *DB) LatestPayout() (index uint64, winners []domain.Number, leftover *uint256.Int, ok bool, err error) {
	var idx, tick int64
	var totalDec, allocDec, leftDec, winnersJSON string
	err = db.db.QueryRow(`
		SELECT round_idx, payout_tick, total, allocated, leftover, winners_json
		FROM payouts ORDER BY round_idx DESC LIMIT 1
	`).Scan(&idx, &tick, &totalDec, &allocDec, &leftDec, &winnersJSON)
	if err == sql.ErrNoRows {
		return 0, nil, nil, false, nil
	}
	if err != nil {
		return 0, nil, nil, false, err
	}
	if err = json.Unmarshal([]byte(winnersJSON), &winners); err != nil {
		return 0, nil, nil, false, err
	}
	leftover, err = uint256.FromDecimal(leftDec)
	if err != nil {
		return 0, nil, nil, false, err
	}
	return uint64(idx), winners, leftover, true, nil
}

// ─── Round Snapshot Operations ──────────────────────────────────────────────

// SaveRound upserts the round snapshot, settled state included.
func (db *DB) SaveRound(snap round.Snapshot) error {
	paid := 0
	if snap.PaidOut {
		paid = 1
	}
	leftover := "0"
	if snap.Leftover != nil {
		leftover = snap.Leftover.Dec()
	}
	_, err := db.db.Exec(`
		INSERT INTO rounds (round_idx, start_tick, carried, total, paid_out, payout_tick, leftover, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(round_idx) DO UPDATE SET
			start_tick  = excluded.start_tick,
			carried     = excluded.carried,
			total       = excluded.total,
			paid_out    = excluded.paid_out,
			payout_tick = excluded.payout_tick,
			leftover    = excluded.leftover,
			updated_at  = datetime('now')
	`, int64(snap.Index), int64(snap.StartTick), snap.Carried.Dec(), snap.Total.Dec(),
		paid, int64(snap.PayoutTick), leftover)
	return err
}

// LoadRound returns the latest round snapshot, or ok=false on a fresh store.
func (db *DB) LoadRound() (round.Snapshot, bool, error) {
	var idx, start, paid, tick int64
	var carriedDec, totalDec, leftDec string
	err := db.db.QueryRow(`
		SELECT round_idx, start_tick, carried, total, paid_out, payout_tick, leftover
		FROM rounds ORDER BY round_idx DESC LIMIT 1
	`).Scan(&idx, &start, &carriedDec, &totalDec, &paid, &tick, &leftDec)
	if err == sql.ErrNoRows {
		return round.Snapshot{}, false, nil
	}
	if err != nil {
		return round.Snapshot{}, false, err
	}
	carried, err := uint256.FromDecimal(carriedDec)
	if err != nil {
		return round.Snapshot{}, false, err
	}
	total, err := uint256.FromDecimal(totalDec)
	if err != nil {
		return round.Snapshot{}, false, err
	}
	leftover, err := uint256.FromDecimal(leftDec)
	if err != nil {
		return round.Snapshot{}, false, err
	}
	return round.Snapshot{
		Index:      uint64(idx),
		StartTick:  uint64(start),
		Carried:    carried,
		Total:      total,
		PaidOut:    paid == 1,
		PayoutTick: uint64(tick),
		Leftover:   leftover,
	}, true, nil
}
