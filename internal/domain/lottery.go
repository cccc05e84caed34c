// Package domain contains the pure lottery protocol types with ZERO
// infrastructure imports beyond value types (addresses, hashes, wei amounts).
// This is the innermost ring — phase math, commitments, winner derivation and
// reward splits all live here and are deterministic, side-effect-free code.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ─── Core Value Types ───────────────────────────────────────────────────────

// Number is a participant's secret lottery number. The original contract
// accepts numbers up to 1e15, so a uint64 holds every legal value.
type Number uint64

// AccountID identifies a participant. Accounts are 20-byte addresses so
// commitments bind to the same identity the settlement layer uses.
type AccountID = common.Address

// Commitment is the keccak-256 binding of (number, account), published during
// the submission window before the number itself is disclosed.
type Commitment = common.Hash

// ─── Tiers ──────────────────────────────────────────────────────────────────

// Tier is a fixed-price ticket class. The tier scales the reward a winning
// ticket earns: Full is unscaled, Half earns half, Quarter a quarter.
type Tier string

const (
	TierFull    Tier = "FULL"
	TierHalf    Tier = "HALF"
	TierQuarter Tier = "QUARTER"
)

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFull, TierHalf, TierQuarter:
		return true
	}
	return false
}

// DefaultTierPrices returns the tier price table in wei.
// Full = 8 finney, Half = 4 finney, Quarter = 2 finney.
func DefaultTierPrices() map[Tier]*uint256.Int {
	const finney = 1_000_000_000_000_000
	return map[Tier]*uint256.Int{
		TierFull:    uint256.NewInt(8 * finney),
		TierHalf:    uint256.NewInt(4 * finney),
		TierQuarter: uint256.NewInt(2 * finney),
	}
}

// ─── Phases ─────────────────────────────────────────────────────────────────

// Phase is the current window of a round, derived purely from the external
// tick. There is no stored "current phase" anywhere — every operation computes
// it on demand so the controller and any outside observer agree exactly.
type Phase int

const (
	PhaseSubmission Phase = iota
	PhaseReveal
	PhasePayoutReady
)

// String returns the phase name used in logs and API responses.
func (p Phase) String() string {
	switch p {
	case PhaseSubmission:
		return "SUBMISSION"
	case PhaseReveal:
		return "REVEAL"
	case PhasePayoutReady:
		return "PAYOUT_READY"
	}
	return "UNKNOWN"
}

// PhaseAt maps a tick onto the round's window. Boundaries are half-open: a
// tick exactly at a boundary belongs to the later phase. The first half of
// the period is floor(period/2) ticks long, in integer arithmetic, so every
// observer computes identical boundaries.
func PhaseAt(currentTick, startTick, period uint64) Phase {
	switch {
	case currentTick < startTick+period/2:
		return PhaseSubmission
	case currentTick < startTick+period:
		return PhaseReveal
	default:
		return PhasePayoutReady
	}
}

// ─── Tickets ────────────────────────────────────────────────────────────────

// Ticket is one committed entry in a round. Created on a valid purchase,
// mutated exactly once by a valid reveal, never deleted — tickets persist for
// the life of the round for auditing and winner matching.
type Ticket struct {
	ID         string     `json:"id"`
	Owner      AccountID  `json:"owner"`
	Tier       Tier       `json:"tier"`
	Commitment Commitment `json:"commitment"`
	Number     Number     `json:"number"`
	Revealed   bool       `json:"revealed"`
}
