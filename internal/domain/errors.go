package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// All protocol rejections are local, synchronous and leave no partial state.
// Retry policy, if any, belongs to the caller.

var (
	// Phase gating
	ErrWrongPhase = errors.New("operation not valid in current phase")

	// Purchase errors
	ErrInvalidPrice        = errors.New("paid amount does not match the tier price")
	ErrDuplicateCommitment = errors.New("commitment already exists in this round")

	// Reveal errors
	ErrUnknownCommitment  = errors.New("no ticket with that commitment")
	ErrNotOwner           = errors.New("ticket belongs to a different account")
	ErrAlreadyRevealed    = errors.New("ticket already revealed")
	ErrCommitmentMismatch = errors.New("number does not match commitment")

	// Payout errors
	ErrAlreadyPaidOut = errors.New("round payout already executed")
)
