// Package round owns the lottery round lifecycle: it accepts commitments
// during the submission window, reveals during the reveal window, settles the
// round once the period has elapsed, and rolls the unallocated remainder into
// the next round.
//
// Every operation:
//  1. Takes the controller lock (operations serialize into a total order)
//  2. Reads the external tick exactly once (a single phase snapshot per call)
//  3. Runs all validity checks before any mutation (atomic per call)
package round

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/lotto-network/lotto/internal/app/ledger"
	"github.com/lotto-network/lotto/internal/domain"
	"github.com/lotto-network/lotto/internal/infra/observability"
)

// TickSource reports the current external monotonic tick (block height).
type TickSource interface {
	CurrentTick() uint64
}

// Store persists round activity for audit and crash recovery. The controller
// is authoritative in memory; store failures are logged, never fatal.
type Store interface {
	InsertTicket(roundIndex uint64, t *domain.Ticket) error
	MarkTicketRevealed(commitment domain.Commitment, number domain.Number) error
	SaveRound(snap Snapshot) error
	InsertPayout(index uint64, payoutTick uint64, total, allocated, leftover *uint256.Int, winners []domain.Number) error
}

// Snapshot is the persisted form of a round. It carries the settled state so
// a payout that already ran can never run again across a restart.
type Snapshot struct {
	Index      uint64
	StartTick  uint64
	Carried    *uint256.Int
	Total      *uint256.Int
	PaidOut    bool
	PayoutTick uint64
	Leftover   *uint256.Int
}

// Config holds the fixed round parameters.
type Config struct {
	Period uint64                       // ticks per round; first half is submission
	Ranks  int                          // number of paid winner ranks
	Prices map[domain.Tier]*uint256.Int // exact price per tier, in wei
}

// DefaultConfig returns the original protocol parameters.
func DefaultConfig() Config {
	return Config{
		Period: 20,
		Ranks:  4,
		Prices: domain.DefaultTierPrices(),
	}
}

// Round is one generation of the lottery. Each round is created fresh at
// rollover, referencing only the carried leftover — no state leaks across
// generations.
type Round struct {
	Index      uint64
	StartTick  uint64
	Tickets    []*domain.Ticket
	byCommit   map[domain.Commitment]*domain.Ticket
	Total      *uint256.Int // carried + all prices paid in
	Carried    *uint256.Int
	PaidOut    bool
	PayoutTick uint64
	Leftover   *uint256.Int // set at payout
}

func newRound(index, startTick uint64, carried *uint256.Int) *Round {
	return &Round{
		Index:     index,
		StartTick: startTick,
		byCommit:  make(map[domain.Commitment]*domain.Ticket),
		Total:     carried.Clone(),
		Carried:   carried.Clone(),
	}
}

// PayoutSummary reports the outcome of a settled round.
type PayoutSummary struct {
	Round     uint64
	Winners   []domain.Number
	Rewards   map[domain.AccountID]*uint256.Int
	Total     *uint256.Int
	Allocated *uint256.Int
	Leftover  *uint256.Int
}

// Controller serializes all mutations of the shared round and ledger state.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	ticks  TickSource
	ledger *ledger.Ledger
	store  Store // may be nil

	round       *Round
	lastWinners []domain.Number // set after the first payout
	settled     bool            // any payout has run
}

// New creates a controller with a fresh round starting at the current tick.
// The fresh round is not written through: a snapshot already in the store
// belongs to the round being restored and must stay intact until
// RestoreRound has read it back.
func New(cfg Config, ticks TickSource, led *ledger.Ledger, store Store) *Controller {
	c := &Controller{
		cfg:    cfg,
		ticks:  ticks,
		ledger: led,
		store:  store,
	}
	c.round = newRound(0, ticks.CurrentTick(), uint256.NewInt(0))
	observability.RoundIndex.Set(float64(c.round.Index))
	return c
}

// RestoreRound replaces the current round with a snapshot loaded from the
// store. Must be called at boot, before the controller is shared. A settled
// snapshot restores as settled, so the next operation rolls over instead of
// paying the round out a second time.
func (c *Controller) RestoreRound(snap Snapshot, tickets []*domain.Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := newRound(snap.Index, snap.StartTick, snap.Carried)
	r.Total = snap.Total.Clone()
	r.PaidOut = snap.PaidOut
	r.PayoutTick = snap.PayoutTick
	if snap.Leftover != nil {
		r.Leftover = snap.Leftover.Clone()
	}
	for _, t := range tickets {
		r.Tickets = append(r.Tickets, t)
		r.byCommit[t.Commitment] = t
	}
	c.round = r
	observability.RoundIndex.Set(float64(r.Index))
	observability.RewardPoolWei.Set(weiGauge(r.Total))
}

// RestoreWinners reinstates the last settled round's winner sequence after a
// restart, so the winners query keeps answering. Must be called at boot.
func (c *Controller) RestoreWinners(winners []domain.Number) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastWinners = append([]domain.Number(nil), winners...)
	c.settled = true
}

// ─── Purchase ───────────────────────────────────────────────────────────────

// Purchase creates a ticket for the commitment. Valid only during the
// submission window, with paid exactly equal to the tier price and a
// commitment not yet present in the round. Returns the new ticket ID.
func (c *Controller) Purchase(commitment domain.Commitment, tier domain.Tier, account domain.AccountID, paid *uint256.Int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tick := c.ticks.CurrentTick()
	c.rollover()
	r := c.round

	if domain.PhaseAt(tick, r.StartTick, c.cfg.Period) != domain.PhaseSubmission {
		observability.OperationsRejected.WithLabelValues("purchase", "wrong_phase").Inc()
		return "", domain.ErrWrongPhase
	}
	price, ok := c.cfg.Prices[tier]
	if !ok || paid == nil || !paid.Eq(price) {
		observability.OperationsRejected.WithLabelValues("purchase", "invalid_price").Inc()
		return "", domain.ErrInvalidPrice
	}
	if _, exists := r.byCommit[commitment]; exists {
		observability.OperationsRejected.WithLabelValues("purchase", "duplicate_commitment").Inc()
		return "", domain.ErrDuplicateCommitment
	}

	t := &domain.Ticket{
		ID:         uuid.NewString(),
		Owner:      account,
		Tier:       tier,
		Commitment: commitment,
	}
	r.Tickets = append(r.Tickets, t)
	r.byCommit[commitment] = t
	r.Total.Add(r.Total, paid)

	if c.store != nil {
		if err := c.store.InsertTicket(r.Index, t); err != nil {
			log.Printf("[round] persist ticket %s: %v", t.ID, err)
		}
	}
	c.saveRound()
	observability.TicketsPurchased.WithLabelValues(string(tier)).Inc()
	observability.RewardPoolWei.Set(weiGauge(r.Total))

	log.Printf("[round] ticket %s purchased round=%d tier=%s owner=%s", t.ID, r.Index, tier, account.Hex())
	return t.ID, nil
}

// ─── Reveal ─────────────────────────────────────────────────────────────────

// Reveal discloses the number behind a commitment. Valid only during the
// reveal window, only by the ticket owner, only once, and only when the
// number actually binds to the commitment.
func (c *Controller) Reveal(commitment domain.Commitment, number domain.Number, account domain.AccountID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tick := c.ticks.CurrentTick()
	c.rollover()
	r := c.round

	if domain.PhaseAt(tick, r.StartTick, c.cfg.Period) != domain.PhaseReveal {
		observability.OperationsRejected.WithLabelValues("reveal", "wrong_phase").Inc()
		return domain.ErrWrongPhase
	}
	t, ok := r.byCommit[commitment]
	if !ok {
		observability.OperationsRejected.WithLabelValues("reveal", "unknown_commitment").Inc()
		return domain.ErrUnknownCommitment
	}
	if t.Owner != account {
		observability.OperationsRejected.WithLabelValues("reveal", "not_owner").Inc()
		return domain.ErrNotOwner
	}
	if t.Revealed {
		observability.OperationsRejected.WithLabelValues("reveal", "already_revealed").Inc()
		return domain.ErrAlreadyRevealed
	}
	if !domain.VerifyCommitment(number, account, commitment) {
		observability.OperationsRejected.WithLabelValues("reveal", "commitment_mismatch").Inc()
		return domain.ErrCommitmentMismatch
	}

	t.Number = number
	t.Revealed = true

	if c.store != nil {
		if err := c.store.MarkTicketRevealed(commitment, number); err != nil {
			log.Printf("[round] persist reveal for ticket %s: %v", t.ID, err)
		}
	}
	observability.RevealsAccepted.Inc()
	return nil
}

// ─── Payout ─────────────────────────────────────────────────────────────────

// TriggerPayout settles the round: derives the winner sequence from the
// revealed numbers, splits the pool, credits the balance ledger, and records
// the leftover. The successor round (starting at the payout tick, seeded with
// the leftover) is installed lazily by the next operation, so a repeated
// trigger on the settled round fails with ErrAlreadyPaidOut.
func (c *Controller) TriggerPayout() (*PayoutSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tick := c.ticks.CurrentTick()
	r := c.round

	if r.PaidOut {
		// The successor round may itself be due; only then is a new payout
		// legitimate rather than a repeat of the one that already ran.
		if domain.PhaseAt(tick, r.PayoutTick, c.cfg.Period) != domain.PhasePayoutReady {
			observability.OperationsRejected.WithLabelValues("payout", "already_paid_out").Inc()
			return nil, domain.ErrAlreadyPaidOut
		}
		c.rollover()
		r = c.round
	}

	if domain.PhaseAt(tick, r.StartTick, c.cfg.Period) != domain.PhasePayoutReady {
		observability.OperationsRejected.WithLabelValues("payout", "wrong_phase").Inc()
		return nil, domain.ErrWrongPhase
	}

	revealed := make([]domain.Number, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		if t.Revealed {
			revealed = append(revealed, t.Number)
		}
	}

	winners := domain.SelectWinners(revealed, c.cfg.Ranks)
	alloc := domain.AllocateRewards(winners, r.Tickets, r.Total)

	for acct, amt := range alloc.Rewards {
		c.ledger.Credit(acct, amt)
	}

	r.PaidOut = true
	r.PayoutTick = tick
	r.Leftover = alloc.Leftover
	c.lastWinners = winners
	c.settled = true

	if c.store != nil {
		if err := c.store.InsertPayout(r.Index, tick, r.Total, alloc.Allocated, alloc.Leftover, winners); err != nil {
			log.Printf("[round] persist payout for round %d: %v", r.Index, err)
		}
	}
	c.saveRound()
	observability.PayoutsExecuted.Inc()

	log.Printf("[round] round %d paid out: %d tickets, %d revealed, %d winners, leftover=%s wei",
		r.Index, len(r.Tickets), len(revealed), len(winners), alloc.Leftover.Dec())

	return &PayoutSummary{
		Round:     r.Index,
		Winners:   winners,
		Rewards:   alloc.Rewards,
		Total:     r.Total.Clone(),
		Allocated: alloc.Allocated,
		Leftover:  alloc.Leftover.Clone(),
	}, nil
}

// rollover replaces a settled round with its successor. The new round starts
// at the payout tick (the original contract starts the next round in the
// payout block) and its pool is seeded with the carried leftover.
func (c *Controller) rollover() {
	if !c.round.PaidOut {
		return
	}
	old := c.round
	c.round = newRound(old.Index+1, old.PayoutTick, old.Leftover)
	c.saveRound()
	observability.RoundIndex.Set(float64(c.round.Index))
	observability.RewardPoolWei.Set(weiGauge(c.round.Total))
	log.Printf("[round] round %d started at tick %d carrying %s wei", c.round.Index, c.round.StartTick, c.round.Carried.Dec())
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Info is a read-only snapshot of the current round.
type Info struct {
	Index     uint64
	StartTick uint64
	Period    uint64
	Ranks     int
	Tick      uint64
	Phase     domain.Phase
	Tickets   int
	Revealed  int
	Total     *uint256.Int
	Carried   *uint256.Int
}

// CurrentInfo returns a consistent snapshot of round parameters and phase.
func (c *Controller) CurrentInfo() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	tick := c.ticks.CurrentTick()
	c.rollover()
	r := c.round

	revealed := 0
	for _, t := range r.Tickets {
		if t.Revealed {
			revealed++
		}
	}
	return Info{
		Index:     r.Index,
		StartTick: r.StartTick,
		Period:    c.cfg.Period,
		Ranks:     c.cfg.Ranks,
		Tick:      tick,
		Phase:     domain.PhaseAt(tick, r.StartTick, c.cfg.Period),
		Tickets:   len(r.Tickets),
		Revealed:  revealed,
		Total:     r.Total.Clone(),
		Carried:   r.Carried.Clone(),
	}
}

// CurrentPhase computes the phase from a single tick snapshot.
func (c *Controller) CurrentPhase() domain.Phase {
	return c.CurrentInfo().Phase
}

// RemainingReward returns the current round's pooled reward.
func (c *Controller) RemainingReward() *uint256.Int {
	return c.CurrentInfo().Total
}

// WinnerNumbers returns the winner sequence of the last settled round.
// The second result is false until a payout has run.
func (c *Controller) WinnerNumbers() ([]domain.Number, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settled {
		return nil, false
	}
	out := make([]domain.Number, len(c.lastWinners))
	copy(out, c.lastWinners)
	return out, true
}

// saveRound writes the round snapshot through to the store. Amounts are
// cloned so the snapshot stays stable while the round keeps mutating.
func (c *Controller) saveRound() {
	if c.store == nil {
		return
	}
	r := c.round
	snap := Snapshot{
		Index:      r.Index,
		StartTick:  r.StartTick,
		Carried:    r.Carried.Clone(),
		Total:      r.Total.Clone(),
		PaidOut:    r.PaidOut,
		PayoutTick: r.PayoutTick,
		Leftover:   uint256.NewInt(0),
	}
	if r.Leftover != nil {
		snap.Leftover = r.Leftover.Clone()
	}
	if err := c.store.SaveRound(snap); err != nil {
		log.Printf("[round] persist round %d: %v", r.Index, err)
	}
}

// weiGauge downscales a wei amount for the pool gauge. Precision loss is
// acceptable for metrics only — never for ledger arithmetic.
func weiGauge(v *uint256.Int) float64 {
	return v.Float64()
}
