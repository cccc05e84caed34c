package round

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/lotto-network/lotto/internal/app/ledger"
	"github.com/lotto-network/lotto/internal/domain"
	"github.com/lotto-network/lotto/internal/infra/chain"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testConfig() Config {
	return Config{
		Period: 20,
		Ranks:  4,
		Prices: domain.DefaultTierPrices(),
	}
}

func newTestController(startTick uint64) (*Controller, *chain.Manual, *ledger.Ledger) {
	clock := chain.NewManual(startTick)
	led := ledger.New(nil)
	return New(testConfig(), clock, led, nil), clock, led
}

func price(tier domain.Tier) *uint256.Int {
	return domain.DefaultTierPrices()[tier]
}

func buy(t *testing.T, c *Controller, owner domain.AccountID, tier domain.Tier, n domain.Number) domain.Commitment {
	t.Helper()
	commit := domain.BindCommitment(n, owner)
	if _, err := c.Purchase(commit, tier, owner, price(tier)); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	return commit
}

// ─── Purchase ───────────────────────────────────────────────────────────────

func TestPurchase_Succeeds(t *testing.T) {
	c, _, _ := newTestController(0)

	commit := domain.BindCommitment(42, alice)
	id, err := c.Purchase(commit, domain.TierFull, alice, price(domain.TierFull))
	if err != nil {
		t.Fatalf("Purchase() error: %v", err)
	}
	if id == "" {
		t.Error("expected a ticket ID")
	}
	if got := c.RemainingReward(); !got.Eq(price(domain.TierFull)) {
		t.Errorf("pool = %s, want the full-tier price", got)
	}
}

func TestPurchase_WrongAmount(t *testing.T) {
	c, _, _ := newTestController(0)

	tests := []struct {
		name string
		tier domain.Tier
		paid *uint256.Int
	}{
		{"too little", domain.TierFull, uint256.NewInt(1)},
		{"half price for full tier", domain.TierFull, price(domain.TierHalf)},
		{"nil amount", domain.TierFull, nil},
		{"unknown tier", domain.Tier("GOLD"), price(domain.TierFull)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Purchase(domain.BindCommitment(1, alice), tt.tier, alice, tt.paid)
			if !errors.Is(err, domain.ErrInvalidPrice) {
				t.Errorf("error = %v, want ErrInvalidPrice", err)
			}
		})
	}

	// A failed purchase must not touch the pool.
	if !c.RemainingReward().IsZero() {
		t.Error("failed purchases must not alter the reward pool")
	}
}

func TestPurchase_DuplicateCommitment(t *testing.T) {
	c, _, _ := newTestController(0)
	commit := buy(t, c, alice, domain.TierFull, 42)

	_, err := c.Purchase(commit, domain.TierFull, alice, price(domain.TierFull))
	if !errors.Is(err, domain.ErrDuplicateCommitment) {
		t.Errorf("error = %v, want ErrDuplicateCommitment", err)
	}
	if !c.RemainingReward().Eq(price(domain.TierFull)) {
		t.Error("rejected duplicate must not alter the reward pool")
	}
}

func TestPurchase_OutsideSubmission(t *testing.T) {
	c, clock, _ := newTestController(0)

	for _, tick := range []uint64{10, 15, 19, 20, 100} {
		clock.Set(tick)
		_, err := c.Purchase(domain.BindCommitment(domain.Number(tick), alice), domain.TierFull, alice, price(domain.TierFull))
		if !errors.Is(err, domain.ErrWrongPhase) {
			t.Errorf("tick %d: error = %v, want ErrWrongPhase", tick, err)
		}
	}
}

// ─── Reveal ─────────────────────────────────────────────────────────────────

func TestReveal_Lifecycle(t *testing.T) {
	c, clock, _ := newTestController(0)
	commit := buy(t, c, alice, domain.TierFull, 42)

	// Too early.
	if err := c.Reveal(commit, 42, alice); !errors.Is(err, domain.ErrWrongPhase) {
		t.Errorf("reveal during submission = %v, want ErrWrongPhase", err)
	}

	clock.Set(10)

	// Unknown commitment.
	if err := c.Reveal(domain.BindCommitment(7, bob), 7, bob); !errors.Is(err, domain.ErrUnknownCommitment) {
		t.Errorf("unknown commitment = %v, want ErrUnknownCommitment", err)
	}
	// Wrong caller.
	if err := c.Reveal(commit, 42, bob); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("wrong caller = %v, want ErrNotOwner", err)
	}
	// Wrong number.
	if err := c.Reveal(commit, 43, alice); !errors.Is(err, domain.ErrCommitmentMismatch) {
		t.Errorf("altered number = %v, want ErrCommitmentMismatch", err)
	}

	// Valid reveal.
	if err := c.Reveal(commit, 42, alice); err != nil {
		t.Fatalf("valid reveal failed: %v", err)
	}
	// Re-reveal.
	if err := c.Reveal(commit, 42, alice); !errors.Is(err, domain.ErrAlreadyRevealed) {
		t.Errorf("re-reveal = %v, want ErrAlreadyRevealed", err)
	}
}

func TestReveal_FailureLeavesTicketUnrevealed(t *testing.T) {
	c, clock, _ := newTestController(0)
	commit := buy(t, c, alice, domain.TierFull, 42)

	clock.Set(10)
	if err := c.Reveal(commit, 43, alice); !errors.Is(err, domain.ErrCommitmentMismatch) {
		t.Fatalf("error = %v, want ErrCommitmentMismatch", err)
	}

	// The failed reveal must not have marked the ticket: a correct reveal
	// still succeeds.
	if err := c.Reveal(commit, 42, alice); err != nil {
		t.Errorf("reveal after failed attempt = %v, want success", err)
	}
}

// ─── Payout ─────────────────────────────────────────────────────────────────

func TestTriggerPayout_TooEarly(t *testing.T) {
	c, clock, _ := newTestController(0)

	for _, tick := range []uint64{0, 5, 10, 19} {
		clock.Set(tick)
		if _, err := c.TriggerPayout(); !errors.Is(err, domain.ErrWrongPhase) {
			t.Errorf("tick %d: error = %v, want ErrWrongPhase", tick, err)
		}
	}
}

func TestTriggerPayout_ConservesValue(t *testing.T) {
	c, clock, led := newTestController(0)

	cAlice := buy(t, c, alice, domain.TierFull, 42)
	cBob := buy(t, c, bob, domain.TierHalf, 91)
	total := c.RemainingReward()

	clock.Set(10)
	if err := c.Reveal(cAlice, 42, alice); err != nil {
		t.Fatal(err)
	}
	if err := c.Reveal(cBob, 91, bob); err != nil {
		t.Fatal(err)
	}

	clock.Set(20)
	sum, err := c.TriggerPayout()
	if err != nil {
		t.Fatalf("TriggerPayout() error: %v", err)
	}

	// totalReward == credited + leftover, bit-exactly.
	check := led.TotalPending()
	check.Add(check, sum.Leftover)
	if !check.Eq(total) {
		t.Errorf("credited + leftover = %s, want %s", check, total)
	}

	// The leftover seeds the next round.
	if got := c.RemainingReward(); !got.Eq(sum.Leftover) {
		t.Errorf("next round pool = %s, want carried leftover %s", got, sum.Leftover)
	}
}

func TestTriggerPayout_Idempotent(t *testing.T) {
	c, clock, _ := newTestController(0)
	commit := buy(t, c, alice, domain.TierFull, 42)

	clock.Set(10)
	if err := c.Reveal(commit, 42, alice); err != nil {
		t.Fatal(err)
	}

	clock.Set(20)
	if _, err := c.TriggerPayout(); err != nil {
		t.Fatalf("first payout failed: %v", err)
	}
	if _, err := c.TriggerPayout(); !errors.Is(err, domain.ErrAlreadyPaidOut) {
		t.Errorf("second payout = %v, want ErrAlreadyPaidOut", err)
	}

	// A full period later the successor round is genuinely due.
	clock.Set(40)
	if _, err := c.TriggerPayout(); err != nil {
		t.Errorf("payout of the successor round = %v, want success", err)
	}
}

func TestTriggerPayout_WinnersQuery(t *testing.T) {
	c, clock, _ := newTestController(0)

	if _, ok := c.WinnerNumbers(); ok {
		t.Error("winner numbers must not be available before any payout")
	}

	commit := buy(t, c, alice, domain.TierFull, 42)
	clock.Set(10)
	if err := c.Reveal(commit, 42, alice); err != nil {
		t.Fatal(err)
	}
	clock.Set(20)
	sum, err := c.TriggerPayout()
	if err != nil {
		t.Fatal(err)
	}

	winners, ok := c.WinnerNumbers()
	if !ok {
		t.Fatal("winner numbers should be available after payout")
	}
	if len(winners) != len(sum.Winners) {
		t.Fatalf("query returned %d winners, summary had %d", len(winners), len(sum.Winners))
	}
	for i := range winners {
		if winners[i] != sum.Winners[i] {
			t.Errorf("rank %d: query %d != summary %d", i+1, winners[i], sum.Winners[i])
		}
	}
	// Single revealed number wins every rank.
	for i, w := range winners {
		if w != 42 {
			t.Errorf("rank %d winner = %d, want 42", i+1, w)
		}
	}
}

func TestTriggerPayout_NoReveals(t *testing.T) {
	c, clock, led := newTestController(0)
	buy(t, c, alice, domain.TierFull, 42) // never revealed

	clock.Set(20)
	sum, err := c.TriggerPayout()
	if err != nil {
		t.Fatalf("payout with no reveals failed: %v", err)
	}
	if len(sum.Winners) != 0 {
		t.Errorf("expected no winners, got %v", sum.Winners)
	}
	if !sum.Leftover.Eq(sum.Total) {
		t.Error("entire pool should carry forward when nothing was revealed")
	}
	if !led.TotalPending().IsZero() {
		t.Error("no reward should have been credited")
	}
}

// ─── Rollover ───────────────────────────────────────────────────────────────

func TestRollover_NewRoundAtPayoutTick(t *testing.T) {
	c, clock, _ := newTestController(0)
	commit := buy(t, c, alice, domain.TierFull, 42)

	clock.Set(10)
	if err := c.Reveal(commit, 42, alice); err != nil {
		t.Fatal(err)
	}
	clock.Set(23)
	if _, err := c.TriggerPayout(); err != nil {
		t.Fatal(err)
	}

	// A purchase at the payout tick lands in the new round's submission
	// window (the original contract starts the next round in the payout block).
	if _, err := c.Purchase(domain.BindCommitment(9, bob), domain.TierQuarter, bob, price(domain.TierQuarter)); err != nil {
		t.Errorf("purchase right after payout = %v, want success", err)
	}

	info := c.CurrentInfo()
	if info.Index != 1 {
		t.Errorf("round index = %d, want 1", info.Index)
	}
	if info.StartTick != 23 {
		t.Errorf("new round start tick = %d, want payout tick 23", info.StartTick)
	}
	wantPool := new(uint256.Int).Add(info.Carried, price(domain.TierQuarter))
	if !info.Total.Eq(wantPool) {
		t.Errorf("new pool = %s, want carried + quarter price = %s", info.Total, wantPool)
	}
}

// ─── Persistence ────────────────────────────────────────────────────────────

type snapshotStore struct {
	snapshots []Snapshot
	tickets   map[uint64][]*domain.Ticket
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{tickets: make(map[uint64][]*domain.Ticket)}
}

func (s *snapshotStore) InsertTicket(roundIndex uint64, t *domain.Ticket) error {
	cp := *t
	s.tickets[roundIndex] = append(s.tickets[roundIndex], &cp)
	return nil
}

func (s *snapshotStore) MarkTicketRevealed(commitment domain.Commitment, number domain.Number) error {
	for _, ts := range s.tickets {
		for _, t := range ts {
			if t.Commitment == commitment {
				t.Number = number
				t.Revealed = true
			}
		}
	}
	return nil
}

func (s *snapshotStore) SaveRound(snap Snapshot) error {
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *snapshotStore) InsertPayout(index, payoutTick uint64, total, allocated, leftover *uint256.Int, winners []domain.Number) error {
	return nil
}

func (s *snapshotStore) last() Snapshot {
	return s.snapshots[len(s.snapshots)-1]
}

func TestNew_DoesNotOverwriteStoredSnapshot(t *testing.T) {
	store := newSnapshotStore()
	New(testConfig(), chain.NewManual(7), ledger.New(nil), store)

	// The store may hold the snapshot of a round awaiting restore; a fresh
	// controller must not write over it before the restore has happened.
	if len(store.snapshots) != 0 {
		t.Errorf("fresh controller wrote %d snapshots before any operation", len(store.snapshots))
	}
}

func TestRestoreRound_SettledStateSurvivesRestart(t *testing.T) {
	store := newSnapshotStore()
	clock := chain.NewManual(0)
	c := New(testConfig(), clock, ledger.New(nil), store)

	commit := buy(t, c, alice, domain.TierFull, 42)
	clock.Set(10)
	if err := c.Reveal(commit, 42, alice); err != nil {
		t.Fatal(err)
	}
	clock.Set(20)
	if _, err := c.TriggerPayout(); err != nil {
		t.Fatal(err)
	}

	snap := store.last()
	if !snap.PaidOut || snap.PayoutTick != 20 {
		t.Fatalf("snapshot after payout = %+v, want settled at tick 20", snap)
	}

	// Boot a second controller from the persisted state, as the daemon does.
	led2 := ledger.New(nil)
	c2 := New(testConfig(), clock, led2, nil)
	c2.RestoreRound(snap, store.tickets[snap.Index])

	if _, err := c2.TriggerPayout(); !errors.Is(err, domain.ErrAlreadyPaidOut) {
		t.Errorf("payout after restore = %v, want ErrAlreadyPaidOut", err)
	}
	if !led2.TotalPending().IsZero() {
		t.Error("restored settled round must not credit rewards a second time")
	}

	// The successor round still settles once its own period has elapsed.
	clock.Set(40)
	if _, err := c2.TriggerPayout(); err != nil {
		t.Errorf("successor payout after restore = %v, want success", err)
	}
}

func TestCurrentInfo_PhaseProgression(t *testing.T) {
	c, clock, _ := newTestController(100)

	tests := []struct {
		tick uint64
		want domain.Phase
	}{
		{100, domain.PhaseSubmission},
		{109, domain.PhaseSubmission},
		{110, domain.PhaseReveal},
		{119, domain.PhaseReveal},
		{120, domain.PhasePayoutReady},
	}
	for _, tt := range tests {
		clock.Set(tt.tick)
		if got := c.CurrentPhase(); got != tt.want {
			t.Errorf("tick %d: phase = %v, want %v", tt.tick, got, tt.want)
		}
	}
}
