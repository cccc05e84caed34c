// Package ledger implements the pull-payment balance store. Rewards are
// credited here at payout and leave the system only through an explicit
// withdrawal, which atomically reads and zeroes the pending balance. The
// ledger is long-lived and round-independent.
package ledger

import (
	"log"
	"sync"

	"github.com/holiman/uint256"

	"github.com/lotto-network/lotto/internal/domain"
)

// Store persists balance changes. The ledger is authoritative in memory; the
// store is a write-through copy used for recovery after a restart.
type Store interface {
	SaveBalance(account domain.AccountID, pending *uint256.Int) error
}

// Ledger tracks the pending (claimable) amount per account.
type Ledger struct {
	mu      sync.Mutex
	pending map[domain.AccountID]*uint256.Int
	store   Store // may be nil
}

// New creates an empty ledger. store may be nil for a purely in-memory ledger.
func New(store Store) *Ledger {
	return &Ledger{
		pending: make(map[domain.AccountID]*uint256.Int),
		store:   store,
	}
}

// Credit adds amount to the account's pending balance. It never fails.
func (l *Ledger) Credit(account domain.AccountID, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.pending[account]
	if !ok {
		cur = uint256.NewInt(0)
		l.pending[account] = cur
	}
	cur.Add(cur, amount)
	l.persist(account, cur)
}

// Withdraw atomically reads and zeroes the account's pending balance and
// returns the amount owed. A zero balance returns zero and is not an error.
func (l *Ledger) Withdraw(account domain.AccountID) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.pending[account]
	if !ok || cur.IsZero() {
		return uint256.NewInt(0)
	}

	out := cur.Clone()
	delete(l.pending, account)
	l.persist(account, uint256.NewInt(0))
	return out
}

// Pending returns the account's current claimable amount.
func (l *Ledger) Pending(account domain.AccountID) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.pending[account]; ok {
		return cur.Clone()
	}
	return uint256.NewInt(0)
}

// TotalPending returns the sum of all claimable amounts. Used by the value
// conservation checks around payout.
func (l *Ledger) TotalPending() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := uint256.NewInt(0)
	for _, cur := range l.pending {
		sum.Add(sum, cur)
	}
	return sum
}

// Restore replaces the in-memory balances with a snapshot loaded from the
// store. Called once at boot, before the ledger is shared.
func (l *Ledger) Restore(balances map[domain.AccountID]*uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = make(map[domain.AccountID]*uint256.Int, len(balances))
	for acct, amt := range balances {
		if amt != nil && !amt.IsZero() {
			l.pending[acct] = amt.Clone()
		}
	}
}

// persist writes the balance through to the store. Persistence failures are
// logged, not returned: the in-memory ledger stays authoritative.
func (l *Ledger) persist(account domain.AccountID, pending *uint256.Int) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveBalance(account, pending); err != nil {
		log.Printf("[ledger] persist balance for %s: %v", account.Hex(), err)
	}
}
