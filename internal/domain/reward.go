package domain

import "github.com/holiman/uint256"

// ─── Reward Split ───────────────────────────────────────────────────────────
// Strict geometric decay over ranks: rank 1 earns totalReward/2, rank 2 a
// quarter, and so on. Half and Quarter tiers scale their reward down by 2 and
// 4. All arithmetic is exact 256-bit integer math in wei — the split must
// conserve value bit-exactly: total == sum(allocated) + leftover.

// Allocation is the outcome of a reward split.
type Allocation struct {
	// Rewards maps each winning account to its summed reward. An account
	// holding tickets matched at several ranks accumulates all of them.
	Rewards map[AccountID]*uint256.Int

	// Allocated is the total paid out across all ranks.
	Allocated *uint256.Int

	// Leftover is the unallocated remainder, carried into the next round.
	Leftover *uint256.Int
}

// AllocateRewards converts the winner sequence and ticket set into per-account
// rewards. For each rank the first ticket (in purchase order) whose revealed
// number equals the rank's winning number is paid; an unmatched rank pays
// nothing and its share stays in the leftover.
func AllocateRewards(winners []Number, tickets []*Ticket, totalReward *uint256.Int) Allocation {
	rewards := make(map[AccountID]*uint256.Int)
	allocated := uint256.NewInt(0)

	for i, w := range winners {
		rank := uint(i + 1)

		var match *Ticket
		for _, t := range tickets {
			if t.Revealed && t.Number == w {
				match = t
				break
			}
		}
		if match == nil {
			continue
		}

		r := new(uint256.Int).Rsh(totalReward, rank)
		switch match.Tier {
		case TierHalf:
			r.Rsh(r, 1)
		case TierQuarter:
			r.Rsh(r, 2)
		}

		if cur, ok := rewards[match.Owner]; ok {
			cur.Add(cur, r)
		} else {
			rewards[match.Owner] = r
		}
		allocated.Add(allocated, r)
	}

	if allocated.Gt(totalReward) {
		// The geometric series cannot reach the full pool; this is a bug,
		// not a recoverable condition.
		panic("domain: allocated rewards exceed total reward")
	}

	return Allocation{
		Rewards:   rewards,
		Allocated: allocated,
		Leftover:  new(uint256.Int).Sub(totalReward, allocated),
	}
}
