package domain

import (
	"encoding/binary"
	"sort"
)

// ─── Winner Derivation ──────────────────────────────────────────────────────
// The winner sequence is derived purely from the numbers revealed in the
// round; no external entropy source is trusted. Any observer holding the same
// revealed set can replay the exact sequence.
//
// Derivation: the revealed set is canonicalized by ascending sort, a seed is
// taken as keccak256 of the concatenated 8-byte big-endian numbers, and each
// rank folds the seed once more — winner i is the number indexed by the
// seed's low 64 bits modulo the set size, then seed = keccak256(seed).
// The same number may win several ranks, and several tickets may hold it.

// SelectWinners returns the ordered winner sequence, one number per rank,
// rank 1 first. The rank count is a fixed round parameter independent of how
// many tickets were revealed. An empty revealed set yields no winners.
func SelectWinners(revealed []Number, ranks int) []Number {
	if ranks <= 0 || len(revealed) == 0 {
		return nil
	}

	nums := make([]Number, len(revealed))
	copy(nums, revealed)
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	enc := make([]byte, 0, 8*len(nums))
	for _, n := range nums {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(n))
		enc = append(enc, b[:]...)
	}
	seed := Keccak256(enc)

	winners := make([]Number, ranks)
	for i := range winners {
		idx := binary.BigEndian.Uint64(seed[24:32]) % uint64(len(nums))
		winners[i] = nums[idx]
		seed = Keccak256(seed)
	}
	return winners
}
