package domain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ─── Commitment Binding ─────────────────────────────────────────────────────
// A commitment is keccak256(number || account) over a canonical encoding:
// 8-byte big-endian number followed by the 20-byte address. Binding the
// account into the hash is the anti-theft property: replaying someone else's
// published commitment under a different account yields a different hash, so
// the reveal can never be claimed by anyone but the committer.

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// BindCommitment computes the commitment hash for a number owned by account.
func BindCommitment(number Number, account AccountID) Commitment {
	var buf [8 + common.AddressLength]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(number))
	copy(buf[8:], account.Bytes())
	return common.BytesToHash(Keccak256(buf[:]))
}

// VerifyCommitment reports whether commitment binds number to account.
// A mismatch is not an error here; the caller treats it as a rejected reveal.
func VerifyCommitment(number Number, account AccountID, commitment Commitment) bool {
	return BindCommitment(number, account) == commitment
}
