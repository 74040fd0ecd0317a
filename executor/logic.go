package executor

import (
	"crypto/subtle"
	"encoding/binary"

	"github.com/rpsarena/rpsarena/common"
	"github.com/rpsarena/rpsarena/types"
)

// Commitment binds a move to its committer: the digest covers the
// player address, the salt as 8 little-endian bytes, and the move
// byte. Binding the address keeps a commitment from being replayed by
// another player.
func Commitment(addr string, salt uint64, choice types.RPS) [32]byte {
	var saltBytes [8]byte
	binary.LittleEndian.PutUint64(saltBytes[:], salt)
	return common.Keccak256([]byte(addr), saltBytes[:], []byte{byte(choice)})
}

// VerifyCommitment checks a reveal against the stored digest. The
// comparison is constant time, so the check leaks nothing about how
// close a guess came.
func VerifyCommitment(commitment [32]byte, addr string, salt uint64, choice types.RPS) bool {
	want := Commitment(addr, salt, choice)
	return subtle.ConstantTimeCompare(commitment[:], want[:]) == 1
}

// EntryProof derives the gate digest for a restricted game: the game
// identity concatenated with the shared secret as 8 LE bytes.
func EntryProof(gameID string, secret uint64) [32]byte {
	var secretBytes [8]byte
	binary.LittleEndian.PutUint64(secretBytes[:], secret)
	return common.Keccak256([]byte(gameID), secretBytes[:])
}

// VerifyEntry checks a join secret against the game's stored proof.
func VerifyEntry(proof [32]byte, gameID string, secret uint64) bool {
	got := EntryProof(gameID, secret)
	return subtle.ConstantTimeCompare(proof[:], got[:]) == 1
}

// Resolve maps the two revealed moves to an outcome.
func Resolve(c1, c2 types.RPS) types.Winner {
	if c1 == c2 {
		return types.WinnerTie
	}
	switch {
	case c1 == types.Rock && c2 == types.Scissors,
		c1 == types.Paper && c2 == types.Rock,
		c1 == types.Scissors && c2 == types.Paper:
		return types.WinnerP1
	}
	return types.WinnerP2
}
