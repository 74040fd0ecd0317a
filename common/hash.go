package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Sha256 returns the sha256 digest of data.
func Sha256(b []byte) []byte {
	data := sha256.Sum256(b)
	return data[:]
}

// Keccak256 hashes the concatenation of its arguments with the legacy
// keccak variant, the digest the move commitments are defined over.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// ToHex returns the hex representation of b prefixed with 0x.
func ToHex(b []byte) string {
	hexstr := hex.EncodeToString(b)
	if len(hexstr) == 0 {
		return ""
	}
	return "0x" + hexstr
}

// FromHex decodes a hex string with or without the 0x prefix.
func FromHex(s string) ([]byte, error) {
	if len(s) > 1 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
		}
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// CopyBytes returns an independent copy of b.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
