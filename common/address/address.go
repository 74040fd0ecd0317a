package address

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/decred/base58"
	"golang.org/x/crypto/ripemd160"
)

// normalVer is the version byte every address carries.
const normalVer byte = 0

var addrSeed = []byte("address seed bytes for rpsarena")

var execCache sync.Map

// Address is a decoded account address.
type Address struct {
	Version  byte
	Hash160  [20]byte
	checksum [4]byte
}

func checksum(input []byte) (c [4]byte) {
	h := sha256.Sum256(input)
	h2 := sha256.Sum256(h[:])
	copy(c[:], h2[:4])
	return
}

// String renders the base58check form. The result is cached on first use.
func (a *Address) String() string {
	buf := make([]byte, 0, 1+20+4)
	buf = append(buf, a.Version)
	buf = append(buf, a.Hash160[:]...)
	if a.checksum == [4]byte{} {
		a.checksum = checksum(buf)
	}
	buf = append(buf, a.checksum[:]...)
	return base58.Encode(buf)
}

// PubKeyToAddress hashes a public key into an address the way the
// ledger identifies signers: sha256 then ripemd160.
func PubKeyToAddress(pub []byte) *Address {
	sha := sha256.Sum256(pub)
	rip := ripemd160.New()
	rip.Write(sha[:])
	var a Address
	a.Version = normalVer
	copy(a.Hash160[:], rip.Sum(nil))
	return &a
}

// ExecAddress derives the deterministic address of a named namespace.
// Contract escrows, fee pools and game identities are all derived this
// way, so the same name always lands on the same address.
func ExecAddress(name string) string {
	if v, ok := execCache.Load(name); ok {
		return v.(string)
	}
	addr := GetExecAddress(name).String()
	execCache.Store(name, addr)
	return addr
}

// GetExecAddress derives without consulting the cache.
func GetExecAddress(name string) *Address {
	buf := append([]byte{}, addrSeed...)
	buf = append(buf, []byte(name)...)
	pub := sha256.Sum256(buf)
	return PubKeyToAddress(pub[:])
}

// CheckAddress verifies the base58check structure of addr.
func CheckAddress(addr string) error {
	raw := base58.Decode(addr)
	if len(raw) != 25 {
		return fmt.Errorf("address %q: wrong length %d", addr, len(raw))
	}
	if raw[0] != normalVer {
		return fmt.Errorf("address %q: unknown version %d", addr, raw[0])
	}
	want := checksum(raw[:21])
	if !bytes.Equal(want[:], raw[21:]) {
		return fmt.Errorf("address %q: checksum mismatch", addr)
	}
	return nil
}
