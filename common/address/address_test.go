package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubKeyToAddress(t *testing.T) {
	pub := []byte("a test public key")
	addr := PubKeyToAddress(pub).String()
	require.NotEmpty(t, addr)
	assert.NoError(t, CheckAddress(addr))
	// deterministic
	assert.Equal(t, addr, PubKeyToAddress(pub).String())
	assert.NotEqual(t, addr, PubKeyToAddress([]byte("another key")).String())
}

func TestExecAddress(t *testing.T) {
	a := ExecAddress("rps:fees")
	assert.Equal(t, a, ExecAddress("rps:fees"))
	assert.NotEqual(t, a, ExecAddress("rps:storage"))
	assert.NoError(t, CheckAddress(a))
}

func TestCheckAddressRejectsGarbage(t *testing.T) {
	assert.Error(t, CheckAddress(""))
	assert.Error(t, CheckAddress("not-an-address"))

	addr := ExecAddress("rps:fees")
	// corrupt one character
	corrupted := []byte(addr)
	if corrupted[3] == 'x' {
		corrupted[3] = 'y'
	} else {
		corrupted[3] = 'x'
	}
	assert.Error(t, CheckAddress(string(corrupted)))
}
