package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbm "github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/types"
)

const (
	addr1 = "1Ka7EPFRqs3v9yEvzzyZSnArLzr7dgePNW"
	addr2 = "1EbDHAXpoiewjPLX9uqoz38HsKqMXayZrF"
)

func genAccDB(t *testing.T) *DB {
	acc, err := NewAccountDB("rps", "coins", dbm.NewGoMemDB())
	require.NoError(t, err)
	return acc
}

func TestNewAccountDBRejectsBadSymbol(t *testing.T) {
	_, err := NewAccountDB("rps", "", dbm.NewGoMemDB())
	assert.Equal(t, types.ErrInvalidParam, err)
	_, err = NewAccountDB("rps", "co-ins", dbm.NewGoMemDB())
	assert.Equal(t, types.ErrInvalidParam, err)
}

func TestLoadAccountUnknownIsZero(t *testing.T) {
	acc := genAccDB(t)
	a := acc.LoadAccount(addr1)
	assert.Equal(t, addr1, a.Addr)
	assert.Equal(t, uint64(0), a.Balance)
}

func TestDepositAndTransfer(t *testing.T) {
	acc := genAccDB(t)
	receipt, err := acc.Deposit(addr1, 1000)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, types.TyLogDeposit, receipt.Logs[0].Ty)

	receipt, err = acc.Transfer(addr1, addr2, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), acc.LoadAccount(addr1).Balance)
	assert.Equal(t, uint64(400), acc.LoadAccount(addr2).Balance)
	require.Len(t, receipt.Logs, 2)

	var tr types.ReceiptAccountTransfer
	require.NoError(t, types.Decode(receipt.Logs[0].Log, &tr))
	assert.Equal(t, uint64(1000), tr.Prev.Balance)
	assert.Equal(t, uint64(600), tr.Current.Balance)
}

func TestTransferGuards(t *testing.T) {
	acc := genAccDB(t)
	_, err := acc.Deposit(addr1, 100)
	require.NoError(t, err)

	_, err = acc.Transfer(addr1, addr1, 10)
	assert.Equal(t, types.ErrSendSameToRecv, err)

	_, err = acc.Transfer(addr1, addr2, 101)
	assert.Equal(t, types.ErrNoBalance, err)
	assert.Equal(t, uint64(100), acc.LoadAccount(addr1).Balance)

	assert.Equal(t, types.ErrNoBalance, acc.CheckTransfer(addr1, addr2, 101))
	assert.NoError(t, acc.CheckTransfer(addr1, addr2, 100))
}

func TestDepositOverflow(t *testing.T) {
	acc := genAccDB(t)
	_, err := acc.Deposit(addr1, ^uint64(0))
	require.NoError(t, err)
	_, err = acc.Deposit(addr1, 1)
	assert.Equal(t, types.ErrMathOverflow, err)
}
