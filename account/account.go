// Package account implements the asset ledger the game escrow moves
// money through. Balances are unsigned and every mutation goes through
// checked arithmetic, so a transfer can fail but never wrap.
package account

import (
	"fmt"
	"strings"

	log "github.com/inconshreveable/log15"

	dbm "github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/types"
)

var alog = log.New("module", "account")

// DB manages the balances of one asset symbol on one key-value store.
type DB struct {
	db               dbm.KV
	accountKeyPrefix string
	execer           string
	symbol           string
}

// NewAccountDB binds an asset ledger to a state store. The symbol goes
// into the key prefix, so it must not contain the separator.
func NewAccountDB(execer string, symbol string, db dbm.KV) (*DB, error) {
	if symbol == "" || strings.Contains(symbol, "-") {
		return nil, types.ErrInvalidParam
	}
	return &DB{
		db:               db,
		accountKeyPrefix: fmt.Sprintf("mavl-%s-%s-", execer, symbol),
		execer:           execer,
		symbol:           symbol,
	}, nil
}

// SetDB swaps the backing store, used when replaying against an overlay.
func (acc *DB) SetDB(db dbm.KV) {
	acc.db = db
}

func (acc *DB) accountKey(addr string) []byte {
	return []byte(acc.accountKeyPrefix + addr)
}

// Symbol returns the asset symbol of this ledger.
func (acc *DB) Symbol() string {
	return acc.symbol
}

// LoadAccount reads an account, returning a zero balance for addresses
// never seen before.
func (acc *DB) LoadAccount(addr string) *types.Account {
	value, err := acc.db.Get(acc.accountKey(addr))
	if err != nil {
		return &types.Account{Addr: addr}
	}
	var a types.Account
	if err := types.Decode(value, &a); err != nil {
		alog.Error("load account decode", "addr", addr, "err", err)
		return &types.Account{Addr: addr}
	}
	return &a
}

// SaveAccount writes an account back to the store.
func (acc *DB) SaveAccount(a *types.Account) {
	set := acc.GetKVSet(a)
	for _, kv := range set {
		acc.db.Set(kv.Key, kv.Value)
	}
}

// GetKVSet renders the stored form of an account.
func (acc *DB) GetKVSet(a *types.Account) []*types.KeyValue {
	return []*types.KeyValue{{
		Key:   acc.accountKey(a.Addr),
		Value: types.Encode(a),
	}}
}

// CheckTransfer verifies a transfer would succeed without applying it.
func (acc *DB) CheckTransfer(from, to string, amount uint64) error {
	if from == to {
		return types.ErrSendSameToRecv
	}
	fromAcc := acc.LoadAccount(from)
	if fromAcc.Balance < amount {
		return types.ErrNoBalance
	}
	if _, err := types.SafeAdd(acc.LoadAccount(to).Balance, amount); err != nil {
		return err
	}
	return nil
}

// Transfer moves amount between two addresses.
func (acc *DB) Transfer(from, to string, amount uint64) (*types.Receipt, error) {
	if from == to {
		return nil, types.ErrSendSameToRecv
	}
	fromAcc := acc.LoadAccount(from)
	toAcc := acc.LoadAccount(to)

	newFrom, err := types.SafeSub(fromAcc.Balance, amount)
	if err != nil {
		return nil, types.ErrNoBalance
	}
	newTo, err := types.SafeAdd(toAcc.Balance, amount)
	if err != nil {
		return nil, err
	}

	prevFrom := *fromAcc
	prevTo := *toAcc
	fromAcc.Balance = newFrom
	toAcc.Balance = newTo
	acc.SaveAccount(fromAcc)
	acc.SaveAccount(toAcc)

	receipt := &types.Receipt{
		Ty: types.ExecOk,
		KV: append(acc.GetKVSet(fromAcc), acc.GetKVSet(toAcc)...),
		Logs: []*types.ReceiptLog{
			transferLog(types.TyLogTransfer, &prevFrom, fromAcc),
			transferLog(types.TyLogTransfer, &prevTo, toAcc),
		},
	}
	return receipt, nil
}

// Deposit mints amount onto addr. Only tooling and tests call this,
// the executor itself never creates money.
func (acc *DB) Deposit(addr string, amount uint64) (*types.Receipt, error) {
	a := acc.LoadAccount(addr)
	prev := *a
	balance, err := types.SafeAdd(a.Balance, amount)
	if err != nil {
		return nil, err
	}
	a.Balance = balance
	acc.SaveAccount(a)
	return &types.Receipt{
		Ty:   types.ExecOk,
		KV:   acc.GetKVSet(a),
		Logs: []*types.ReceiptLog{transferLog(types.TyLogDeposit, &prev, a)},
	}, nil
}

func transferLog(ty int32, prev, current *types.Account) *types.ReceiptLog {
	r := types.ReceiptAccountTransfer{Prev: prev, Current: current}
	return &types.ReceiptLog{Ty: ty, Log: types.Encode(&r)}
}
