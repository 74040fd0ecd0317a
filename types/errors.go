package types

import "errors"

var (
	ErrInvalidWager       = errors.New("the wager amount must be greater than zero")
	ErrBetTooLarge        = errors.New("the wager amount exceeds the overflow-safety ceiling")
	ErrMathOverflow       = errors.New("checked arithmetic overflowed")
	ErrGameExists         = errors.New("a game with this seed already exists")
	ErrGameNotFound       = errors.New("game not found")
	ErrGameJoinStatus     = errors.New("can't join the game, the game has started or finished")
	ErrGameSelfJoin       = errors.New("can't join the game you created")
	ErrGameRevealStatus   = errors.New("can't reveal, the game is not waiting for a reveal")
	ErrGameSettleStatus   = errors.New("can't settle the game, no result is pending")
	ErrGameExpireStatus   = errors.New("can't expire the game, it is not in a waiting phase")
	ErrRevealAddr         = errors.New("only the committed player can reveal")
	ErrExpireAddr         = errors.New("you don't have permission to expire this game")
	ErrEntryDenied        = errors.New("entry proof verification failed")
	ErrCommitmentMismatch = errors.New("the revealed move does not match the commitment")
	ErrCommitmentSize     = errors.New("the commitment must be exactly 32 bytes")
	ErrExpired            = errors.New("the window for this operation has expired")
	ErrNotYetExpired      = errors.New("the waiting window has not elapsed yet")
	ErrNotSettled         = errors.New("game escrow is not empty or the game is not terminal")
	ErrPlayerInfoExists   = errors.New("player info already exists for this owner and asset")
	ErrPlayerInfoNotFound = errors.New("player info not found, create it before wagering")
	ErrNoBalance          = errors.New("insufficient balance")
	ErrSendSameToRecv     = errors.New("can't transfer to the same address")
	ErrActionNotSupport   = errors.New("action not supported")
	ErrInvalidParam       = errors.New("invalid parameter")
	ErrNotFound           = errors.New("not found")
)
