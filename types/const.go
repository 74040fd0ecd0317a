package types

import "math"

const (
	// RPSX executor name, used as key namespace and address salt
	RPSX = "rps"
)

// RPS is a player's move. The numeric value is also the byte bound
// into the move commitment, so it must never be renumbered.
type RPS int32

const (
	Rock     RPS = 0
	Paper    RPS = 1
	Scissors RPS = 2
)

func (c RPS) Valid() bool {
	return c == Rock || c == Paper || c == Scissors
}

func (c RPS) String() string {
	switch c {
	case Rock:
		return "rock"
	case Paper:
		return "paper"
	case Scissors:
		return "scissors"
	}
	return "unknown"
}

// Winner is the resolved outcome of a game.
type Winner int32

const (
	WinnerP1  Winner = 0
	WinnerP2  Winner = 1
	WinnerTie Winner = 2
)

func (w Winner) String() string {
	switch w {
	case WinnerP1:
		return "player1"
	case WinnerP2:
		return "player2"
	case WinnerTie:
		return "tie"
	}
	return "unknown"
}

// game status, drives receipts and localdb indexes
const (
	StatusNone               = int32(0)
	StatusAcceptingChallenge = int32(1)
	StatusAcceptingReveal    = int32(2)
	StatusAcceptingSettle    = int32(3)
	StatusSettled            = int32(4)
	StatusExpired            = int32(5)
)

// action types carried in RPSAction.Ty
const (
	RPSActionCreate = iota + 1
	RPSActionJoin
	RPSActionReveal
	RPSActionExpire
	RPSActionSettle
	RPSActionClean
	RPSActionCreatePlayerInfo
)

// receipt log types
const (
	TyLogGameCreate       = int32(711)
	TyLogGameJoin         = int32(712)
	TyLogGameReveal       = int32(713)
	TyLogGameSettle       = int32(714)
	TyLogGameExpire       = int32(715)
	TyLogGameClean        = int32(716)
	TyLogGameStart        = int32(717)
	TyLogGameResult       = int32(718)
	TyLogPlayerInfoCreate = int32(719)
	TyLogTransfer         = int32(731)
	TyLogDeposit          = int32(732)
)

const (
	// ExecOk marks a successfully executed receipt
	ExecOk = int32(2)

	// MaxTxsPerSlot spreads (slot, intra-slot index) into one ordering key
	MaxTxsPerSlot = int64(100000)
)

const (
	// MaxWagerAmount bounds a single stake so that the pot plus the fee
	// computation can never wrap an unsigned 64-bit amount.
	MaxWagerAmount = math.MaxUint64 / 4

	// FeeBps is the protocol fee in basis points, taken from the pot on
	// a decisive settlement. Ties and refunds carry no fee.
	FeeBps  = uint64(350)
	FeeBase = uint64(10000)

	// ChallengeWindow and RevealWindow are the waiting budgets, in slots,
	// for the join and reveal phases.
	ChallengeWindow = uint64(600)
	RevealWindow    = uint64(600)

	// GameRent is the storage deposit a creator funds per game record,
	// paid out to whoever cleans the record after settlement.
	GameRent = uint64(100000)
)

const (
	ListDESC = int32(0)
	ListASC  = int32(1)

	DefaultCount = int32(20)
	MaxCount     = int32(100)
)
