package types

import (
	"encoding/binary"

	"github.com/rpsarena/rpsarena/common"
)

// KeyValue is one staged state mutation. A nil Value marks a deletion.
type KeyValue struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// ReceiptLog is one typed event produced by a transition.
type ReceiptLog struct {
	Ty  int32  `json:"ty"`
	Log []byte `json:"log"`
}

// Receipt carries everything a successful transition wrote.
type Receipt struct {
	Ty   int32         `json:"ty"`
	KV   []*KeyValue   `json:"kv"`
	Logs []*ReceiptLog `json:"logs"`
}

// ReceiptData is the log view handed to ExecLocal.
type ReceiptData struct {
	Ty   int32         `json:"ty"`
	Logs []*ReceiptLog `json:"logs"`
}

// Transaction is the host-authenticated envelope an action arrives in.
// The surrounding environment verifies the signature behind From; the
// executor treats From as the signer identity.
type Transaction struct {
	Execer  []byte `json:"execer"`
	Payload []byte `json:"payload"`
	From    string `json:"from"`
	Nonce   int64  `json:"nonce"`
}

// Hash identifies the transaction; creation uses it for receipts only,
// game addressing is derived from the seed, not the tx hash.
func (tx *Transaction) Hash() []byte {
	var nonce [8]byte
	binary.LittleEndian.PutUint64(nonce[:], uint64(tx.Nonce))
	buf := make([]byte, 0, len(tx.Execer)+len(tx.Payload)+len(tx.From)+8)
	buf = append(buf, tx.Execer...)
	buf = append(buf, tx.Payload...)
	buf = append(buf, tx.From...)
	buf = append(buf, nonce[:]...)
	return common.Sha256(buf)
}

// Account is one asset balance in the ledger.
type Account struct {
	Addr    string `json:"addr"`
	Balance uint64 `json:"balance"`
}

// PlayerState is either a hidden commitment or a revealed move. A
// player's record moves Committed -> Revealed exactly once, never back.
type PlayerState interface {
	Identity() string
	playerState()
}

// Committed locks a player's hidden move behind a 32-byte digest.
type Committed struct {
	Addr       string
	Commitment [32]byte
}

func (c Committed) Identity() string { return c.Addr }
func (c Committed) playerState()     {}

// Revealed is a player's move once public.
type Revealed struct {
	Addr   string
	Choice RPS
}

func (r Revealed) Identity() string { return r.Addr }
func (r Revealed) playerState()     {}

// GameConfig is the per-game participation policy. A nil EntryProof
// means the game is public.
type GameConfig struct {
	EntryProof *[32]byte
}

func (c GameConfig) Public() bool { return c.EntryProof == nil }

// GameState is the closed set of lifecycle states. Each variant carries
// exactly the payload that is meaningful in that phase, so a result
// cannot exist before the reveal and an expiry slot cannot survive into
// settlement.
type GameState interface {
	Status() int32
	gameState()
}

type Initialized struct{}

func (Initialized) Status() int32 { return StatusNone }
func (Initialized) gameState()    {}

type AcceptingChallenge struct {
	Config     GameConfig
	Player1    PlayerState
	ExpirySlot uint64
}

func (AcceptingChallenge) Status() int32 { return StatusAcceptingChallenge }
func (AcceptingChallenge) gameState()    {}

type AcceptingReveal struct {
	Player1    PlayerState
	Player2    PlayerState
	Config     GameConfig
	ExpirySlot uint64
}

func (AcceptingReveal) Status() int32 { return StatusAcceptingReveal }
func (AcceptingReveal) gameState()    {}

type AcceptingSettle struct {
	Result  Winner
	Player1 PlayerState
	Player2 PlayerState
	Config  GameConfig
}

func (AcceptingSettle) Status() int32 { return StatusAcceptingSettle }
func (AcceptingSettle) gameState()    {}

type Settled struct {
	Result  Winner
	Player1 PlayerState
	Player2 PlayerState
	Config  GameConfig
}

func (Settled) Status() int32 { return StatusSettled }
func (Settled) gameState()    {}

// Expired is the fully-refunded terminal of an unanswered challenge.
// No winner ever existed for such a game.
type Expired struct {
	Player1 PlayerState
	Config  GameConfig
}

func (Expired) Status() int32 { return StatusExpired }
func (Expired) gameState()    {}

// Game is the persisted per-game record, keyed by the address derived
// from the creator-chosen seed.
type Game struct {
	GameID     string
	Seed       uint64
	Value      uint64 // per-player stake
	Fee        uint64 // fixed at creation, extracted on decisive settlement
	Rent       uint64 // storage deposit escrowed at creation, paid to the cleaner
	Symbol     string
	CreateAddr string
	JoinAddr   string
	CreateSlot uint64
	UpdateSlot uint64
	Index      int64
	PrevIndex  int64
	State      GameState
}

func (g *Game) Status() int32 {
	if g == nil || g.State == nil {
		return StatusNone
	}
	return g.State.Status()
}

func (g *Game) Player1() (PlayerState, bool) {
	switch s := g.State.(type) {
	case AcceptingChallenge:
		return s.Player1, true
	case AcceptingReveal:
		return s.Player1, true
	case AcceptingSettle:
		return s.Player1, true
	case Settled:
		return s.Player1, true
	case Expired:
		return s.Player1, true
	}
	return nil, false
}

func (g *Game) Player2() (PlayerState, bool) {
	switch s := g.State.(type) {
	case AcceptingReveal:
		return s.Player2, true
	case AcceptingSettle:
		return s.Player2, true
	case Settled:
		return s.Player2, true
	}
	return nil, false
}

// Terminal reports whether no further lifecycle transition is allowed.
func (g *Game) Terminal() bool {
	st := g.Status()
	return st == StatusSettled || st == StatusExpired
}

// PlayerInfo is the running statistics record, one per (owner, asset).
// It is created once and mutated on every deposit and settlement.
type PlayerInfo struct {
	Owner            string `json:"owner"`
	Symbol           string `json:"symbol"`
	GamesWon         uint64 `json:"gamesWon"`
	GamesDrawn       uint64 `json:"gamesDrawn"`
	GamesLost        uint64 `json:"gamesLost"`
	LifetimeWagering uint64 `json:"lifetimeWagering"`
	LifetimeEarnings int64  `json:"lifetimeEarnings"`
	AmountInGames    uint64 `json:"amountInGames"`
}

// RPSAction is the payload envelope of one transaction.
type RPSAction struct {
	Ty               int32             `json:"ty"`
	Create           *RPSCreate        `json:"create,omitempty"`
	Join             *RPSJoin          `json:"join,omitempty"`
	Reveal           *RPSReveal        `json:"reveal,omitempty"`
	Expire           *RPSExpire        `json:"expire,omitempty"`
	Settle           *RPSSettle        `json:"settle,omitempty"`
	Clean            *RPSClean         `json:"clean,omitempty"`
	CreatePlayerInfo *RPSPlayerInfoReq `json:"createPlayerInfo,omitempty"`
}

func (a *RPSAction) GetCreate() *RPSCreate {
	if a == nil {
		return nil
	}
	return a.Create
}

func (a *RPSAction) GetJoin() *RPSJoin {
	if a == nil {
		return nil
	}
	return a.Join
}

func (a *RPSAction) GetReveal() *RPSReveal {
	if a == nil {
		return nil
	}
	return a.Reveal
}

func (a *RPSAction) GetExpire() *RPSExpire {
	if a == nil {
		return nil
	}
	return a.Expire
}

func (a *RPSAction) GetSettle() *RPSSettle {
	if a == nil {
		return nil
	}
	return a.Settle
}

func (a *RPSAction) GetClean() *RPSClean {
	if a == nil {
		return nil
	}
	return a.Clean
}

func (a *RPSAction) GetCreatePlayerInfo() *RPSPlayerInfoReq {
	if a == nil {
		return nil
	}
	return a.CreatePlayerInfo
}

type RPSCreate struct {
	Seed       uint64 `json:"seed"`
	Commitment []byte `json:"commitment"` // 32 bytes
	Value      uint64 `json:"value"`
	EntryProof []byte `json:"entryProof,omitempty"` // 32 bytes when restricted
}

type RPSJoin struct {
	GameID string  `json:"gameId"`
	Choice RPS     `json:"choice"`
	Secret *uint64 `json:"secret,omitempty"`
}

type RPSReveal struct {
	GameID string `json:"gameId"`
	Choice RPS    `json:"choice"`
	Salt   uint64 `json:"salt"`
}

type RPSExpire struct {
	GameID string `json:"gameId"`
}

type RPSSettle struct {
	GameID string `json:"gameId"`
}

type RPSClean struct {
	GameID string `json:"gameId"`
}

type RPSPlayerInfoReq struct {
	Symbol string `json:"symbol"`
}

// ReceiptGame records a status transition for index maintenance.
type ReceiptGame struct {
	GameID     string `json:"gameId"`
	Status     int32  `json:"status"`
	PrevStatus int32  `json:"prevStatus"`
	Addr       string `json:"addr"`
	CreateAddr string `json:"createAddr"`
	JoinAddr   string `json:"joinAddr,omitempty"`
	Index      int64  `json:"index"`
	PrevIndex  int64  `json:"prevIndex"`
}

// ReceiptAccountTransfer records one balance mutation pair.
type ReceiptAccountTransfer struct {
	Prev    *Account `json:"prev"`
	Current *Account `json:"current"`
}

// GameStartEvent is emitted once per created game.
type GameStartEvent struct {
	GameID string `json:"gameId"`
	Value  uint64 `json:"wagerAmount"`
	Fee    uint64 `json:"feeAmount"`
	Public bool   `json:"isPublic"`
}

// ReadableGameEvent is the human-readable settlement summary emitted
// when a record is cleaned. Choices stay nil for moves never revealed.
type ReadableGameEvent struct {
	EventName    string `json:"event_name"`
	EventVersion uint64 `json:"event_version"`
	Player1      string `json:"player_1"`
	Choice1      *RPS   `json:"choice_1"`
	Player2      string `json:"player_2"`
	Choice2      *RPS   `json:"choice_2"`
	Result       Winner `json:"result"`
	Value        uint64 `json:"wager_amount"`
	Fee          uint64 `json:"fee_amount"`
	Public       bool   `json:"public"`
}

// query parameters and replies

type QueryGameInfo struct {
	GameID string `json:"gameId"`
}

type QueryGameInfos struct {
	GameIDs []string `json:"gameIds"`
}

type ReplyGame struct {
	Game *Game `json:"game"`
}

type ReplyGameList struct {
	Games []*Game `json:"games"`
}

type QueryGameListByStatusAndAddr struct {
	Status    int32  `json:"status"`
	Address   string `json:"address"`
	Index     int64  `json:"index"`
	Count     int32  `json:"count"`
	Direction int32  `json:"direction"`
}

type QueryGameListCount struct {
	Status  int32  `json:"status"`
	Address string `json:"address"`
}

type ReplyGameListCount struct {
	Count int64 `json:"count"`
}

type QueryPlayerInfo struct {
	Addr   string `json:"addr"`
	Symbol string `json:"symbol"`
}

type ReplyPlayerInfo struct {
	Info *PlayerInfo `json:"info"`
}

// GameRecord is the localdb index value.
type GameRecord struct {
	GameID string `json:"gameId"`
	Index  int64  `json:"index"`
}
