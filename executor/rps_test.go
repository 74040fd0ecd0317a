package executor

import (
	"testing"

	log "github.com/inconshreveable/log15"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbm "github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/types"
)

const (
	addrA       = "1Ka7EPFRqs3v9yEvzzyZSnArLzr7dgePNW"
	addrB       = "1EbDHAXpoiewjPLX9uqoz38HsKqMXayZrF"
	addrCleaner = "1PUiGcbsccfxW3zuvHXZBJfznziph5miL1"
	testValue   = uint64(1000000)
	testFee     = uint64(35000) // 350 bps of testValue
)

type testEnv struct {
	t     *testing.T
	r     *RPS
	cfg   *types.Config
	slot  uint64
	nonce int64
}

func newTestEnv(t *testing.T) *testEnv {
	cfg := types.DefaultConfig()
	r, err := NewRPS(cfg, dbm.NewGoMemDB(), dbm.NewGoMemDB())
	require.NoError(t, err)
	return &testEnv{t: t, r: r, cfg: cfg, slot: 10}
}

func (e *testEnv) exec(from string, action *types.RPSAction) (*types.Receipt, error) {
	e.nonce++
	e.r.SetEnv(e.slot)
	tx := &types.Transaction{
		Execer:  []byte(types.RPSX),
		Payload: types.Encode(action),
		From:    from,
		Nonce:   e.nonce,
	}
	receipt, err := e.r.Exec(tx, e.nonce)
	if err != nil {
		return nil, err
	}
	require.NoError(e.t, e.r.ExecLocal(&types.ReceiptData{Ty: receipt.Ty, Logs: receipt.Logs}))
	return receipt, nil
}

func (e *testEnv) deposit(addr string, amount uint64) {
	_, err := e.r.CoinsAccount().Deposit(addr, amount)
	require.NoError(e.t, err)
}

func (e *testEnv) balance(addr string) uint64 {
	return e.r.CoinsAccount().LoadAccount(addr).Balance
}

func (e *testEnv) createPlayer(addr string) {
	_, err := e.exec(addr, &types.RPSAction{
		Ty:               types.RPSActionCreatePlayerInfo,
		CreatePlayerInfo: &types.RPSPlayerInfoReq{},
	})
	require.NoError(e.t, err)
}

func (e *testEnv) create(addr string, seed, salt uint64, choice types.RPS, entryProof []byte) (string, error) {
	digest := Commitment(addr, salt, choice)
	_, err := e.exec(addr, &types.RPSAction{
		Ty: types.RPSActionCreate,
		Create: &types.RPSCreate{
			Seed:       seed,
			Commitment: digest[:],
			Value:      testValue,
			EntryProof: entryProof,
		},
	})
	return GameID(seed), err
}

func (e *testEnv) join(addr, gameID string, choice types.RPS, secret *uint64) error {
	_, err := e.exec(addr, &types.RPSAction{
		Ty:   types.RPSActionJoin,
		Join: &types.RPSJoin{GameID: gameID, Choice: choice, Secret: secret},
	})
	return err
}

func (e *testEnv) reveal(addr, gameID string, choice types.RPS, salt uint64) error {
	_, err := e.exec(addr, &types.RPSAction{
		Ty:     types.RPSActionReveal,
		Reveal: &types.RPSReveal{GameID: gameID, Choice: choice, Salt: salt},
	})
	return err
}

func (e *testEnv) expire(addr, gameID string) error {
	_, err := e.exec(addr, &types.RPSAction{
		Ty:     types.RPSActionExpire,
		Expire: &types.RPSExpire{GameID: gameID},
	})
	return err
}

func (e *testEnv) settle(addr, gameID string) error {
	_, err := e.exec(addr, &types.RPSAction{
		Ty:     types.RPSActionSettle,
		Settle: &types.RPSSettle{GameID: gameID},
	})
	return err
}

func (e *testEnv) clean(addr, gameID string) error {
	_, err := e.exec(addr, &types.RPSAction{
		Ty:    types.RPSActionClean,
		Clean: &types.RPSClean{GameID: gameID},
	})
	return err
}

func (e *testEnv) game(gameID string) *types.Game {
	reply, err := e.r.Query(FuncNameQueryGameByID, types.Encode(&types.QueryGameInfo{GameID: gameID}))
	require.NoError(e.t, err)
	return reply.(*types.ReplyGame).Game
}

func (e *testEnv) player(addr string) *types.PlayerInfo {
	reply, err := e.r.Query(FuncNameQueryPlayerInfo, types.Encode(&types.QueryPlayerInfo{Addr: addr}))
	require.NoError(e.t, err)
	return reply.(*types.ReplyPlayerInfo).Info
}

func (e *testEnv) setup(addrs ...string) {
	for _, addr := range addrs {
		e.deposit(addr, 10*testValue)
		e.createPlayer(addr)
	}
}

func TestDecisiveGame(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 1, 777, types.Paper, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAcceptingChallenge, e.game(gameID).Status())
	assert.Equal(t, 10*testValue-testValue-e.cfg.RPS.GameRent, e.balance(addrA))

	require.NoError(t, e.join(addrB, gameID, types.Rock, nil))
	assert.Equal(t, types.StatusAcceptingReveal, e.game(gameID).Status())
	assert.Equal(t, 2*testValue, e.balance(EscrowAddress(gameID)))

	require.NoError(t, e.reveal(addrA, gameID, types.Paper, 777))
	assert.Equal(t, types.StatusAcceptingSettle, e.game(gameID).Status())

	// settlement is permissionless
	require.NoError(t, e.settle(addrCleaner, gameID))
	assert.Equal(t, types.StatusSettled, e.game(gameID).Status())
	assert.Equal(t, uint64(0), e.balance(EscrowAddress(gameID)))
	assert.Equal(t, testFee, e.balance(FeePoolAddress()))
	assert.Equal(t, 10*testValue-e.cfg.RPS.GameRent+testValue-testFee, e.balance(addrA))
	assert.Equal(t, 9*testValue, e.balance(addrB))

	winner := e.player(addrA)
	assert.Equal(t, uint64(1), winner.GamesWon)
	assert.Equal(t, uint64(0), winner.AmountInGames)
	assert.Equal(t, testValue, winner.LifetimeWagering)
	assert.Equal(t, int64(testValue-testFee), winner.LifetimeEarnings)

	loser := e.player(addrB)
	assert.Equal(t, uint64(1), loser.GamesLost)
	assert.Equal(t, uint64(0), loser.AmountInGames)
	assert.Equal(t, -int64(testValue), loser.LifetimeEarnings)

	require.NoError(t, e.clean(addrCleaner, gameID))
	assert.Equal(t, e.cfg.RPS.GameRent, e.balance(addrCleaner))
	_, err = e.r.Query(FuncNameQueryGameByID, types.Encode(&types.QueryGameInfo{GameID: gameID}))
	assert.Equal(t, types.ErrGameNotFound, err)
}

func TestTieRefundsBothWithoutFee(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 2, 11, types.Rock, nil)
	require.NoError(t, err)
	require.NoError(t, e.join(addrB, gameID, types.Rock, nil))
	require.NoError(t, e.reveal(addrA, gameID, types.Rock, 11))
	require.NoError(t, e.settle(addrA, gameID))

	assert.Equal(t, uint64(0), e.balance(EscrowAddress(gameID)))
	assert.Equal(t, uint64(0), e.balance(FeePoolAddress()))
	assert.Equal(t, 10*testValue-e.cfg.RPS.GameRent, e.balance(addrA))
	assert.Equal(t, 10*testValue, e.balance(addrB))

	for _, addr := range []string{addrA, addrB} {
		info := e.player(addr)
		assert.Equal(t, uint64(1), info.GamesDrawn)
		assert.Equal(t, uint64(0), info.AmountInGames)
		assert.Equal(t, int64(0), info.LifetimeEarnings)
	}
}

func TestAbandonedChallenge(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 3, 5, types.Scissors, nil)
	require.NoError(t, err)

	// only the creator may reclaim, and only after the window
	assert.Equal(t, types.ErrNotYetExpired, e.expire(addrA, gameID))

	e.slot += e.cfg.RPS.ChallengeWindow + 1
	assert.Equal(t, types.ErrExpired, e.join(addrB, gameID, types.Rock, nil))
	assert.Equal(t, types.ErrExpireAddr, e.expire(addrB, gameID))

	require.NoError(t, e.expire(addrA, gameID))
	assert.Equal(t, types.StatusExpired, e.game(gameID).Status())
	assert.Equal(t, uint64(0), e.balance(EscrowAddress(gameID)))
	assert.Equal(t, 10*testValue-e.cfg.RPS.GameRent, e.balance(addrA))

	info := e.player(addrA)
	assert.Equal(t, uint64(0), info.AmountInGames)
	assert.Equal(t, uint64(0), info.GamesWon+info.GamesDrawn+info.GamesLost)

	require.NoError(t, e.clean(addrB, gameID))
	assert.Equal(t, 10*testValue+e.cfg.RPS.GameRent, e.balance(addrB))
}

func TestRevealForfeit(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 4, 99, types.Rock, nil)
	require.NoError(t, err)
	require.NoError(t, e.join(addrB, gameID, types.Scissors, nil))

	assert.Equal(t, types.ErrNotYetExpired, e.expire(addrB, gameID))
	e.slot += e.cfg.RPS.RevealWindow + 1
	assert.Equal(t, types.ErrExpired, e.reveal(addrA, gameID, types.Rock, 99))
	assert.Equal(t, types.ErrExpireAddr, e.expire(addrA, gameID))

	require.NoError(t, e.expire(addrB, gameID))
	require.NoError(t, e.settle(addrB, gameID))

	// forfeit settles like any decisive result, fee included
	assert.Equal(t, testFee, e.balance(FeePoolAddress()))
	assert.Equal(t, 10*testValue+testValue-testFee, e.balance(addrB))
	assert.Equal(t, uint64(1), e.player(addrB).GamesWon)
	assert.Equal(t, uint64(1), e.player(addrA).GamesLost)

	// the unopened commitment stays unopened in the event
	require.NoError(t, e.clean(addrB, gameID))
}

func TestExpirySlotIsStillInsideWindow(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 11, 77, types.Paper, nil)
	require.NoError(t, err)

	// joining exactly at the expiry slot still succeeds
	e.slot += e.cfg.RPS.ChallengeWindow
	require.NoError(t, e.join(addrB, gameID, types.Rock, nil))

	// so does revealing exactly at the reveal expiry slot
	e.slot += e.cfg.RPS.RevealWindow
	require.NoError(t, e.reveal(addrA, gameID, types.Paper, 77))
	assert.Equal(t, types.StatusAcceptingSettle, e.game(gameID).Status())
}

func TestCommitmentMismatchLeavesGameWaiting(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 5, 42, types.Paper, nil)
	require.NoError(t, err)
	require.NoError(t, e.join(addrB, gameID, types.Rock, nil))

	assert.Equal(t, types.ErrCommitmentMismatch, e.reveal(addrA, gameID, types.Paper, 43))
	assert.Equal(t, types.ErrCommitmentMismatch, e.reveal(addrA, gameID, types.Rock, 42))
	assert.Equal(t, types.StatusAcceptingReveal, e.game(gameID).Status())

	// the honest reveal still goes through
	require.NoError(t, e.reveal(addrA, gameID, types.Paper, 42))
	assert.Equal(t, types.StatusAcceptingSettle, e.game(gameID).Status())
}

func TestEntryGate(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	secret := uint64(0xfeedface)
	gameID := GameID(6)
	proof := EntryProof(gameID, secret)
	_, err := e.create(addrA, 6, 1, types.Rock, proof[:])
	require.NoError(t, err)

	wrong := secret + 1
	assert.Equal(t, types.ErrEntryDenied, e.join(addrB, gameID, types.Paper, nil))
	assert.Equal(t, types.ErrEntryDenied, e.join(addrB, gameID, types.Paper, &wrong))
	require.NoError(t, e.join(addrB, gameID, types.Paper, &secret))
}

func TestCreateValidation(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	digest := Commitment(addrA, 1, types.Rock)

	_, err := e.exec(addrA, &types.RPSAction{
		Ty:     types.RPSActionCreate,
		Create: &types.RPSCreate{Seed: 7, Commitment: digest[:], Value: 0},
	})
	assert.Equal(t, types.ErrInvalidWager, err)

	_, err = e.exec(addrA, &types.RPSAction{
		Ty:     types.RPSActionCreate,
		Create: &types.RPSCreate{Seed: 7, Commitment: digest[:], Value: types.MaxWagerAmount + 1},
	})
	assert.Equal(t, types.ErrBetTooLarge, err)

	_, err = e.exec(addrA, &types.RPSAction{
		Ty:     types.RPSActionCreate,
		Create: &types.RPSCreate{Seed: 7, Commitment: digest[:8], Value: testValue},
	})
	assert.Equal(t, types.ErrCommitmentSize, err)

	// rejected creations leave the balance untouched
	assert.Equal(t, 10*testValue, e.balance(addrA))

	_, err = e.create(addrA, 7, 1, types.Rock, nil)
	require.NoError(t, err)
	_, err = e.create(addrB, 7, 2, types.Paper, nil)
	assert.Equal(t, types.ErrGameExists, err)
}

func TestPlayerInfoRequired(t *testing.T) {
	e := newTestEnv(t)
	e.deposit(addrA, 10*testValue)

	_, err := e.create(addrA, 8, 1, types.Rock, nil)
	assert.Equal(t, types.ErrPlayerInfoNotFound, err)

	e.createPlayer(addrA)
	_, err = e.exec(addrA, &types.RPSAction{
		Ty:               types.RPSActionCreatePlayerInfo,
		CreatePlayerInfo: &types.RPSPlayerInfoReq{},
	})
	assert.Equal(t, types.ErrPlayerInfoExists, err)

	_, err = e.create(addrA, 8, 1, types.Rock, nil)
	require.NoError(t, err)

	// joiner needs a record too
	e.deposit(addrB, 10*testValue)
	assert.Equal(t, types.ErrPlayerInfoNotFound, e.join(addrB, GameID(8), types.Paper, nil))
}

func TestLifecycleGuards(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 9, 1, types.Rock, nil)
	require.NoError(t, err)

	assert.Equal(t, types.ErrGameSelfJoin, e.join(addrA, gameID, types.Paper, nil))
	assert.Equal(t, types.ErrGameRevealStatus, e.reveal(addrA, gameID, types.Rock, 1))
	assert.Equal(t, types.ErrGameSettleStatus, e.settle(addrA, gameID))
	assert.Equal(t, types.ErrNotSettled, e.clean(addrA, gameID))

	require.NoError(t, e.join(addrB, gameID, types.Paper, nil))
	assert.Equal(t, types.ErrGameJoinStatus, e.join(addrB, gameID, types.Paper, nil))
	assert.Equal(t, types.ErrRevealAddr, e.reveal(addrB, gameID, types.Rock, 1))

	require.NoError(t, e.reveal(addrA, gameID, types.Rock, 1))
	assert.Equal(t, types.ErrGameExpireStatus, e.expire(addrA, gameID))

	require.NoError(t, e.settle(addrA, gameID))
	assert.Equal(t, types.ErrGameSettleStatus, e.settle(addrA, gameID))

	require.NoError(t, e.clean(addrB, gameID))
	assert.Equal(t, types.ErrGameNotFound, e.clean(addrB, gameID))
}

func TestInsufficientBalance(t *testing.T) {
	e := newTestEnv(t)
	e.deposit(addrA, testValue/2)
	e.createPlayer(addrA)

	_, err := e.create(addrA, 10, 1, types.Rock, nil)
	assert.Equal(t, types.ErrNoBalance, err)
	assert.Equal(t, testValue/2, e.balance(addrA))
}

func TestCleanPaysRentEscrowedAtCreation(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)
	escrowedRent := e.cfg.RPS.GameRent

	gameID, err := e.create(addrA, 12, 3, types.Rock, nil)
	require.NoError(t, err)
	require.NoError(t, e.join(addrB, gameID, types.Paper, nil))
	require.NoError(t, e.reveal(addrA, gameID, types.Rock, 3))
	require.NoError(t, e.settle(addrA, gameID))

	// a config change between create and clean must not misdraw the pool
	e.cfg.RPS.GameRent = escrowedRent * 3
	require.NoError(t, e.clean(addrCleaner, gameID))
	assert.Equal(t, escrowedRent, e.balance(addrCleaner))
	assert.Equal(t, uint64(0), e.balance(StoragePoolAddress()))
}

func TestQueryGameList(t *testing.T) {
	e := newTestEnv(t)
	e.setup(addrA, addrB)

	var open []string
	for seed := uint64(20); seed < 23; seed++ {
		id, err := e.create(addrA, seed, seed, types.Rock, nil)
		require.NoError(t, err)
		open = append(open, id)
	}
	require.NoError(t, e.join(addrB, open[0], types.Paper, nil))

	reply, err := e.r.Query(FuncNameQueryGameListByStatusAddr, types.Encode(&types.QueryGameListByStatusAndAddr{
		Status: types.StatusAcceptingChallenge,
	}))
	require.NoError(t, err)
	games := reply.(*types.ReplyGameList).Games
	require.Len(t, games, 2)
	// default direction is newest first
	assert.Equal(t, open[2], games[0].GameID)
	assert.Equal(t, open[1], games[1].GameID)

	reply, err = e.r.Query(FuncNameQueryGameListByStatusAddr, types.Encode(&types.QueryGameListByStatusAndAddr{
		Status:  types.StatusAcceptingReveal,
		Address: addrB,
	}))
	require.NoError(t, err)
	games = reply.(*types.ReplyGameList).Games
	require.Len(t, games, 1)
	assert.Equal(t, open[0], games[0].GameID)

	reply, err = e.r.Query(FuncNameQueryGameListCount, types.Encode(&types.QueryGameListCount{
		Status: types.StatusAcceptingChallenge,
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), reply.(*types.ReplyGameListCount).Count)

	reply, err = e.r.Query(FuncNameQueryGameListCount, types.Encode(&types.QueryGameListCount{
		Status:  types.StatusAcceptingChallenge,
		Address: addrA,
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), reply.(*types.ReplyGameListCount).Count)
}

func TestGameCountMaintenance(t *testing.T) {
	e := newTestEnv(t)

	var underflows int
	glog.SetHandler(log.FuncHandler(func(rec *log.Record) error {
		if rec.Lvl == log.LvlError {
			underflows++
		}
		return nil
	}))
	defer glog.SetHandler(log.DiscardHandler())

	e.setup(addrA, addrB)
	gameID, err := e.create(addrA, 13, 1, types.Rock, nil)
	require.NoError(t, err)
	require.NoError(t, e.join(addrB, gameID, types.Paper, nil))
	require.NoError(t, e.reveal(addrA, gameID, types.Rock, 1))
	require.NoError(t, e.settle(addrA, gameID))
	require.NoError(t, e.clean(addrCleaner, gameID))

	// a clean lifecycle never drives any counter below zero
	assert.Zero(t, underflows)
	for status := types.StatusAcceptingChallenge; status <= types.StatusExpired; status++ {
		assert.Equal(t, int64(0), e.r.readCount(calcGameCountKey(status, "")), "status %d", status)
	}

	// a decrement without a matching increment is logged and clamped
	require.NoError(t, e.r.bumpCount(types.StatusSettled, &types.ReceiptGame{CreateAddr: addrA}, -1))
	assert.Positive(t, underflows)
	assert.Equal(t, int64(0), e.r.readCount(calcGameCountKey(types.StatusSettled, "")))
}

func TestFlushPersists(t *testing.T) {
	stateDB := dbm.NewGoMemDB()
	cfg := types.DefaultConfig()
	r, err := NewRPS(cfg, stateDB, dbm.NewGoMemDB())
	require.NoError(t, err)
	e := &testEnv{t: t, r: r, cfg: cfg, slot: 10}
	e.setup(addrA, addrB)

	gameID, err := e.create(addrA, 30, 1, types.Rock, nil)
	require.NoError(t, err)
	require.NoError(t, r.Flush())

	// a fresh executor over the same store sees the game
	r2, err := NewRPS(cfg, stateDB, dbm.NewGoMemDB())
	require.NoError(t, err)
	reply, err := r2.Query(FuncNameQueryGameByID, types.Encode(&types.QueryGameInfo{GameID: gameID}))
	require.NoError(t, err)
	assert.Equal(t, types.StatusAcceptingChallenge, reply.(*types.ReplyGame).Game.Status())
}
