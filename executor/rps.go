package executor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"

	"github.com/rpsarena/rpsarena/account"
	dbm "github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/types"
)

var glog = log.New("module", "execs."+types.RPSX)

const settledCacheSize = 1024

// RPS is the game executor: it applies actions to the state overlay,
// maintains the localdb query indexes, and answers queries.
type RPS struct {
	stateDB      *StateDB
	localDB      dbm.DB
	coinsAccount *account.DB
	cfg          *types.Config
	slot         uint64
	settled      *lru.Cache
}

// NewRPS wires an executor over a state store and a local index store.
func NewRPS(cfg *types.Config, stateDB dbm.DB, localDB dbm.DB) (*RPS, error) {
	overlay := NewStateDB(stateDB)
	acc, err := account.NewAccountDB(types.RPSX, cfg.RPS.Symbol, overlay)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New(settledCacheSize)
	if err != nil {
		return nil, err
	}
	return &RPS{
		stateDB:      overlay,
		localDB:      localDB,
		coinsAccount: acc,
		cfg:          cfg,
		settled:      cache,
	}, nil
}

// SetEnv sets the current slot. The host advances it, the executor
// only reads it.
func (r *RPS) SetEnv(slot uint64) {
	r.slot = slot
}

// Slot returns the current slot.
func (r *RPS) Slot() uint64 {
	return r.slot
}

// CoinsAccount exposes the ledger for tooling and tests.
func (r *RPS) CoinsAccount() *account.DB {
	return r.coinsAccount
}

// StateDB exposes the state overlay for tooling.
func (r *RPS) StateDB() *StateDB {
	return r.stateDB
}

// Exec applies one transaction. The whole action runs in a state
// transaction: any error rolls every write back.
func (r *RPS) Exec(tx *types.Transaction, index int64) (*types.Receipt, error) {
	var action types.RPSAction
	if err := types.Decode(tx.Payload, &action); err != nil {
		return nil, types.ErrActionNotSupport
	}
	a := NewAction(r, tx, index)

	r.stateDB.Begin()
	receipt, err := r.dispatch(a, &action)
	if err != nil {
		r.stateDB.Rollback()
		glog.Error("exec action", "ty", action.Ty, "from", tx.From, "err", err)
		return nil, err
	}
	r.stateDB.Commit()
	return receipt, nil
}

func (r *RPS) dispatch(a *Action, action *types.RPSAction) (*types.Receipt, error) {
	switch action.Ty {
	case types.RPSActionCreate:
		if action.GetCreate() == nil {
			return nil, types.ErrInvalidParam
		}
		return a.GameCreate(action.GetCreate())
	case types.RPSActionJoin:
		if action.GetJoin() == nil {
			return nil, types.ErrInvalidParam
		}
		return a.GameJoin(action.GetJoin())
	case types.RPSActionReveal:
		if action.GetReveal() == nil {
			return nil, types.ErrInvalidParam
		}
		return a.GameReveal(action.GetReveal())
	case types.RPSActionExpire:
		if action.GetExpire() == nil {
			return nil, types.ErrInvalidParam
		}
		return a.GameExpire(action.GetExpire())
	case types.RPSActionSettle:
		if action.GetSettle() == nil {
			return nil, types.ErrInvalidParam
		}
		return a.GameSettle(action.GetSettle())
	case types.RPSActionClean:
		if action.GetClean() == nil {
			return nil, types.ErrInvalidParam
		}
		receipt, err := a.GameClean(action.GetClean())
		if err == nil {
			r.settled.Remove(action.GetClean().GameID)
		}
		return receipt, err
	case types.RPSActionCreatePlayerInfo:
		if action.GetCreatePlayerInfo() == nil {
			return nil, types.ErrInvalidParam
		}
		return a.PlayerInfoCreate(action.GetCreatePlayerInfo())
	}
	return nil, types.ErrActionNotSupport
}

// Flush persists the committed overlay to the backing store.
func (r *RPS) Flush() error {
	return r.stateDB.Flush()
}

// localdb index keys

func calcGameStatusIndexKey(status int32, index int64) []byte {
	return []byte(fmt.Sprintf("LODB-%s-status:%d:%018d", types.RPSX, status, index))
}

func calcGameStatusIndexPrefix(status int32) []byte {
	return []byte(fmt.Sprintf("LODB-%s-status:%d:", types.RPSX, status))
}

func calcGameAddrIndexKey(status int32, addr string, index int64) []byte {
	return []byte(fmt.Sprintf("LODB-%s-addr:%d:%s:%018d", types.RPSX, status, addr, index))
}

func calcGameAddrIndexPrefix(status int32, addr string) []byte {
	return []byte(fmt.Sprintf("LODB-%s-addr:%d:%s:", types.RPSX, status, addr))
}

func calcGameCountKey(status int32, addr string) []byte {
	return []byte(fmt.Sprintf("LODB-%s-count:%d:%s", types.RPSX, status, addr))
}

// ExecLocal maintains the query indexes from a transition's receipt
// logs. It must run after a successful Exec of the same transaction.
func (r *RPS) ExecLocal(receipt *types.ReceiptData) error {
	if receipt == nil || receipt.Ty != types.ExecOk {
		return nil
	}
	for _, item := range receipt.Logs {
		switch item.Ty {
		case types.TyLogGameCreate, types.TyLogGameJoin, types.TyLogGameReveal,
			types.TyLogGameSettle, types.TyLogGameExpire, types.TyLogGameClean:
			var g types.ReceiptGame
			if err := types.Decode(item.Log, &g); err != nil {
				return err
			}
			if err := r.updateIndex(&g); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *RPS) updateIndex(g *types.ReceiptGame) error {
	if g.PrevStatus != types.StatusNone {
		r.delIndex(g.PrevStatus, g, g.PrevIndex)
		if err := r.bumpCount(g.PrevStatus, g, -1); err != nil {
			return err
		}
	}
	if g.Status != types.StatusNone {
		if err := r.addIndex(g.Status, g, g.Index); err != nil {
			return err
		}
		if err := r.bumpCount(g.Status, g, 1); err != nil {
			return err
		}
	}
	return nil
}

// indexAddrs lists the addresses indexed for a game at a status. The
// joiner only appears from the reveal phase on, a game waiting for a
// challenge has no joiner yet.
func indexAddrs(status int32, g *types.ReceiptGame) []string {
	addrs := []string{g.CreateAddr}
	if g.JoinAddr != "" && status >= types.StatusAcceptingReveal {
		addrs = append(addrs, g.JoinAddr)
	}
	return addrs
}

func (r *RPS) addIndex(status int32, g *types.ReceiptGame, index int64) error {
	record := types.Encode(&types.GameRecord{GameID: g.GameID, Index: index})
	if err := r.localDB.Set(calcGameStatusIndexKey(status, index), record); err != nil {
		return err
	}
	for _, addr := range indexAddrs(status, g) {
		if err := r.localDB.Set(calcGameAddrIndexKey(status, addr, index), record); err != nil {
			return err
		}
	}
	return nil
}

func (r *RPS) delIndex(status int32, g *types.ReceiptGame, index int64) {
	r.localDB.Delete(calcGameStatusIndexKey(status, index))
	for _, addr := range indexAddrs(status, g) {
		r.localDB.Delete(calcGameAddrIndexKey(status, addr, index))
	}
}

func (r *RPS) bumpCount(status int32, g *types.ReceiptGame, delta int64) error {
	addrs := append([]string{""}, indexAddrs(status, g)...)
	for _, addr := range addrs {
		key := calcGameCountKey(status, addr)
		count := r.readCount(key) + delta
		if count < 0 {
			glog.Error("game count underflow", "status", status, "addr", addr, "count", count)
			count = 0
		}
		if err := r.localDB.Set(key, types.Encode(&types.ReplyGameListCount{Count: count})); err != nil {
			return err
		}
	}
	return nil
}

func (r *RPS) readCount(key []byte) int64 {
	data, err := r.localDB.Get(key)
	if err != nil {
		return 0
	}
	var reply types.ReplyGameListCount
	if err := types.Decode(data, &reply); err != nil {
		return 0
	}
	return reply.Count
}

// Query answers a named read-only query.
func (r *RPS) Query(funcName string, param []byte) (interface{}, error) {
	switch funcName {
	case FuncNameQueryGameByID:
		var q types.QueryGameInfo
		if err := types.Decode(param, &q); err != nil {
			return nil, err
		}
		game, err := r.loadGame(q.GameID)
		if err != nil {
			return nil, err
		}
		return &types.ReplyGame{Game: game}, nil
	case FuncNameQueryGameByIDs:
		var q types.QueryGameInfos
		if err := types.Decode(param, &q); err != nil {
			return nil, err
		}
		var games []*types.Game
		for _, id := range q.GameIDs {
			game, err := r.loadGame(id)
			if err != nil {
				continue
			}
			games = append(games, game)
		}
		return &types.ReplyGameList{Games: games}, nil
	case FuncNameQueryGameListByStatusAddr:
		var q types.QueryGameListByStatusAndAddr
		if err := types.Decode(param, &q); err != nil {
			return nil, err
		}
		return r.queryGameList(&q)
	case FuncNameQueryGameListCount:
		var q types.QueryGameListCount
		if err := types.Decode(param, &q); err != nil {
			return nil, err
		}
		count := r.readCount(calcGameCountKey(q.Status, q.Address))
		return &types.ReplyGameListCount{Count: count}, nil
	case FuncNameQueryPlayerInfo:
		var q types.QueryPlayerInfo
		if err := types.Decode(param, &q); err != nil {
			return nil, err
		}
		return r.queryPlayerInfo(&q)
	}
	return nil, types.ErrActionNotSupport
}

// loadGame reads a record, keeping finished games in a small cache so
// repeated history queries skip the store.
func (r *RPS) loadGame(id string) (*types.Game, error) {
	if v, ok := r.settled.Get(id); ok {
		return v.(*types.Game), nil
	}
	data, err := r.stateDB.Get(Key(id))
	if err != nil {
		return nil, types.ErrGameNotFound
	}
	var game types.Game
	if err := types.Decode(data, &game); err != nil {
		return nil, err
	}
	if game.Terminal() {
		r.settled.Add(id, &game)
	}
	return &game, nil
}

func (r *RPS) queryGameList(q *types.QueryGameListByStatusAndAddr) (*types.ReplyGameList, error) {
	count := q.Count
	if count <= 0 {
		count = r.cfg.RPS.DefaultCount
	}
	if count > r.cfg.RPS.MaxCount {
		count = r.cfg.RPS.MaxCount
	}
	direction := q.Direction
	if direction != types.ListASC {
		direction = types.ListDESC
	}

	var prefix, startKey []byte
	if q.Address != "" {
		prefix = calcGameAddrIndexPrefix(q.Status, q.Address)
		if q.Index > 0 {
			startKey = calcGameAddrIndexKey(q.Status, q.Address, q.Index)
		}
	} else {
		prefix = calcGameStatusIndexPrefix(q.Status)
		if q.Index > 0 {
			startKey = calcGameStatusIndexKey(q.Status, q.Index)
		}
	}

	values, err := r.localDB.List(prefix, startKey, count, direction)
	if err != nil {
		if err == dbm.ErrNotFoundInDb {
			return &types.ReplyGameList{}, nil
		}
		return nil, err
	}
	var games []*types.Game
	for _, value := range values {
		var record types.GameRecord
		if err := types.Decode(value, &record); err != nil {
			return nil, err
		}
		game, err := r.loadGame(record.GameID)
		if err != nil {
			// record cleaned from state, index lagging
			continue
		}
		games = append(games, game)
	}
	return &types.ReplyGameList{Games: games}, nil
}

func (r *RPS) queryPlayerInfo(q *types.QueryPlayerInfo) (*types.ReplyPlayerInfo, error) {
	symbol := q.Symbol
	if symbol == "" {
		symbol = r.cfg.RPS.Symbol
	}
	data, err := r.stateDB.Get(PlayerInfoKey(q.Addr, symbol))
	if err != nil {
		return nil, types.ErrPlayerInfoNotFound
	}
	var info types.PlayerInfo
	if err := types.Decode(data, &info); err != nil {
		return nil, err
	}
	return &types.ReplyPlayerInfo{Info: &info}, nil
}
