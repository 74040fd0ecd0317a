package executor

import (
	"fmt"
	"strconv"

	"github.com/rpsarena/rpsarena/account"
	"github.com/rpsarena/rpsarena/common/address"
	dbm "github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/types"
)

// Key is the statedb key of a game record.
func Key(id string) []byte {
	return []byte(fmt.Sprintf("mavl-%s-%s", types.RPSX, id))
}

// PlayerInfoKey is the statedb key of a statistics record.
func PlayerInfoKey(owner, symbol string) []byte {
	return []byte(fmt.Sprintf("mavl-%s-player-%s:%s", types.RPSX, symbol, owner))
}

// GameID derives the deterministic identity of a game from its seed.
// The seed namespace is global: a seed that collides with a live
// record is rejected at creation.
func GameID(seed uint64) string {
	return address.ExecAddress(types.RPSX + ":game:" + strconv.FormatUint(seed, 10))
}

// EscrowAddress derives the per-game custodial address both stakes sit
// on until settlement.
func EscrowAddress(gameID string) string {
	return address.ExecAddress(types.RPSX + ":authority:" + gameID)
}

// FeePoolAddress collects the protocol fee of decisive games.
func FeePoolAddress() string {
	return address.ExecAddress(types.RPSX + ":fees")
}

// StoragePoolAddress escrows the per-record storage deposit that pays
// whoever cleans a finished record.
func StoragePoolAddress() string {
	return address.ExecAddress(types.RPSX + ":storage")
}

// CalcGameFee computes the creation-time fee from the stake.
func CalcGameFee(value, feeBps uint64) (uint64, error) {
	raw, err := types.SafeMul(value, feeBps)
	if err != nil {
		return 0, err
	}
	return raw / types.FeeBase, nil
}

// Action bundles everything one transaction execution needs.
type Action struct {
	coinsAccount *account.DB
	db           dbm.KV
	txhash       []byte
	fromaddr     string
	slot         uint64
	index        int64
	cfg          *types.RPSConfig
}

// NewAction builds the per-transaction context.
func NewAction(r *RPS, tx *types.Transaction, index int64) *Action {
	return &Action{
		coinsAccount: r.coinsAccount,
		db:           r.stateDB,
		txhash:       tx.Hash(),
		fromaddr:     tx.From,
		slot:         r.slot,
		index:        index,
		cfg:          &r.cfg.RPS,
	}
}

// GetIndex folds the slot and the intra-slot position into one
// monotonically increasing ordering key.
func (action *Action) GetIndex() int64 {
	return int64(action.slot)*types.MaxTxsPerSlot + action.index
}

func (action *Action) readGame(id string) (*types.Game, error) {
	data, err := action.db.Get(Key(id))
	if err != nil {
		return nil, types.ErrGameNotFound
	}
	var game types.Game
	if err := types.Decode(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (action *Action) readPlayerInfo(owner string) (*types.PlayerInfo, error) {
	data, err := action.db.Get(PlayerInfoKey(owner, action.coinsAccount.Symbol()))
	if err != nil {
		return nil, types.ErrPlayerInfoNotFound
	}
	var info types.PlayerInfo
	if err := types.Decode(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (action *Action) saveGame(game *types.Game) *types.KeyValue {
	value := types.Encode(game)
	action.db.Set(Key(game.GameID), value)
	return &types.KeyValue{Key: Key(game.GameID), Value: value}
}

func (action *Action) savePlayerInfo(info *types.PlayerInfo) *types.KeyValue {
	key := PlayerInfoKey(info.Owner, info.Symbol)
	value := types.Encode(info)
	action.db.Set(key, value)
	return &types.KeyValue{Key: key, Value: value}
}

// GetReceiptLog renders the transition log ExecLocal keys indexes off.
func (action *Action) GetReceiptLog(game *types.Game, ty int32, prevStatus int32) *types.ReceiptLog {
	r := types.ReceiptGame{
		GameID:     game.GameID,
		Status:     game.Status(),
		PrevStatus: prevStatus,
		Addr:       action.fromaddr,
		CreateAddr: game.CreateAddr,
		JoinAddr:   game.JoinAddr,
		Index:      game.Index,
		PrevIndex:  game.PrevIndex,
	}
	return &types.ReceiptLog{Ty: ty, Log: types.Encode(&r)}
}

func mergeReceipt(dst, src *types.Receipt) {
	dst.KV = append(dst.KV, src.KV...)
	dst.Logs = append(dst.Logs, src.Logs...)
}

// GameCreate opens a challenge: escrows the creator's stake and the
// storage deposit, fixes the fee, and stores the committed move.
func (action *Action) GameCreate(create *types.RPSCreate) (*types.Receipt, error) {
	if create.Value == 0 {
		return nil, types.ErrInvalidWager
	}
	if create.Value > action.cfg.MaxWager {
		return nil, types.ErrBetTooLarge
	}
	if len(create.Commitment) != 32 {
		return nil, types.ErrCommitmentSize
	}
	if len(create.EntryProof) != 0 && len(create.EntryProof) != 32 {
		return nil, types.ErrInvalidParam
	}

	fee, err := CalcGameFee(create.Value, action.cfg.FeeBps)
	if err != nil {
		return nil, err
	}

	gameID := GameID(create.Seed)
	if _, err := action.readGame(gameID); err == nil {
		return nil, types.ErrGameExists
	}

	info, err := action.readPlayerInfo(action.fromaddr)
	if err != nil {
		return nil, err
	}

	// fail before touching any balance
	total, err := types.SafeAdd(create.Value, action.cfg.GameRent)
	if err != nil {
		return nil, err
	}
	if action.coinsAccount.LoadAccount(action.fromaddr).Balance < total {
		return nil, types.ErrNoBalance
	}

	receipt := &types.Receipt{Ty: types.ExecOk}
	stake, err := action.coinsAccount.Transfer(action.fromaddr, EscrowAddress(gameID), create.Value)
	if err != nil {
		return nil, err
	}
	mergeReceipt(receipt, stake)
	rent, err := action.coinsAccount.Transfer(action.fromaddr, StoragePoolAddress(), action.cfg.GameRent)
	if err != nil {
		return nil, err
	}
	mergeReceipt(receipt, rent)

	if info.LifetimeWagering, err = types.SafeAdd(info.LifetimeWagering, create.Value); err != nil {
		return nil, err
	}
	if info.AmountInGames, err = types.SafeAdd(info.AmountInGames, create.Value); err != nil {
		return nil, err
	}
	receipt.KV = append(receipt.KV, action.savePlayerInfo(info))

	var commitment [32]byte
	copy(commitment[:], create.Commitment)
	cfg := types.GameConfig{}
	if len(create.EntryProof) == 32 {
		var proof [32]byte
		copy(proof[:], create.EntryProof)
		cfg.EntryProof = &proof
	}

	game := &types.Game{
		GameID:     gameID,
		Seed:       create.Seed,
		Value:      create.Value,
		Fee:        fee,
		Rent:       action.cfg.GameRent,
		Symbol:     action.coinsAccount.Symbol(),
		CreateAddr: action.fromaddr,
		CreateSlot: action.slot,
		UpdateSlot: action.slot,
		Index:      action.GetIndex(),
		PrevIndex:  action.GetIndex(),
		State: types.AcceptingChallenge{
			Config:     cfg,
			Player1:    types.Committed{Addr: action.fromaddr, Commitment: commitment},
			ExpirySlot: action.slot + action.cfg.ChallengeWindow,
		},
	}
	receipt.KV = append(receipt.KV, action.saveGame(game))
	receipt.Logs = append(receipt.Logs, action.GetReceiptLog(game, types.TyLogGameCreate, types.StatusNone))

	start := types.GameStartEvent{GameID: gameID, Value: create.Value, Fee: fee, Public: cfg.Public()}
	receipt.Logs = append(receipt.Logs, &types.ReceiptLog{Ty: types.TyLogGameStart, Log: types.Encode(&start)})
	return receipt, nil
}

// GameJoin answers an open challenge with a plain move. The joiner
// moves last in commitment order, so hiding the move buys nothing.
func (action *Action) GameJoin(join *types.RPSJoin) (*types.Receipt, error) {
	game, err := action.readGame(join.GameID)
	if err != nil {
		return nil, err
	}
	state, ok := game.State.(types.AcceptingChallenge)
	if !ok {
		return nil, types.ErrGameJoinStatus
	}
	if action.fromaddr == game.CreateAddr {
		return nil, types.ErrGameSelfJoin
	}
	// the expiry slot itself is still inside the window
	if action.slot > state.ExpirySlot {
		return nil, types.ErrExpired
	}
	if !join.Choice.Valid() {
		return nil, types.ErrInvalidParam
	}
	if proof := state.Config.EntryProof; proof != nil {
		if join.Secret == nil || !VerifyEntry(*proof, game.GameID, *join.Secret) {
			return nil, types.ErrEntryDenied
		}
	}

	info, err := action.readPlayerInfo(action.fromaddr)
	if err != nil {
		return nil, err
	}
	if err := action.coinsAccount.CheckTransfer(action.fromaddr, EscrowAddress(game.GameID), game.Value); err != nil {
		return nil, err
	}

	receipt := &types.Receipt{Ty: types.ExecOk}
	stake, err := action.coinsAccount.Transfer(action.fromaddr, EscrowAddress(game.GameID), game.Value)
	if err != nil {
		return nil, err
	}
	mergeReceipt(receipt, stake)

	if info.LifetimeWagering, err = types.SafeAdd(info.LifetimeWagering, game.Value); err != nil {
		return nil, err
	}
	if info.AmountInGames, err = types.SafeAdd(info.AmountInGames, game.Value); err != nil {
		return nil, err
	}
	receipt.KV = append(receipt.KV, action.savePlayerInfo(info))

	prevStatus := game.Status()
	game.JoinAddr = action.fromaddr
	game.UpdateSlot = action.slot
	game.PrevIndex = game.Index
	game.Index = action.GetIndex()
	game.State = types.AcceptingReveal{
		Config:     state.Config,
		Player1:    state.Player1,
		Player2:    types.Revealed{Addr: action.fromaddr, Choice: join.Choice},
		ExpirySlot: action.slot + action.cfg.RevealWindow,
	}
	receipt.KV = append(receipt.KV, action.saveGame(game))
	receipt.Logs = append(receipt.Logs, action.GetReceiptLog(game, types.TyLogGameJoin, prevStatus))
	return receipt, nil
}

// GameReveal opens the creator's commitment and resolves the outcome.
// A reveal that does not match the commitment fails whole, the game
// stays waiting and the reveal window keeps running.
func (action *Action) GameReveal(reveal *types.RPSReveal) (*types.Receipt, error) {
	game, err := action.readGame(reveal.GameID)
	if err != nil {
		return nil, err
	}
	state, ok := game.State.(types.AcceptingReveal)
	if !ok {
		return nil, types.ErrGameRevealStatus
	}
	committed, ok := state.Player1.(types.Committed)
	if !ok {
		return nil, types.ErrGameRevealStatus
	}
	if action.fromaddr != committed.Addr {
		return nil, types.ErrRevealAddr
	}
	// the expiry slot itself is still inside the window
	if action.slot > state.ExpirySlot {
		return nil, types.ErrExpired
	}
	if !reveal.Choice.Valid() {
		return nil, types.ErrInvalidParam
	}
	if !VerifyCommitment(committed.Commitment, committed.Addr, reveal.Salt, reveal.Choice) {
		return nil, types.ErrCommitmentMismatch
	}

	p2 := state.Player2.(types.Revealed)
	result := Resolve(reveal.Choice, p2.Choice)

	prevStatus := game.Status()
	game.UpdateSlot = action.slot
	game.PrevIndex = game.Index
	game.Index = action.GetIndex()
	game.State = types.AcceptingSettle{
		Config:  state.Config,
		Player1: types.Revealed{Addr: committed.Addr, Choice: reveal.Choice},
		Player2: p2,
		Result:  result,
	}

	receipt := &types.Receipt{Ty: types.ExecOk}
	receipt.KV = append(receipt.KV, action.saveGame(game))
	receipt.Logs = append(receipt.Logs, action.GetReceiptLog(game, types.TyLogGameReveal, prevStatus))
	return receipt, nil
}

// GameExpire claims an elapsed waiting window. An unanswered challenge
// refunds the creator and dies. An unrevealed game forfeits to the
// joiner and still goes through settlement like any decisive result.
func (action *Action) GameExpire(expire *types.RPSExpire) (*types.Receipt, error) {
	game, err := action.readGame(expire.GameID)
	if err != nil {
		return nil, err
	}
	switch state := game.State.(type) {
	case types.AcceptingChallenge:
		if action.fromaddr != game.CreateAddr {
			return nil, types.ErrExpireAddr
		}
		if action.slot < state.ExpirySlot {
			return nil, types.ErrNotYetExpired
		}
		return action.expireChallenge(game, state)
	case types.AcceptingReveal:
		if action.fromaddr != game.JoinAddr {
			return nil, types.ErrExpireAddr
		}
		if action.slot < state.ExpirySlot {
			return nil, types.ErrNotYetExpired
		}
		return action.expireReveal(game, state)
	}
	return nil, types.ErrGameExpireStatus
}

func (action *Action) expireChallenge(game *types.Game, state types.AcceptingChallenge) (*types.Receipt, error) {
	receipt := &types.Receipt{Ty: types.ExecOk}
	refund, err := action.coinsAccount.Transfer(EscrowAddress(game.GameID), game.CreateAddr, game.Value)
	if err != nil {
		return nil, err
	}
	mergeReceipt(receipt, refund)

	info, err := action.readPlayerInfo(game.CreateAddr)
	if err != nil {
		return nil, err
	}
	if info.AmountInGames, err = types.SafeSub(info.AmountInGames, game.Value); err != nil {
		return nil, err
	}
	receipt.KV = append(receipt.KV, action.savePlayerInfo(info))

	prevStatus := game.Status()
	game.UpdateSlot = action.slot
	game.PrevIndex = game.Index
	game.Index = action.GetIndex()
	game.State = types.Expired{Config: state.Config, Player1: state.Player1}
	receipt.KV = append(receipt.KV, action.saveGame(game))
	receipt.Logs = append(receipt.Logs, action.GetReceiptLog(game, types.TyLogGameExpire, prevStatus))
	return receipt, nil
}

func (action *Action) expireReveal(game *types.Game, state types.AcceptingReveal) (*types.Receipt, error) {
	prevStatus := game.Status()
	game.UpdateSlot = action.slot
	game.PrevIndex = game.Index
	game.Index = action.GetIndex()
	game.State = types.AcceptingSettle{
		Config:  state.Config,
		Player1: state.Player1,
		Player2: state.Player2,
		Result:  types.WinnerP2,
	}
	receipt := &types.Receipt{Ty: types.ExecOk}
	receipt.KV = append(receipt.KV, action.saveGame(game))
	receipt.Logs = append(receipt.Logs, action.GetReceiptLog(game, types.TyLogGameExpire, prevStatus))
	return receipt, nil
}

// GameSettle pays the pot out of escrow and applies the statistics.
// Anyone may call it once a result is pending.
func (action *Action) GameSettle(settle *types.RPSSettle) (*types.Receipt, error) {
	game, err := action.readGame(settle.GameID)
	if err != nil {
		return nil, err
	}
	state, ok := game.State.(types.AcceptingSettle)
	if !ok {
		return nil, types.ErrGameSettleStatus
	}

	p1Addr := state.Player1.Identity()
	p2Addr := state.Player2.Identity()
	escrow := EscrowAddress(game.GameID)

	info1, err := action.readPlayerInfo(p1Addr)
	if err != nil {
		return nil, err
	}
	info2, err := action.readPlayerInfo(p2Addr)
	if err != nil {
		return nil, err
	}

	receipt := &types.Receipt{Ty: types.ExecOk}
	switch state.Result {
	case types.WinnerTie:
		if err := action.refundStake(receipt, game, escrow, p1Addr); err != nil {
			return nil, err
		}
		if err := action.refundStake(receipt, game, escrow, p2Addr); err != nil {
			return nil, err
		}
		info1.GamesDrawn++
		info2.GamesDrawn++
	case types.WinnerP1:
		if err := action.payoutPot(receipt, game, escrow, p1Addr); err != nil {
			return nil, err
		}
		if err := applyDecisive(info1, info2, game); err != nil {
			return nil, err
		}
	case types.WinnerP2:
		if err := action.payoutPot(receipt, game, escrow, p2Addr); err != nil {
			return nil, err
		}
		if err := applyDecisive(info2, info1, game); err != nil {
			return nil, err
		}
	default:
		return nil, types.ErrInvalidParam
	}

	if info1.AmountInGames, err = types.SafeSub(info1.AmountInGames, game.Value); err != nil {
		return nil, err
	}
	if info2.AmountInGames, err = types.SafeSub(info2.AmountInGames, game.Value); err != nil {
		return nil, err
	}
	receipt.KV = append(receipt.KV, action.savePlayerInfo(info1))
	receipt.KV = append(receipt.KV, action.savePlayerInfo(info2))

	prevStatus := game.Status()
	game.UpdateSlot = action.slot
	game.PrevIndex = game.Index
	game.Index = action.GetIndex()
	game.State = types.Settled{
		Config:  state.Config,
		Player1: state.Player1,
		Player2: state.Player2,
		Result:  state.Result,
	}
	receipt.KV = append(receipt.KV, action.saveGame(game))
	receipt.Logs = append(receipt.Logs, action.GetReceiptLog(game, types.TyLogGameSettle, prevStatus))
	return receipt, nil
}

func (action *Action) refundStake(receipt *types.Receipt, game *types.Game, escrow, to string) error {
	r, err := action.coinsAccount.Transfer(escrow, to, game.Value)
	if err != nil {
		return err
	}
	mergeReceipt(receipt, r)
	return nil
}

func (action *Action) payoutPot(receipt *types.Receipt, game *types.Game, escrow, winner string) error {
	pot, err := types.SafeMul(game.Value, 2)
	if err != nil {
		return err
	}
	payout, err := types.SafeSub(pot, game.Fee)
	if err != nil {
		return err
	}
	r, err := action.coinsAccount.Transfer(escrow, winner, payout)
	if err != nil {
		return err
	}
	mergeReceipt(receipt, r)
	if game.Fee > 0 {
		r, err = action.coinsAccount.Transfer(escrow, FeePoolAddress(), game.Fee)
		if err != nil {
			return err
		}
		mergeReceipt(receipt, r)
	}
	return nil
}

// applyDecisive updates the win/loss counters and earnings: the winner
// nets the loser's stake minus the fee, the loser is down one stake.
func applyDecisive(winner, loser *types.PlayerInfo, game *types.Game) error {
	winner.GamesWon++
	loser.GamesLost++
	gain, err := types.SafeSub(game.Value, game.Fee)
	if err != nil {
		return err
	}
	if winner.LifetimeEarnings, err = types.SafeAddInt64(winner.LifetimeEarnings, int64(gain)); err != nil {
		return err
	}
	if loser.LifetimeEarnings, err = types.SafeSubInt64(loser.LifetimeEarnings, int64(game.Value)); err != nil {
		return err
	}
	return nil
}

// GameClean deletes a terminal record and pays the storage deposit to
// the caller. The escrow must already be empty.
func (action *Action) GameClean(clean *types.RPSClean) (*types.Receipt, error) {
	game, err := action.readGame(clean.GameID)
	if err != nil {
		return nil, err
	}
	if !game.Terminal() {
		return nil, types.ErrNotSettled
	}
	if action.coinsAccount.LoadAccount(EscrowAddress(game.GameID)).Balance != 0 {
		return nil, types.ErrNotSettled
	}

	// pay out the deposit actually escrowed at creation, the configured
	// rent may have changed since
	receipt := &types.Receipt{Ty: types.ExecOk}
	rent, err := action.coinsAccount.Transfer(StoragePoolAddress(), action.fromaddr, game.Rent)
	if err != nil {
		return nil, err
	}
	mergeReceipt(receipt, rent)

	if settled, ok := game.State.(types.Settled); ok {
		event := buildGameResult(game, settled)
		receipt.Logs = append(receipt.Logs, &types.ReceiptLog{Ty: types.TyLogGameResult, Log: types.Encode(event)})
	}

	prevStatus := game.Status()
	prevIndex := game.Index
	action.db.Set(Key(game.GameID), nil)
	receipt.KV = append(receipt.KV, &types.KeyValue{Key: Key(game.GameID), Value: nil})

	r := types.ReceiptGame{
		GameID:     game.GameID,
		Status:     types.StatusNone,
		PrevStatus: prevStatus,
		Addr:       action.fromaddr,
		CreateAddr: game.CreateAddr,
		JoinAddr:   game.JoinAddr,
		Index:      action.GetIndex(),
		PrevIndex:  prevIndex,
	}
	receipt.Logs = append(receipt.Logs, &types.ReceiptLog{Ty: types.TyLogGameClean, Log: types.Encode(&r)})
	return receipt, nil
}

func buildGameResult(game *types.Game, state types.Settled) *types.ReadableGameEvent {
	event := &types.ReadableGameEvent{
		EventName:    "game_result",
		EventVersion: 1,
		Player1:      state.Player1.Identity(),
		Player2:      state.Player2.Identity(),
		Result:       state.Result,
		Value:        game.Value,
		Fee:          game.Fee,
		Public:       state.Config.Public(),
	}
	if p1, ok := state.Player1.(types.Revealed); ok {
		c := p1.Choice
		event.Choice1 = &c
	}
	if p2, ok := state.Player2.(types.Revealed); ok {
		c := p2.Choice
		event.Choice2 = &c
	}
	return event
}

// PlayerInfoCreate registers the statistics record a player needs
// before wagering.
func (action *Action) PlayerInfoCreate(req *types.RPSPlayerInfoReq) (*types.Receipt, error) {
	symbol := req.Symbol
	if symbol == "" {
		symbol = action.coinsAccount.Symbol()
	}
	if symbol != action.coinsAccount.Symbol() {
		return nil, types.ErrInvalidParam
	}
	if _, err := action.readPlayerInfo(action.fromaddr); err == nil {
		return nil, types.ErrPlayerInfoExists
	}
	info := &types.PlayerInfo{Owner: action.fromaddr, Symbol: symbol}
	receipt := &types.Receipt{Ty: types.ExecOk}
	receipt.KV = append(receipt.KV, action.savePlayerInfo(info))
	receipt.Logs = append(receipt.Logs, &types.ReceiptLog{
		Ty:  types.TyLogPlayerInfoCreate,
		Log: types.Encode(info),
	})
	return receipt, nil
}
