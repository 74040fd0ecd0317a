package types

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/rpsarena/rpsarena/common"
)

// Encode serializes a record for the state store. Records are plain
// structs built in this package, a marshal failure is a programming
// error, not an input error.
func Encode(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Decode unmarshals a stored record.
func Decode(data []byte, v interface{}) error {
	return errors.Wrap(json.Unmarshal(data, v), "decode record")
}

// player envelope tags
const (
	playerTyCommitted = "committed"
	playerTyRevealed  = "revealed"
)

type playerEnvelope struct {
	Ty         string `json:"ty"`
	Addr       string `json:"addr"`
	Commitment string `json:"commitment,omitempty"`
	Choice     *RPS   `json:"choice,omitempty"`
}

func marshalPlayer(p PlayerState) *playerEnvelope {
	switch v := p.(type) {
	case Committed:
		return &playerEnvelope{
			Ty:         playerTyCommitted,
			Addr:       v.Addr,
			Commitment: common.ToHex(v.Commitment[:]),
		}
	case Revealed:
		c := v.Choice
		return &playerEnvelope{Ty: playerTyRevealed, Addr: v.Addr, Choice: &c}
	}
	return nil
}

func unmarshalPlayer(e *playerEnvelope) (PlayerState, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Ty {
	case playerTyCommitted:
		raw, err := common.FromHex(e.Commitment)
		if err != nil {
			return nil, errors.Wrap(err, "decode commitment")
		}
		if len(raw) != 32 {
			return nil, ErrCommitmentSize
		}
		var c Committed
		c.Addr = e.Addr
		copy(c.Commitment[:], raw)
		return c, nil
	case playerTyRevealed:
		if e.Choice == nil || !e.Choice.Valid() {
			return nil, ErrInvalidParam
		}
		return Revealed{Addr: e.Addr, Choice: *e.Choice}, nil
	}
	return nil, errors.Errorf("unknown player state %q", e.Ty)
}

type stateEnvelope struct {
	Status     int32           `json:"status"`
	EntryProof string          `json:"entryProof,omitempty"`
	Player1    *playerEnvelope `json:"player1,omitempty"`
	Player2    *playerEnvelope `json:"player2,omitempty"`
	Result     *Winner         `json:"result,omitempty"`
	ExpirySlot uint64          `json:"expirySlot,omitempty"`
}

func marshalConfig(c GameConfig) string {
	if c.EntryProof == nil {
		return ""
	}
	return common.ToHex(c.EntryProof[:])
}

func unmarshalConfig(s string) (GameConfig, error) {
	if s == "" {
		return GameConfig{}, nil
	}
	raw, err := common.FromHex(s)
	if err != nil {
		return GameConfig{}, errors.Wrap(err, "decode entry proof")
	}
	if len(raw) != 32 {
		return GameConfig{}, ErrInvalidParam
	}
	var p [32]byte
	copy(p[:], raw)
	return GameConfig{EntryProof: &p}, nil
}

func marshalState(s GameState) *stateEnvelope {
	e := &stateEnvelope{Status: s.Status()}
	switch v := s.(type) {
	case Initialized:
	case AcceptingChallenge:
		e.EntryProof = marshalConfig(v.Config)
		e.Player1 = marshalPlayer(v.Player1)
		e.ExpirySlot = v.ExpirySlot
	case AcceptingReveal:
		e.EntryProof = marshalConfig(v.Config)
		e.Player1 = marshalPlayer(v.Player1)
		e.Player2 = marshalPlayer(v.Player2)
		e.ExpirySlot = v.ExpirySlot
	case AcceptingSettle:
		e.EntryProof = marshalConfig(v.Config)
		e.Player1 = marshalPlayer(v.Player1)
		e.Player2 = marshalPlayer(v.Player2)
		r := v.Result
		e.Result = &r
	case Settled:
		e.EntryProof = marshalConfig(v.Config)
		e.Player1 = marshalPlayer(v.Player1)
		e.Player2 = marshalPlayer(v.Player2)
		r := v.Result
		e.Result = &r
	case Expired:
		e.EntryProof = marshalConfig(v.Config)
		e.Player1 = marshalPlayer(v.Player1)
	}
	return e
}

func unmarshalState(e *stateEnvelope) (GameState, error) {
	if e == nil {
		return Initialized{}, nil
	}
	cfg, err := unmarshalConfig(e.EntryProof)
	if err != nil {
		return nil, err
	}
	p1, err := unmarshalPlayer(e.Player1)
	if err != nil {
		return nil, err
	}
	p2, err := unmarshalPlayer(e.Player2)
	if err != nil {
		return nil, err
	}
	switch e.Status {
	case StatusNone:
		return Initialized{}, nil
	case StatusAcceptingChallenge:
		if p1 == nil {
			return nil, ErrInvalidParam
		}
		return AcceptingChallenge{Config: cfg, Player1: p1, ExpirySlot: e.ExpirySlot}, nil
	case StatusAcceptingReveal:
		if p1 == nil || p2 == nil {
			return nil, ErrInvalidParam
		}
		return AcceptingReveal{Config: cfg, Player1: p1, Player2: p2, ExpirySlot: e.ExpirySlot}, nil
	case StatusAcceptingSettle:
		if p1 == nil || p2 == nil || e.Result == nil {
			return nil, ErrInvalidParam
		}
		return AcceptingSettle{Config: cfg, Player1: p1, Player2: p2, Result: *e.Result}, nil
	case StatusSettled:
		if p1 == nil || p2 == nil || e.Result == nil {
			return nil, ErrInvalidParam
		}
		return Settled{Config: cfg, Player1: p1, Player2: p2, Result: *e.Result}, nil
	case StatusExpired:
		if p1 == nil {
			return nil, ErrInvalidParam
		}
		return Expired{Config: cfg, Player1: p1}, nil
	}
	return nil, errors.Errorf("unknown game status %d", e.Status)
}

type gameEnvelope struct {
	GameID     string         `json:"gameId"`
	Seed       uint64         `json:"seed"`
	Value      uint64         `json:"value"`
	Fee        uint64         `json:"fee"`
	Rent       uint64         `json:"rent"`
	Symbol     string         `json:"symbol"`
	CreateAddr string         `json:"createAddr"`
	JoinAddr   string         `json:"joinAddr,omitempty"`
	CreateSlot uint64         `json:"createSlot"`
	UpdateSlot uint64         `json:"updateSlot"`
	Index      int64          `json:"index"`
	PrevIndex  int64          `json:"prevIndex"`
	State      *stateEnvelope `json:"state"`
}

// MarshalJSON flattens the state variant into a tagged envelope so the
// stored form stays stable across refactors of the Go types.
func (g *Game) MarshalJSON() ([]byte, error) {
	e := gameEnvelope{
		GameID:     g.GameID,
		Seed:       g.Seed,
		Value:      g.Value,
		Fee:        g.Fee,
		Rent:       g.Rent,
		Symbol:     g.Symbol,
		CreateAddr: g.CreateAddr,
		JoinAddr:   g.JoinAddr,
		CreateSlot: g.CreateSlot,
		UpdateSlot: g.UpdateSlot,
		Index:      g.Index,
		PrevIndex:  g.PrevIndex,
	}
	if g.State == nil {
		g.State = Initialized{}
	}
	e.State = marshalState(g.State)
	return json.Marshal(&e)
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var e gameEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	st, err := unmarshalState(e.State)
	if err != nil {
		return err
	}
	g.GameID = e.GameID
	g.Seed = e.Seed
	g.Value = e.Value
	g.Fee = e.Fee
	g.Rent = e.Rent
	g.Symbol = e.Symbol
	g.CreateAddr = e.CreateAddr
	g.JoinAddr = e.JoinAddr
	g.CreateSlot = e.CreateSlot
	g.UpdateSlot = e.UpdateSlot
	g.Index = e.Index
	g.PrevIndex = e.PrevIndex
	g.State = st
	return nil
}
