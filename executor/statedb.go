package executor

import (
	dbm "github.com/rpsarena/rpsarena/common/db"
	"github.com/rpsarena/rpsarena/types"
)

// StateDB overlays a backing store with a committed cache and an open
// transaction cache. Each action runs inside Begin/Commit/Rollback, so
// a failing transition leaves no partial writes behind. A nil value in
// the cache is a deletion marker.
type StateDB struct {
	db      dbm.DB
	cache   map[string][]byte
	txcache map[string][]byte
	intx    bool
}

// NewStateDB wraps a backing store.
func NewStateDB(db dbm.DB) *StateDB {
	return &StateDB{
		db:    db,
		cache: make(map[string][]byte),
	}
}

// Begin opens a transaction scope.
func (s *StateDB) Begin() {
	s.intx = true
	s.txcache = nil
}

// Rollback discards everything written since Begin.
func (s *StateDB) Rollback() {
	s.txcache = nil
	s.intx = false
}

// Commit folds the transaction cache into the committed cache.
func (s *StateDB) Commit() {
	for k, v := range s.txcache {
		s.cache[k] = v
	}
	s.txcache = nil
	s.intx = false
}

// Get reads through tx cache, committed cache, then the backing store.
func (s *StateDB) Get(key []byte) ([]byte, error) {
	skey := string(key)
	if s.intx && s.txcache != nil {
		if v, ok := s.txcache[skey]; ok {
			return valueOrNotFound(v)
		}
	}
	if v, ok := s.cache[skey]; ok {
		return valueOrNotFound(v)
	}
	v, err := s.db.Get(key)
	if err != nil {
		return nil, types.ErrNotFound
	}
	s.cache[skey] = v
	return v, nil
}

// Set stages a write. Inside a transaction the write stays in the tx
// cache until Commit.
func (s *StateDB) Set(key []byte, value []byte) error {
	skey := string(key)
	if s.intx {
		if s.txcache == nil {
			s.txcache = make(map[string][]byte)
		}
		s.txcache[skey] = value
	} else {
		s.cache[skey] = value
	}
	return nil
}

// Delete stages a deletion.
func (s *StateDB) Delete(key []byte) error {
	return s.Set(key, nil)
}

// Flush writes the committed cache to the backing store in one batch
// and resets the overlay.
func (s *StateDB) Flush() error {
	batch := s.db.NewBatch(true)
	for k, v := range s.cache {
		if v == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Set([]byte(k), v)
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.cache = make(map[string][]byte)
	return nil
}

func valueOrNotFound(v []byte) ([]byte, error) {
	if v == nil {
		return nil, types.ErrNotFound
	}
	return v, nil
}
