package db

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFoundInDb is returned on every miss, regardless of backend.
var ErrNotFoundInDb = errors.New("ErrNotFoundInDb")

// KV is the minimal read/write surface the executor state runs on.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key []byte, value []byte) error
}

// Lister walks entries under a prefix. key is the exclusive resume
// point, nil starts from the edge chosen by direction. direction 1 is
// ascending, 0 descending. Values come back in walk order.
type Lister interface {
	List(prefix, key []byte, count, direction int32) ([][]byte, error)
}

// KVDB is the localdb surface: keyed access plus prefix listing.
type KVDB interface {
	KV
	Lister
}

// Batch stages writes for an atomic flush.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write() error
	Reset()
}

// DB is a full storage backend.
type DB interface {
	KVDB
	Delete(key []byte) error
	NewBatch(sync bool) Batch
	Close()
}

type dbCreator func(name string, dir string, cache int32) (DB, error)

var dbCreators = map[string]dbCreator{}

func registerDBCreator(backend string, creator dbCreator) {
	if _, ok := dbCreators[backend]; ok {
		panic("duplicate db backend " + backend)
	}
	dbCreators[backend] = creator
}

// NewDB opens a named database with the given backend driver.
func NewDB(name string, backend string, dir string, cache int32) DB {
	creator, ok := dbCreators[backend]
	if !ok {
		panic(fmt.Sprintf("unknown db backend %q", backend))
	}
	d, err := creator(name, dir, cache)
	if err != nil {
		panic(fmt.Sprintf("open db %s: %v", name, err))
	}
	return d
}
