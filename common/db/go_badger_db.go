package db

import (
	"bytes"
	"path/filepath"

	"github.com/dgraph-io/badger"
)

func init() {
	registerDBCreator("gobadgerdb", func(name string, dir string, cache int32) (DB, error) {
		return NewGoBadgerDB(name, dir, cache)
	})
}

// GoBadgerDB is an alternative persistent backend.
type GoBadgerDB struct {
	db *badger.DB
}

// NewGoBadgerDB opens a badger store under dir.
func NewGoBadgerDB(name string, dir string, cache int32) (*GoBadgerDB, error) {
	path := filepath.Join(dir, name+".db")
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if cache > 0 && cache < 128 {
		opts.NumMemtables = 1
		opts.NumLevelZeroTables = 1
		opts.NumLevelZeroTablesStall = 2
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &GoBadgerDB{db: db}, nil
}

func (b *GoBadgerDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFoundInDb
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *GoBadgerDB) Set(key []byte, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *GoBadgerDB) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *GoBadgerDB) List(prefix, key []byte, count, direction int32) ([][]byte, error) {
	var values [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = direction == 0
		it := txn.NewIterator(opts)
		defer it.Close()

		if len(key) > 0 {
			it.Seek(key)
			if it.Valid() && bytes.Equal(it.Item().Key(), key) {
				it.Next()
			}
		} else if direction == 0 {
			// reverse iteration needs a seek past the prefix range
			seek := append(append([]byte{}, prefix...), 0xff)
			it.Seek(seek)
		} else {
			it.Rewind()
		}
		for ; it.ValidForPrefix(prefix); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, v)
			if count > 0 && int32(len(values)) >= count {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotFoundInDb
	}
	return values, nil
}

func (b *GoBadgerDB) NewBatch(sync bool) Batch {
	return &badgerBatch{db: b.db}
}

func (b *GoBadgerDB) Close() {
	b.db.Close()
}

type badgerOp struct {
	key    []byte
	value  []byte
	delete bool
}

type badgerBatch struct {
	db  *badger.DB
	ops []badgerOp
}

func (b *badgerBatch) Set(key, value []byte) {
	b.ops = append(b.ops, badgerOp{
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	})
}

func (b *badgerBatch) Delete(key []byte) {
	b.ops = append(b.ops, badgerOp{key: append([]byte{}, key...), delete: true})
}

func (b *badgerBatch) Write() error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if op.delete {
				if err := txn.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.ops = nil
	}
	return err
}

func (b *badgerBatch) Reset() {
	b.ops = nil
}
