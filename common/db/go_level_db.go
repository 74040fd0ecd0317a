package db

import (
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

func init() {
	registerDBCreator("leveldb", func(name string, dir string, cache int32) (DB, error) {
		return NewGoLevelDB(name, dir, cache)
	})
}

// GoLevelDB is the default persistent backend.
type GoLevelDB struct {
	db *leveldb.DB
}

// NewGoLevelDB opens (creating if needed) a leveldb store under dir.
func NewGoLevelDB(name string, dir string, cache int32) (*GoLevelDB, error) {
	path := filepath.Join(dir, name+".db")
	if cache <= 0 {
		cache = 64
	}
	handles := cache
	if handles > 16 {
		handles = 16
	}
	opts := &opt.Options{
		OpenFilesCacheCapacity: int(handles),
		BlockCacheCapacity:     int(cache) / 2 * opt.MiB,
		WriteBuffer:            int(cache) / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(path, opts)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &GoLevelDB{db: db}, nil
}

func (l *GoLevelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFoundInDb
		}
		return nil, err
	}
	return v, nil
}

func (l *GoLevelDB) Set(key []byte, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *GoLevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *GoLevelDB) List(prefix, key []byte, count, direction int32) ([][]byte, error) {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	var values [][]byte
	appendValue := func() bool {
		v := it.Value()
		out := make([]byte, len(v))
		copy(out, v)
		values = append(values, out)
		return count <= 0 || int32(len(values)) < count
	}

	if direction == 1 {
		ok := it.First()
		if len(key) > 0 {
			ok = it.Seek(key)
			// resume strictly after key
			if ok && string(it.Key()) == string(key) {
				ok = it.Next()
			}
		}
		for ; ok; ok = it.Next() {
			if !appendValue() {
				break
			}
		}
	} else {
		ok := it.Last()
		if len(key) > 0 {
			ok = it.Seek(key)
			if ok {
				ok = it.Prev()
			} else {
				ok = it.Last()
			}
		}
		for ; ok; ok = it.Prev() {
			if !appendValue() {
				break
			}
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotFoundInDb
	}
	return values, nil
}

func (l *GoLevelDB) NewBatch(sync bool) Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch), wop: &opt.WriteOptions{Sync: sync}}
}

func (l *GoLevelDB) Close() {
	l.db.Close()
}

type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	wop   *opt.WriteOptions
}

func (b *levelBatch) Set(key, value []byte) {
	b.batch.Put(key, value)
}

func (b *levelBatch) Delete(key []byte) {
	b.batch.Delete(key)
}

func (b *levelBatch) Write() error {
	err := b.db.Write(b.batch, b.wop)
	b.batch.Reset()
	return err
}

func (b *levelBatch) Reset() {
	b.batch.Reset()
}
