package db

import (
	"bytes"
	"sort"
	"sync"
)

func init() {
	registerDBCreator("memdb", func(name string, dir string, cache int32) (DB, error) {
		return NewGoMemDB(), nil
	})
}

// GoMemDB is an in-memory backend for tests and tooling.
type GoMemDB struct {
	mu sync.RWMutex
	db map[string][]byte
}

// NewGoMemDB creates an empty in-memory database.
func NewGoMemDB() *GoMemDB {
	return &GoMemDB{db: make(map[string][]byte)}
}

func (m *GoMemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.db[string(key)]
	if !ok {
		return nil, ErrNotFoundInDb
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *GoMemDB) Set(key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.db[string(key)] = v
	return nil
}

func (m *GoMemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.db, string(key))
	return nil
}

func (m *GoMemDB) List(prefix, key []byte, count, direction int32) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.db))
	for k := range m.db {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if direction == 0 {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	var values [][]byte
	for _, k := range keys {
		if len(key) > 0 {
			if direction == 1 && k <= string(key) {
				continue
			}
			if direction == 0 && k >= string(key) {
				continue
			}
		}
		v := m.db[k]
		out := make([]byte, len(v))
		copy(out, v)
		values = append(values, out)
		if count > 0 && int32(len(values)) >= count {
			break
		}
	}
	if len(values) == 0 {
		return nil, ErrNotFoundInDb
	}
	return values, nil
}

func (m *GoMemDB) NewBatch(sync bool) Batch {
	return &memBatch{db: m}
}

func (m *GoMemDB) Close() {}

type memOp struct {
	key    []byte
	value  []byte
	delete bool
}

type memBatch struct {
	db  *GoMemDB
	ops []memOp
}

func (b *memBatch) Set(key, value []byte) {
	b.ops = append(b.ops, memOp{key: append([]byte{}, key...), value: append([]byte{}, value...)})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, memOp{key: append([]byte{}, key...), delete: true})
}

func (b *memBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.db, string(op.key))
		} else {
			b.db.db[string(op.key)] = op.value
		}
	}
	b.ops = nil
	return nil
}

func (b *memBatch) Reset() {
	b.ops = nil
}
