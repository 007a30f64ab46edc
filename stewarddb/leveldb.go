// Copyright 2018 The go-steward Authors
// This file is part of the go-steward library.
//
// The go-steward library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-steward library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-steward library. If not, see <http://www.gnu.org/licenses/>.

package stewarddb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelDB is a persistent key-value store backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens (or creates) a leveldb database at the given file path.
func NewLevelDB(file string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(file, nil)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// NewMemoryDB creates an ephemeral leveldb instance on top of in-memory
// storage. Used by tests and the CLI demo.
func NewMemoryDB() *LevelDB {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err) // memory storage cannot fail to open
	}
	return &LevelDB{db: db}
}

// Has retrieves if a key is present in the key-value store.
func (d *LevelDB) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

// Get retrieves the given key if it's present in the key-value store.
func (d *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put inserts the given value into the key-value store.
func (d *LevelDB) Put(key []byte, value []byte) error {
	return d.db.Put(key, value, nil)
}

// Delete removes the key from the key-value store.
func (d *LevelDB) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

// Close flushes any pending data to disk and closes the store.
func (d *LevelDB) Close() error {
	return d.db.Close()
}
