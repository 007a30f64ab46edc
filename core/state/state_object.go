// Copyright 2014 The go-steward Authors
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

package state

import (
	"math/big"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/rawdb"
	"github.com/stewardproject/go-steward/core/types"
)

// stateObject represents a steward account which is being modified.
//
// The usage pattern is as follows:
// First you need to obtain a state object.
// Account values can be accessed and modified through the object.
// Finally, call Commit on the owning StateDB to write the modifications to
// the database.
type stateObject struct {
	address common.Address
	db      *StateDB
	data    types.Account

	code []byte // contract code, loaded on demand

	// Storage cache: originStorage holds committed slot values, dirtyStorage
	// the values modified in the current state transition.
	originStorage map[common.Hash]common.Hash
	dirtyStorage  map[common.Hash]common.Hash

	dirtyCode bool // true if the code was updated
}

// newObject creates a state object.
func newObject(db *StateDB, address common.Address, data types.Account) *stateObject {
	if data.Balance == nil {
		data.Balance = new(big.Int)
	}
	return &stateObject{
		db:            db,
		address:       address,
		data:          data,
		originStorage: make(map[common.Hash]common.Hash),
		dirtyStorage:  make(map[common.Hash]common.Hash),
	}
}

// empty returns whether the account is considered empty.
func (s *stateObject) empty() bool {
	return s.data.Balance.Sign() == 0 && len(s.data.CodeHash) == 0
}

// Address returns the address of the account.
func (s *stateObject) Address() common.Address {
	return s.address
}

// Balance returns the account balance.
func (s *stateObject) Balance() *big.Int {
	return s.data.Balance
}

// AddBalance adds amount to s's balance.
// It is used to add funds to the destination account of a transfer.
func (s *stateObject) AddBalance(amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	s.SetBalance(new(big.Int).Add(s.Balance(), amount))
}

// SubBalance removes amount from s's balance.
// It is used to remove funds from the origin account of a transfer.
func (s *stateObject) SubBalance(amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	s.SetBalance(new(big.Int).Sub(s.Balance(), amount))
}

func (s *stateObject) SetBalance(amount *big.Int) {
	s.db.journal.append(balanceChange{
		account: &s.address,
		prev:    new(big.Int).Set(s.Balance()),
	})
	s.setBalance(amount)
}

func (s *stateObject) setBalance(amount *big.Int) {
	s.data.Balance = amount
}

// GetState retrieves a value from the account storage.
func (s *stateObject) GetState(key common.Hash) common.Hash {
	// If we have a dirty value for this slot, return it
	if value, dirty := s.dirtyStorage[key]; dirty {
		return value
	}
	return s.GetCommittedState(key)
}

// GetCommittedState retrieves a value from the committed account storage.
func (s *stateObject) GetCommittedState(key common.Hash) common.Hash {
	if value, cached := s.originStorage[key]; cached {
		return value
	}
	value := rawdb.ReadStorage(s.db.db, s.address, key)
	s.originStorage[key] = value
	return value
}

// SetState updates a value in account storage.
func (s *stateObject) SetState(key, value common.Hash) {
	// If the new value is the same as old, don't set
	prev := s.GetState(key)
	if prev == value {
		return
	}
	// New value is different, update and journal the change
	s.db.journal.append(storageChange{
		account:  &s.address,
		key:      key,
		prevalue: prev,
	})
	s.setState(key, value)
}

func (s *stateObject) setState(key, value common.Hash) {
	s.dirtyStorage[key] = value
}

// Code returns the contract code associated with this object, if any.
func (s *stateObject) Code() []byte {
	if s.code != nil {
		return s.code
	}
	if len(s.data.CodeHash) == 0 {
		return nil
	}
	s.code = rawdb.ReadCode(s.db.db, s.address)
	return s.code
}

// CodeSize returns the size of the contract code associated with this object.
func (s *stateObject) CodeSize() int {
	return len(s.Code())
}

func (s *stateObject) SetCode(codeHash common.Hash, code []byte) {
	prevcode := s.Code()
	s.db.journal.append(codeChange{
		account:  &s.address,
		prevhash: s.data.CodeHash,
		prevcode: prevcode,
	})
	s.setCode(codeHash, code)
}

func (s *stateObject) setCode(codeHash common.Hash, code []byte) {
	s.code = code
	if codeHash == (common.Hash{}) {
		s.data.CodeHash = nil
	} else {
		s.data.CodeHash = codeHash.Bytes()
	}
	s.dirtyCode = true
}

// commit writes the dirty parts of the object through the rawdb accessors.
func (s *stateObject) commit() {
	for key, value := range s.dirtyStorage {
		if s.originStorage[key] == value {
			continue
		}
		s.originStorage[key] = value
		rawdb.WriteStorage(s.db.db, s.address, key, value)
	}
	s.dirtyStorage = make(map[common.Hash]common.Hash)

	if s.dirtyCode {
		rawdb.WriteCode(s.db.db, s.address, s.code)
		s.dirtyCode = false
	}
	rawdb.WriteAccount(s.db.db, s.address, &s.data)
}
