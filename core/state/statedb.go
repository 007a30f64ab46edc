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

// Package state provides a journaled caching layer atop the steward
// key-value store. Every mutation is recorded as an undo entry, so any range
// of changes since a numbered snapshot can be rolled back as a unit.
package state

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/rawdb"
	"github.com/stewardproject/go-steward/core/types"
	"github.com/stewardproject/go-steward/stewarddb"
)

type revision struct {
	id           int
	journalIndex int
}

// StateDB structs within the steward protocol are used to store anything
// within the account model. StateDBs take care of caching and storing
// account records, storage slots and contract code, and track every
// modification in a journal so it can be reverted on demand.
type StateDB struct {
	db stewarddb.Database

	// This map holds 'live' objects, which will get modified while processing
	// a state transition.
	stateObjects      map[common.Address]*stateObject
	stateObjectsDirty map[common.Address]struct{}

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int

	logs    []*types.Log
	logSize uint
}

// New creates a new state from a given backing database.
func New(db stewarddb.Database) *StateDB {
	return &StateDB{
		db:                db,
		stateObjects:      make(map[common.Address]*stateObject),
		stateObjectsDirty: make(map[common.Address]struct{}),
		journal:           newJournal(),
	}
}

// AddLog records an event log. The append is journaled, so logs recorded by a
// later-reverted execution are discarded together with the state changes.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{})

	log.Index = s.logSize
	s.logs = append(s.logs, log)
	s.logSize++
}

// Logs returns the event logs recorded so far.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

// Exist reports whether the given account address exists in the state.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty returns whether the state object is either non-existent or empty
// (zero balance and no code).
func (s *StateDB) Empty(addr common.Address) bool {
	so := s.getStateObject(addr)
	return so == nil || so.empty()
}

// GetBalance retrieves the balance from the given address or 0 if object not found
func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Balance()
	}
	return common.Big0
}

// GetCode retrieves the contract code from the given address, if any.
func (s *StateDB) GetCode(addr common.Address) []byte {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Code()
	}
	return nil
}

// GetCodeSize returns the size of the contract code at the given address. A
// non-zero size is what makes an address executable.
func (s *StateDB) GetCodeSize(addr common.Address) int {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.CodeSize()
	}
	return 0
}

// GetState retrieves a value from the given account's storage.
func (s *StateDB) GetState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetState(hash)
	}
	return common.Hash{}
}

// GetCommittedState retrieves a value from the given account's committed storage.
func (s *StateDB) GetCommittedState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetCommittedState(hash)
	}
	return common.Hash{}
}

/*
 * SETTERS
 */

// AddBalance adds amount to the account associated with addr.
func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.AddBalance(amount)
	}
}

// SubBalance subtracts amount from the account associated with addr.
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SubBalance(amount)
	}
}

// SetBalance sets the balance of the account associated with addr.
func (s *StateDB) SetBalance(addr common.Address, amount *big.Int) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetBalance(amount)
	}
}

// SetCode installs contract code at the given address.
func (s *StateDB) SetCode(addr common.Address, codeHash common.Hash, code []byte) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetCode(codeHash, code)
	}
}

// SetState updates a value in the given account's storage.
func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetState(key, value)
	}
}

// getStateObject retrieves a state object given by the address, returning nil
// if the object is not found in the live cache or the database.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	// Prefer live objects
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	// Load the object from the database
	data := rawdb.ReadAccount(s.db, addr)
	if data == nil {
		return nil
	}
	obj := newObject(s, addr, *data)
	s.setStateObject(obj)
	return obj
}

func (s *StateDB) setStateObject(object *stateObject) {
	s.stateObjects[object.Address()] = object
}

// GetOrNewStateObject retrieves a state object or creates a new state object if nil.
func (s *StateDB) GetOrNewStateObject(addr common.Address) *stateObject {
	stateObject := s.getStateObject(addr)
	if stateObject == nil {
		stateObject = s.createObject(addr)
	}
	return stateObject
}

// createObject creates a new state object.
func (s *StateDB) createObject(addr common.Address) *stateObject {
	obj := newObject(s, addr, types.Account{})
	s.journal.append(createObjectChange{account: &addr})
	s.setStateObject(obj)
	return obj
}

// CreateAccount explicitly creates a state object, overwriting any live
// object cached for the address.
func (s *StateDB) CreateAccount(addr common.Address) {
	s.createObject(addr)
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Finalise marks the journal's dirty accounts for commit and resets the
// journal. Once finalised, the changes made so far can no longer be reverted.
func (s *StateDB) Finalise() {
	for addr := range s.journal.dirties {
		if _, exist := s.stateObjects[addr]; !exist {
			continue
		}
		s.stateObjectsDirty[addr] = struct{}{}
	}
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
	s.nextRevisionId = 0
}

// Commit finalises the state and writes all dirty objects through the rawdb
// accessors to the backing database.
func (s *StateDB) Commit() error {
	s.Finalise()
	for addr := range s.stateObjectsDirty {
		if obj := s.stateObjects[addr]; obj != nil {
			obj.commit()
		}
		delete(s.stateObjectsDirty, addr)
	}
	return nil
}
