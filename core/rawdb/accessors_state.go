// Copyright 2020 The go-steward Authors
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

package rawdb

import (
	"encoding/json"

	logging "github.com/ipfs/go-log/v2"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/types"
	"github.com/stewardproject/go-steward/stewarddb"
)

var log = logging.Logger("rawdb")

// ReadAccount retrieves the account record of the provided address, or nil if
// no record exists.
func ReadAccount(db stewarddb.KeyValueReader, addr common.Address) *types.Account {
	data, _ := db.Get(accountKey(addr))
	if len(data) == 0 {
		return nil
	}
	var acct types.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		log.Errorw("Invalid account record", "address", addr, "err", err)
		return nil
	}
	return &acct
}

// WriteAccount stores the account record of the provided address.
func WriteAccount(db stewarddb.KeyValueWriter, addr common.Address, acct *types.Account) {
	data, err := json.Marshal(acct)
	if err != nil {
		log.Panicw("Failed to encode account record", "address", addr, "err", err)
	}
	if err := db.Put(accountKey(addr), data); err != nil {
		log.Panicw("Failed to store account record", "address", addr, "err", err)
	}
}

// DeleteAccount removes the account record of the provided address.
func DeleteAccount(db stewarddb.KeyValueWriter, addr common.Address) {
	if err := db.Delete(accountKey(addr)); err != nil {
		log.Panicw("Failed to delete account record", "address", addr, "err", err)
	}
}

// ReadStorage retrieves the value of the provided storage slot, or the zero
// hash if the slot was never written.
func ReadStorage(db stewarddb.KeyValueReader, addr common.Address, key common.Hash) common.Hash {
	data, _ := db.Get(storageKey(addr, key))
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteStorage stores the value of the provided storage slot. A zero value
// deletes the slot instead.
func WriteStorage(db stewarddb.KeyValueWriter, addr common.Address, key, value common.Hash) {
	if value == (common.Hash{}) {
		if err := db.Delete(storageKey(addr, key)); err != nil {
			log.Panicw("Failed to delete storage slot", "address", addr, "key", key, "err", err)
		}
		return
	}
	if err := db.Put(storageKey(addr, key), value.Bytes()); err != nil {
		log.Panicw("Failed to store storage slot", "address", addr, "key", key, "err", err)
	}
}

// ReadCode retrieves the contract code of the provided address.
func ReadCode(db stewarddb.KeyValueReader, addr common.Address) []byte {
	data, _ := db.Get(codeKey(addr))
	return data
}

// WriteCode writes the provided contract code to database.
func WriteCode(db stewarddb.KeyValueWriter, addr common.Address, code []byte) {
	if err := db.Put(codeKey(addr), code); err != nil {
		log.Panicw("Failed to store contract code", "address", addr, "err", err)
	}
}
