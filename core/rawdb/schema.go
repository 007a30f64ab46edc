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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"github.com/stewardproject/go-steward/common"
)

// The fields below define the low level database schema prefixing.
var (
	// accountPrefix + address -> account record (JSON)
	accountPrefix = []byte("a")

	// storagePrefix + address + slot key -> slot value
	storagePrefix = []byte("s")

	// codePrefix + address -> contract code
	codePrefix = []byte("c")
)

// accountKey = accountPrefix + address
func accountKey(addr common.Address) []byte {
	return append(accountPrefix, addr.Bytes()...)
}

// storageKey = storagePrefix + address + slot key
func storageKey(addr common.Address, key common.Hash) []byte {
	return append(append(storagePrefix, addr.Bytes()...), key.Bytes()...)
}

// codeKey = codePrefix + address
func codeKey(addr common.Address) []byte {
	return append(codePrefix, addr.Bytes()...)
}
