// Copyright 2021 The go-steward Authors
// This file is part of go-steward.
//
// go-steward is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-steward is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-steward. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/vm"
	"github.com/stewardproject/go-steward/crypto"
)

// counterSlot is the storage slot holding the demo counter value.
var counterSlot = crypto.Keccak256Hash([]byte("counter"))

// counterContract is the demo target used by the run command: its payload is
// a 32 byte big-endian value stored into the counter slot, and it returns the
// previous value.
type counterContract struct{}

func (counterContract) Run(env *vm.Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	if len(input) != common.HashLength {
		return nil, errors.New("counter: payload must be 32 bytes")
	}
	prev := env.StateDB().GetState(self, counterSlot)
	env.StateDB().SetState(self, counterSlot, common.BytesToHash(input))
	return prev.Bytes(), nil
}
