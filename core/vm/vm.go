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

// Package vm provides the execution environment that dispatches calls to
// contracts installed at addresses and makes every call revert-atomic.
package vm

import (
	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log/v2"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/state"
	"github.com/stewardproject/go-steward/crypto"
)

var log = logging.Logger("vm")

// CallCreateDepth is the maximum call depth. A chain of reentrant calls
// deeper than this fails with ErrDepth.
const CallCreateDepth = 1024

// Contract is the behavior installed at an address. Run may read and write
// the environment's state, and may re-enter the environment through Call;
// any state it touches is rolled back when it returns an error.
type Contract interface {
	Run(env *Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error)
}

// Env is the execution environment. It resolves addresses to contract
// implementations and provides the revert-atomic call primitive used by both
// direct dispatch and script execution.
//
// The Env should never be reused across independent state databases.
type Env struct {
	state     *state.StateDB
	contracts map[common.Address]Contract
	depth     int // current call stack depth
}

// NewEnv returns a new execution environment on top of the given state.
func NewEnv(statedb *state.StateDB) *Env {
	return &Env{
		state:     statedb,
		contracts: make(map[common.Address]Contract),
	}
}

// StateDB returns the state the environment operates on.
func (env *Env) StateDB() *state.StateDB {
	return env.state
}

// Depth returns the current call stack depth.
func (env *Env) Depth() int {
	return env.depth
}

// Register installs a contract at the given address and marks the account as
// holding code, so the address becomes executable.
func (env *Env) Register(addr common.Address, contract Contract) {
	code := addr.Bytes()
	env.state.SetCode(addr, crypto.Keccak256Hash(code), code)
	env.contracts[addr] = contract
}

// Resolve returns the contract installed at the given address, or nil when
// the address holds no executable code.
func (env *Env) Resolve(addr common.Address) Contract {
	return env.contracts[addr]
}

// CanTransfer checks whether there are enough funds in the address' account
// to make a transfer.
func (env *Env) CanTransfer(addr common.Address, amount *uint256.Int) bool {
	return env.state.GetBalance(addr).Cmp(amount.ToBig()) >= 0
}

// Transfer subtracts amount from sender and adds amount to recipient.
func (env *Env) Transfer(sender, recipient common.Address, amount *uint256.Int) {
	value := amount.ToBig()
	env.state.SubBalance(sender, value)
	env.state.AddBalance(recipient, value)
}

// Call executes the contract at addr to with the given input as parameters,
// transferring value from the caller beforehand. The transfer happens before
// the contract body runs, so a reentrant call back into the environment
// observes the already-debited caller balance.
//
// Call is revert-atomic: when the contract returns an error, every state
// change made since entry, including the transfer and any logs, is rolled
// back, and the error is returned together with whatever return data the
// contract produced.
func (env *Env) Call(caller, to common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	if env.depth >= CallCreateDepth {
		return nil, ErrDepth
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if !env.CanTransfer(caller, value) {
		return nil, ErrInsufficientBalance
	}
	snapshot := env.state.Snapshot()
	env.Transfer(caller, to, value)

	contract := env.Resolve(to)
	if contract == nil {
		// Calling a plain account with a payload is a deterministic failure:
		// there is no code to execute. A bare value transfer is fine.
		if len(input) > 0 {
			env.state.RevertToSnapshot(snapshot)
			return nil, ErrNoCode
		}
		return nil, nil
	}
	env.depth++
	ret, err := contract.Run(env, caller, to, input, value)
	env.depth--
	if err != nil {
		log.Debugw("call reverted", "to", to, "depth", env.depth, "err", err)
		env.state.RevertToSnapshot(snapshot)
	}
	return ret, err
}
