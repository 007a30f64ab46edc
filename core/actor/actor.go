// Copyright 2021 The go-steward Authors
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

// Package actor implements the permissioned execution proxy: an account that
// holds funds and, on behalf of authorized callers, performs direct calls to
// arbitrary targets or runs call scripts as all-or-nothing batches.
package actor

import (
	"math/big"

	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/script"
	"github.com/stewardproject/go-steward/core/types"
	"github.com/stewardproject/go-steward/core/vm"
	"github.com/stewardproject/go-steward/crypto"
)

var log = logging.Logger("actor")

// Capability identifiers checked against the permission oracle. The actor
// only references them; it never owns or mutates authorization state.
var (
	// ExecuteRole gates direct call dispatch through Execute.
	ExecuteRole = crypto.Keccak256Hash([]byte("EXECUTE_ROLE"))

	// RunScriptRole gates batch execution through Forward.
	RunScriptRole = crypto.Keccak256Hash([]byte("RUN_SCRIPT_ROLE"))
)

// NativeAsset is the only asset kind Deposit accepts.
var NativeAsset = common.Address{}

// Event identifiers carried as the first topic of the actor's logs.
var (
	ExecuteEventID      = crypto.Keccak256Hash([]byte("Execute(address,address,uint256,bytes32)"))
	ScriptResultEventID = crypto.Keccak256Hash([]byte("ScriptResult(address,bytes32)"))
	DepositEventID      = crypto.Keccak256Hash([]byte("Deposit(address,address,uint256)"))
)

// PermissionOracle answers whether an entity may perform an action on a
// resource. It is consulted synchronously before any mutating operation and
// must be side-effect free from the actor's perspective.
type PermissionOracle interface {
	HasPermission(entity, resource common.Address, action common.Hash, context []byte) bool
}

// Actor is a permissioned execution proxy. Its balance lives in the
// environment's state; the struct itself only carries identity, collaborators
// and the initialization latch.
type Actor struct {
	address     common.Address
	env         *vm.Env
	oracle      PermissionOracle
	initialized bool
}

// New creates an actor at the given address. Initialize must be called
// exactly once before any other entry point is usable.
func New(address common.Address, env *vm.Env, oracle PermissionOracle) *Actor {
	return &Actor{
		address: address,
		env:     env,
		oracle:  oracle,
	}
}

// Address returns the actor's own identity.
func (a *Actor) Address() common.Address {
	return a.address
}

// Balance returns the funds currently held by the actor.
func (a *Actor) Balance() *big.Int {
	return a.env.StateDB().GetBalance(a.address)
}

// Initialize arms the actor. Calling it twice, or calling any other entry
// point before it, fails.
func (a *Actor) Initialize() error {
	if a.initialized {
		return ErrAlreadyInitialized
	}
	a.initialized = true
	return nil
}

// Execute performs a single call to target with the given value and payload
// on behalf of caller. The caller must hold ExecuteRole and the value must
// not exceed the actor's balance. The callee's return data is surfaced
// verbatim; on callee failure the whole operation is rolled back and the
// failure, with any return data the callee produced, propagates to the
// caller.
func (a *Actor) Execute(caller, target common.Address, value *uint256.Int, payload []byte) ([]byte, error) {
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	if !a.oracle.HasPermission(caller, a.address, ExecuteRole, payload) {
		return nil, ErrNotAuthorized
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if value.ToBig().Cmp(a.Balance()) > 0 {
		return nil, ErrInsufficientFunds
	}
	ret, err := a.env.Call(a.address, target, payload, value)
	if err != nil {
		log.Debugw("execute failed", "caller", caller, "target", target, "err", err)
		return ret, xerrors.Errorf("execute to %s: %w", target, err)
	}
	a.env.StateDB().AddLog(&types.Log{
		Address: a.address,
		Topics: []common.Hash{
			ExecuteEventID,
			caller.Hash(),
			target.Hash(),
			common.BigToHash(value.ToBig()),
		},
		Data: crypto.Keccak256(payload),
	})
	return ret, nil
}

// Deposit credits the actor with amount of the native asset. The call must
// be accompanied by exactly the declared amount; mismatched kinds or amounts
// are rejected before any state change.
func (a *Actor) Deposit(sender, asset common.Address, amount, sent *uint256.Int) error {
	if !a.initialized {
		return ErrNotInitialized
	}
	if asset != NativeAsset {
		return xerrors.Errorf("asset %s: %w", asset, ErrAssetMismatch)
	}
	if amount == nil || sent == nil || amount.Cmp(sent) != 0 {
		return ErrAssetMismatch
	}
	if amount.IsZero() {
		return ErrZeroDeposit
	}
	if !a.env.CanTransfer(sender, amount) {
		return vm.ErrInsufficientBalance
	}
	a.env.Transfer(sender, a.address, amount)
	a.env.StateDB().AddLog(&types.Log{
		Address: a.address,
		Topics: []common.Hash{
			DepositEventID,
			sender.Hash(),
			asset.Hash(),
		},
		Data: common.BigToHash(amount.ToBig()).Bytes(),
	})
	return nil
}

// CanForward is a pure authorization query: it reports whether sender holds
// RunScriptRole. It never decodes the script and has no side effects, so it
// is safe to call speculatively any number of times.
func (a *Actor) CanForward(sender common.Address, blob []byte) bool {
	if !a.initialized {
		return false
	}
	return a.oracle.HasPermission(sender, a.address, RunScriptRole, nil)
}

// Forward decodes blob into an ordered batch of calls and executes them in
// strict sequence with the actor's own authority and zero value. The batch is
// all-or-nothing: any item failure rolls back the effects of every prior item
// and surfaces the failing index. On success the per-item return data is
// collected in order and a single script-completed event is recorded.
func (a *Actor) Forward(caller common.Address, blob []byte) ([][]byte, error) {
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	// Re-check the capability even though callers are expected to probe
	// CanForward first.
	if !a.oracle.HasPermission(caller, a.address, RunScriptRole, nil) {
		return nil, ErrNotAuthorized
	}
	decoded, err := script.Decode(blob)
	if err != nil {
		return nil, xerrors.Errorf("forward: %w", err)
	}
	snapshot := a.env.StateDB().Snapshot()
	returns := make([][]byte, 0, len(decoded.Calls))
	for i, call := range decoded.Calls {
		ret, err := a.env.Call(a.address, call.To, call.Data, nil)
		if err != nil {
			log.Debugw("script aborted", "caller", caller, "item", i, "target", call.To, "err", err)
			a.env.StateDB().RevertToSnapshot(snapshot)
			return nil, &ScriptItemError{Index: i, Err: err}
		}
		returns = append(returns, ret)
	}
	a.env.StateDB().AddLog(&types.Log{
		Address: a.address,
		Topics: []common.Hash{
			ScriptResultEventID,
			caller.Hash(),
		},
		Data: crypto.Keccak256(blob),
	})
	return returns, nil
}
