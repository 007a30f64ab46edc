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

package actor_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stewardproject/go-steward/acl"
	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/actor"
	"github.com/stewardproject/go-steward/core/script"
	"github.com/stewardproject/go-steward/core/state"
	"github.com/stewardproject/go-steward/core/vm"
	"github.com/stewardproject/go-steward/stewarddb"
)

var (
	actorAddr   = common.HexToAddress("0xa0")
	authorized  = common.HexToAddress("0xa1")
	stranger    = common.HexToAddress("0xa2")
	counterAddr = common.HexToAddress("0xc0")
	failerAddr  = common.HexToAddress("0xc1")
	sinkAddr    = common.HexToAddress("0xee")

	countSlot = common.HexToHash("0x01")
	lastSlot  = common.HexToHash("0x02")
)

// counterContract counts its invocations and remembers the last payload.
// The payload must be a 32 byte value.
type counterContract struct{}

func (counterContract) Run(env *vm.Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	if len(input) != common.HashLength {
		return nil, errors.New("counter: payload must be 32 bytes")
	}
	count := env.StateDB().GetState(self, countSlot).Big()
	env.StateDB().SetState(self, countSlot, common.BigToHash(new(big.Int).Add(count, common.Big1)))
	env.StateDB().SetState(self, lastSlot, common.BytesToHash(input))
	return input, nil
}

// failingContract always reverts.
type failingContract struct{}

func (failingContract) Run(env *vm.Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	return nil, errors.New("always fails")
}

type testHarness struct {
	statedb *state.StateDB
	env     *vm.Env
	perms   *acl.ACL
	proxy   *actor.Actor
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	statedb := state.New(stewarddb.NewMemoryDB())
	env := vm.NewEnv(statedb)
	env.Register(counterAddr, counterContract{})
	env.Register(failerAddr, failingContract{})

	perms := acl.New()
	proxy := actor.New(actorAddr, env, perms)
	require.NoError(t, proxy.Initialize())
	return &testHarness{statedb: statedb, env: env, perms: perms, proxy: proxy}
}

func (h *testHarness) grantExecute(entity common.Address) {
	h.perms.Grant(entity, actorAddr, actor.ExecuteRole)
}

func (h *testHarness) grantRunScript(entity common.Address) {
	h.perms.Grant(entity, actorAddr, actor.RunScriptRole)
}

func setCounterPayload(v int64) []byte {
	return common.BigToHash(big.NewInt(v)).Bytes()
}

func (h *testHarness) counter(t *testing.T) *big.Int {
	t.Helper()
	return h.statedb.GetState(counterAddr, lastSlot).Big()
}

func (h *testHarness) invocations(t *testing.T) int64 {
	t.Helper()
	return h.statedb.GetState(counterAddr, countSlot).Big().Int64()
}

func TestInitializeExactlyOnce(t *testing.T) {
	statedb := state.New(stewarddb.NewMemoryDB())
	env := vm.NewEnv(statedb)
	proxy := actor.New(actorAddr, env, acl.New())

	_, err := proxy.Execute(authorized, counterAddr, nil, nil)
	require.ErrorIs(t, err, actor.ErrNotInitialized)
	_, err = proxy.Forward(authorized, script.Encode(nil))
	require.ErrorIs(t, err, actor.ErrNotInitialized)
	require.ErrorIs(t, proxy.Deposit(authorized, actor.NativeAsset, uint256.NewInt(1), uint256.NewInt(1)), actor.ErrNotInitialized)
	require.False(t, proxy.CanForward(authorized, nil))

	require.NoError(t, proxy.Initialize())
	require.ErrorIs(t, proxy.Initialize(), actor.ErrAlreadyInitialized)
}

func TestExecuteUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.statedb.SetBalance(actorAddr, big.NewInt(10))

	_, err := h.proxy.Execute(stranger, counterAddr, nil, setCounterPayload(1102))
	require.ErrorIs(t, err, actor.ErrNotAuthorized)
	require.Zero(t, h.invocations(t))
	require.Equal(t, int64(10), h.proxy.Balance().Int64())
	require.Empty(t, h.statedb.Logs())
}

func TestExecuteInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	h.grantExecute(authorized)
	h.statedb.SetBalance(actorAddr, big.NewInt(3))

	_, err := h.proxy.Execute(authorized, counterAddr, uint256.NewInt(4), setCounterPayload(1))
	require.ErrorIs(t, err, actor.ErrInsufficientFunds)
	// No call was attempted.
	require.Zero(t, h.invocations(t))
	require.Equal(t, int64(3), h.proxy.Balance().Int64())
}

func TestExecuteTargetWithoutCode(t *testing.T) {
	h := newHarness(t)
	h.grantExecute(authorized)

	_, err := h.proxy.Execute(authorized, sinkAddr, nil, []byte{0x01})
	require.ErrorIs(t, err, vm.ErrNoCode)
	require.Empty(t, h.statedb.Logs())
}

func TestExecuteSetsCounter(t *testing.T) {
	h := newHarness(t)
	h.grantExecute(authorized)

	ret, err := h.proxy.Execute(authorized, counterAddr, nil, setCounterPayload(1102))
	require.NoError(t, err)
	require.Equal(t, setCounterPayload(1102), ret)
	require.Equal(t, int64(1102), h.counter(t).Int64())
	require.Equal(t, int64(1), h.invocations(t))

	logs := h.statedb.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, actor.ExecuteEventID, logs[0].Topics[0])
	require.Equal(t, authorized.Hash(), logs[0].Topics[1])
	require.Equal(t, counterAddr.Hash(), logs[0].Topics[2])
}

func TestExecuteMovesValue(t *testing.T) {
	h := newHarness(t)
	h.grantExecute(authorized)
	h.statedb.SetBalance(authorized, big.NewInt(3))
	require.NoError(t, h.proxy.Deposit(authorized, actor.NativeAsset, uint256.NewInt(3), uint256.NewInt(3)))
	require.Equal(t, int64(3), h.proxy.Balance().Int64())

	_, err := h.proxy.Execute(authorized, sinkAddr, uint256.NewInt(3), nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), h.proxy.Balance().Int64())
	require.Equal(t, int64(3), h.statedb.GetBalance(sinkAddr).Int64())

	// Requesting more than the remaining balance is a funding failure.
	_, err = h.proxy.Execute(authorized, sinkAddr, uint256.NewInt(4), nil)
	require.ErrorIs(t, err, actor.ErrInsufficientFunds)
	require.Equal(t, int64(3), h.statedb.GetBalance(sinkAddr).Int64())
}

func TestExecuteRevertAtomicity(t *testing.T) {
	h := newHarness(t)
	h.grantExecute(authorized)
	h.statedb.SetBalance(actorAddr, big.NewInt(5))

	_, err := h.proxy.Execute(authorized, failerAddr, uint256.NewInt(5), []byte{0x01})
	require.Error(t, err)
	require.Equal(t, int64(5), h.proxy.Balance().Int64())
	require.Equal(t, int64(0), h.statedb.GetBalance(failerAddr).Int64())
	require.Empty(t, h.statedb.Logs())
}

func TestCanForwardIsPure(t *testing.T) {
	h := newHarness(t)
	garbage := []byte{0xde, 0xad, 0xbe, 0xef}

	// Result only depends on the capability, not on script content, and the
	// query is repeatable.
	for i := 0; i < 3; i++ {
		require.False(t, h.proxy.CanForward(authorized, garbage))
	}
	h.grantRunScript(authorized)
	for i := 0; i < 3; i++ {
		require.True(t, h.proxy.CanForward(authorized, garbage))
		require.True(t, h.proxy.CanForward(authorized, nil))
	}
	require.False(t, h.proxy.CanForward(stranger, garbage))
	require.Empty(t, h.statedb.Logs())
	require.Zero(t, h.invocations(t))
}

func TestForwardUnauthorized(t *testing.T) {
	h := newHarness(t)
	blob := script.Encode([]script.Call{{To: counterAddr, Data: setCounterPayload(1)}})

	_, err := h.proxy.Forward(stranger, blob)
	require.ErrorIs(t, err, actor.ErrNotAuthorized)
	require.Zero(t, h.invocations(t))
}

func TestForwardMalformedScript(t *testing.T) {
	h := newHarness(t)
	h.grantRunScript(authorized)

	_, err := h.proxy.Forward(authorized, []byte{0x00, 0x00})
	require.ErrorIs(t, err, script.ErrScriptTooShort)
}

func TestForwardRunsItemsInOrder(t *testing.T) {
	h := newHarness(t)
	h.grantRunScript(authorized)

	blob := script.Encode([]script.Call{
		{To: counterAddr, Data: setCounterPayload(7)},
		{To: counterAddr, Data: setCounterPayload(9)},
	})
	returns, err := h.proxy.Forward(authorized, blob)
	require.NoError(t, err)
	require.Len(t, returns, 2)
	require.Equal(t, setCounterPayload(7), returns[0])
	require.Equal(t, setCounterPayload(9), returns[1])

	// Exactly two invocations, in order: the last payload wins.
	require.Equal(t, int64(2), h.invocations(t))
	require.Equal(t, int64(9), h.counter(t).Int64())

	// One script-completed event for the whole batch.
	logs := h.statedb.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, actor.ScriptResultEventID, logs[0].Topics[0])
	require.Equal(t, authorized.Hash(), logs[0].Topics[1])
}

func TestForwardRollsBackWholeBatch(t *testing.T) {
	h := newHarness(t)
	h.grantRunScript(authorized)

	blob := script.Encode([]script.Call{
		{To: counterAddr, Data: setCounterPayload(7)},
		{To: failerAddr, Data: []byte{0x01}},
	})
	_, err := h.proxy.Forward(authorized, blob)

	var itemErr *actor.ScriptItemError
	require.ErrorAs(t, err, &itemErr)
	require.Equal(t, 1, itemErr.Index)

	// The first item's effects are rolled back with the batch.
	require.Zero(t, h.invocations(t))
	require.Equal(t, common.Hash{}, h.statedb.GetState(counterAddr, lastSlot))
	require.Empty(t, h.statedb.Logs())
}

func TestDeposit(t *testing.T) {
	h := newHarness(t)
	h.statedb.SetBalance(authorized, big.NewInt(10))

	require.NoError(t, h.proxy.Deposit(authorized, actor.NativeAsset, uint256.NewInt(3), uint256.NewInt(3)))
	require.Equal(t, int64(3), h.proxy.Balance().Int64())
	require.Equal(t, int64(7), h.statedb.GetBalance(authorized).Int64())

	logs := h.statedb.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, actor.DepositEventID, logs[0].Topics[0])
}

func TestDepositRejectsMismatch(t *testing.T) {
	h := newHarness(t)
	h.statedb.SetBalance(authorized, big.NewInt(10))

	otherAsset := common.HexToAddress("0x1234")
	require.ErrorIs(t, h.proxy.Deposit(authorized, otherAsset, uint256.NewInt(3), uint256.NewInt(3)), actor.ErrAssetMismatch)
	require.ErrorIs(t, h.proxy.Deposit(authorized, actor.NativeAsset, uint256.NewInt(3), uint256.NewInt(2)), actor.ErrAssetMismatch)
	require.ErrorIs(t, h.proxy.Deposit(authorized, actor.NativeAsset, uint256.NewInt(0), uint256.NewInt(0)), actor.ErrZeroDeposit)
	require.ErrorIs(t, h.proxy.Deposit(authorized, actor.NativeAsset, uint256.NewInt(100), uint256.NewInt(100)), vm.ErrInsufficientBalance)

	require.Equal(t, int64(0), h.proxy.Balance().Int64())
	require.Equal(t, int64(10), h.statedb.GetBalance(authorized).Int64())
	require.Empty(t, h.statedb.Logs())
}
