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

package vm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/state"
	"github.com/stewardproject/go-steward/stewarddb"
)

var (
	sender   = common.HexToAddress("0x01")
	plain    = common.HexToAddress("0x02")
	deployed = common.HexToAddress("0x03")

	storeSlot = common.HexToHash("0xff")
)

// storeContract writes its input into a fixed slot and echoes it back.
type storeContract struct{}

func (storeContract) Run(env *Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	env.StateDB().SetState(self, storeSlot, common.BytesToHash(input))
	return input, nil
}

// failContract mutates state and then fails, to exercise rollback.
type failContract struct{}

func (failContract) Run(env *Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	env.StateDB().SetState(self, storeSlot, common.HexToHash("0x01"))
	return []byte("reason"), errors.New("contract failure")
}

// bouncerContract calls the address packed in its input with empty payload.
type bouncerContract struct{}

func (bouncerContract) Run(env *Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	return env.Call(self, common.BytesToAddress(input), nil, value)
}

// infiniteContract re-enters itself until the depth limit trips.
type infiniteContract struct{}

func (infiniteContract) Run(env *Env, caller, self common.Address, input []byte, value *uint256.Int) ([]byte, error) {
	return env.Call(self, self, input, nil)
}

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	statedb := state.New(stewarddb.NewMemoryDB())
	statedb.SetBalance(sender, big.NewInt(1000))
	return NewEnv(statedb)
}

func TestCallPlainTransfer(t *testing.T) {
	env := newTestEnv(t)
	ret, err := env.Call(sender, plain, nil, uint256.NewInt(30))
	require.NoError(t, err)
	require.Nil(t, ret)
	require.Equal(t, int64(970), env.StateDB().GetBalance(sender).Int64())
	require.Equal(t, int64(30), env.StateDB().GetBalance(plain).Int64())
}

func TestCallNoCode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Call(sender, plain, []byte{0x01}, uint256.NewInt(5))
	require.ErrorIs(t, err, ErrNoCode)
	// The transfer must have been rolled back with the failure.
	require.Equal(t, int64(1000), env.StateDB().GetBalance(sender).Int64())
	require.Equal(t, int64(0), env.StateDB().GetBalance(plain).Int64())
}

func TestCallInsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Call(sender, plain, nil, uint256.NewInt(1001))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, int64(1000), env.StateDB().GetBalance(sender).Int64())
}

func TestCallInvokesContract(t *testing.T) {
	env := newTestEnv(t)
	env.Register(deployed, storeContract{})
	require.NotZero(t, env.StateDB().GetCodeSize(deployed))

	input := []byte{0xaa, 0xbb}
	ret, err := env.Call(sender, deployed, input, uint256.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, input, ret)
	require.Equal(t, common.BytesToHash(input), env.StateDB().GetState(deployed, storeSlot))
	require.Equal(t, int64(7), env.StateDB().GetBalance(deployed).Int64())
}

func TestCallRevertsStateOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.Register(deployed, failContract{})

	ret, err := env.Call(sender, deployed, []byte{0x01}, uint256.NewInt(25))
	require.Error(t, err)
	// Return data produced before the failure is still surfaced.
	require.Equal(t, []byte("reason"), ret)
	// Transfer and storage write are rolled back as a unit.
	require.Equal(t, int64(1000), env.StateDB().GetBalance(sender).Int64())
	require.Equal(t, int64(0), env.StateDB().GetBalance(deployed).Int64())
	require.Equal(t, common.Hash{}, env.StateDB().GetState(deployed, storeSlot))
}

func TestCallNested(t *testing.T) {
	env := newTestEnv(t)
	env.Register(deployed, bouncerContract{})
	env.StateDB().SetBalance(deployed, big.NewInt(50))

	// sender -> bouncer (value 10) -> plain (value 10)
	_, err := env.Call(sender, deployed, plain.Bytes(), uint256.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, int64(990), env.StateDB().GetBalance(sender).Int64())
	require.Equal(t, int64(50), env.StateDB().GetBalance(deployed).Int64())
	require.Equal(t, int64(10), env.StateDB().GetBalance(plain).Int64())
}

func TestCallDepthLimit(t *testing.T) {
	env := newTestEnv(t)
	env.Register(deployed, infiniteContract{})

	_, err := env.Call(sender, deployed, []byte{0x01}, nil)
	require.ErrorIs(t, err, ErrDepth)
	require.Zero(t, env.Depth())
}
