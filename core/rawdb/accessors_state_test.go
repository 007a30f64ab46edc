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
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/types"
	"github.com/stewardproject/go-steward/stewarddb"
)

func TestAccountRoundTrip(t *testing.T) {
	db := stewarddb.NewMemoryDB()
	addr := common.HexToAddress("0x0a")

	require.Nil(t, ReadAccount(db, addr))

	acct := &types.Account{Balance: big.NewInt(42)}
	WriteAccount(db, addr, acct)
	stored := ReadAccount(db, addr)
	require.NotNil(t, stored)
	require.Equal(t, int64(42), stored.Balance.Int64())

	DeleteAccount(db, addr)
	require.Nil(t, ReadAccount(db, addr))
}

func TestStorageRoundTrip(t *testing.T) {
	db := stewarddb.NewMemoryDB()
	addr := common.HexToAddress("0x0a")
	key := common.HexToHash("0x01")

	require.Equal(t, common.Hash{}, ReadStorage(db, addr, key))

	WriteStorage(db, addr, key, common.HexToHash("0x7b"))
	require.Equal(t, common.HexToHash("0x7b"), ReadStorage(db, addr, key))

	// Writing the zero hash deletes the slot.
	WriteStorage(db, addr, key, common.Hash{})
	require.Equal(t, common.Hash{}, ReadStorage(db, addr, key))
}

func TestCodeRoundTrip(t *testing.T) {
	db := stewarddb.NewMemoryDB()
	addr := common.HexToAddress("0x0a")

	require.Empty(t, ReadCode(db, addr))
	WriteCode(db, addr, []byte{0x60, 0x60})
	require.Equal(t, []byte{0x60, 0x60}, ReadCode(db, addr))
}
