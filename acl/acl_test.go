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

package acl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/actor"
)

var (
	alice    = common.HexToAddress("0x01")
	bob      = common.HexToAddress("0x02")
	resource = common.HexToAddress("0xa0")
)

func TestGrantAndRevoke(t *testing.T) {
	perms := New()
	require.False(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))

	perms.Grant(alice, resource, actor.ExecuteRole)
	require.True(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))
	require.False(t, perms.HasPermission(bob, resource, actor.ExecuteRole, nil))
	// A grant is scoped to one action on one resource.
	require.False(t, perms.HasPermission(alice, resource, actor.RunScriptRole, nil))
	require.False(t, perms.HasPermission(alice, bob, actor.ExecuteRole, nil))

	perms.Revoke(alice, resource, actor.ExecuteRole)
	require.False(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))
}

func TestAnyEntityWildcard(t *testing.T) {
	perms := New()
	perms.Grant(AnyEntity, resource, actor.RunScriptRole)
	require.True(t, perms.HasPermission(alice, resource, actor.RunScriptRole, nil))
	require.True(t, perms.HasPermission(bob, resource, actor.RunScriptRole, nil))
}

func TestCacheInvalidatedOnMutation(t *testing.T) {
	perms := New()

	// Prime the cache with a negative decision, then grant.
	require.False(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))
	perms.Grant(alice, resource, actor.ExecuteRole)
	require.True(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))

	// And the other way around.
	perms.Revoke(alice, resource, actor.ExecuteRole)
	require.False(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))
}

func TestContextIsIgnored(t *testing.T) {
	perms := New()
	perms.Grant(alice, resource, actor.ExecuteRole)
	require.True(t, perms.HasPermission(alice, resource, actor.ExecuteRole, []byte("anything")))
	require.True(t, perms.HasPermission(alice, resource, actor.ExecuteRole, nil))
}
