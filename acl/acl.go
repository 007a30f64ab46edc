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

// Package acl provides an in-memory permission evaluator implementing the
// actor's oracle interface. Permissions are plain (entity, resource, action)
// grants with an any-entity wildcard; there is no policy language.
package acl

import (
	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"

	"github.com/stewardproject/go-steward/common"
	"github.com/stewardproject/go-steward/core/actor"
)

// lookupCacheSize bounds the memoized permission decisions.
const lookupCacheSize = 1024

// AnyEntity, when granted a permission, makes every entity pass the check.
var AnyEntity = common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")

type permissionKey struct {
	resource common.Address
	action   common.Hash
}

// ACL is the grant store. It is not safe for concurrent mutation; the
// execution model is single-threaded per invocation.
type ACL struct {
	grants map[permissionKey]mapset.Set
	cache  *lru.Cache // lookup key -> bool
}

var _ actor.PermissionOracle = (*ACL)(nil)

// New creates an empty permission store.
func New() *ACL {
	cache, err := lru.New(lookupCacheSize)
	if err != nil {
		panic(err) // only fails on non-positive size
	}
	return &ACL{
		grants: make(map[permissionKey]mapset.Set),
		cache:  cache,
	}
}

// Grant allows entity to perform action on resource. Granting to AnyEntity
// opens the permission to everyone.
func (a *ACL) Grant(entity, resource common.Address, action common.Hash) {
	key := permissionKey{resource: resource, action: action}
	set, ok := a.grants[key]
	if !ok {
		set = mapset.NewSet()
		a.grants[key] = set
	}
	set.Add(entity)
	a.cache.Purge()
}

// Revoke withdraws a previous grant. Revoking a grant that was never made is
// a no-op.
func (a *ACL) Revoke(entity, resource common.Address, action common.Hash) {
	key := permissionKey{resource: resource, action: action}
	if set, ok := a.grants[key]; ok {
		set.Remove(entity)
	}
	a.cache.Purge()
}

// HasPermission reports whether entity may perform action on resource. The
// context argument is accepted for interface compatibility and ignored:
// parameterized permissions are not part of this evaluator.
func (a *ACL) HasPermission(entity, resource common.Address, action common.Hash, context []byte) bool {
	cacheKey := lookupKey(entity, resource, action)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.(bool)
	}
	allowed := false
	if set, ok := a.grants[permissionKey{resource: resource, action: action}]; ok {
		allowed = set.Contains(entity) || set.Contains(AnyEntity)
	}
	a.cache.Add(cacheKey, allowed)
	return allowed
}

func lookupKey(entity, resource common.Address, action common.Hash) string {
	key := make([]byte, 0, 2*common.AddressLength+common.HashLength)
	key = append(key, entity.Bytes()...)
	key = append(key, resource.Bytes()...)
	key = append(key, action.Bytes()...)
	return string(key)
}
