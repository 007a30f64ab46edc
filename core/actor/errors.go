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

package actor

import (
	"errors"
	"fmt"
)

// List of actor failure modes. Every one of them leaves the actor's state
// exactly as it was before the failing entry point was invoked.
var (
	ErrNotInitialized     = errors.New("actor not initialized")
	ErrAlreadyInitialized = errors.New("actor already initialized")
	ErrNotAuthorized      = errors.New("caller lacks required capability")
	ErrInsufficientFunds  = errors.New("requested value exceeds actor balance")
	ErrAssetMismatch      = errors.New("deposit asset or amount mismatch")
	ErrZeroDeposit        = errors.New("deposit amount is zero")
)

// ScriptItemError reports which script item aborted a batch. The whole batch
// is rolled back when any item fails.
type ScriptItemError struct {
	Index int
	Err   error
}

func (e *ScriptItemError) Error() string {
	return fmt.Sprintf("script item %d failed: %v", e.Index, e.Err)
}

func (e *ScriptItemError) Unwrap() error {
	return e.Err
}
