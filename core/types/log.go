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

// Package types contains data types shared between the state and actor
// packages.
package types

import (
	"github.com/stewardproject/go-steward/common"
)

// Log represents an event recorded by an actor during execution. Logs live in
// the state journal until the enclosing operation completes, so logs recorded
// by a reverted call never become observable.
type Log struct {
	// address of the actor that recorded the event
	Address common.Address `json:"address"`
	// list of topics identifying the event and its indexed arguments
	Topics []common.Hash `json:"topics"`
	// supplementary data, opaque to the state layer
	Data []byte `json:"data"`

	// Index is the log's position in the enclosing top-level operation.
	// Derived, filled in by the state package.
	Index uint `json:"logIndex"`
}
