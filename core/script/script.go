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

// Package script implements the call-script wire format: an ordered batch of
// execution requests packed into one opaque blob.
//
// A call script starts with a 4 byte big-endian spec identifier, followed by
// zero or more items. Each item is the target address (20 bytes), the payload
// length (4 bytes, big-endian) and the payload itself, so items can be parsed
// independently without a trailing terminator. Script items carry no value
// field; batched calls always move zero funds.
package script

import (
	"encoding/binary"
	"errors"

	"golang.org/x/xerrors"

	"github.com/stewardproject/go-steward/common"
)

// CallScriptID identifies the only spec currently understood by the decoder.
const CallScriptID uint32 = 1

const (
	idLength         = 4
	itemHeaderLength = common.AddressLength + 4
)

var (
	// ErrScriptTooShort is returned when the blob cannot hold a spec header.
	ErrScriptTooShort = errors.New("script blob shorter than spec header")

	// ErrUnknownScriptID is returned when the spec identifier is not a
	// supported script format.
	ErrUnknownScriptID = errors.New("unknown script spec identifier")

	// ErrItemTruncated is returned when the blob ends inside an item header.
	ErrItemTruncated = errors.New("truncated script item header")

	// ErrItemOverflow is returned when an item's declared payload length
	// exceeds the remaining blob.
	ErrItemOverflow = errors.New("script item length exceeds remaining blob")
)

// Call is a single execution request carried by a script: a target address
// and an opaque payload. Value is implicitly zero.
type Call struct {
	To   common.Address
	Data []byte
}

// Script is the decoded form of a call-script blob.
type Script struct {
	ID    uint32
	Calls []Call
}

// Encode packs the given calls into a call-script blob that Decode accepts.
func Encode(calls []Call) []byte {
	size := idLength
	for _, call := range calls {
		size += itemHeaderLength + len(call.Data)
	}
	blob := make([]byte, idLength, size)
	binary.BigEndian.PutUint32(blob, CallScriptID)
	for _, call := range calls {
		blob = append(blob, call.To.Bytes()...)
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(call.Data)))
		blob = append(blob, length[:]...)
		blob = append(blob, call.Data...)
	}
	return blob
}

// Decode parses a call-script blob into its ordered execution requests.
// Decoding is fully deterministic: any truncated or malformed input yields a
// typed error and no partial result.
func Decode(blob []byte) (*Script, error) {
	if len(blob) < idLength {
		return nil, ErrScriptTooShort
	}
	id := binary.BigEndian.Uint32(blob)
	if id != CallScriptID {
		return nil, xerrors.Errorf("spec %#x: %w", id, ErrUnknownScriptID)
	}
	script := &Script{ID: id}
	for offset := idLength; offset < len(blob); {
		if len(blob)-offset < itemHeaderLength {
			return nil, xerrors.Errorf("item %d at offset %d: %w", len(script.Calls), offset, ErrItemTruncated)
		}
		var to common.Address
		copy(to[:], blob[offset:offset+common.AddressLength])
		offset += common.AddressLength

		length := int(binary.BigEndian.Uint32(blob[offset:]))
		offset += 4
		if length > len(blob)-offset {
			return nil, xerrors.Errorf("item %d declares %d bytes, %d remain: %w",
				len(script.Calls), length, len(blob)-offset, ErrItemOverflow)
		}
		data := make([]byte, length)
		copy(data, blob[offset:offset+length])
		offset += length

		script.Calls = append(script.Calls, Call{To: to, Data: data})
	}
	return script, nil
}
