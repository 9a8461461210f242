// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"encoding/binary"
)

// Varint64MaximumBytes - maximum possible number of bytes in Varint64
const Varint64MaximumBytes = binary.MaxVarintLen64

// AppendVarint64 - append the unsigned LEB128 form of value to buffer
//
// byte n:  ext | 7 bits of value, least significant group first
func AppendVarint64(buffer []byte, value uint64) []byte {
	var b [Varint64MaximumBytes]byte
	n := binary.PutUvarint(b[:], value)
	return append(buffer, b[:n]...)
}

// ToVarint64 - convert a 64 bit unsigned integer to Varint64
func ToVarint64(value uint64) []byte {
	return AppendVarint64(make([]byte, 0, Varint64MaximumBytes), value)
}

// FromVarint64 - convert an array of up to Varint64MaximumBytes to a uint64
//
// also return the number of bytes used as second value
// returns 0, 0 if varint64 buffer is truncated or overflows
func FromVarint64(buffer []byte) (uint64, int) {
	value, count := binary.Uvarint(buffer)
	if count <= 0 {
		return 0, 0
	}
	return value, count
}

// ClippedVarint64 - return a positive clipped value as an int
// any value outside the range minimum..maximum is an error
func ClippedVarint64(buffer []byte, minimum int, maximum int) (int, int) {
	if minimum < 0 || maximum < 0 || minimum >= maximum {
		return 0, 0
	}

	value, count := FromVarint64(buffer)
	if 0 == count {
		return 0, 0
	}
	if value > uint64(maximum) || int(value) < minimum {
		return 0, 0
	}
	return int(value), count
}
