// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"encoding/binary"

	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
)

// PackedHeader - use fix size array to simplify validation
type PackedHeader [totalHeaderSize]byte

// currently supported header version
const (
	HeaderVersion = 1
)

// byte sizes for various fields
const (
	VersionSize       = 2             // header version number
	ParentHashSize    = digest.Length // hash of the parent block
	StateRootHashSize = digest.Length // root of the global state trie after this block
	BodyHashSize      = digest.Length // key of the block body
	HeightSize        = 8             // this block's height
	EraIDSize         = 8             // era containing this block
	TimestampSize     = 8             // milliseconds since 1970-01-01T00:00 UTC
)

// offsets of the fields
const (
	versionOffset       = 0
	parentHashOffset    = versionOffset + VersionSize
	stateRootHashOffset = parentHashOffset + ParentHashSize
	bodyHashOffset      = stateRootHashOffset + StateRootHashSize
	heightOffset        = bodyHashOffset + BodyHashSize
	eraIDOffset         = heightOffset + HeightSize
	timestampOffset     = eraIDOffset + EraIDSize

	// to set size of header array
	totalHeaderSize = timestampOffset + TimestampSize
)

// HeaderSize - total bytes in a packed header
const HeaderSize = totalHeaderSize

// Header - the unpacked header structure
type Header struct {
	Version       uint16        `json:"version"`
	ParentHash    digest.Digest `json:"parentHash"`
	StateRootHash digest.Digest `json:"stateRootHash"`
	BodyHash      digest.Digest `json:"bodyHash"`
	Height        uint64        `json:"height,string"`
	EraID         uint64        `json:"eraId,string"`
	Timestamp     uint64        `json:"timestamp,string"`
}

// UnpackHeader - turn a byte slice into a header
func UnpackHeader(data []byte) (*Header, error) {
	if totalHeaderSize != len(data) {
		return nil, fault.ErrRecordLength
	}
	packed := PackedHeader{}
	copy(packed[:], data)
	return packed.Unpack()
}

// BodyHashOf - the body hash field of a packed header, only the
// length is checked
func BodyHashOf(data []byte) (digest.Digest, error) {
	bodyHash := digest.Digest{}
	if totalHeaderSize != len(data) {
		return bodyHash, fault.ErrRecordLength
	}
	copy(bodyHash[:], data[bodyHashOffset:heightOffset])
	return bodyHash, nil
}

// Unpack - turn a packed header into a record
func (record PackedHeader) Unpack() (*Header, error) {

	header := &Header{}

	header.Version = binary.LittleEndian.Uint16(record[versionOffset:])
	if HeaderVersion != header.Version {
		return nil, fault.ErrHeaderVersion
	}

	copy(header.ParentHash[:], record[parentHashOffset:stateRootHashOffset])
	copy(header.StateRootHash[:], record[stateRootHashOffset:bodyHashOffset])
	copy(header.BodyHash[:], record[bodyHashOffset:heightOffset])

	header.Height = binary.LittleEndian.Uint64(record[heightOffset:])
	header.EraID = binary.LittleEndian.Uint64(record[eraIDOffset:])
	header.Timestamp = binary.LittleEndian.Uint64(record[timestampOffset:])

	return header, nil
}

// Digest - the block hash for a packed header
func (record PackedHeader) Digest() digest.Digest {
	return digest.NewDigest(record[:])
}

// Pack - turn a record into an array of bytes
func (header *Header) Pack() PackedHeader {
	buffer := PackedHeader{}

	binary.LittleEndian.PutUint16(buffer[versionOffset:], header.Version)

	copy(buffer[parentHashOffset:], header.ParentHash[:])
	copy(buffer[stateRootHashOffset:], header.StateRootHash[:])
	copy(buffer[bodyHashOffset:], header.BodyHash[:])

	binary.LittleEndian.PutUint64(buffer[heightOffset:], header.Height)
	binary.LittleEndian.PutUint64(buffer[eraIDOffset:], header.EraID)
	binary.LittleEndian.PutUint64(buffer[timestampOffset:], header.Timestamp)

	return buffer
}
