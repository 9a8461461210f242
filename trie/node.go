// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trie

import (
	"github.com/bitmark-inc/dbutils/digest"
	"github.com/bitmark-inc/dbutils/fault"
	"github.com/bitmark-inc/dbutils/util"
)

// Tag - first byte of a packed node
type Tag byte

// node tags
const (
	LeafTag      Tag = 0x00
	BranchTag    Tag = 0x01
	ExtensionTag Tag = 0x02
)

// BranchFanOut - maximum number of children of a branch
const BranchFanOut = 256

// limit on key/value/affix sizes
const maximumFieldSize = 1 << 30

// Node - generic node interface
type Node interface {
	Pack() []byte
	Children() []digest.Digest
}

// Leaf - inline key and value, terminates a path
type Leaf struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// Pointer - one occupied slot of a branch
type Pointer struct {
	Index byte          `json:"index"`
	Child digest.Digest `json:"child"`
}

// Branch - up to BranchFanOut children
type Branch struct {
	Pointers []Pointer `json:"pointers"`
}

// Extension - shared path segment leading to a single child
type Extension struct {
	Affix []byte        `json:"affix"`
	Child digest.Digest `json:"child"`
}

// Unpack - turn a byte slice into a node
//
// the whole buffer must be consumed
func Unpack(data []byte) (Node, error) {
	if 0 == len(data) {
		return nil, fault.ErrRecordLength
	}

	tag := Tag(data[0])
	data = data[1:]

	var node Node
	var err error
	switch tag {
	case LeafTag:
		node, data, err = unpackLeaf(data)
	case BranchTag:
		node, data, err = unpackBranch(data)
	case ExtensionTag:
		node, data, err = unpackExtension(data)
	default:
		return nil, fault.ErrTrieNodeTag
	}
	if nil != err {
		return nil, err
	}
	if 0 != len(data) {
		return nil, fault.ErrRecordLength
	}
	return node, nil
}

// UnpackVerified - unpack a stored record and check that it is stored
// under its own digest
func UnpackVerified(key []byte, data []byte) (Node, error) {
	var expected digest.Digest
	if err := digest.FromBytes(&expected, key); nil != err {
		return nil, err
	}
	if expected != digest.NewDigest(data) {
		return nil, fault.ErrNodeDigestMismatch
	}
	return Unpack(data)
}

// Digest - key for a node
func Digest(node Node) digest.Digest {
	return digest.NewDigest(node.Pack())
}

func unpackField(data []byte) ([]byte, []byte, error) {
	length, n := util.FromVarint64(data)
	if 0 == n {
		return nil, nil, fault.ErrVarintTruncated
	}
	data = data[n:]
	if length > maximumFieldSize || uint64(len(data)) < length {
		return nil, nil, fault.ErrRecordLength
	}
	field := make([]byte, length)
	copy(field, data)
	return field, data[length:], nil
}

func packField(buffer []byte, field []byte) []byte {
	buffer = util.AppendVarint64(buffer, uint64(len(field)))
	return append(buffer, field...)
}

func unpackLeaf(data []byte) (Node, []byte, error) {
	key, data, err := unpackField(data)
	if nil != err {
		return nil, nil, err
	}
	value, data, err := unpackField(data)
	if nil != err {
		return nil, nil, err
	}
	return &Leaf{Key: key, Value: value}, data, nil
}

func unpackBranch(data []byte) (Node, []byte, error) {
	count, n := util.ClippedVarint64(data, 1, BranchFanOut)
	if 0 == n {
		return nil, nil, fault.ErrTrieBranchEmpty
	}
	data = data[n:]

	if len(data) < count*(1+digest.Length) {
		return nil, nil, fault.ErrRecordLength
	}

	branch := &Branch{
		Pointers: make([]Pointer, count),
	}
	for i := range branch.Pointers {
		p := &branch.Pointers[i]
		p.Index = data[0]
		if i > 0 && branch.Pointers[i-1].Index >= p.Index {
			return nil, nil, fault.ErrRecordOrder
		}
		copy(p.Child[:], data[1:1+digest.Length])
		data = data[1+digest.Length:]
	}
	return branch, data, nil
}

func unpackExtension(data []byte) (Node, []byte, error) {
	affix, data, err := unpackField(data)
	if nil != err {
		return nil, nil, err
	}
	if 0 == len(affix) {
		return nil, nil, fault.ErrTrieAffixEmpty
	}
	if len(data) < digest.Length {
		return nil, nil, fault.ErrRecordLength
	}
	extension := &Extension{Affix: affix}
	copy(extension.Child[:], data)
	return extension, data[digest.Length:], nil
}

// Pack - leaf to bytes
func (leaf *Leaf) Pack() []byte {
	buffer := []byte{byte(LeafTag)}
	buffer = packField(buffer, leaf.Key)
	return packField(buffer, leaf.Value)
}

// Children - a leaf has none
func (leaf *Leaf) Children() []digest.Digest {
	return nil
}

// Pack - branch to bytes
func (branch *Branch) Pack() []byte {
	buffer := []byte{byte(BranchTag)}
	buffer = util.AppendVarint64(buffer, uint64(len(branch.Pointers)))
	for _, p := range branch.Pointers {
		buffer = append(buffer, p.Index)
		buffer = append(buffer, p.Child[:]...)
	}
	return buffer
}

// Children - child digests in index order
func (branch *Branch) Children() []digest.Digest {
	children := make([]digest.Digest, len(branch.Pointers))
	for i, p := range branch.Pointers {
		children[i] = p.Child
	}
	return children
}

// Pack - extension to bytes
func (extension *Extension) Pack() []byte {
	buffer := []byte{byte(ExtensionTag)}
	buffer = packField(buffer, extension.Affix)
	return append(buffer, extension.Child[:]...)
}

// Children - the single child
func (extension *Extension) Children() []digest.Digest {
	return []digest.Digest{extension.Child}
}
